package httpapi_test

import (
	"testing"

	httpapi "github.com/hperssn/workplay/internal/http"
	"github.com/hperssn/workplay/internal/storage"
)

func TestHubPublishReachesSubscriber(t *testing.T) {
	hub := httpapi.NewHub()

	events, cancel := hub.Subscribe("alice")
	defer cancel()

	hub.Publish("alice", httpapi.SessionEvent{
		Type:    httpapi.EventSessionCreated,
		Session: &storage.SessionRecord{ID: "abc"},
	})

	select {
	case ev := <-events:
		if ev.Type != httpapi.EventSessionCreated {
			t.Errorf("type = %s, want created", ev.Type)
		}
		if ev.Session == nil || ev.Session.ID != "abc" {
			t.Errorf("session = %+v, want id abc", ev.Session)
		}
	default:
		t.Fatal("no event delivered")
	}
}

func TestHubUsersIsolated(t *testing.T) {
	hub := httpapi.NewHub()

	events, cancel := hub.Subscribe("bob")
	defer cancel()

	hub.Publish("alice", httpapi.SessionEvent{Type: httpapi.EventSessionDeleted})

	select {
	case ev := <-events:
		t.Fatalf("bob received alice's event: %+v", ev)
	default:
	}
}

func TestHubCancelStopsDelivery(t *testing.T) {
	hub := httpapi.NewHub()

	events, cancel := hub.Subscribe("alice")
	cancel()

	hub.Publish("alice", httpapi.SessionEvent{Type: httpapi.EventSessionUpdated})

	select {
	case ev := <-events:
		t.Fatalf("cancelled subscriber received event: %+v", ev)
	default:
	}
}

func TestHubSlowSubscriberDropsEvents(t *testing.T) {
	hub := httpapi.NewHub()

	events, cancel := hub.Subscribe("alice")
	defer cancel()

	// Overfill the subscriber buffer; Publish must not block.
	for i := 0; i < 100; i++ {
		hub.Publish("alice", httpapi.SessionEvent{Type: httpapi.EventSessionUpdated})
	}

	received := 0
	for {
		select {
		case <-events:
			received++
			continue
		default:
		}
		break
	}

	if received == 0 || received >= 100 {
		t.Fatalf("received = %d, want some but not all of the burst", received)
	}
}

package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	httpapi "github.com/hperssn/workplay/internal/http"
	"github.com/hperssn/workplay/internal/storage"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(newRouter(storage.NewMemoryStore(), httpapi.NewHub()))
	t.Cleanup(srv.Close)

	return srv
}

func doTimer(t *testing.T, srv *httptest.Server, method string, body any) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req, err := http.NewRequest(method, srv.URL+"/api/timer", &buf)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Auth-User", "alice")

	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()

	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func validSessionBody() map[string]any {
	return map[string]any{
		"totalSeconds":         14400,
		"workSecondsRemaining": 7200,
		"playSecondsRemaining": 7200,
		"currentMode":          "work",
		"isRunning":            true,
	}
}

func TestGetTimerWithoutSession(t *testing.T) {
	srv := newTestServer(t)

	resp := doTimer(t, srv, http.MethodGet, nil)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}

func TestCreateTimer(t *testing.T) {
	srv := newTestServer(t)

	resp := doTimer(t, srv, http.MethodPost, validSessionBody())
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}

	created := decode[storage.SessionRecord](t, resp)
	if created.ID == "" {
		t.Error("created session has no id")
	}
	if created.CreatedAt.IsZero() || created.UpdatedAt.IsZero() {
		t.Error("created session has no timestamps")
	}
	if created.TotalSeconds != 14400 {
		t.Errorf("totalSeconds = %d, want 14400", created.TotalSeconds)
	}

	resp = doTimer(t, srv, http.MethodGet, nil)
	got := decode[storage.SessionRecord](t, resp)
	if got.ID != created.ID {
		t.Errorf("GET returned id %s, want %s", got.ID, created.ID)
	}
}

func TestCreateTimerReplacesPrior(t *testing.T) {
	srv := newTestServer(t)

	resp := doTimer(t, srv, http.MethodPost, validSessionBody())
	first := decode[storage.SessionRecord](t, resp)

	resp = doTimer(t, srv, http.MethodPost, validSessionBody())
	second := decode[storage.SessionRecord](t, resp)

	if second.ID == first.ID {
		t.Fatal("second create reused the prior session id")
	}

	resp = doTimer(t, srv, http.MethodGet, nil)
	got := decode[storage.SessionRecord](t, resp)
	if got.ID != second.ID {
		t.Errorf("active session id = %s, want %s", got.ID, second.ID)
	}
}

func TestCreateTimerValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(map[string]any)
		field  string
	}{
		{"zero total", func(b map[string]any) { b["totalSeconds"] = 0 }, "totalSeconds"},
		{"negative work", func(b map[string]any) { b["workSecondsRemaining"] = -5 }, "workSecondsRemaining"},
		{"bad mode", func(b map[string]any) { b["currentMode"] = "nap" }, "currentMode"},
		{"over budget", func(b map[string]any) { b["playSecondsRemaining"] = 99999 }, "playSecondsRemaining"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t)

			body := validSessionBody()
			tt.mutate(body)

			resp := doTimer(t, srv, http.MethodPost, body)
			if resp.StatusCode != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", resp.StatusCode)
			}

			payload := decode[struct {
				Message string            `json:"message"`
				Errors  map[string]string `json:"errors"`
			}](t, resp)

			if _, ok := payload.Errors[tt.field]; !ok {
				t.Errorf("no error for field %s: %v", tt.field, payload.Errors)
			}
		})
	}
}

func TestUpdateTimer(t *testing.T) {
	srv := newTestServer(t)

	resp := doTimer(t, srv, http.MethodPost, validSessionBody())
	created := decode[storage.SessionRecord](t, resp)

	resp = doTimer(t, srv, http.MethodPut, map[string]any{
		"workSecondsRemaining": 100,
		"currentMode":          "play",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	updated := decode[storage.SessionRecord](t, resp)
	if updated.WorkSecondsRemaining != 100 {
		t.Errorf("workSecondsRemaining = %d, want 100", updated.WorkSecondsRemaining)
	}
	if updated.PlaySecondsRemaining != created.PlaySecondsRemaining {
		t.Errorf("playSecondsRemaining changed to %d", updated.PlaySecondsRemaining)
	}
	if string(updated.CurrentMode) != "play" {
		t.Errorf("currentMode = %s, want play", updated.CurrentMode)
	}
	if updated.UpdatedAt.Before(created.UpdatedAt) {
		t.Error("updatedAt not bumped")
	}
}

func TestUpdateTimerWithoutSession(t *testing.T) {
	srv := newTestServer(t)

	resp := doTimer(t, srv, http.MethodPut, map[string]any{"isRunning": false})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}

func TestUpdateTimerValidation(t *testing.T) {
	tests := []struct {
		name  string
		body  map[string]any
		field string
	}{
		{"negative counter", map[string]any{"workSecondsRemaining": -1}, "workSecondsRemaining"},
		{"counter above half budget", map[string]any{"workSecondsRemaining": 999999}, "workSecondsRemaining"},
		{"bad mode", map[string]any{"currentMode": "nap"}, "currentMode"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t)

			doTimer(t, srv, http.MethodPost, validSessionBody()).Body.Close()

			resp := doTimer(t, srv, http.MethodPut, tt.body)
			if resp.StatusCode != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", resp.StatusCode)
			}

			payload := decode[struct {
				Message string            `json:"message"`
				Errors  map[string]string `json:"errors"`
			}](t, resp)

			if _, ok := payload.Errors[tt.field]; !ok {
				t.Errorf("no error for field %s: %v", tt.field, payload.Errors)
			}

			// The rejected update must not have stuck.
			resp = doTimer(t, srv, http.MethodGet, nil)
			got := decode[storage.SessionRecord](t, resp)
			if got.WorkSecondsRemaining != 7200 {
				t.Errorf("workSecondsRemaining = %d, want 7200", got.WorkSecondsRemaining)
			}
		})
	}
}

func TestDeleteTimerIdempotent(t *testing.T) {
	srv := newTestServer(t)

	doTimer(t, srv, http.MethodPost, validSessionBody()).Body.Close()

	resp := doTimer(t, srv, http.MethodDelete, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", resp.StatusCode)
	}

	// Reset followed by GET returns not-found.
	resp = doTimer(t, srv, http.MethodGet, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status after delete = %d, want 404", resp.StatusCode)
	}

	// Deleting again is a no-op.
	resp = doTimer(t, srv, http.MethodDelete, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("second delete status = %d, want 204", resp.StatusCode)
	}
}

func TestTimerStats(t *testing.T) {
	srv := newTestServer(t)

	body := validSessionBody()
	body["workSecondsRemaining"] = 1800 // 75% of the work budget spent
	doTimer(t, srv, http.MethodPost, body).Body.Close()

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/timer/stats", nil)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("X-Auth-User", "alice")

	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	stats := decode[timerStats](t, resp)
	if stats.WorkPercent != 75 {
		t.Errorf("workPercent = %v, want 75", stats.WorkPercent)
	}
	if stats.PlayPercent != 0 {
		t.Errorf("playPercent = %v, want 0", stats.PlayPercent)
	}
	if stats.Complete {
		t.Error("session reported complete")
	}
}

func TestUsersAreIsolated(t *testing.T) {
	srv := newTestServer(t)

	doTimer(t, srv, http.MethodPost, validSessionBody()).Body.Close()

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/timer", nil)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("X-Auth-User", "bob")

	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("bob sees alice's session: status = %d", resp.StatusCode)
	}
}

package driver

import "github.com/hperssn/workplay/internal/domain"

// Permission mirrors the host environment's notification permission.
// It is requested at most once per process: a denied answer sticks.
type Permission int

const (
	PermissionUnset Permission = iota
	PermissionGranted
	PermissionDenied
)

// Notifier raises a user-visible notification. Implementations live with
// the binaries; the driver only decides when to call it.
type Notifier interface {
	Notify(title, body string) error
}

func notificationText(ev domain.Event) (title, body string) {
	switch ev.Kind {
	case domain.EventModeComplete:
		switch ev.Completed {
		case domain.ModeWork:
			return "Work time complete!", "Time to switch to play mode."
		default:
			return "Play time complete!", "Time to switch to work mode."
		}
	case domain.EventSessionComplete:
		return "Timer Complete!", "Both work and play times are complete."
	}
	return "", ""
}

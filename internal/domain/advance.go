package domain

type EventKind string

const (
	EventModeComplete    EventKind = "mode_complete"
	EventSessionComplete EventKind = "session_complete"
)

// Event describes a transition produced by Advance. Completed is the mode
// whose budget just ran out; Next is the mode the session moved to, and is
// empty for a session-complete event.
type Event struct {
	Kind      EventKind `json:"kind"`
	Completed Mode      `json:"completed"`
	Next      Mode      `json:"next,omitempty"`
}

// Advance applies elapsedSec whole seconds of wall-clock time to a session
// and returns the next state plus any transition events. It is pure: the
// input session is never modified.
//
// Rules:
//   - A paused session is returned unchanged.
//   - Sub-second elapsed time is ignored; callers accumulate fractional
//     time until at least one whole second has passed.
//   - The current mode's counter is decremented and clamped at zero. A
//     large catch-up tick (process suspended, laptop lid closed) clamps in
//     one step; the excess is not carried into the other mode.
//   - If the counter hit zero and the other mode still has budget, the
//     session flips to the other mode (mode-complete event).
//   - If both counters are zero the session stops (session-complete event).
//     Completion is checked after the switch rule, so exhausting the last
//     budget completes rather than flipping.
func Advance(s Session, elapsedSec int) (Session, []Event) {
	if !s.IsRunning || elapsedSec < 1 {
		return s, nil
	}

	var events []Event
	exhausted := s.CurrentMode

	switch s.CurrentMode {
	case ModeWork:
		s.WorkSecondsRemaining = max(0, s.WorkSecondsRemaining-elapsedSec)
		if s.WorkSecondsRemaining == 0 && s.PlaySecondsRemaining > 0 {
			s.CurrentMode = ModePlay
			events = append(events, Event{
				Kind:      EventModeComplete,
				Completed: ModeWork,
				Next:      ModePlay,
			})
		}
	case ModePlay:
		s.PlaySecondsRemaining = max(0, s.PlaySecondsRemaining-elapsedSec)
		if s.PlaySecondsRemaining == 0 && s.WorkSecondsRemaining > 0 {
			s.CurrentMode = ModeWork
			events = append(events, Event{
				Kind:      EventModeComplete,
				Completed: ModePlay,
				Next:      ModeWork,
			})
		}
	}

	if s.Complete() {
		s.IsRunning = false
		events = append(events, Event{
			Kind:      EventSessionComplete,
			Completed: exhausted,
		})
	}

	return s, events
}

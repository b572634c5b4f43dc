package domain

import "math"

type Mode string

const (
	ModeWork Mode = "work"
	ModePlay Mode = "play"
)

// Other returns the opposite mode.
func (m Mode) Other() Mode {
	if m == ModeWork {
		return ModePlay
	}
	return ModeWork
}

func (m Mode) Valid() bool {
	return m == ModeWork || m == ModePlay
}

// Session is the full timer state. It is a plain value: the engine in
// advance.go never mutates a Session in place.
type Session struct {
	TotalSeconds         int  `json:"totalSeconds"`
	WorkSecondsRemaining int  `json:"workSecondsRemaining"`
	PlaySecondsRemaining int  `json:"playSecondsRemaining"`
	CurrentMode          Mode `json:"currentMode"`
	IsRunning            bool `json:"isRunning"`
}

// NewSession splits totalHours evenly into a work half and a play half.
// Both halves are floor(totalSeconds/2), so an odd total loses one second.
func NewSession(totalHours float64) Session {
	totalSeconds := int(math.Floor(totalHours * 3600))
	half := totalSeconds / 2

	return Session{
		TotalSeconds:         totalSeconds,
		WorkSecondsRemaining: half,
		PlaySecondsRemaining: half,
		CurrentMode:          ModeWork,
		IsRunning:            true,
	}
}

// HalfBudget is the initial per-mode budget.
func (s Session) HalfBudget() int {
	return s.TotalSeconds / 2
}

// Remaining returns the counter for the given mode.
func (s Session) Remaining(m Mode) int {
	if m == ModeWork {
		return s.WorkSecondsRemaining
	}
	return s.PlaySecondsRemaining
}

// Complete reports whether both budgets are exhausted.
func (s Session) Complete() bool {
	return s.WorkSecondsRemaining == 0 && s.PlaySecondsRemaining == 0
}

// Progress returns how much of the given mode's budget has been spent,
// as a percentage of the initial half budget.
func (s Session) Progress(m Mode) float64 {
	half := s.HalfBudget()
	if half <= 0 {
		return 0
	}
	return float64(half-s.Remaining(m)) / float64(half) * 100
}

// FieldErrors carries per-field validation messages.
type FieldErrors map[string]string

func (e FieldErrors) Error() string {
	for field, msg := range e {
		return field + ": " + msg
	}
	return "invalid session"
}

// Validate checks the invariants a stored session must satisfy.
func (s Session) Validate() error {
	errs := FieldErrors{}

	if s.TotalSeconds <= 0 {
		errs["totalSeconds"] = "must be positive"
	}
	if s.WorkSecondsRemaining < 0 {
		errs["workSecondsRemaining"] = "must not be negative"
	}
	if s.PlaySecondsRemaining < 0 {
		errs["playSecondsRemaining"] = "must not be negative"
	}
	if half := s.HalfBudget(); s.TotalSeconds > 0 {
		if s.WorkSecondsRemaining > half {
			errs["workSecondsRemaining"] = "exceeds half budget"
		}
		if s.PlaySecondsRemaining > half {
			errs["playSecondsRemaining"] = "exceeds half budget"
		}
	}
	if !s.CurrentMode.Valid() {
		errs["currentMode"] = "must be work or play"
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

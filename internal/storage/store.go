package storage

import (
	"errors"
	"time"

	"github.com/hperssn/workplay/internal/domain"
)

var ErrNoActiveSession = errors.New("no active timer session")

// SessionRecord is the persisted form of a timer session. ID, UserID and the
// timestamps are store-managed; clients never set them.
type SessionRecord struct {
	ID                   string      `json:"id"`
	UserID               string      `json:"userId"`
	TotalSeconds         int         `json:"totalSeconds"`
	WorkSecondsRemaining int         `json:"workSecondsRemaining"`
	PlaySecondsRemaining int         `json:"playSecondsRemaining"`
	CurrentMode          domain.Mode `json:"currentMode"`
	IsRunning            bool        `json:"isRunning"`
	CreatedAt            time.Time   `json:"createdAt"`
	UpdatedAt            time.Time   `json:"updatedAt"`
}

// Session extracts the domain state from a record.
func (r *SessionRecord) Session() domain.Session {
	return domain.Session{
		TotalSeconds:         r.TotalSeconds,
		WorkSecondsRemaining: r.WorkSecondsRemaining,
		PlaySecondsRemaining: r.PlaySecondsRemaining,
		CurrentMode:          r.CurrentMode,
		IsRunning:            r.IsRunning,
	}
}

// SessionUpdate is a partial update of an active session. Nil fields are
// left untouched. TotalSeconds is deliberately absent: the total is fixed
// at creation.
type SessionUpdate struct {
	WorkSecondsRemaining *int         `json:"workSecondsRemaining,omitempty"`
	PlaySecondsRemaining *int         `json:"playSecondsRemaining,omitempty"`
	CurrentMode          *domain.Mode `json:"currentMode,omitempty"`
	IsRunning            *bool        `json:"isRunning,omitempty"`
}

// Validate checks the fields that are present.
func (u SessionUpdate) Validate() error {
	errs := domain.FieldErrors{}

	if u.WorkSecondsRemaining != nil && *u.WorkSecondsRemaining < 0 {
		errs["workSecondsRemaining"] = "must not be negative"
	}
	if u.PlaySecondsRemaining != nil && *u.PlaySecondsRemaining < 0 {
		errs["playSecondsRemaining"] = "must not be negative"
	}
	if u.CurrentMode != nil && !u.CurrentMode.Valid() {
		errs["currentMode"] = "must be work or play"
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Apply merges the update into a record, not touching the timestamps.
func (u SessionUpdate) Apply(r *SessionRecord) {
	if u.WorkSecondsRemaining != nil {
		r.WorkSecondsRemaining = *u.WorkSecondsRemaining
	}
	if u.PlaySecondsRemaining != nil {
		r.PlaySecondsRemaining = *u.PlaySecondsRemaining
	}
	if u.CurrentMode != nil {
		r.CurrentMode = *u.CurrentMode
	}
	if u.IsRunning != nil {
		r.IsRunning = *u.IsRunning
	}
}

// SessionStore holds at most one active timer session per user.
type SessionStore interface {
	// GetActive returns the user's active session, or ErrNoActiveSession.
	GetActive(userID string) (*SessionRecord, error)

	// Create retires any prior active session for the user and stores a
	// new one, assigning id and timestamps.
	Create(userID string, s domain.Session) (*SessionRecord, error)

	// Update merges a partial update into the active session and bumps
	// UpdatedAt. Returns ErrNoActiveSession if the user has none, and
	// domain.FieldErrors without persisting anything if the merged
	// record would violate the session invariants.
	Update(userID string, upd SessionUpdate) (*SessionRecord, error)

	// Delete removes the active session. Deleting when none exists is a
	// no-op.
	Delete(userID string) error

	Close() error
}

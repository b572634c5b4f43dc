package storage

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hperssn/workplay/internal/domain"
)

// MemoryStore keeps one active session per user in a mutex-guarded map.
// It is the default backend for development and tests.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*SessionRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*SessionRecord),
	}
}

func (s *MemoryStore) GetActive(userID string) (*SessionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.sessions[userID]
	if !ok {
		return nil, ErrNoActiveSession
	}

	copy := *record
	return &copy, nil
}

func (s *MemoryStore) Create(userID string, sess domain.Session) (*SessionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	record := &SessionRecord{
		ID:                   uuid.New().String(),
		UserID:               userID,
		TotalSeconds:         sess.TotalSeconds,
		WorkSecondsRemaining: sess.WorkSecondsRemaining,
		PlaySecondsRemaining: sess.PlaySecondsRemaining,
		CurrentMode:          sess.CurrentMode,
		IsRunning:            sess.IsRunning,
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	// One slot per user: creating replaces any prior session.
	s.sessions[userID] = record

	copy := *record
	return &copy, nil
}

func (s *MemoryStore) Update(userID string, upd SessionUpdate) (*SessionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.sessions[userID]
	if !ok {
		return nil, ErrNoActiveSession
	}

	// Merge into a copy first: an update that would break the session
	// invariants must leave the stored record untouched.
	merged := *record
	upd.Apply(&merged)
	if err := merged.Session().Validate(); err != nil {
		return nil, err
	}
	merged.UpdatedAt = time.Now()
	s.sessions[userID] = &merged

	copy := merged
	return &copy, nil
}

func (s *MemoryStore) Delete(userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, userID)
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}

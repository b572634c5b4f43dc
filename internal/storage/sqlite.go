package storage

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/hperssn/workplay/internal/domain"
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	store := &SQLiteStore{db: db}
	if err := store.createTables(); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

func (s *SQLiteStore) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS timer_sessions (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL UNIQUE,
		total_seconds INTEGER NOT NULL,
		work_seconds_remaining INTEGER NOT NULL,
		play_seconds_remaining INTEGER NOT NULL,
		current_mode TEXT NOT NULL,
		is_running INTEGER NOT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) GetActive(userID string) (*SessionRecord, error) {
	query := `
		SELECT id, user_id, total_seconds, work_seconds_remaining, play_seconds_remaining,
		       current_mode, is_running, created_at, updated_at
		FROM timer_sessions
		WHERE user_id = ?
	`

	record, err := scanSession(s.db.QueryRow(query, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoActiveSession
	}
	return record, err
}

func (s *SQLiteStore) Create(userID string, sess domain.Session) (*SessionRecord, error) {
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

	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	// Retire any prior active session before inserting the new one.
	if _, err := tx.Exec(`DELETE FROM timer_sessions WHERE user_id = ?`, userID); err != nil {
		return nil, err
	}

	query := `
		INSERT INTO timer_sessions (id, user_id, total_seconds, work_seconds_remaining,
			play_seconds_remaining, current_mode, is_running, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = tx.Exec(
		query,
		record.ID,
		record.UserID,
		record.TotalSeconds,
		record.WorkSecondsRemaining,
		record.PlaySecondsRemaining,
		record.CurrentMode,
		record.IsRunning,
		record.CreatedAt,
		record.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return record, tx.Commit()
}

func (s *SQLiteStore) Update(userID string, upd SessionUpdate) (*SessionRecord, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	query := `
		SELECT id, user_id, total_seconds, work_seconds_remaining, play_seconds_remaining,
		       current_mode, is_running, created_at, updated_at
		FROM timer_sessions
		WHERE user_id = ?
	`

	record, err := scanSession(tx.QueryRow(query, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoActiveSession
	}
	if err != nil {
		return nil, err
	}

	upd.Apply(record)
	if err := record.Session().Validate(); err != nil {
		return nil, err
	}
	record.UpdatedAt = time.Now()

	update := `
		UPDATE timer_sessions
		SET work_seconds_remaining = ?, play_seconds_remaining = ?,
		    current_mode = ?, is_running = ?, updated_at = ?
		WHERE user_id = ?
	`

	_, err = tx.Exec(
		update,
		record.WorkSecondsRemaining,
		record.PlaySecondsRemaining,
		record.CurrentMode,
		record.IsRunning,
		record.UpdatedAt,
		userID,
	)
	if err != nil {
		return nil, err
	}

	return record, tx.Commit()
}

func (s *SQLiteStore) Delete(userID string) error {
	_, err := s.db.Exec(`DELETE FROM timer_sessions WHERE user_id = ?`, userID)
	return err
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*SessionRecord, error) {
	var record SessionRecord

	err := row.Scan(
		&record.ID,
		&record.UserID,
		&record.TotalSeconds,
		&record.WorkSecondsRemaining,
		&record.PlaySecondsRemaining,
		&record.CurrentMode,
		&record.IsRunning,
		&record.CreatedAt,
		&record.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &record, nil
}

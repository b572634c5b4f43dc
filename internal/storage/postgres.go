package storage

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/hperssn/workplay/internal/domain"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(connStr string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	store := &PostgresStore{db: db}
	if err := store.createTables(); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

func (s *PostgresStore) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS timer_sessions (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL UNIQUE,
		total_seconds INTEGER NOT NULL,
		work_seconds_remaining INTEGER NOT NULL,
		play_seconds_remaining INTEGER NOT NULL,
		current_mode TEXT NOT NULL,
		is_running BOOLEAN NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *PostgresStore) GetActive(userID string) (*SessionRecord, error) {
	query := `
		SELECT id, user_id, total_seconds, work_seconds_remaining, play_seconds_remaining,
		       current_mode, is_running, created_at, updated_at
		FROM timer_sessions
		WHERE user_id = $1
	`

	record, err := scanSession(s.db.QueryRow(query, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoActiveSession
	}
	return record, err
}

func (s *PostgresStore) Create(userID string, sess domain.Session) (*SessionRecord, error) {
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

	if _, err := tx.Exec(`DELETE FROM timer_sessions WHERE user_id = $1`, userID); err != nil {
		return nil, err
	}

	query := `
		INSERT INTO timer_sessions (id, user_id, total_seconds, work_seconds_remaining,
			play_seconds_remaining, current_mode, is_running, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
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

func (s *PostgresStore) Update(userID string, upd SessionUpdate) (*SessionRecord, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	query := `
		SELECT id, user_id, total_seconds, work_seconds_remaining, play_seconds_remaining,
		       current_mode, is_running, created_at, updated_at
		FROM timer_sessions
		WHERE user_id = $1
		FOR UPDATE
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
		SET work_seconds_remaining = $1, play_seconds_remaining = $2,
		    current_mode = $3, is_running = $4, updated_at = $5
		WHERE user_id = $6
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

func (s *PostgresStore) Delete(userID string) error {
	_, err := s.db.Exec(`DELETE FROM timer_sessions WHERE user_id = $1`, userID)
	return err
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

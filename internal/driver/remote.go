package driver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/hperssn/workplay/internal/domain"
	"github.com/hperssn/workplay/internal/storage"
)

// RemoteStore is the driver's view of the server: plain CRUD on the one
// active session. Implementations must be safe for concurrent use.
type RemoteStore interface {
	// Fetch returns the active session, or storage.ErrNoActiveSession.
	Fetch(ctx context.Context) (*storage.SessionRecord, error)

	// Create replaces any prior active session with a new one.
	Create(ctx context.Context, s domain.Session) error

	// Push replicates the local state into the active session.
	Push(ctx context.Context, s domain.Session) error

	// Delete removes the active session.
	Delete(ctx context.Context) error
}

// HTTPRemote talks to the /api/timer surface of cmd/server.
type HTTPRemote struct {
	BaseURL string
	User    string
	Client  *http.Client
}

func NewHTTPRemote(baseURL, user string) *HTTPRemote {
	return &HTTPRemote{
		BaseURL: baseURL,
		User:    user,
		Client:  http.DefaultClient,
	}
}

func (r *HTTPRemote) Fetch(ctx context.Context) (*storage.SessionRecord, error) {
	resp, err := r.do(ctx, http.MethodGet, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var record storage.SessionRecord
		if err := json.NewDecoder(resp.Body).Decode(&record); err != nil {
			return nil, fmt.Errorf("decode session: %w", err)
		}
		return &record, nil
	case http.StatusNotFound:
		return nil, storage.ErrNoActiveSession
	default:
		return nil, unexpectedStatus(resp)
	}
}

func (r *HTTPRemote) Create(ctx context.Context, s domain.Session) error {
	resp, err := r.doJSON(ctx, http.MethodPost, s)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return unexpectedStatus(resp)
	}
	return nil
}

func (r *HTTPRemote) Push(ctx context.Context, s domain.Session) error {
	upd := storage.SessionUpdate{
		WorkSecondsRemaining: &s.WorkSecondsRemaining,
		PlaySecondsRemaining: &s.PlaySecondsRemaining,
		CurrentMode:          &s.CurrentMode,
		IsRunning:            &s.IsRunning,
	}

	resp, err := r.doJSON(ctx, http.MethodPut, upd)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusNotFound:
		return storage.ErrNoActiveSession
	default:
		return unexpectedStatus(resp)
	}
}

func (r *HTTPRemote) Delete(ctx context.Context) error {
	resp, err := r.do(ctx, http.MethodDelete, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		return unexpectedStatus(resp)
	}
	return nil
}

func (r *HTTPRemote) doJSON(ctx context.Context, method string, body any) (*http.Response, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	return r.do(ctx, method, bytes.NewReader(data))
}

func (r *HTTPRemote) do(ctx context.Context, method string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, r.BaseURL+"/api/timer", body)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if r.User != "" {
		req.Header.Set("X-Auth-User", r.User)
	}

	client := r.Client
	if client == nil {
		client = http.DefaultClient
	}
	return client.Do(req)
}

func unexpectedStatus(resp *http.Response) error {
	var payload struct {
		Message string `json:"message"`
	}
	json.NewDecoder(resp.Body).Decode(&payload)
	if payload.Message != "" {
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, payload.Message)
	}
	return fmt.Errorf("server returned %d", resp.StatusCode)
}

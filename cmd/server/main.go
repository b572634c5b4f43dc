package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/viper"

	"github.com/hperssn/workplay/internal/domain"
	httpapi "github.com/hperssn/workplay/internal/http"
	"github.com/hperssn/workplay/internal/storage"
)

func main() {
	cfg, err := loadConfig()
	if err != nil {
		log.Fatal(err)
	}

	store, err := openStore(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer store.Close()

	hub := httpapi.NewHub()
	r := newRouter(store, hub)

	log.Printf("listening on %s (storage: %s)", cfg.Addr, cfg.Driver)
	if err := http.ListenAndServe(cfg.Addr, r); err != nil {
		log.Fatal(err)
	}
}

type config struct {
	Addr   string
	Driver string
	DSN    string
}

func loadConfig() (config, error) {
	viper.SetDefault("addr", ":8080")
	viper.SetDefault("storage.driver", "memory")
	viper.SetDefault("storage.dsn", "workplay.db")

	viper.SetEnvPrefix("WORKPLAY")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetConfigName("workplay")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("$HOME/.config/workplay")

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return config{}, fmt.Errorf("read config: %w", err)
		}
	}

	return config{
		Addr:   viper.GetString("addr"),
		Driver: viper.GetString("storage.driver"),
		DSN:    viper.GetString("storage.dsn"),
	}, nil
}

func openStore(cfg config) (storage.SessionStore, error) {
	switch cfg.Driver {
	case "memory":
		return storage.NewMemoryStore(), nil
	case "sqlite":
		return storage.NewSQLiteStore(cfg.DSN)
	case "postgres":
		return storage.NewPostgresStore(cfg.DSN)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

func newRouter(store storage.SessionStore, hub *httpapi.Hub) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(httpapi.ExtractUserMiddleware)

	r.Get("/api/timer", getTimer(store))
	r.Post("/api/timer", createTimer(store, hub))
	r.Put("/api/timer", updateTimer(store, hub))
	r.Delete("/api/timer", deleteTimer(store, hub))
	r.Get("/api/timer/stats", getTimerStats(store))
	r.Get("/api/timer/events", httpapi.StreamTimerEvents(hub))

	return r
}

func getTimer(store storage.SessionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		record, err := store.GetActive(httpapi.UserID(r))
		if errors.Is(err, storage.ErrNoActiveSession) {
			respondError(w, "No active timer session found", http.StatusNotFound)
			return
		}
		if err != nil {
			log.Printf("fetch timer session: %v", err)
			respondError(w, "Failed to fetch timer session", http.StatusInternalServerError)
			return
		}

		respondJSON(w, record, http.StatusOK)
	}
}

func createTimer(store storage.SessionStore, hub *httpapi.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var session domain.Session
		if err := json.NewDecoder(r.Body).Decode(&session); err != nil {
			respondError(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		if err := session.Validate(); err != nil {
			respondValidationError(w, err)
			return
		}

		userID := httpapi.UserID(r)
		record, err := store.Create(userID, session)
		if err != nil {
			log.Printf("create timer session: %v", err)
			respondError(w, "Failed to create timer session", http.StatusInternalServerError)
			return
		}

		hub.Publish(userID, httpapi.SessionEvent{Type: httpapi.EventSessionCreated, Session: record})
		respondJSON(w, record, http.StatusCreated)
	}
}

func updateTimer(store storage.SessionStore, hub *httpapi.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var upd storage.SessionUpdate
		if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
			respondError(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		if err := upd.Validate(); err != nil {
			respondValidationError(w, err)
			return
		}

		userID := httpapi.UserID(r)
		record, err := store.Update(userID, upd)
		if errors.Is(err, storage.ErrNoActiveSession) {
			respondError(w, "No active timer session found", http.StatusNotFound)
			return
		}
		var fieldErrs domain.FieldErrors
		if errors.As(err, &fieldErrs) {
			respondValidationError(w, fieldErrs)
			return
		}
		if err != nil {
			log.Printf("update timer session: %v", err)
			respondError(w, "Failed to update timer session", http.StatusInternalServerError)
			return
		}

		hub.Publish(userID, httpapi.SessionEvent{Type: httpapi.EventSessionUpdated, Session: record})
		respondJSON(w, record, http.StatusOK)
	}
}

func deleteTimer(store storage.SessionStore, hub *httpapi.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := httpapi.UserID(r)

		if err := store.Delete(userID); err != nil {
			log.Printf("delete timer session: %v", err)
			respondError(w, "Failed to delete timer session", http.StatusInternalServerError)
			return
		}

		hub.Publish(userID, httpapi.SessionEvent{Type: httpapi.EventSessionDeleted})
		w.WriteHeader(http.StatusNoContent)
	}
}

type timerStats struct {
	WorkPercent float64     `json:"workPercent"`
	PlayPercent float64     `json:"playPercent"`
	CurrentMode domain.Mode `json:"currentMode"`
	IsRunning   bool        `json:"isRunning"`
	Complete    bool        `json:"complete"`
}

func getTimerStats(store storage.SessionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		record, err := store.GetActive(httpapi.UserID(r))
		if errors.Is(err, storage.ErrNoActiveSession) {
			respondError(w, "No active timer session found", http.StatusNotFound)
			return
		}
		if err != nil {
			log.Printf("fetch timer session: %v", err)
			respondError(w, "Failed to fetch timer session", http.StatusInternalServerError)
			return
		}

		session := record.Session()
		stats := timerStats{
			WorkPercent: session.Progress(domain.ModeWork),
			PlayPercent: session.Progress(domain.ModePlay),
			CurrentMode: session.CurrentMode,
			IsRunning:   session.IsRunning,
			Complete:    session.Complete(),
		}

		respondJSON(w, stats, http.StatusOK)
	}
}

package main

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/hperssn/workplay/internal/domain"
)

func respondJSON(w http.ResponseWriter, data any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"message": message})
}

// respondValidationError renders per-field messages when available.
func respondValidationError(w http.ResponseWriter, err error) {
	var fields domain.FieldErrors
	if !errors.As(err, &fields) {
		respondError(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	json.NewEncoder(w).Encode(struct {
		Message string             `json:"message"`
		Errors  domain.FieldErrors `json:"errors"`
	}{
		Message: "Invalid timer data",
		Errors:  fields,
	})
}

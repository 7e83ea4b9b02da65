// Package api provides HTTP handlers for the coach API.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/ashureev/juice-coach/internal/catalog"
	"github.com/ashureev/juice-coach/internal/coach"
)

const maxBodyBytes = 64 << 10

// Handler provides common handler utilities.
type Handler struct {
	session *coach.Session
	catalog *catalog.Catalog
	logger  *slog.Logger
}

// NewHandler creates a new Handler with common dependencies.
func NewHandler(session *coach.Session, cat *catalog.Catalog, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		session: session,
		catalog: cat,
		logger:  logger,
	}
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// writeErr maps a facade error to a response.
func (h *Handler) writeErr(w http.ResponseWriter, err error) {
	var verr *coach.ValidationError
	if errors.As(err, &verr) {
		Error(w, http.StatusBadRequest, verr.Error())
		return
	}
	h.logger.Error("Request failed", "error", err)
	Error(w, http.StatusInternalServerError, "internal error")
}

// decode reads a JSON body into v, rejecting unknown fields.
func decode(w http.ResponseWriter, r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}
	return nil
}

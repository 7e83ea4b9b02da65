// Package identity provides the anonymous per-installation identifier.
package identity

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/ashureev/juice-coach/internal/store"
	"github.com/google/uuid"
)

const (
	// InstallationKey is the fixed storage key of the installation identifier.
	InstallationKey = "jsCompanionInstallId_v1"
	// HeaderName carries the installation identifier on every response.
	HeaderName = "X-Coach-Installation"
	idPrefix   = "inst_"
)

type contextKey int

const installationIDKey contextKey = iota

// EnsureInstallationID returns the persisted installation identifier,
// generating and storing a new random one on first use.
func EnsureInstallationID(ctx context.Context, kv store.KV) (string, error) {
	existing, found, err := kv.Get(ctx, InstallationKey)
	if err != nil {
		return "", fmt.Errorf("read installation id: %w", err)
	}
	if found && isValidID(existing) {
		return existing, nil
	}

	id := idPrefix + strings.ReplaceAll(uuid.NewString(), "-", "")
	if err := kv.Set(ctx, InstallationKey, id); err != nil {
		return "", fmt.Errorf("store installation id: %w", err)
	}
	return id, nil
}

func isValidID(id string) bool {
	raw, ok := strings.CutPrefix(id, idPrefix)
	if !ok || len(raw) != 32 {
		return false
	}
	_, err := uuid.Parse(raw)
	return err == nil
}

// FromContext extracts the installation identifier from the request context.
func FromContext(ctx context.Context) string {
	if v, ok := ctx.Value(installationIDKey).(string); ok {
		return v
	}
	return ""
}

// WithID returns a context carrying the installation identifier.
func WithID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, installationIDKey, id)
}

// Middleware injects the installation identifier into every request.
func Middleware(id string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set(HeaderName, id)
			next.ServeHTTP(w, r.WithContext(WithID(r.Context(), id)))
		})
	}
}

package juiceshop

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// ResetNotifier posts the installation identifier to a remote endpoint when
// local history is reset. The response body is ignored.
type ResetNotifier struct {
	url    string
	http   *http.Client
	logger *slog.Logger
}

// NewResetNotifier returns nil when url is empty so callers can skip the
// notification entirely.
func NewResetNotifier(url string, timeout time.Duration, logger *slog.Logger) *ResetNotifier {
	if url == "" {
		return nil
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ResetNotifier{
		url:    url,
		http:   &http.Client{Timeout: timeout},
		logger: logger,
	}
}

type resetRequest struct {
	InstallationID string `json:"installationId"`
}

// NotifyReset sends one request, without retry.
func (n *ResetNotifier) NotifyReset(ctx context.Context, installationID string) error {
	body, err := json.Marshal(resetRequest{InstallationID: installationID})
	if err != nil {
		return fmt.Errorf("encode reset notification: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build reset notification: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.http.Do(req)
	if err != nil {
		return fmt.Errorf("send reset notification: %w", err)
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	_ = resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("send reset notification: %w %d", errUnexpectedStatus, resp.StatusCode)
	}
	n.logger.Debug("Remote reset notification delivered", "status", resp.StatusCode)
	return nil
}

// Package juiceshop talks to the host application: it fetches the challenge
// list and delivers best-effort reset notifications.
package juiceshop

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ashureev/juice-coach/internal/domain"
)

const (
	challengesPath  = "/api/Challenges"
	maxResponseSize = 8 << 20
)

var errUnexpectedStatus = errors.New("unexpected status")

// Client reads challenges from a Juice Shop instance.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// NewClient creates a client for baseURL, e.g. http://localhost:3000.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

type challengeDTO struct {
	ID          int    `json:"id"`
	Key         string `json:"key"`
	Name        string `json:"name"`
	Category    string `json:"category"`
	Difficulty  int    `json:"difficulty"`
	Solved      bool   `json:"solved"`
	Description string `json:"description"`
	Hint        string `json:"hint"`
	HintURL     string `json:"hintUrl"`
}

type challengesResponse struct {
	Data []challengeDTO `json:"data"`
}

// Challenges fetches the current challenge list.
func (c *Client) Challenges(ctx context.Context) ([]domain.Challenge, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+challengesPath, nil)
	if err != nil {
		return nil, fmt.Errorf("build challenges request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch challenges: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.Debug("failed to close challenges body", "error", closeErr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch challenges: %w %d", errUnexpectedStatus, resp.StatusCode)
	}

	var body challengesResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseSize)).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode challenges: %w", err)
	}

	out := make([]domain.Challenge, 0, len(body.Data))
	for _, d := range body.Data {
		key := d.Key
		if key == "" {
			// Older builds only expose the numeric id.
			if d.ID == 0 {
				continue
			}
			key = fmt.Sprintf("challenge-%d", d.ID)
		}
		out = append(out, domain.Challenge{
			Key:         key,
			Name:        d.Name,
			Category:    d.Category,
			Difficulty:  d.Difficulty,
			Solved:      d.Solved,
			Description: d.Description,
			Hint:        d.Hint,
			HintURL:     d.HintURL,
		})
	}
	return out, nil
}

// CheckConnection reports whether the host answers on its base URL.
func (c *Client) CheckConnection(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL, nil)
	if err != nil {
		return false
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return false
	}
	_ = resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// Package worker runs the background challenge refresh loop.
package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/ashureev/juice-coach/internal/domain"
)

// ChallengeSource fetches the host's challenge list.
type ChallengeSource interface {
	Challenges(ctx context.Context) ([]domain.Challenge, error)
}

// Target receives refreshed challenges.
type Target interface {
	Challenges() []domain.Challenge
	SetChallenges(challenges []domain.Challenge)
	ResetOnExternalSignal(ctx context.Context)
}

// RefreshConfig controls the refresh loop.
type RefreshConfig struct {
	Interval time.Duration
	// AutoResetOnWipe raises the external reset signal when every previously
	// solved challenge is reported unsolved again.
	AutoResetOnWipe bool
}

const defaultRefreshInterval = 30 * time.Second

// StartRefreshWorker refreshes once immediately, then on every tick until ctx
// is done.
func StartRefreshWorker(ctx context.Context, src ChallengeSource, target Target, cfg RefreshConfig) {
	interval := cfg.Interval
	if interval <= 0 {
		interval = defaultRefreshInterval
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		slog.Info("Refresh worker started", "interval", interval, "auto_reset_on_wipe", cfg.AutoResetOnWipe)

		RefreshOnce(ctx, src, target, cfg.AutoResetOnWipe)
		for {
			select {
			case <-ticker.C:
				RefreshOnce(ctx, src, target, cfg.AutoResetOnWipe)
			case <-ctx.Done():
				slog.Info("Refresh worker shutting down", "reason", ctx.Err())
				return
			}
		}
	}()
}

// RefreshOnce pulls the challenge list into target. It returns false when
// the source could not be read; the previous list is kept in that case.
func RefreshOnce(ctx context.Context, src ChallengeSource, target Target, autoReset bool) bool {
	fresh, err := src.Challenges(ctx)
	if err != nil {
		slog.Warn("Refresh worker failed to fetch challenges", "error", err)
		return false
	}

	wiped := solvedCount(target.Challenges()) > 0 && len(fresh) > 0 && solvedCount(fresh) == 0
	target.SetChallenges(fresh)

	if wiped {
		if autoReset {
			slog.Info("Host progress wipe detected, resetting coaching history")
			target.ResetOnExternalSignal(ctx)
		} else {
			slog.Info("Host progress wipe detected, auto reset disabled")
		}
	}
	return true
}

func solvedCount(challenges []domain.Challenge) int {
	n := 0
	for _, c := range challenges {
		if c.Solved {
			n++
		}
	}
	return n
}

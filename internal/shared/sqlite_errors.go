// Package shared provides helpers used by more than one storage backend.
//
//nolint:revive // "shared" is an intentional package name for cross-cutting helpers.
package shared

import (
	"context"
	"errors"
	"strings"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// IsSQLiteConflictError reports whether err is SQLITE_BUSY or SQLITE_LOCKED,
// including their extended codes. Both mean another connection holds the
// lock and the statement can be retried.
func IsSQLiteConflictError(err error) bool {
	if err == nil {
		return false
	}
	var serr *sqlite.Error
	if errors.As(err, &serr) {
		switch serr.Code() & 0xff {
		case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
			return true
		}
		return false
	}
	// Errors that lost their type on the way up still carry the message.
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

// RetryOnConflict runs fn up to attempts times, backing off exponentially
// from base while fn keeps failing with a SQLite conflict. Other errors and
// context cancellation end the loop at once.
func RetryOnConflict(ctx context.Context, attempts int, base time.Duration, fn func() error) error {
	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(); err == nil || !IsSQLiteConflictError(err) || i == attempts-1 {
			return err
		}
		select {
		case <-time.After(base * time.Duration(1<<i)):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

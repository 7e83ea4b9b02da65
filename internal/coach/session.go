// Package coach is the coaching session: it owns the learner's state and
// routes every read and mutation through the hint policy, the recommender
// and the progress store.
package coach

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/ashureev/juice-coach/internal/domain"
	"github.com/ashureev/juice-coach/internal/policy"
	"github.com/ashureev/juice-coach/internal/recommend"
)

// Persister loads and saves the coaching state.
type Persister interface {
	Load(ctx context.Context) domain.CoachingState
	Save(ctx context.Context, state domain.CoachingState) error
}

// ResetNotifier tells a remote collaborator that local history was reset.
type ResetNotifier interface {
	NotifyReset(ctx context.Context, installationID string) error
}

// Observer is called with a snapshot after every committed mutation.
// Observers run one at a time in commit order and must not mutate the
// session.
type Observer func(state domain.CoachingState)

// Options configures a Session.
type Options struct {
	Notifier       ResetNotifier
	InstallationID string
	Logger         *slog.Logger
}

// HintResult is the outcome of a hint request.
type HintResult struct {
	MaxHintSeen int  `json:"maxHintSeen"`
	Allowed     bool `json:"allowed"`
	Visible     int  `json:"visible"`
	MaxAllowed  int  `json:"maxAllowed"`
}

// Session owns the coaching state for one installation.
type Session struct {
	mu         sync.Mutex
	state      domain.CoachingState
	challenges []domain.Challenge
	version    uint64 // bumped on every committed mutation

	persister      Persister
	notifier       ResetNotifier
	installationID string
	logger         *slog.Logger

	obsMu     sync.RWMutex
	observers []Observer

	// notifyMu orders fan-out; delivered is the newest version handed out.
	notifyMu  sync.Mutex
	delivered uint64

	tasks sync.WaitGroup
}

// NewSession loads the state once and returns a ready session.
func NewSession(ctx context.Context, persister Persister, opts Options) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Session{
		state:          persister.Load(ctx),
		persister:      persister,
		notifier:       opts.Notifier,
		installationID: opts.InstallationID,
		logger:         logger,
	}
	logger.Info("Coaching session loaded",
		"mode", s.state.Mode,
		"competency_selected", s.state.CompetencySelected,
		"tracked_challenges", len(s.state.ChallengeState))
	return s
}

// Subscribe registers an observer for state changes.
func (s *Session) Subscribe(o Observer) {
	s.obsMu.Lock()
	defer s.obsMu.Unlock()
	s.observers = append(s.observers, o)
}

// State returns a read-only snapshot.
func (s *Session) State() domain.CoachingState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// InstallationID returns the opaque identifier sent with reset notifications.
func (s *Session) InstallationID() string {
	return s.installationID
}

// parseMode accepts only the exact mode names.
func parseMode(raw string) (domain.Mode, error) {
	m := domain.Mode(raw)
	if !m.Valid() {
		names := make([]string, 0, 3)
		for _, known := range domain.Modes() {
			names = append(names, string(known))
		}
		return "", &ValidationError{Field: "mode", Value: raw, Msg: "must be one of " + strings.Join(names, ", ")}
	}
	return m, nil
}

// SetMode changes the competency mode.
func (s *Session) SetMode(ctx context.Context, mode string) error {
	m, err := parseMode(mode)
	if err != nil {
		return err
	}
	s.mutate(ctx, func(st *domain.CoachingState) bool {
		st.Mode = m
		return true
	})
	return nil
}

// CompleteCompetencySelection sets the mode and marks onboarding done.
func (s *Session) CompleteCompetencySelection(ctx context.Context, mode string) error {
	m, err := parseMode(mode)
	if err != nil {
		return err
	}
	s.mutate(ctx, func(st *domain.CoachingState) bool {
		st.Mode = m
		st.CompetencySelected = true
		return true
	})
	return nil
}

// SetMinimized records the overlay's minimized flag.
func (s *Session) SetMinimized(ctx context.Context, minimized bool) {
	s.mutate(ctx, func(st *domain.CoachingState) bool {
		st.Minimized = minimized
		return true
	})
}

// RequestHint unlocks the next hint for key when the current mode allows it.
// State is persisted only when a hint was actually unlocked.
func (s *Session) RequestHint(ctx context.Context, key string, totalHints int) HintResult {
	var res HintResult
	s.mutate(ctx, func(st *domain.CoachingState) bool {
		current := st.HintsUsed(key)
		next, allowed := policy.Reveal(current, st.Mode, totalHints)
		if allowed {
			st.Progress(key).MaxHintSeen = next
		}
		res = HintResult{
			MaxHintSeen: next,
			Allowed:     allowed,
			Visible:     policy.VisibleHints(next, st.Mode, totalHints),
			MaxAllowed:  policy.MaxAllowedHints(st.Mode, totalHints),
		}
		return allowed
	})
	if !res.Allowed {
		s.logger.Debug("Hint request refused", "challenge_key", key, "max_hint_seen", res.MaxHintSeen)
	}
	return res
}

// VisibleHints is how many hints of key are shown under the current mode.
func (s *Session) VisibleHints(key string, totalHints int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return policy.VisibleHints(s.state.HintsUsed(key), s.state.Mode, totalHints)
}

// Progress returns the recorded progress for key without creating it.
func (s *Session) Progress(key string) (domain.ChallengeProgress, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Lookup(key)
}

// SetNotes stores the learner's notes for key verbatim.
func (s *Session) SetNotes(ctx context.Context, key, text string) {
	s.mutate(ctx, func(st *domain.CoachingState) bool {
		st.Progress(key).Notes = text
		return true
	})
}

// ResetHistory clears all per-challenge progress and notifies the remote
// collaborator in the background. The local reset never waits on, or fails
// because of, the notification.
func (s *Session) ResetHistory(ctx context.Context) {
	s.mutate(ctx, func(st *domain.CoachingState) bool {
		st.ClearHistory()
		return true
	})
	s.logger.Info("Coaching history reset")

	if s.notifier == nil {
		return
	}
	id := s.installationID
	s.dispatch(func(ctx context.Context) error {
		return s.notifier.NotifyReset(ctx, id)
	}, func(err error) {
		s.logger.Warn("Remote reset notification failed", "error", err)
	})
}

// ResetOnExternalSignal clears progress when the host application wiped its
// own progress. Cached challenges are marked unsolved. No remote
// notification is sent.
func (s *Session) ResetOnExternalSignal(ctx context.Context) {
	s.mutate(ctx, func(st *domain.CoachingState) bool {
		st.ClearHistory()
		for i := range s.challenges {
			s.challenges[i].Solved = false
		}
		return true
	})
	s.logger.Info("Coaching history reset by host application")
}

// SetChallenges replaces the cached challenge list.
func (s *Session) SetChallenges(challenges []domain.Challenge) {
	cp := make([]domain.Challenge, len(challenges))
	copy(cp, challenges)
	s.mu.Lock()
	s.challenges = cp
	s.mu.Unlock()
}

// Challenges returns a copy of the cached challenge list.
func (s *Session) Challenges() []domain.Challenge {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]domain.Challenge, len(s.challenges))
	copy(cp, s.challenges)
	return cp
}

// Recommend picks the next challenge from challenges using current state.
func (s *Session) Recommend(challenges []domain.Challenge) (domain.Challenge, bool) {
	return recommend.Recommend(challenges, s.State())
}

// Close waits for in-flight background notifications.
func (s *Session) Close() {
	s.tasks.Wait()
}

// mutate applies fn under the lock, persists when fn reports a change and
// then notifies observers with a snapshot.
func (s *Session) mutate(ctx context.Context, fn func(st *domain.CoachingState) bool) {
	s.mu.Lock()
	changed := fn(&s.state)
	var (
		snapshot domain.CoachingState
		version  uint64
	)
	if changed {
		s.version++
		version = s.version
		if err := s.persister.Save(ctx, s.state); err != nil {
			// In-memory state stays authoritative for the session.
			s.logger.Warn("Failed to persist coaching state", "error", err)
		}
		snapshot = s.state.Clone()
	}
	s.mu.Unlock()

	if changed {
		s.notify(version, snapshot)
	}
}

// notify fans snapshot out to observers. A snapshot older than one already
// delivered is dropped, so the last state every observer sees is the latest.
func (s *Session) notify(version uint64, snapshot domain.CoachingState) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()
	if version <= s.delivered {
		return
	}
	s.delivered = version

	s.obsMu.RLock()
	observers := make([]Observer, len(s.observers))
	copy(observers, s.observers)
	s.obsMu.RUnlock()

	for _, o := range observers {
		o(snapshot.Clone())
	}
}

// dispatch runs task on a tracked goroutine. Failures go to onError and are
// never returned to the caller.
func (s *Session) dispatch(task func(ctx context.Context) error, onError func(error)) {
	s.tasks.Add(1)
	go func() {
		defer s.tasks.Done()
		if err := task(context.Background()); err != nil {
			onError(err)
		}
	}()
}

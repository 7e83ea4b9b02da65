package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/ashureev/juice-coach/internal/domain"
)

// StateKey is the fixed key the coaching state is stored under.
const StateKey = "jsCompanionState_v1"

// ProgressStore loads and saves the CoachingState. Persistence is advisory:
// Load never fails and Save errors are for logging only.
type ProgressStore struct {
	kv     KV
	logger *slog.Logger
}

// NewProgressStore creates a progress store over kv.
func NewProgressStore(kv KV, logger *slog.Logger) *ProgressStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProgressStore{kv: kv, logger: logger}
}

// Load returns the persisted state, or the default state when it is absent,
// unreadable or malformed.
func (p *ProgressStore) Load(ctx context.Context) domain.CoachingState {
	raw, found, err := p.kv.Get(ctx, StateKey)
	if err != nil {
		p.logger.Error("Failed to load coaching state, using defaults", "error", err)
		return domain.NewCoachingState()
	}
	if !found || raw == "" {
		return domain.NewCoachingState()
	}

	state, err := decodeState(raw)
	if err != nil {
		p.logger.Warn("Stored coaching state is malformed, using defaults", "error", err)
		return domain.NewCoachingState()
	}
	if !state.Mode.Valid() {
		p.logger.Warn("Stored coaching state has unknown mode, resetting mode", "mode", state.Mode)
		state.Mode = domain.DefaultMode
	}
	return state
}

// Save writes the whole state under StateKey.
func (p *ProgressStore) Save(ctx context.Context, state domain.CoachingState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode coaching state: %w", err)
	}
	if err := p.kv.Set(ctx, StateKey, string(data)); err != nil {
		return fmt.Errorf("save coaching state: %w", err)
	}
	return nil
}

func decodeState(raw string) (domain.CoachingState, error) {
	var state domain.CoachingState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return domain.CoachingState{}, err
	}

	clean := make(map[string]*domain.ChallengeProgress, len(state.ChallengeState))
	for key, p := range state.ChallengeState {
		if p == nil {
			continue
		}
		if p.MaxHintSeen < 0 {
			p.MaxHintSeen = 0
		}
		clean[key] = p
	}
	state.ChallengeState = clean
	return state, nil
}

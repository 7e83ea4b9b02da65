// Package domain contains core domain types for the coaching service.
package domain

// CoachingState is the durable record of a learner's mode, onboarding status
// and per-challenge progress.
type CoachingState struct {
	Mode               Mode                          `json:"mode"`
	CompetencySelected bool                          `json:"competencySelected"`
	ChallengeState     map[string]*ChallengeProgress `json:"challengeState"`
	Minimized          bool                          `json:"minimized"`
}

// NewCoachingState returns the default state used when nothing is stored.
func NewCoachingState() CoachingState {
	return CoachingState{
		Mode:           DefaultMode,
		ChallengeState: make(map[string]*ChallengeProgress),
	}
}

// Lookup returns the progress recorded for key without creating it.
func (s *CoachingState) Lookup(key string) (ChallengeProgress, bool) {
	p, ok := s.ChallengeState[key]
	if !ok || p == nil {
		return ChallengeProgress{}, false
	}
	return *p, true
}

// Progress returns the progress entry for key, inserting a zero entry first
// if none exists. Every key present in ChallengeState is fully formed.
func (s *CoachingState) Progress(key string) *ChallengeProgress {
	if s.ChallengeState == nil {
		s.ChallengeState = make(map[string]*ChallengeProgress)
	}
	p, ok := s.ChallengeState[key]
	if !ok || p == nil {
		p = &ChallengeProgress{}
		s.ChallengeState[key] = p
	}
	return p
}

// HintsUsed returns the recorded high-water mark for key, 0 when absent.
func (s *CoachingState) HintsUsed(key string) int {
	p, _ := s.Lookup(key)
	return p.MaxHintSeen
}

// ClearHistory drops all per-challenge progress. Mode, onboarding and UI
// flags are kept.
func (s *CoachingState) ClearHistory() {
	s.ChallengeState = make(map[string]*ChallengeProgress)
}

// Clone returns a deep copy safe to hand to readers.
func (s CoachingState) Clone() CoachingState {
	out := s
	out.ChallengeState = make(map[string]*ChallengeProgress, len(s.ChallengeState))
	for k, v := range s.ChallengeState {
		if v == nil {
			continue
		}
		p := *v
		out.ChallengeState[k] = &p
	}
	return out
}

// Package policy decides how many hints a learner may unlock for a challenge.
package policy

import (
	"fmt"

	"github.com/ashureev/juice-coach/internal/domain"
)

// MaxAllowedHints returns the number of hints a learner in mode may unlock
// for a challenge with totalHints hints. The result is in [0, totalHints].
func MaxAllowedHints(mode domain.Mode, totalHints int) int {
	if totalHints < 0 {
		totalHints = 0
	}
	switch mode {
	case domain.ModeBeginner:
		return totalHints
	case domain.ModeExplorer:
		return (totalHints + 1) / 2
	case domain.ModeTrainer:
		return 0
	default:
		// Unknown modes fail open.
		return totalHints
	}
}

// Reveal advances maxHintSeen by one when the mode still permits it.
// It reports false, with maxHintSeen unchanged, once the cap is reached.
func Reveal(maxHintSeen int, mode domain.Mode, totalHints int) (int, bool) {
	if maxHintSeen < MaxAllowedHints(mode, totalHints) {
		return maxHintSeen + 1, true
	}
	return maxHintSeen, false
}

// VisibleHints is the number of hints shown right now. Lowering the mode
// hides hints without touching the stored high-water mark.
func VisibleHints(maxHintSeen int, mode domain.Mode, totalHints int) int {
	limit := MaxAllowedHints(mode, totalHints)
	if maxHintSeen < 0 {
		return 0
	}
	return min(maxHintSeen, limit)
}

// LimitMessage is the text shown when a reveal is refused in mode.
func LimitMessage(mode domain.Mode) string {
	rank := mode.Rank()
	if rank <= 0 {
		return "All hints for this challenge are already shown."
	}
	more := domain.Modes()[rank-1]
	if mode == domain.ModeTrainer {
		return fmt.Sprintf("Hints are withheld in %s mode. Switch to %s to unlock hints.", mode, more)
	}
	return fmt.Sprintf("Max hint level reached in %s mode. Switch to %s for more.", mode, more)
}

package domain

import (
	"fmt"
	"strings"
)

// Mode is the learner's self-assessed competency level. It controls how
// generous the hint disclosure policy is.
type Mode string

// Modes ordered from most hints to fewest hints.
const (
	ModeBeginner Mode = "Beginner"
	ModeExplorer Mode = "Explorer"
	ModeTrainer  Mode = "Trainer"
)

// DefaultMode is the most permissive mode.
const DefaultMode = ModeBeginner

var modeOrder = []Mode{ModeBeginner, ModeExplorer, ModeTrainer}

// Modes returns every competency mode, most hints first.
func Modes() []Mode {
	out := make([]Mode, len(modeOrder))
	copy(out, modeOrder)
	return out
}

// Valid reports whether m is one of the known modes.
func (m Mode) Valid() bool {
	for _, known := range modeOrder {
		if m == known {
			return true
		}
	}
	return false
}

// Rank returns the position of m in the most-to-fewest ordering, or -1.
func (m Mode) Rank() int {
	for i, known := range modeOrder {
		if m == known {
			return i
		}
	}
	return -1
}

// ParseMode matches a mode name case-insensitively, ignoring surrounding
// space. It is for operator input; stored and API values must match exactly.
func ParseMode(s string) (Mode, error) {
	s = strings.TrimSpace(s)
	for _, known := range modeOrder {
		if strings.EqualFold(s, string(known)) {
			return known, nil
		}
	}
	return "", fmt.Errorf("unknown mode %q", s)
}

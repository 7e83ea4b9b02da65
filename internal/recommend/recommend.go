// Package recommend picks the next challenge a learner should attempt.
//
// Categories are ranked by a weakness score that grows with hints spent and
// shrinks with solves. The easiest unsolved challenge of the weakest category
// is recommended.
package recommend

import (
	"cmp"
	"slices"

	"github.com/ashureev/juice-coach/internal/domain"
)

// CategoryScore is the per-category breakdown used for ranking.
type CategoryScore struct {
	Category       string  `json:"category"`
	TotalHintsUsed int     `json:"totalHintsUsed"`
	SolvedCount    int     `json:"solvedCount"`
	HasUnsolved    bool    `json:"hasUnsolved"`
	Score          float64 `json:"score"`
}

// Scores groups challenges by category in first-encountered order.
func Scores(challenges []domain.Challenge, state domain.CoachingState) []CategoryScore {
	index := make(map[string]int)
	var out []CategoryScore
	for _, c := range challenges {
		i, ok := index[c.Category]
		if !ok {
			i = len(out)
			index[c.Category] = i
			out = append(out, CategoryScore{Category: c.Category})
		}
		cs := &out[i]
		cs.TotalHintsUsed += state.HintsUsed(c.Key)
		if c.Solved {
			cs.SolvedCount++
		} else {
			cs.HasUnsolved = true
		}
	}
	for i := range out {
		out[i].Score = float64(out[i].TotalHintsUsed+1) / float64(out[i].SolvedCount+1)
	}
	return out
}

// Weakest returns the highest scoring category that still has unsolved
// challenges. Ties keep the earlier category.
func Weakest(scores []CategoryScore) (string, bool) {
	best := -1
	for i, cs := range scores {
		if !cs.HasUnsolved {
			continue
		}
		if best < 0 || cs.Score > scores[best].Score {
			best = i
		}
	}
	if best < 0 {
		return "", false
	}
	return scores[best].Category, true
}

// Recommend returns the next challenge to attempt, or false when nothing is
// left. It performs no I/O and is deterministic for identical inputs.
func Recommend(challenges []domain.Challenge, state domain.CoachingState) (domain.Challenge, bool) {
	if len(challenges) == 0 {
		return domain.Challenge{}, false
	}

	category, picked := Weakest(Scores(challenges, state))

	var pool []domain.Challenge
	for _, c := range challenges {
		if c.Solved {
			continue
		}
		if picked && c.Category != category {
			continue
		}
		pool = append(pool, c)
	}
	if len(pool) == 0 {
		return domain.Challenge{}, false
	}

	SortForDisplay(pool)
	return pool[0], true
}

// SortForDisplay orders challenges by ascending difficulty, then name.
func SortForDisplay(challenges []domain.Challenge) {
	slices.SortStableFunc(challenges, func(a, b domain.Challenge) int {
		if c := cmp.Compare(a.Difficulty, b.Difficulty); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
}

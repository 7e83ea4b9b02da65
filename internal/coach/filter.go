package coach

import (
	"strings"

	"github.com/ashureev/juice-coach/internal/domain"
	"github.com/ashureev/juice-coach/internal/recommend"
)

// Filter narrows the challenge list shown to a learner.
type Filter struct {
	// Search matches a case-insensitive substring of the name.
	Search string
	// Difficulties keeps only the listed ratings. Empty keeps all.
	Difficulties []int
	// HideSolved drops solved challenges.
	HideSolved bool
}

// Apply returns the matching challenges in display order.
func (f Filter) Apply(challenges []domain.Challenge) []domain.Challenge {
	search := strings.ToLower(strings.TrimSpace(f.Search))
	wanted := make(map[int]bool, len(f.Difficulties))
	for _, d := range f.Difficulties {
		wanted[d] = true
	}

	out := make([]domain.Challenge, 0, len(challenges))
	for _, c := range challenges {
		if search != "" && !strings.Contains(strings.ToLower(c.Name), search) {
			continue
		}
		if len(wanted) > 0 && !wanted[c.Difficulty] {
			continue
		}
		if f.HideSolved && c.Solved {
			continue
		}
		out = append(out, c)
	}
	recommend.SortForDisplay(out)
	return out
}

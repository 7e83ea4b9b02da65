package domain

// Challenge is a single challenge reported by the host application.
// The engine only reads Key, Name, Category, Difficulty and Solved.
type Challenge struct {
	Key         string `json:"key"`
	Name        string `json:"name"`
	Category    string `json:"category"`
	Difficulty  int    `json:"difficulty"`
	Solved      bool   `json:"solved"`
	Description string `json:"description,omitempty"`
	Hint        string `json:"hint,omitempty"`
	HintURL     string `json:"hintUrl,omitempty"`
}

// ChallengeProgress tracks how far a learner has gone with one challenge.
type ChallengeProgress struct {
	// MaxHintSeen is the high-water mark of unlocked hints. Mode changes
	// never lower it.
	MaxHintSeen int    `json:"maxHintSeen"`
	Notes       string `json:"notes"`
}

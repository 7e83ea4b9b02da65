// Package catalog holds the static hint pack: progressive hints and learning
// goals per challenge, plus study tips per category.
package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed hints.yaml
var defaultHints []byte

// Entry is the hint pack for one challenge.
type Entry struct {
	LearningGoal string   `yaml:"learning_goal" json:"learningGoal,omitempty"`
	Hints        []string `yaml:"hints" json:"hints"`
}

type document struct {
	Challenges map[string]Entry  `yaml:"challenges"`
	Categories map[string]string `yaml:"categories"`
}

// Catalog is read-only after construction.
type Catalog struct {
	entries map[string]Entry
	tips    map[string]string
}

// Default returns the catalog embedded in the binary.
func Default() (*Catalog, error) {
	c := &Catalog{entries: map[string]Entry{}, tips: map[string]string{}}
	if err := c.merge(defaultHints); err != nil {
		return nil, fmt.Errorf("parse embedded hints: %w", err)
	}
	return c, nil
}

// Load returns the embedded catalog with entries from path layered on top.
// An empty path yields the embedded catalog.
func Load(path string) (*Catalog, error) {
	c, err := Default()
	if err != nil {
		return nil, err
	}
	if path == "" {
		return c, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read hint catalog: %w", err)
	}
	if err := c.merge(data); err != nil {
		return nil, fmt.Errorf("parse hint catalog %s: %w", path, err)
	}
	return c, nil
}

// Parse builds a catalog from a YAML document only, without the embedded pack.
func Parse(data []byte) (*Catalog, error) {
	c := &Catalog{entries: map[string]Entry{}, tips: map[string]string{}}
	if err := c.merge(data); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Catalog) merge(data []byte) error {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return err
	}
	for key, e := range doc.Challenges {
		key = strings.TrimSpace(key)
		if key == "" {
			return fmt.Errorf("challenge entry with empty key")
		}
		hints := make([]string, 0, len(e.Hints))
		for _, h := range e.Hints {
			if h = strings.TrimSpace(h); h != "" {
				hints = append(hints, h)
			}
		}
		c.entries[key] = Entry{LearningGoal: strings.TrimSpace(e.LearningGoal), Hints: hints}
	}
	for category, tip := range doc.Categories {
		c.tips[category] = strings.TrimSpace(tip)
	}
	return nil
}

// Lookup returns the hint pack for a challenge key.
func (c *Catalog) Lookup(key string) (Entry, bool) {
	e, ok := c.entries[key]
	return e, ok
}

// TotalHints is the hint count for key, 0 when the challenge has no pack.
func (c *Catalog) TotalHints(key string) int {
	return len(c.entries[key].Hints)
}

// Hints returns the first n hints for key.
func (c *Catalog) Hints(key string, n int) []string {
	hints := c.entries[key].Hints
	if n <= 0 {
		return []string{}
	}
	if n > len(hints) {
		n = len(hints)
	}
	out := make([]string, n)
	copy(out, hints[:n])
	return out
}

// Tip returns the study tip for a category. Categories without a dedicated
// tip get a generic one. Matching ignores a parenthesised suffix so
// "XSS (Cross Site Scripting)" finds the "XSS" tip.
func (c *Catalog) Tip(category string) string {
	if tip, ok := c.tips[category]; ok {
		return tip
	}
	if i := strings.Index(category, "("); i > 0 {
		if tip, ok := c.tips[strings.TrimSpace(category[:i])]; ok {
			return tip
		}
	}
	return fmt.Sprintf("Tip: Focus on the concepts related to %s. Research common vulnerabilities in this area.", category)
}

// Len is the number of challenges with a hint pack.
func (c *Catalog) Len() int {
	return len(c.entries)
}

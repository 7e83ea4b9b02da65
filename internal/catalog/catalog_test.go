package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	e, ok := c.Lookup("scoreBoardChallenge")
	require.True(t, ok)
	assert.Len(t, e.Hints, 3)
	assert.Contains(t, e.LearningGoal, "hidden functionality")
	assert.Equal(t, 3, c.TotalHints("domXssChallenge"))
	assert.Equal(t, 0, c.TotalHints("unknownChallenge"))
}

func TestHintsSlicing(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	assert.Empty(t, c.Hints("scoreBoardChallenge", 0))
	assert.Len(t, c.Hints("scoreBoardChallenge", 2), 2)
	assert.Len(t, c.Hints("scoreBoardChallenge", 10), 3)
	assert.Empty(t, c.Hints("unknownChallenge", 2))

	got := c.Hints("scoreBoardChallenge", 1)
	got[0] = "changed"
	e, _ := c.Lookup("scoreBoardChallenge")
	assert.NotEqual(t, "changed", e.Hints[0])
}

func TestLoadOverridesAndExtends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "extra.yaml")
	doc := `
challenges:
  scoreBoardChallenge:
    hints:
      - Only one hint now.
  loginAdminChallenge:
    learning_goal: Bypass authentication with SQL injection.
    hints:
      - What does the login form send to the server?
      - "   "
      - Can the email field change the query?
categories:
  Injection: Custom injection tip.
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	c, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 1, c.TotalHints("scoreBoardChallenge"))
	assert.Equal(t, 2, c.TotalHints("loginAdminChallenge"))
	assert.Equal(t, 3, c.TotalHints("domXssChallenge"))
	assert.Equal(t, "Custom injection tip.", c.Tip("Injection"))
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("challenges: [not, a, map"), 0o600))
	_, err = Load(path)
	assert.Error(t, err)
}

func TestTipFallbacks(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	assert.Contains(t, c.Tip("XSS"), "execute your JavaScript")
	assert.Contains(t, c.Tip("XSS (Cross Site Scripting)"), "execute your JavaScript")
	assert.Contains(t, c.Tip("Miscellaneous"), "Miscellaneous")
}

func TestLoadEmptyPath(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 2, c.Len())
}

func TestParseEmptyKey(t *testing.T) {
	_, err := Parse([]byte("challenges:\n  \"\":\n    hints: [a]\n"))
	assert.Error(t, err)
}

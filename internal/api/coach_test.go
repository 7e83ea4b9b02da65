package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ashureev/juice-coach/internal/catalog"
	"github.com/ashureev/juice-coach/internal/coach"
	"github.com/ashureev/juice-coach/internal/domain"
	"github.com/ashureev/juice-coach/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testChallenges() []domain.Challenge {
	return []domain.Challenge{
		{Key: "scoreBoardChallenge", Name: "Score Board", Category: "Miscellaneous", Difficulty: 1},
		{Key: "domXssChallenge", Name: "DOM XSS", Category: "XSS", Difficulty: 1},
		{Key: "reflectedXssChallenge", Name: "Reflected XSS", Category: "XSS", Difficulty: 2, Solved: true},
		{Key: "loginAdminChallenge", Name: "Login Admin", Category: "Injection", Difficulty: 2},
	}
}

func newTestServer(t *testing.T) (*httptest.Server, *coach.Session) {
	t.Helper()
	cat, err := catalog.Default()
	require.NoError(t, err)

	progress := store.NewProgressStore(store.NewMemory(), nil)
	session := coach.NewSession(context.Background(), progress, coach.Options{InstallationID: "inst_test"})
	session.SetChallenges(testChallenges())
	t.Cleanup(session.Close)

	r := chi.NewRouter()
	NewCoachHandler(NewHandler(session, cat, nil)).RegisterRoutes(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, session
}

func do(t *testing.T, method, url string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

func TestGetStateDefaults(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, body := do(t, http.MethodGet, srv.URL+"/api/state", nil)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Beginner", body["mode"])
	assert.Equal(t, false, body["competencySelected"])
	assert.Equal(t, false, body["minimized"])
	assert.Empty(t, body["challengeState"])
}

func TestGetModes(t *testing.T) {
	srv, _ := newTestServer(t)

	_, body := do(t, http.MethodGet, srv.URL+"/api/modes", nil)

	modes, ok := body["modes"].([]interface{})
	require.True(t, ok)
	require.Len(t, modes, 3)
	assert.Equal(t, "Beginner", modes[0].(map[string]interface{})["mode"])
	assert.Equal(t, "Trainer", modes[2].(map[string]interface{})["mode"])
	assert.Equal(t, "Beginner", body["default"])
}

func TestSetMode(t *testing.T) {
	srv, session := newTestServer(t)

	resp, body := do(t, http.MethodPut, srv.URL+"/api/mode", map[string]string{"mode": "Explorer"})

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Explorer", body["mode"])
	assert.Equal(t, domain.ModeExplorer, session.State().Mode)
}

func TestSetModeInvalid(t *testing.T) {
	srv, session := newTestServer(t)

	resp, body := do(t, http.MethodPut, srv.URL+"/api/mode", map[string]string{"mode": "Expert"})

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body["error"], "Expert")
	assert.Equal(t, domain.ModeBeginner, session.State().Mode)
}

func TestSetModeRequiresExactName(t *testing.T) {
	srv, session := newTestServer(t)

	for _, mode := range []string{"explorer", " Explorer", "EXPLORER"} {
		resp, _ := do(t, http.MethodPut, srv.URL+"/api/mode", map[string]string{"mode": mode})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, mode)
	}
	assert.Equal(t, domain.ModeBeginner, session.State().Mode)
}

func TestSetModeMalformedBody(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, _ := do(t, http.MethodPut, srv.URL+"/api/mode", map[string]string{"level": "Trainer"})

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCompleteCompetency(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, body := do(t, http.MethodPost, srv.URL+"/api/competency", map[string]string{"mode": "Trainer"})

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Trainer", body["mode"])
	assert.Equal(t, true, body["competencySelected"])
}

func TestSetMinimized(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, body := do(t, http.MethodPut, srv.URL+"/api/minimized", map[string]bool{"minimized": true})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["minimized"])

	resp, _ = do(t, http.MethodPut, srv.URL+"/api/minimized", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRequestHintRespectsMode(t *testing.T) {
	srv, _ := newTestServer(t)
	url := srv.URL + "/api/challenges/domXssChallenge/hints"

	do(t, http.MethodPut, srv.URL+"/api/mode", map[string]string{"mode": "Explorer"})

	// Explorer may see ceil(3/2) = 2 of the 3 hints.
	for want := 1; want <= 2; want++ {
		_, body := do(t, http.MethodPost, url, nil)
		result := body["result"].(map[string]interface{})
		assert.Equal(t, true, result["allowed"])
		assert.EqualValues(t, want, result["maxHintSeen"])
	}

	_, body := do(t, http.MethodPost, url, nil)
	result := body["result"].(map[string]interface{})
	view := body["view"].(map[string]interface{})
	assert.Equal(t, false, result["allowed"])
	assert.EqualValues(t, 2, result["maxHintSeen"])
	assert.Len(t, view["hints"], 2)
	assert.Equal(t, false, view["canReveal"])
	assert.Contains(t, view["limitMessage"], "Beginner")
}

func TestLoweringModeHidesHints(t *testing.T) {
	srv, session := newTestServer(t)
	url := srv.URL + "/api/challenges/scoreBoardChallenge"

	for i := 0; i < 3; i++ {
		do(t, http.MethodPost, url+"/hints", nil)
	}
	do(t, http.MethodPut, srv.URL+"/api/mode", map[string]string{"mode": "Trainer"})

	_, view := do(t, http.MethodGet, url, nil)
	assert.Empty(t, view["hints"])
	assert.EqualValues(t, 3, view["maxHintSeen"])

	do(t, http.MethodPut, srv.URL+"/api/mode", map[string]string{"mode": "Beginner"})
	_, view = do(t, http.MethodGet, url, nil)
	assert.Len(t, view["hints"], 3)

	p, ok := session.Progress("scoreBoardChallenge")
	require.True(t, ok)
	assert.Equal(t, 3, p.MaxHintSeen)
}

func TestUnknownChallengeHasNoHints(t *testing.T) {
	srv, session := newTestServer(t)

	_, body := do(t, http.MethodPost, srv.URL+"/api/challenges/nonexistent/hints", nil)

	result := body["result"].(map[string]interface{})
	assert.Equal(t, false, result["allowed"])
	assert.EqualValues(t, 0, result["maxAllowed"])
	_, ok := session.Progress("nonexistent")
	assert.False(t, ok)
}

func TestChallengeViewIncludesTip(t *testing.T) {
	srv, _ := newTestServer(t)

	_, view := do(t, http.MethodGet, srv.URL+"/api/challenges/domXssChallenge", nil)

	assert.NotEmpty(t, view["learningGoal"])
	assert.Contains(t, view["tip"], "XSS")
	require.NotNil(t, view["challenge"])
	assert.Equal(t, "DOM XSS", view["challenge"].(map[string]interface{})["name"])
}

func TestSetNotes(t *testing.T) {
	srv, session := newTestServer(t)

	resp, view := do(t, http.MethodPut, srv.URL+"/api/challenges/loginAdminChallenge/notes",
		map[string]string{"notes": "  try ' OR 1=1--  "})

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "  try ' OR 1=1--  ", view["notes"])
	p, _ := session.Progress("loginAdminChallenge")
	assert.Equal(t, "  try ' OR 1=1--  ", p.Notes)
}

func TestListChallengesFilters(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"all in display order", "", []string{"DOM XSS", "Score Board", "Login Admin", "Reflected XSS"}},
		{"search", "?search=xss", []string{"DOM XSS", "Reflected XSS"}},
		{"difficulty", "?difficulty=2", []string{"Login Admin", "Reflected XSS"}},
		{"hide solved", "?show_solved=false", []string{"DOM XSS", "Score Board", "Login Admin"}},
		{"combined", "?search=xss&difficulty=1,2&show_solved=false", []string{"DOM XSS"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := do(t, http.MethodGet, srv.URL+"/api/challenges"+tt.query, nil)
			require.Equal(t, http.StatusOK, resp.StatusCode)

			var names []string
			for _, c := range body["challenges"].([]interface{}) {
				names = append(names, c.(map[string]interface{})["name"].(string))
			}
			assert.Equal(t, tt.want, names)
		})
	}
}

func TestListChallengesBadQuery(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, _ := do(t, http.MethodGet, srv.URL+"/api/challenges?difficulty=hard", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = do(t, http.MethodGet, srv.URL+"/api/challenges?show_solved=perhaps", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetRecommendation(t *testing.T) {
	srv, _ := newTestServer(t)

	// Hints on XSS make it the weakest category.
	do(t, http.MethodPost, srv.URL+"/api/challenges/domXssChallenge/hints", nil)
	do(t, http.MethodPost, srv.URL+"/api/challenges/domXssChallenge/hints", nil)

	_, body := do(t, http.MethodGet, srv.URL+"/api/recommendation", nil)

	rec := body["recommendation"].(map[string]interface{})
	assert.Equal(t, "domXssChallenge", rec["key"])
	assert.Len(t, body["scores"], 3)
	assert.Contains(t, body["tip"], "XSS")
}

func TestGetRecommendationAllSolved(t *testing.T) {
	srv, session := newTestServer(t)
	session.SetChallenges([]domain.Challenge{{Key: "a", Name: "A", Category: "X", Difficulty: 1, Solved: true}})

	_, body := do(t, http.MethodGet, srv.URL+"/api/recommendation", nil)

	assert.Nil(t, body["recommendation"])
	assert.NotContains(t, body, "tip")
}

func TestResetKeepsMode(t *testing.T) {
	srv, session := newTestServer(t)
	do(t, http.MethodPost, srv.URL+"/api/competency", map[string]string{"mode": "Explorer"})
	do(t, http.MethodPost, srv.URL+"/api/challenges/domXssChallenge/hints", nil)

	resp, body := do(t, http.MethodPost, srv.URL+"/api/reset", nil)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Explorer", body["mode"])
	assert.Empty(t, body["challengeState"])
	assert.True(t, session.State().CompetencySelected)
}

func TestExternalResetMarksUnsolved(t *testing.T) {
	srv, session := newTestServer(t)
	do(t, http.MethodPut, srv.URL+"/api/challenges/domXssChallenge/notes", map[string]string{"notes": "x"})

	resp, body := do(t, http.MethodPost, srv.URL+"/api/reset/external", nil)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, body["challengeState"])
	for _, c := range session.Challenges() {
		assert.False(t, c.Solved, c.Key)
	}
}

type failingPinger struct{ err error }

func (p failingPinger) Ping(context.Context) error { return p.err }

func TestHealth(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		want   string
	}{
		{"healthy", nil, http.StatusOK, "healthy"},
		{"degraded", errors.New("down"), http.StatusServiceUnavailable, "degraded"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := chi.NewRouter()
			NewHealthHandler(failingPinger{err: tt.err}, 0).RegisterHealth(r)
			w := httptest.NewRecorder()

			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

			assert.Equal(t, tt.status, w.Code)
			var body map[string]interface{}
			require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
			assert.Equal(t, tt.want, body["status"])
		})
	}
}

package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/ashureev/juice-coach/internal/coach"
	"github.com/ashureev/juice-coach/internal/domain"
	"github.com/ashureev/juice-coach/internal/policy"
	"github.com/ashureev/juice-coach/internal/recommend"
	"github.com/go-chi/chi/v5"
)

// CoachHandler exposes the coaching session.
type CoachHandler struct {
	*Handler
}

// NewCoachHandler creates a new coach handler.
func NewCoachHandler(base *Handler) *CoachHandler {
	return &CoachHandler{Handler: base}
}

// RegisterRoutes registers coaching routes.
func (h *CoachHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/modes", h.GetModes)
		r.Get("/state", h.GetState)
		r.Put("/mode", h.SetMode)
		r.Post("/competency", h.CompleteCompetency)
		r.Put("/minimized", h.SetMinimized)
		r.Get("/challenges", h.ListChallenges)
		r.Get("/challenges/{key}", h.GetChallenge)
		r.Post("/challenges/{key}/hints", h.RequestHint)
		r.Put("/challenges/{key}/notes", h.SetNotes)
		r.Get("/recommendation", h.GetRecommendation)
		r.Post("/reset", h.Reset)
		r.Post("/reset/external", h.ExternalReset)
	})
}

type modeInfo struct {
	Mode        domain.Mode `json:"mode"`
	Description string      `json:"description"`
}

var modeDescriptions = map[domain.Mode]string{
	domain.ModeBeginner: "Step-by-step guidance with every hint available.",
	domain.ModeExplorer: "Core guidance only. Up to half of each challenge's hints.",
	domain.ModeTrainer:  "No hints. Learning goals and your own notes only.",
}

// GetModes lists the competency modes from most to least guided.
func (h *CoachHandler) GetModes(w http.ResponseWriter, _ *http.Request) {
	modes := domain.Modes()
	out := make([]modeInfo, 0, len(modes))
	for _, m := range modes {
		out = append(out, modeInfo{Mode: m, Description: modeDescriptions[m]})
	}
	JSON(w, http.StatusOK, map[string]interface{}{
		"modes":   out,
		"default": domain.DefaultMode,
	})
}

// GetState returns the current coaching state.
func (h *CoachHandler) GetState(w http.ResponseWriter, _ *http.Request) {
	JSON(w, http.StatusOK, h.session.State())
}

type modeRequest struct {
	Mode string `json:"mode"`
}

// SetMode changes the competency mode.
func (h *CoachHandler) SetMode(w http.ResponseWriter, r *http.Request) {
	var req modeRequest
	if err := decode(w, r, &req); err != nil {
		Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.session.SetMode(r.Context(), req.Mode); err != nil {
		h.writeErr(w, err)
		return
	}
	JSON(w, http.StatusOK, h.session.State())
}

// CompleteCompetency finishes onboarding with the chosen mode.
func (h *CoachHandler) CompleteCompetency(w http.ResponseWriter, r *http.Request) {
	var req modeRequest
	if err := decode(w, r, &req); err != nil {
		Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.session.CompleteCompetencySelection(r.Context(), req.Mode); err != nil {
		h.writeErr(w, err)
		return
	}
	JSON(w, http.StatusOK, h.session.State())
}

type minimizedRequest struct {
	Minimized *bool `json:"minimized"`
}

// SetMinimized records whether the overlay is collapsed.
func (h *CoachHandler) SetMinimized(w http.ResponseWriter, r *http.Request) {
	var req minimizedRequest
	if err := decode(w, r, &req); err != nil {
		Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Minimized == nil {
		Error(w, http.StatusBadRequest, "minimized is required")
		return
	}
	h.session.SetMinimized(r.Context(), *req.Minimized)
	JSON(w, http.StatusOK, h.session.State())
}

// ListChallenges returns the cached challenges, filtered and display-sorted.
func (h *CoachHandler) ListChallenges(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := coach.Filter{Search: q.Get("search")}

	for _, raw := range q["difficulty"] {
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			d, err := strconv.Atoi(part)
			if err != nil {
				Error(w, http.StatusBadRequest, "difficulty must be a comma-separated list of integers")
				return
			}
			filter.Difficulties = append(filter.Difficulties, d)
		}
	}

	if raw := q.Get("show_solved"); raw != "" {
		show, err := strconv.ParseBool(raw)
		if err != nil {
			Error(w, http.StatusBadRequest, "show_solved must be a boolean")
			return
		}
		filter.HideSolved = !show
	}

	challenges := filter.Apply(h.session.Challenges())
	JSON(w, http.StatusOK, map[string]interface{}{
		"challenges": challenges,
		"count":      len(challenges),
	})
}

// challengeView is everything the overlay shows for one challenge.
type challengeView struct {
	Key          string            `json:"key"`
	Challenge    *domain.Challenge `json:"challenge,omitempty"`
	LearningGoal string            `json:"learningGoal,omitempty"`
	Hints        []string          `json:"hints"`
	TotalHints   int               `json:"totalHints"`
	MaxAllowed   int               `json:"maxAllowed"`
	MaxHintSeen  int               `json:"maxHintSeen"`
	CanReveal    bool              `json:"canReveal"`
	LimitMessage string            `json:"limitMessage,omitempty"`
	Notes        string            `json:"notes"`
	Tip          string            `json:"tip,omitempty"`
}

func (h *CoachHandler) view(key string) challengeView {
	state := h.session.State()
	total := h.catalog.TotalHints(key)
	entry, _ := h.catalog.Lookup(key)
	progress, _ := state.Lookup(key)
	visible := policy.VisibleHints(progress.MaxHintSeen, state.Mode, total)
	maxAllowed := policy.MaxAllowedHints(state.Mode, total)

	v := challengeView{
		Key:          key,
		LearningGoal: entry.LearningGoal,
		Hints:        h.catalog.Hints(key, visible),
		TotalHints:   total,
		MaxAllowed:   maxAllowed,
		MaxHintSeen:  progress.MaxHintSeen,
		CanReveal:    progress.MaxHintSeen < maxAllowed,
		Notes:        progress.Notes,
	}
	if !v.CanReveal && total > 0 {
		v.LimitMessage = policy.LimitMessage(state.Mode)
	}
	for _, c := range h.session.Challenges() {
		if c.Key == key {
			v.Challenge = &c
			v.Tip = h.catalog.Tip(c.Category)
			break
		}
	}
	return v
}

// GetChallenge returns the coaching view of one challenge.
func (h *CoachHandler) GetChallenge(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, h.view(chi.URLParam(r, "key")))
}

// RequestHint unlocks the next hint when the mode allows it.
func (h *CoachHandler) RequestHint(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	res := h.session.RequestHint(r.Context(), key, h.catalog.TotalHints(key))
	JSON(w, http.StatusOK, map[string]interface{}{
		"result": res,
		"view":   h.view(key),
	})
}

type notesRequest struct {
	Notes string `json:"notes"`
}

// SetNotes stores the learner's notes verbatim.
func (h *CoachHandler) SetNotes(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	var req notesRequest
	if err := decode(w, r, &req); err != nil {
		Error(w, http.StatusBadRequest, err.Error())
		return
	}
	h.session.SetNotes(r.Context(), key, req.Notes)
	JSON(w, http.StatusOK, h.view(key))
}

// GetRecommendation returns the next challenge and the category breakdown.
func (h *CoachHandler) GetRecommendation(w http.ResponseWriter, _ *http.Request) {
	challenges := h.session.Challenges()
	state := h.session.State()
	scores := recommend.Scores(challenges, state)

	resp := map[string]interface{}{
		"scores":         scores,
		"recommendation": nil,
	}
	if next, ok := recommend.Recommend(challenges, state); ok {
		resp["recommendation"] = next
		resp["tip"] = h.catalog.Tip(next.Category)
	}
	JSON(w, http.StatusOK, resp)
}

// Reset clears all per-challenge progress. The mode is kept.
func (h *CoachHandler) Reset(w http.ResponseWriter, r *http.Request) {
	h.session.ResetHistory(r.Context())
	JSON(w, http.StatusOK, h.session.State())
}

// ExternalReset handles the host application's progress-wipe signal.
func (h *CoachHandler) ExternalReset(w http.ResponseWriter, r *http.Request) {
	h.session.ResetOnExternalSignal(r.Context())
	JSON(w, http.StatusOK, h.session.State())
}

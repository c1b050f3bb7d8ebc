package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/zatekoja/apprating/internal/domain/entities"
)

// PromptService defines the prompt operations used by the handler
type PromptService interface {
	State(ctx context.Context, storageKey string) entities.PromptState
	Initialize(ctx context.Context, storageKey string) (entities.PromptState, error)
	TrackAction(ctx context.Context, storageKey string, cfg entities.PromptConfig) (entities.PromptState, bool, error)
	SubmitRating(ctx context.Context, storageKey string, value int) (entities.RatingOutcome, error)
	SetDismissed(ctx context.Context, storageKey string) (entities.PromptState, error)
	Reset(ctx context.Context, storageKey string) (entities.PromptState, error)
	ShouldShowRating(ctx context.Context, storageKey string, cfg entities.PromptConfig) bool
}

// PromptHandler exposes the "rate this app" prompt state
type PromptHandler struct {
	service  PromptService
	defaults entities.PromptConfig
}

// NewPromptHandler creates a new prompt handler. defaults apply when a request
// carries no thresholds of its own.
func NewPromptHandler(service PromptService, defaults entities.PromptConfig) *PromptHandler {
	return &PromptHandler{service: service, defaults: defaults}
}

type promptResponse struct {
	StorageKey           string               `json:"storage_key"`
	State                entities.PromptState `json:"state"`
	ShouldShow           *bool                `json:"should_show,omitempty"`
	StoreReviewRequested *bool                `json:"store_review_requested,omitempty"`
	FeedbackRequested    *bool                `json:"feedback_requested,omitempty"`
	Warning              string               `json:"warning,omitempty"`
}

type ratingRequest struct {
	Rating int `json:"rating"`
}

// respondWithPrompt writes the state, downgrading persistence failures to a warning.
func (h *PromptHandler) respondWithPrompt(w http.ResponseWriter, r *http.Request, resp promptResponse, err error) {
	if err != nil {
		warning, ok := degraded(err)
		if !ok {
			respondWithAppError(w, r, err)
			return
		}
		resp.Warning = warning
	}
	respondWithJSON(w, http.StatusOK, resp)
}

// promptConfig reads optional threshold overrides from the query string
func (h *PromptHandler) promptConfig(r *http.Request) (entities.PromptConfig, bool) {
	cfg := h.defaults
	query := r.URL.Query()

	for name, dst := range map[string]*int{
		"actions_before_rating": &cfg.ActionsBeforeRating,
		"days_between_ratings":  &cfg.DaysBetweenRatings,
	} {
		raw := query.Get(name)
		if raw == "" {
			continue
		}
		value, err := strconv.Atoi(raw)
		if err != nil || value < 0 {
			return cfg, false
		}
		*dst = value
	}
	return cfg, true
}

// GetState handles GET /api/prompt/{storageKey}; ?reload=true re-reads storage
func (h *PromptHandler) GetState(w http.ResponseWriter, r *http.Request) {
	storageKey := r.PathValue("storageKey")

	if reload, _ := strconv.ParseBool(r.URL.Query().Get("reload")); reload {
		state, err := h.service.Initialize(r.Context(), storageKey)
		resp := promptResponse{StorageKey: storageKey, State: state}
		if err != nil {
			warning, ok := degradedRead(err)
			if !ok {
				respondWithAppError(w, r, err)
				return
			}
			resp.Warning = warning
		}
		respondWithJSON(w, http.StatusOK, resp)
		return
	}

	state := h.service.State(r.Context(), storageKey)
	respondWithJSON(w, http.StatusOK, promptResponse{StorageKey: storageKey, State: state})
}

// GetEligibility handles GET /api/prompt/{storageKey}/eligibility
func (h *PromptHandler) GetEligibility(w http.ResponseWriter, r *http.Request) {
	storageKey := r.PathValue("storageKey")
	cfg, ok := h.promptConfig(r)
	if !ok {
		respondWithError(w, http.StatusBadRequest, "thresholds must be non-negative integers")
		return
	}

	show := h.service.ShouldShowRating(r.Context(), storageKey, cfg)
	state := h.service.State(r.Context(), storageKey)
	respondWithJSON(w, http.StatusOK, promptResponse{StorageKey: storageKey, State: state, ShouldShow: &show})
}

// TrackAction handles POST /api/prompt/{storageKey}/actions
func (h *PromptHandler) TrackAction(w http.ResponseWriter, r *http.Request) {
	storageKey := r.PathValue("storageKey")
	cfg, ok := h.promptConfig(r)
	if !ok {
		respondWithError(w, http.StatusBadRequest, "thresholds must be non-negative integers")
		return
	}

	state, show, err := h.service.TrackAction(r.Context(), storageKey, cfg)
	h.respondWithPrompt(w, r, promptResponse{StorageKey: storageKey, State: state, ShouldShow: &show}, err)
}

// SubmitRating handles POST /api/prompt/{storageKey}/rating
func (h *PromptHandler) SubmitRating(w http.ResponseWriter, r *http.Request) {
	storageKey := r.PathValue("storageKey")

	var payload ratingRequest
	if !decodeJSON(w, r, &payload) {
		return
	}

	outcome, err := h.service.SubmitRating(r.Context(), storageKey, payload.Rating)
	h.respondWithPrompt(w, r, promptResponse{
		StorageKey:           storageKey,
		State:                outcome.State,
		StoreReviewRequested: &outcome.StoreReviewRequested,
		FeedbackRequested:    &outcome.FeedbackRequested,
	}, err)
}

// Dismiss handles POST /api/prompt/{storageKey}/dismiss
func (h *PromptHandler) Dismiss(w http.ResponseWriter, r *http.Request) {
	storageKey := r.PathValue("storageKey")
	state, err := h.service.SetDismissed(r.Context(), storageKey)
	h.respondWithPrompt(w, r, promptResponse{StorageKey: storageKey, State: state}, err)
}

// Reset handles DELETE /api/prompt/{storageKey}
func (h *PromptHandler) Reset(w http.ResponseWriter, r *http.Request) {
	storageKey := r.PathValue("storageKey")
	state, err := h.service.Reset(r.Context(), storageKey)
	h.respondWithPrompt(w, r, promptResponse{StorageKey: storageKey, State: state}, err)
}

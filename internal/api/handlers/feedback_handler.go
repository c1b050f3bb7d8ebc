package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/zatekoja/apprating/internal/domain/entities"
)

// FeedbackService defines the feedback operations used by the handler.
type FeedbackService interface {
	Submit(ctx context.Context, feedback *entities.Feedback) error
	List(ctx context.Context, storageKey string) ([]*entities.Feedback, error)
}

// FeedbackHandler handles the private feedback left after a low app rating.
type FeedbackHandler struct {
	service FeedbackService
	guard   *submissionGuard
}

// NewFeedbackHandler creates a new feedback handler.
func NewFeedbackHandler(service FeedbackService) *FeedbackHandler {
	return &FeedbackHandler{
		service: service,
		guard:   newSubmissionGuard(),
	}
}

type feedbackRequest struct {
	Rating  int    `json:"rating"`
	Message string `json:"message"`
	Email   string `json:"email"`
}

// SubmitFeedback handles POST /api/prompt/{storageKey}/feedback
func (h *FeedbackHandler) SubmitFeedback(w http.ResponseWriter, r *http.Request) {
	storageKey := r.PathValue("storageKey")

	var payload feedbackRequest
	if !decodeJSON(w, r, &payload) {
		return
	}

	feedback := &entities.Feedback{
		StorageKey: storageKey,
		Rating:     payload.Rating,
		Message:    strings.TrimSpace(payload.Message),
		Email:      strings.TrimSpace(payload.Email),
		UserAgent:  r.UserAgent(),
	}
	if err := feedback.Validate(); err != nil {
		respondWithAppError(w, r, err)
		return
	}

	ip := clientIP(r)
	if !h.guard.admit(w, "feedback:"+ip) {
		return
	}
	if h.guard.duplicate("feedback", storageKey, strconv.Itoa(payload.Rating), feedback.Message, feedback.Email, ip) {
		respondWithJSON(w, http.StatusAccepted, map[string]string{
			"status": "duplicate_ignored",
		})
		return
	}

	if err := h.service.Submit(r.Context(), feedback); err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, map[string]string{
		"status": "received",
		"id":     feedback.ID,
	})
}

// ListFeedback handles GET /api/prompt/{storageKey}/feedback
func (h *FeedbackHandler) ListFeedback(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.List(r.Context(), r.PathValue("storageKey"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	if list == nil {
		list = []*entities.Feedback{}
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"feedback": list,
		"count":    len(list),
	})
}

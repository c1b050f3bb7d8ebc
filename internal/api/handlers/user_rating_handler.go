package handlers

import (
	"context"
	"net/http"

	"github.com/zatekoja/apprating/internal/domain/entities"
	"github.com/zatekoja/apprating/internal/domain/rating"
)

// UserRatingService defines the standalone rating operations used by the handler
type UserRatingService interface {
	Get(ctx context.Context, key entities.UserRatingKey) (float64, error)
	Save(ctx context.Context, key entities.UserRatingKey, value float64) (float64, error)
	Clear(ctx context.Context, key entities.UserRatingKey) error
}

// UserRatingHandler handles a user's standalone star rating of a target
type UserRatingHandler struct {
	service UserRatingService
}

// NewUserRatingHandler creates a new user rating handler
func NewUserRatingHandler(service UserRatingService) *UserRatingHandler {
	return &UserRatingHandler{service: service}
}

type userRatingRequest struct {
	Rating *float64 `json:"rating"`
}

type userRatingResponse struct {
	TargetType string  `json:"target_type"`
	TargetID   string  `json:"target_id"`
	UserID     string  `json:"user_id"`
	Rating     float64 `json:"rating"`
	Text       string  `json:"text"`
	Warning    string  `json:"warning,omitempty"`
}

func userRatingKeyFromPath(r *http.Request) entities.UserRatingKey {
	return entities.UserRatingKey{
		TargetType: r.PathValue("targetType"),
		TargetID:   r.PathValue("targetId"),
		UserID:     r.PathValue("userId"),
	}
}

func newUserRatingResponse(key entities.UserRatingKey, value float64) userRatingResponse {
	return userRatingResponse{
		TargetType: key.TargetType,
		TargetID:   key.TargetID,
		UserID:     key.UserID,
		Rating:     value,
		Text:       rating.FormatRatingText(value),
	}
}

// GetRating handles GET /api/targets/{targetType}/{targetId}/ratings/{userId}
func (h *UserRatingHandler) GetRating(w http.ResponseWriter, r *http.Request) {
	key := userRatingKeyFromPath(r)
	value, err := h.service.Get(r.Context(), key)
	resp := newUserRatingResponse(key, value)
	if err != nil {
		warning, ok := degradedRead(err)
		if !ok {
			respondWithAppError(w, r, err)
			return
		}
		resp.Warning = warning
	}
	respondWithJSON(w, http.StatusOK, resp)
}

// SaveRating handles PUT /api/targets/{targetType}/{targetId}/ratings/{userId}
func (h *UserRatingHandler) SaveRating(w http.ResponseWriter, r *http.Request) {
	var payload userRatingRequest
	if !decodeJSON(w, r, &payload) {
		return
	}
	if payload.Rating == nil {
		respondWithError(w, http.StatusBadRequest, "rating is required")
		return
	}

	key := userRatingKeyFromPath(r)
	value, err := h.service.Save(r.Context(), key, *payload.Rating)
	resp := newUserRatingResponse(key, value)
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

// ClearRating handles DELETE /api/targets/{targetType}/{targetId}/ratings/{userId}
func (h *UserRatingHandler) ClearRating(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Clear(r.Context(), userRatingKeyFromPath(r)); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

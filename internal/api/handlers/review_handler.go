package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/zatekoja/apprating/internal/domain/entities"
	"github.com/zatekoja/apprating/internal/domain/rating"
)

// UserIDHeader carries the id of the user submitting a review.
const UserIDHeader = "X-User-ID"

// ReviewService defines the review operations used by the handler
type ReviewService interface {
	LoadReviews(ctx context.Context, key entities.BucketKey) ([]*entities.Review, error)
	IsLoaded(key entities.BucketKey) bool
	SortedReviews(key entities.BucketKey, by entities.SortKey) []*entities.Review
	GetStats(key entities.BucketKey) entities.RatingStats
	AddReview(ctx context.Context, key entities.BucketKey, input entities.ReviewInput, userID string) (*entities.Review, error)
	UpdateReview(ctx context.Context, reviewID string, patch entities.ReviewPatch) (*entities.Review, error)
	DeleteReview(ctx context.Context, reviewID string) error
	MarkHelpful(ctx context.Context, reviewID string) (*entities.Review, error)
}

// ReviewHandler handles review HTTP requests
type ReviewHandler struct {
	service ReviewService
	guard   *submissionGuard
}

// NewReviewHandler creates a new review handler
func NewReviewHandler(service ReviewService) *ReviewHandler {
	return &ReviewHandler{
		service: service,
		guard:   newSubmissionGuard(),
	}
}

type statsResponse struct {
	entities.RatingStats
	Text string `json:"text"`
}

func newStatsResponse(stats entities.RatingStats) statsResponse {
	return statsResponse{RatingStats: stats, Text: rating.FormatRatingText(stats.Average)}
}

type bucketStatsResponse struct {
	Bucket  entities.BucketKey `json:"bucket"`
	Stats   statsResponse      `json:"stats"`
	Warning string             `json:"warning,omitempty"`
}

type reviewListResponse struct {
	Bucket  entities.BucketKey `json:"bucket"`
	Reviews []*entities.Review `json:"reviews"`
	Stats   statsResponse      `json:"stats"`
	Warning string             `json:"warning,omitempty"`
}

type reviewResponse struct {
	Review  *entities.Review `json:"review"`
	Stats   *statsResponse   `json:"stats,omitempty"`
	Warning string           `json:"warning,omitempty"`
}

func bucketFromPath(r *http.Request) entities.BucketKey {
	return entities.BucketKey{
		TargetType: r.PathValue("targetType"),
		TargetID:   r.PathValue("targetId"),
	}
}

// load reads the bucket from storage on first access or when ?reload=true is set;
// otherwise the cached bucket is served as is. It writes an error response and
// returns false only when the failure leaves nothing to serve.
func (h *ReviewHandler) load(w http.ResponseWriter, r *http.Request, key entities.BucketKey) (string, bool) {
	reload, _ := strconv.ParseBool(r.URL.Query().Get("reload"))
	if !reload && key.Valid() && h.service.IsLoaded(key) {
		return "", true
	}

	_, err := h.service.LoadReviews(r.Context(), key)
	if err == nil {
		return "", true
	}
	if warning, ok := degradedRead(err); ok {
		return warning, true
	}
	respondWithAppError(w, r, err)
	return "", false
}

// ListReviews handles GET /api/targets/{targetType}/{targetId}/reviews
func (h *ReviewHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	key := bucketFromPath(r)
	warning, ok := h.load(w, r, key)
	if !ok {
		return
	}

	sortKey := entities.SortKey(r.URL.Query().Get("sort"))
	respondWithJSON(w, http.StatusOK, reviewListResponse{
		Bucket:  key,
		Reviews: h.service.SortedReviews(key, sortKey),
		Stats:   newStatsResponse(h.service.GetStats(key)),
		Warning: warning,
	})
}

// GetStats handles GET /api/targets/{targetType}/{targetId}/stats
func (h *ReviewHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	key := bucketFromPath(r)
	warning, ok := h.load(w, r, key)
	if !ok {
		return
	}

	respondWithJSON(w, http.StatusOK, bucketStatsResponse{
		Bucket:  key,
		Stats:   newStatsResponse(h.service.GetStats(key)),
		Warning: warning,
	})
}

// CreateReview handles POST /api/targets/{targetType}/{targetId}/reviews
func (h *ReviewHandler) CreateReview(w http.ResponseWriter, r *http.Request) {
	key := bucketFromPath(r)
	userID := strings.TrimSpace(r.Header.Get(UserIDHeader))
	if userID == "" {
		respondWithError(w, http.StatusBadRequest, UserIDHeader+" header is required")
		return
	}

	var input entities.ReviewInput
	if !decodeJSON(w, r, &input) {
		return
	}
	input.Comment = strings.TrimSpace(input.Comment)
	input.Title = strings.TrimSpace(input.Title)
	if err := input.Validate(); err != nil {
		respondWithAppError(w, r, err)
		return
	}

	if !h.guard.admit(w, "review:"+clientIP(r)+":"+userID) {
		return
	}
	if h.guard.duplicate("review", key.String(), userID, strconv.FormatFloat(input.Rating, 'f', 1, 64), input.Title, input.Comment) {
		respondWithJSON(w, http.StatusAccepted, map[string]string{
			"status": "duplicate_ignored",
		})
		return
	}

	review, err := h.service.AddReview(r.Context(), key, input, userID)
	resp := reviewResponse{Review: review}
	if err != nil {
		warning, ok := degraded(err)
		if !ok || review == nil {
			respondWithAppError(w, r, err)
			return
		}
		resp.Warning = warning
	}

	stats := newStatsResponse(h.service.GetStats(key))
	resp.Stats = &stats
	respondWithJSON(w, http.StatusCreated, resp)
}

// UpdateReview handles PATCH /api/reviews/{id}
func (h *ReviewHandler) UpdateReview(w http.ResponseWriter, r *http.Request) {
	var patch entities.ReviewPatch
	if !decodeJSON(w, r, &patch) {
		return
	}
	if patch.Empty() {
		respondWithError(w, http.StatusBadRequest, "no fields to update")
		return
	}

	review, err := h.service.UpdateReview(r.Context(), r.PathValue("id"), patch)
	h.respondWithReview(w, r, review, err)
}

// MarkHelpful handles POST /api/reviews/{id}/helpful
func (h *ReviewHandler) MarkHelpful(w http.ResponseWriter, r *http.Request) {
	review, err := h.service.MarkHelpful(r.Context(), r.PathValue("id"))
	h.respondWithReview(w, r, review, err)
}

// DeleteReview handles DELETE /api/reviews/{id}
func (h *ReviewHandler) DeleteReview(w http.ResponseWriter, r *http.Request) {
	err := h.service.DeleteReview(r.Context(), r.PathValue("id"))
	if err != nil {
		warning, ok := degraded(err)
		if !ok {
			respondWithAppError(w, r, err)
			return
		}
		respondWithJSON(w, http.StatusOK, map[string]string{"status": "deleted", "warning": warning})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ReviewHandler) respondWithReview(w http.ResponseWriter, r *http.Request, review *entities.Review, err error) {
	resp := reviewResponse{Review: review}
	if err != nil {
		warning, ok := degraded(err)
		if !ok || review == nil {
			respondWithAppError(w, r, err)
			return
		}
		resp.Warning = warning
	}

	stats := newStatsResponse(h.service.GetStats(review.Bucket()))
	resp.Stats = &stats
	respondWithJSON(w, http.StatusOK, resp)
}

package handlers

import (
	"context"
	"net/http"
)

// StoreReviewService defines the platform review operations used by the handler
type StoreReviewService interface {
	IsStoreReviewAvailable(ctx context.Context) bool
	RequestStoreReview(ctx context.Context) bool
}

// StoreReviewHandler exposes the native store review trigger
type StoreReviewHandler struct {
	service StoreReviewService
}

// NewStoreReviewHandler creates a new store review handler
func NewStoreReviewHandler(service StoreReviewService) *StoreReviewHandler {
	return &StoreReviewHandler{service: service}
}

// GetAvailability handles GET /api/store-review/availability
func (h *StoreReviewHandler) GetAvailability(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]bool{
		"available": h.service.IsStoreReviewAvailable(r.Context()),
	})
}

// RequestReview handles POST /api/store-review/request
func (h *StoreReviewHandler) RequestReview(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]bool{
		"requested": h.service.RequestStoreReview(r.Context()),
	})
}

package routes

import (
	"net/http"

	"github.com/zatekoja/apprating/internal/api/handlers"
	"github.com/zatekoja/apprating/internal/api/loaders"
	"github.com/zatekoja/apprating/internal/api/middleware"
	"github.com/zatekoja/apprating/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	promptHandler      *handlers.PromptHandler
	feedbackHandler    *handlers.FeedbackHandler
	reviewHandler      *handlers.ReviewHandler
	userRatingHandler  *handlers.UserRatingHandler
	statsHandler       *handlers.StatsHandler
	storeReviewHandler *handlers.StoreReviewHandler
	sseHandler         *handlers.SSEHandler

	statsSource loaders.StatsSource
	metrics     *observability.Metrics
}

// NewRouter creates a new router. sseHandler may be nil, which disables the
// review stream endpoint.
func NewRouter(
	promptHandler *handlers.PromptHandler,
	feedbackHandler *handlers.FeedbackHandler,
	reviewHandler *handlers.ReviewHandler,
	userRatingHandler *handlers.UserRatingHandler,
	statsHandler *handlers.StatsHandler,
	storeReviewHandler *handlers.StoreReviewHandler,
	sseHandler *handlers.SSEHandler,
	statsSource loaders.StatsSource,
	metrics *observability.Metrics,
) *Router {
	return &Router{
		mux:                http.NewServeMux(),
		promptHandler:      promptHandler,
		feedbackHandler:    feedbackHandler,
		reviewHandler:      reviewHandler,
		userRatingHandler:  userRatingHandler,
		statsHandler:       statsHandler,
		storeReviewHandler: storeReviewHandler,
		sseHandler:         sseHandler,
		statsSource:        statsSource,
		metrics:            metrics,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			return
		}
	})

	// App rating prompt
	r.mux.HandleFunc("GET /api/prompt/{storageKey}", r.promptHandler.GetState)
	r.mux.HandleFunc("GET /api/prompt/{storageKey}/eligibility", r.promptHandler.GetEligibility)
	r.mux.HandleFunc("POST /api/prompt/{storageKey}/actions", r.promptHandler.TrackAction)
	r.mux.HandleFunc("POST /api/prompt/{storageKey}/rating", r.promptHandler.SubmitRating)
	r.mux.HandleFunc("POST /api/prompt/{storageKey}/dismiss", r.promptHandler.Dismiss)
	r.mux.HandleFunc("DELETE /api/prompt/{storageKey}", r.promptHandler.Reset)

	r.mux.HandleFunc("POST /api/prompt/{storageKey}/feedback", r.feedbackHandler.SubmitFeedback)
	r.mux.HandleFunc("GET /api/prompt/{storageKey}/feedback", r.feedbackHandler.ListFeedback)

	// Reviews
	r.mux.HandleFunc("GET /api/targets/{targetType}/{targetId}/reviews", r.reviewHandler.ListReviews)
	r.mux.HandleFunc("POST /api/targets/{targetType}/{targetId}/reviews", r.reviewHandler.CreateReview)
	r.mux.HandleFunc("GET /api/targets/{targetType}/{targetId}/stats", r.reviewHandler.GetStats)
	r.mux.HandleFunc("PATCH /api/reviews/{id}", r.reviewHandler.UpdateReview)
	r.mux.HandleFunc("DELETE /api/reviews/{id}", r.reviewHandler.DeleteReview)
	r.mux.HandleFunc("POST /api/reviews/{id}/helpful", r.reviewHandler.MarkHelpful)

	if r.sseHandler != nil {
		r.mux.HandleFunc("GET /api/targets/{targetType}/{targetId}/reviews/stream", r.sseHandler.StreamReviewUpdates)
	}

	// Standalone user ratings
	r.mux.HandleFunc("GET /api/targets/{targetType}/{targetId}/ratings/{userId}", r.userRatingHandler.GetRating)
	r.mux.HandleFunc("PUT /api/targets/{targetType}/{targetId}/ratings/{userId}", r.userRatingHandler.SaveRating)
	r.mux.HandleFunc("DELETE /api/targets/{targetType}/{targetId}/ratings/{userId}", r.userRatingHandler.ClearRating)

	r.mux.HandleFunc("GET /api/stats", r.statsHandler.GetBatchStats)

	// Platform store review sheet
	r.mux.HandleFunc("GET /api/store-review/availability", r.storeReviewHandler.GetAvailability)
	r.mux.HandleFunc("POST /api/store-review/request", r.storeReviewHandler.RequestReview)

	// Apply middleware in reverse order (last middleware wraps first)
	var handler http.Handler = r.mux
	handler = middleware.ETag(handler)
	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)
	handler = loaders.Middleware(r.statsSource)(handler)
	handler = middleware.LoggingMiddleware(handler)

	// CORS wraps everything so preflights never reach the handlers
	handler = middleware.CORSMiddleware(handler)

	return handler
}

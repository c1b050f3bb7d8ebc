package handlers

import (
	"net/http"

	"github.com/graph-gophers/dataloader/v7"
	"github.com/zatekoja/apprating/internal/api/loaders"
	"github.com/zatekoja/apprating/internal/domain/entities"
)

const maxStatsBuckets = 100

// StatsHandler serves rating stats for many buckets in one request
type StatsHandler struct {
	source loaders.StatsSource
}

// NewStatsHandler creates a new stats handler. source is used when the request
// carries no dataloaders.
func NewStatsHandler(source loaders.StatsSource) *StatsHandler {
	return &StatsHandler{source: source}
}

// GetBatchStats handles GET /api/stats?bucket=<type>:<id>&bucket=...
func (h *StatsHandler) GetBatchStats(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query()["bucket"]
	if len(raw) == 0 {
		respondWithError(w, http.StatusBadRequest, "at least one bucket is required")
		return
	}
	if len(raw) > maxStatsBuckets {
		respondWithError(w, http.StatusBadRequest, "too many buckets")
		return
	}

	keys := make([]entities.BucketKey, 0, len(raw))
	for _, value := range raw {
		key, err := entities.ParseBucketKey(value)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		keys = append(keys, key)
	}

	l := loaders.For(r.Context())
	if l == nil {
		l = loaders.NewLoaders(h.source)
	}

	thunks := make([]dataloader.Thunk[entities.RatingStats], len(keys))
	for i, key := range keys {
		thunks[i] = l.StatsLoader.Load(r.Context(), key)
	}

	results := make([]bucketStatsResponse, 0, len(keys))
	for i, thunk := range thunks {
		stats, err := thunk()
		if err != nil {
			respondWithAppError(w, r, err)
			return
		}
		results = append(results, bucketStatsResponse{Bucket: keys[i], Stats: newStatsResponse(stats)})
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"results": results,
		"count":   len(results),
	})
}

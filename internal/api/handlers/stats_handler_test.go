package handlers_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/apprating/internal/adapters/kvstore"
	"github.com/zatekoja/apprating/internal/adapters/storage"
	"github.com/zatekoja/apprating/internal/api/handlers"
	"github.com/zatekoja/apprating/internal/api/loaders"
	"github.com/zatekoja/apprating/internal/application/services"
	"github.com/zatekoja/apprating/internal/domain/entities"
)

func TestStatsHandler_GetBatchStats(t *testing.T) {
	ctx := context.Background()
	svc := services.NewReviewService(storage.NewReviewAdapter(kvstore.NewMemoryStore()))

	p1 := entities.BucketKey{TargetType: "product", TargetID: "p1"}
	for _, value := range []float64{5, 4} {
		_, err := svc.AddReview(ctx, p1, entities.ReviewInput{Rating: value}, "u1")
		require.NoError(t, err)
	}

	h := handlers.NewStatsHandler(svc)
	handler := loaders.Middleware(svc)(http.HandlerFunc(h.GetBatchStats))

	type result struct {
		Bucket entities.BucketKey `json:"bucket"`
		Stats  statsBody          `json:"stats"`
	}
	type response struct {
		Results []result `json:"results"`
		Count   int      `json:"count"`
	}

	w, _ := doJSON(t, handler, http.MethodGet, "/api/stats?bucket=product:p1&bucket=venue:v9", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decodeInto[response](t, w.Body.Bytes())

	require.Equal(t, 2, resp.Count)
	assert.Equal(t, p1, resp.Results[0].Bucket)
	assert.Equal(t, 2, resp.Results[0].Stats.Count)
	assert.Equal(t, 4.5, resp.Results[0].Stats.Average)
	assert.Equal(t, "4.5 out of 5", resp.Results[0].Stats.Text)
	assert.Equal(t, 0, resp.Results[1].Stats.Count)

	// without the middleware the handler builds its own loaders
	w, _ = doJSON(t, http.HandlerFunc(h.GetBatchStats), http.MethodGet, "/api/stats?bucket=product:p1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decodeInto[response](t, w.Body.Bytes()).Count)
}

func TestStatsHandler_RejectsBadBuckets(t *testing.T) {
	svc := services.NewReviewService(storage.NewReviewAdapter(kvstore.NewMemoryStore()))
	h := http.HandlerFunc(handlers.NewStatsHandler(svc).GetBatchStats)

	w, _ := doJSON(t, h, http.MethodGet, "/api/stats", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = doJSON(t, h, http.MethodGet, "/api/stats?bucket=no-separator", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

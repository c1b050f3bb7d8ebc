package handlers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/apprating/internal/adapters/providers/storereview"
	"github.com/zatekoja/apprating/internal/api/handlers"
	"github.com/zatekoja/apprating/internal/application/services"
)

func TestStoreReviewHandler(t *testing.T) {
	tests := []struct {
		name      string
		available bool
	}{
		{name: "available", available: true},
		{name: "unavailable", available: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := storereview.NewMockProvider(tt.available)
			h := handlers.NewStoreReviewHandler(services.NewStoreReviewService(provider))

			w, body := doJSON(t, http.HandlerFunc(h.GetAvailability), http.MethodGet, "/api/store-review/availability", "")
			require.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, boolJSON(tt.available), string(body["available"]))

			w, body = doJSON(t, http.HandlerFunc(h.RequestReview), http.MethodPost, "/api/store-review/request", "")
			require.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, boolJSON(tt.available), string(body["requested"]))
		})
	}
}

func boolJSON(v bool) string {
	if v {
		return "true"
	}
	return "false"
}

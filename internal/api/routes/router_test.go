package routes_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/apprating/internal/adapters/events"
	"github.com/zatekoja/apprating/internal/adapters/kvstore"
	"github.com/zatekoja/apprating/internal/adapters/providers/storereview"
	"github.com/zatekoja/apprating/internal/adapters/storage"
	"github.com/zatekoja/apprating/internal/api/handlers"
	"github.com/zatekoja/apprating/internal/api/routes"
	"github.com/zatekoja/apprating/internal/application/services"
	"github.com/zatekoja/apprating/internal/domain/entities"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	store := kvstore.NewMemoryStore()
	bus := events.NewMemoryEventBus()
	t.Cleanup(func() { bus.Close() })

	prompts := services.NewPromptService(
		storage.NewPromptStateAdapter(store),
		services.NewStoreReviewService(storereview.NewMockProvider(true)),
	)
	reviews := services.NewReviewService(storage.NewReviewAdapter(store), services.WithEventBus(bus, "reviews:test"))

	router := routes.NewRouter(
		handlers.NewPromptHandler(prompts, entities.DefaultPromptConfig()),
		handlers.NewFeedbackHandler(services.NewFeedbackService(storage.NewFeedbackAdapter(store))),
		handlers.NewReviewHandler(reviews),
		handlers.NewUserRatingHandler(services.NewUserRatingService(storage.NewUserRatingAdapter(store), nil)),
		handlers.NewStatsHandler(reviews),
		handlers.NewStoreReviewHandler(services.NewStoreReviewService(storereview.NewMockProvider(true))),
		handlers.NewSSEHandler(bus, "reviews:test"),
		reviews,
		nil,
	)

	server := httptest.NewServer(router.SetupRoutes())
	t.Cleanup(server.Close)
	return server
}

func send(t *testing.T, method, url, body string, headers ...string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestRouter_Health(t *testing.T) {
	server := newTestServer(t)

	resp := send(t, http.MethodGet, server.URL+"/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRouter_EndToEnd(t *testing.T) {
	server := newTestServer(t)

	resp := send(t, http.MethodPost, server.URL+"/api/targets/product/p1/reviews",
		`{"rating":5,"comment":"Love it"}`, handlers.UserIDHeader, "u1")
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = send(t, http.MethodGet, server.URL+"/api/stats?bucket=product:p1", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var batch struct {
		Count   int `json:"count"`
		Results []struct {
			Stats struct {
				Count   int     `json:"count"`
				Average float64 `json:"average"`
			} `json:"stats"`
		} `json:"results"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&batch))
	require.Equal(t, 1, batch.Count)
	assert.Equal(t, 1, batch.Results[0].Stats.Count)
	assert.Equal(t, 5.0, batch.Results[0].Stats.Average)

	resp = send(t, http.MethodPost, server.URL+"/api/prompt/@app/actions", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = send(t, http.MethodGet, server.URL+"/api/store-review/availability", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = send(t, http.MethodPut, server.URL+"/api/targets/product/p1/ratings/u1", `{"rating":4}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRouter_ConditionalGet(t *testing.T) {
	server := newTestServer(t)

	resp := send(t, http.MethodGet, server.URL+"/api/targets/product/p1/stats", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	etag := resp.Header.Get("ETag")
	require.NotEmpty(t, etag)

	resp = send(t, http.MethodGet, server.URL+"/api/targets/product/p1/stats", "", "If-None-Match", etag)
	assert.Equal(t, http.StatusNotModified, resp.StatusCode)

	send(t, http.MethodPost, server.URL+"/api/targets/product/p1/reviews",
		`{"rating":3}`, handlers.UserIDHeader, "u1")

	resp = send(t, http.MethodGet, server.URL+"/api/targets/product/p1/stats", "", "If-None-Match", etag)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRouter_MethodNotAllowed(t *testing.T) {
	server := newTestServer(t)

	resp := send(t, http.MethodPut, server.URL+"/api/reviews/r1", `{}`)
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

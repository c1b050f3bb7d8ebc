package handlers_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/apprating/internal/adapters/events"
	"github.com/zatekoja/apprating/internal/api/handlers"
	"github.com/zatekoja/apprating/internal/domain/entities"
)

func TestSSEHandler_StreamReviewUpdates(t *testing.T) {
	bus := events.NewMemoryEventBus()
	defer bus.Close()
	handler := handlers.NewSSEHandler(bus, "reviews:test")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req := httptest.NewRequest(http.MethodGet, "/api/targets/product/p1/reviews/stream", nil)
	req.SetPathValue("targetType", "product")
	req.SetPathValue("targetId", "p1")
	req = req.WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		handler.StreamReviewUpdates(w, req)
		close(done)
	}()

	require.Eventually(t, func() bool { return handler.GetClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	publish := func(id, targetID string) {
		require.NoError(t, bus.Publish(context.Background(), "reviews:test", &entities.ReviewEvent{
			ID:       id,
			Type:     entities.ReviewEventCreated,
			Bucket:   entities.BucketKey{TargetType: "product", TargetID: targetID},
			ReviewID: "review_" + id,
		}))
	}
	publish("other", "p2")
	publish("mine", "p1")
	time.Sleep(100 * time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("handler did not exit after cancel")
	}

	assert.Equal(t, "text/event-stream", w.Result().Header.Get("Content-Type"))
	body := w.Body.String()
	assert.True(t, strings.HasPrefix(body, "event: connected\n"))
	assert.Contains(t, body, "event: review.created\n")
	assert.Contains(t, body, `"review_id":"review_mine"`)
	assert.NotContains(t, body, "review_other")
	assert.Equal(t, 0, handler.GetClientCount())
}

func TestSSEHandler_RequiresBucket(t *testing.T) {
	handler := handlers.NewSSEHandler(events.NewMemoryEventBus(), "")

	req := httptest.NewRequest(http.MethodGet, "/api/targets//x/reviews/stream", nil)
	w := httptest.NewRecorder()
	handler.StreamReviewUpdates(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/zatekoja/apprating/internal/domain/entities"
	"github.com/zatekoja/apprating/internal/domain/providers"
	"github.com/zatekoja/apprating/internal/infrastructure/observability"
)

const heartbeatInterval = 30 * time.Second

// SSEHandler streams review events of one bucket as Server-Sent Events
type SSEHandler struct {
	eventBus  providers.EventBus
	channel   string
	heartbeat time.Duration
	clients   map[entities.BucketKey]int
	mu        sync.RWMutex
}

// NewSSEHandler creates a new SSE handler reading from channel
func NewSSEHandler(eventBus providers.EventBus, channel string) *SSEHandler {
	if channel == "" {
		channel = providers.DefaultReviewChannel
	}
	return &SSEHandler{
		eventBus:  eventBus,
		channel:   channel,
		heartbeat: heartbeatInterval,
		clients:   make(map[entities.BucketKey]int),
	}
}

// StreamReviewUpdates handles GET /api/targets/{targetType}/{targetId}/reviews/stream
func (h *SSEHandler) StreamReviewUpdates(w http.ResponseWriter, r *http.Request) {
	key := bucketFromPath(r)
	if !key.Valid() {
		respondWithError(w, http.StatusBadRequest, "target type and target id are required")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondWithError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	logger := observability.LoggerFromContext(r.Context())
	eventChan, err := h.eventBus.Subscribe(r.Context(), h.channel)
	if err != nil {
		logger.Error().Err(err).Str("channel", h.channel).Msg("failed to subscribe to review events")
		respondWithError(w, http.StatusServiceUnavailable, "event stream unavailable")
		return
	}

	h.registerClient(key)
	defer h.unregisterClient(key)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	h.sendEvent(w, "connected", map[string]interface{}{
		"bucket":    key,
		"timestamp": time.Now().UTC(),
	})
	flusher.Flush()

	clientChan := make(chan *entities.ReviewEvent, 10)
	go h.forwardEvents(r.Context(), key, eventChan, clientChan)

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			logger.Debug().Str("bucket", key.String()).Msg("client disconnected from review stream")
			return
		case <-ticker.C:
			h.sendEvent(w, "heartbeat", map[string]interface{}{
				"timestamp": time.Now().UTC(),
			})
			flusher.Flush()
		case event, ok := <-clientChan:
			if !ok {
				return
			}
			h.sendEvent(w, string(event.Type), event)
			flusher.Flush()
		}
	}
}

// forwardEvents passes on the events of one bucket, dropping them for a slow client
func (h *SSEHandler) forwardEvents(ctx context.Context, key entities.BucketKey, eventChan <-chan *entities.ReviewEvent, clientChan chan<- *entities.ReviewEvent) {
	defer close(clientChan)
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-eventChan:
			if !ok {
				return
			}
			if event == nil || event.Bucket != key {
				continue
			}
			select {
			case clientChan <- event:
			default:
			}
		}
	}
}

func (h *SSEHandler) registerClient(key entities.BucketKey) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[key]++
}

func (h *SSEHandler) unregisterClient(key entities.BucketKey) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[key] <= 1 {
		delete(h.clients, key)
		return
	}
	h.clients[key]--
}

func (h *SSEHandler) sendEvent(w http.ResponseWriter, eventType string, data interface{}) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		observability.GetLogger().Warn().Err(err).Msg("failed to marshal event data")
		return
	}

	fmt.Fprintf(w, "event: %s\n", eventType)
	fmt.Fprintf(w, "data: %s\n\n", jsonData)
}

// GetClientCount returns the number of connected clients
func (h *SSEHandler) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	count := 0
	for _, n := range h.clients {
		count += n
	}
	return count
}

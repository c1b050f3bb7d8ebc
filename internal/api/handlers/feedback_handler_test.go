package handlers_test

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/apprating/internal/adapters/kvstore"
	"github.com/zatekoja/apprating/internal/adapters/storage"
	"github.com/zatekoja/apprating/internal/api/handlers"
	"github.com/zatekoja/apprating/internal/application/services"
	"github.com/zatekoja/apprating/internal/domain/entities"
	apperrors "github.com/zatekoja/apprating/pkg/errors"
)

// MockFeedbackService is a mock implementation of handlers.FeedbackService
type MockFeedbackService struct {
	mock.Mock
}

func (m *MockFeedbackService) Submit(ctx context.Context, feedback *entities.Feedback) error {
	args := m.Called(ctx, feedback)
	return args.Error(0)
}

func (m *MockFeedbackService) List(ctx context.Context, storageKey string) ([]*entities.Feedback, error) {
	args := m.Called(ctx, storageKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Feedback), args.Error(1)
}

func feedbackMux(h *handlers.FeedbackHandler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/prompt/{storageKey}/feedback", h.SubmitFeedback)
	mux.HandleFunc("GET /api/prompt/{storageKey}/feedback", h.ListFeedback)
	return mux
}

func TestFeedbackHandler_SubmitAndList(t *testing.T) {
	svc := services.NewFeedbackService(storage.NewFeedbackAdapter(kvstore.NewMemoryStore()))
	mux := feedbackMux(handlers.NewFeedbackHandler(svc))

	w, body := doJSON(t, mux, http.MethodPost, "/api/prompt/@app/feedback",
		`{"rating":2,"message":"Sync keeps failing","email":"a@example.com"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.JSONEq(t, `"received"`, string(body["status"]))
	assert.NotEmpty(t, string(body["id"]))

	w, body = doJSON(t, mux, http.MethodPost, "/api/prompt/@app/feedback",
		`{"rating":2,"message":"sync keeps   failing","email":"a@example.com"}`)
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.JSONEq(t, `"duplicate_ignored"`, string(body["status"]))

	w, body = doJSON(t, mux, http.MethodGet, "/api/prompt/@app/feedback", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `1`, string(body["count"]))

	w, body = doJSON(t, mux, http.MethodGet, "/api/prompt/@other/feedback", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, string(body["feedback"]))
}

func TestFeedbackHandler_Validation(t *testing.T) {
	mockService := new(MockFeedbackService)
	mux := feedbackMux(handlers.NewFeedbackHandler(mockService))

	w, _ := doJSON(t, mux, http.MethodPost, "/api/prompt/@app/feedback", `{"rating":0,"message":"meh"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = doJSON(t, mux, http.MethodPost, "/api/prompt/@app/feedback", `{"rating":2,"email":"not-an-email"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	mockService.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything)
}

func TestFeedbackHandler_StorageFailure(t *testing.T) {
	mockService := new(MockFeedbackService)
	mockService.On("Submit", mock.Anything, mock.MatchedBy(func(f *entities.Feedback) bool {
		return f.StorageKey == "@app" && f.Rating == 1
	})).Return(apperrors.NewStorageError("failed to write feedback", fmt.Errorf("timeout")))
	mockService.On("List", mock.Anything, "@app").Return(nil, fmt.Errorf("boom"))

	mux := feedbackMux(handlers.NewFeedbackHandler(mockService))

	w, _ := doJSON(t, mux, http.MethodPost, "/api/prompt/@app/feedback", `{"rating":1,"message":"crashes"}`)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w, _ = doJSON(t, mux, http.MethodGet, "/api/prompt/@app/feedback", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	mockService.AssertExpectations(t)
}

func TestFeedbackHandler_RateLimit(t *testing.T) {
	mockService := new(MockFeedbackService)
	mockService.On("Submit", mock.Anything, mock.Anything).Return(nil)
	mux := feedbackMux(handlers.NewFeedbackHandler(mockService))

	for i := 0; i < 5; i++ {
		w, _ := doJSON(t, mux, http.MethodPost, "/api/prompt/@app/feedback",
			fmt.Sprintf(`{"rating":2,"message":"note %d"}`, i))
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w, _ := doJSON(t, mux, http.MethodPost, "/api/prompt/@app/feedback", `{"rating":2,"message":"sixth"}`)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	w, _ = doJSON(t, mux, http.MethodPost, "/api/prompt/@app/feedback", `{"rating":2,"message":"other client"}`,
		"X-Forwarded-For", "203.0.113.9")
	assert.Equal(t, http.StatusCreated, w.Code)
}

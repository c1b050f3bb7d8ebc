package observability

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitMetrics_NoopProvider(t *testing.T) {
	metrics, err := InitMetrics()
	require.NoError(t, err)

	ctx := context.Background()
	assert.NotPanics(t, func() {
		RecordRequestMetric(ctx, metrics, "GET", "/health", 200, time.Millisecond)
		RecordReviewMutation(ctx, metrics, "add")
		RecordPromptDecision(ctx, metrics, true)
		RecordStorageFailure(ctx, metrics, "save_prompt_state")
	})
}

func TestRecorders_NilMetrics(t *testing.T) {
	assert.NotPanics(t, func() {
		RecordReviewMutation(context.Background(), nil, "add")
		RecordStorageFailure(context.Background(), nil, "load")
	})
}

package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen(t *testing.T) {
	client, err := Open(context.Background(), filepath.Join(t.TempDir(), "rating.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	var one int
	require.NoError(t, client.DB().QueryRow("SELECT 1").Scan(&one))
	assert.Equal(t, 1, one)
}

func TestOpen_RequiresPath(t *testing.T) {
	_, err := Open(context.Background(), "  ")
	assert.Error(t, err)
}

package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/zatekoja/apprating/internal/infrastructure/observability"
	"github.com/zatekoja/apprating/pkg/retry"
	_ "modernc.org/sqlite"
)

// Client wraps an on-device SQLite database
type Client struct {
	db *sql.DB
}

// Open opens (creating if needed) the SQLite database at path
func Open(ctx context.Context, path string) (*Client, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// one writer keeps read-modify-write transactions from tripping SQLITE_BUSY
	db.SetMaxOpenConns(1)

	err = retry.DoWithLog(ctx, retry.DefaultConfig(), "SQLite", observability.GetLogger(), func(ctx context.Context) error {
		return db.PingContext(ctx)
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	return &Client{db: db}, nil
}

// DB returns the underlying database handle
func (c *Client) DB() *sql.DB {
	return c.db
}

// Close releases the SQLite connection
func (c *Client) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

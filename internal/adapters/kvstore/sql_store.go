package kvstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"
	"github.com/zatekoja/apprating/internal/domain/providers"
)

// Dialects accepted by NewSQLStore
const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite3"
)

const kvTable = "kv_store"

const createKVTable = `CREATE TABLE IF NOT EXISTS kv_store (
	store_key   TEXT PRIMARY KEY,
	store_value TEXT NOT NULL,
	updated_at  BIGINT NOT NULL
)`

type kvRow struct {
	Key   string `db:"store_key"`
	Value string `db:"store_value"`
}

// SQLStore implements KVStore on a single SQL table (Postgres or SQLite)
type SQLStore struct {
	sqlDB   *sql.DB
	db      *goqu.Database
	dialect string
	now     func() time.Time
}

// NewSQLStore creates the kv table if needed and returns the store
func NewSQLStore(ctx context.Context, sqlDB *sql.DB, dialect string) (*SQLStore, error) {
	switch dialect {
	case DialectPostgres, DialectSQLite:
	default:
		return nil, fmt.Errorf("unsupported sql dialect %q", dialect)
	}

	if _, err := sqlDB.ExecContext(ctx, createKVTable); err != nil {
		return nil, fmt.Errorf("failed to create %s table: %w", kvTable, err)
	}

	return &SQLStore{
		sqlDB:   sqlDB,
		db:      goqu.New(dialect, sqlDB),
		dialect: dialect,
		now:     time.Now,
	}, nil
}

// GetString retrieves a value
func (s *SQLStore) GetString(ctx context.Context, key string) (string, error) {
	var value string
	found, err := s.db.From(kvTable).
		Select("store_value").
		Where(goqu.C("store_key").Eq(key)).
		ScanValContext(ctx, &value)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", key, err)
	}
	if !found {
		return "", providers.ErrKeyNotFound
	}
	return value, nil
}

// SetString upserts a value
func (s *SQLStore) SetString(ctx context.Context, key, value string) error {
	ts := s.now().UnixMilli()
	_, err := s.db.Insert(kvTable).
		Rows(goqu.Record{"store_key": key, "store_value": value, "updated_at": ts}).
		OnConflict(goqu.DoUpdate("store_key", goqu.Record{"store_value": value, "updated_at": ts})).
		Executor().
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

// RemoveItem deletes a key
func (s *SQLStore) RemoveItem(ctx context.Context, key string) error {
	_, err := s.db.Delete(kvTable).
		Where(goqu.C("store_key").Eq(key)).
		Executor().
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// GetMulti retrieves several keys in one query
func (s *SQLStore) GetMulti(ctx context.Context, keys []string) (map[string]string, error) {
	out := make(map[string]string, len(keys))
	if len(keys) == 0 {
		return out, nil
	}

	var rows []kvRow
	err := s.db.From(kvTable).
		Select("store_key", "store_value").
		Where(goqu.C("store_key").In(keys)).
		ScanStructsContext(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("failed to read %d keys: %w", len(keys), err)
	}
	for _, row := range rows {
		out[row.Key] = row.Value
	}
	return out, nil
}

// Update runs fn inside a transaction. On Postgres the key is serialized with a
// transaction-scoped advisory lock; SQLite serializes writers on its own.
func (s *SQLStore) Update(ctx context.Context, key string, fn providers.UpdateFunc) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	var fnErr error
	err = tx.Wrap(func() error {
		if s.dialect == DialectPostgres {
			if _, err := tx.ExecContext(ctx, "SELECT pg_advisory_xact_lock(hashtext($1))", key); err != nil {
				return err
			}
		}

		var current string
		exists, err := tx.From(kvTable).
			Select("store_value").
			Where(goqu.C("store_key").Eq(key)).
			ScanValContext(ctx, &current)
		if err != nil {
			return err
		}

		next, write, err := fn(current, exists)
		if err != nil {
			fnErr = err
			return err
		}
		if !write {
			return nil
		}

		ts := s.now().UnixMilli()
		_, err = tx.Insert(kvTable).
			Rows(goqu.Record{"store_key": key, "store_value": next, "updated_at": ts}).
			OnConflict(goqu.DoUpdate("store_key", goqu.Record{"store_value": next, "updated_at": ts})).
			Executor().
			ExecContext(ctx)
		return err
	})
	if fnErr != nil {
		return fnErr
	}
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", key, err)
	}
	return nil
}

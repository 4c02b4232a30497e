package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/chatgate/chatgate/internal/config"
	"github.com/chatgate/chatgate/internal/model"
)

// Store is the credential store. It persists nothing but SHA-256 hashes of
// issued API keys in the api_keys table.
type Store struct {
	db      *sqlx.DB
	dialect dialect
}

// Open prepares a connection pool for cfg. The pool connects lazily, so an
// unreachable database surfaces as ErrStorageUnavailable on first use
// rather than here.
func Open(cfg config.DatabaseConfig) (*Store, error) {
	d, err := lookupDialect(cfg.ResolvedDriver())
	if err != nil {
		return nil, err
	}
	dsn, err := normalizeDSN(d, cfg.DSN)
	if err != nil {
		return nil, err
	}

	db, err := sqlx.Open(d.driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", d.name, err)
	}

	if d.name == "sqlite" {
		// SQLite doesn't support concurrent writes, and every :memory:
		// connection would otherwise see its own empty database.
		db.SetMaxOpenConns(1)
	} else {
		if cfg.MaxOpenConns > 0 {
			db.SetMaxOpenConns(cfg.MaxOpenConns)
		}
		if cfg.MaxIdleConns > 0 {
			db.SetMaxIdleConns(cfg.MaxIdleConns)
		}
		if cfg.ConnMaxLifetime > 0 {
			db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
		}
	}

	return &Store{db: db, dialect: d}, nil
}

// Close closes the underlying database connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// Driver returns the resolved backend name.
func (s *Store) Driver() string {
	return s.dialect.name
}

// Ping verifies that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return unavailable("ping", err)
	}
	return nil
}

// EnsureSchema creates the api_keys table if it does not exist. Safe to
// call on every start.
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, stmt := range s.dialect.schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return unavailable("ensure schema", err)
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Key hashes
// ---------------------------------------------------------------------------

// InsertHash records hash. Inserting a hash that is already present is a
// no-op and not an error.
func (s *Store) InsertHash(ctx context.Context, hash string) error {
	if _, err := s.db.ExecContext(ctx, s.db.Rebind(s.dialect.insertHash), hash); err != nil {
		return unavailable("insert key hash", err)
	}
	return nil
}

// HashExists reports whether hash has been recorded.
func (s *Store) HashExists(ctx context.Context, hash string) (bool, error) {
	var exists bool
	q := s.db.Rebind(`SELECT EXISTS (SELECT 1 FROM api_keys WHERE key_hash = ?)`)
	if err := s.db.GetContext(ctx, &exists, q, hash); err != nil {
		return false, unavailable("lookup key hash", err)
	}
	return exists, nil
}

// ListKeys returns up to limit records, newest first. A non-positive limit
// returns every record.
func (s *Store) ListKeys(ctx context.Context, limit int) ([]model.APIKey, error) {
	q := `SELECT id, key_hash, created_at FROM api_keys ORDER BY id DESC`
	args := []interface{}{}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}

	keys := []model.APIKey{}
	if err := s.db.SelectContext(ctx, &keys, s.db.Rebind(q), args...); err != nil {
		return nil, unavailable("list keys", err)
	}
	return keys, nil
}

// CountKeys returns the number of recorded keys.
func (s *Store) CountKeys(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM api_keys`); err != nil {
		return 0, unavailable("count keys", err)
	}
	return n, nil
}

// DeleteKey removes the record with the given id, revoking the key.
func (s *Store) DeleteKey(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM api_keys WHERE id = ?`), id)
	if err != nil {
		return unavailable("delete key", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return unavailable("delete key rows affected", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetKey returns the record with the given id.
func (s *Store) GetKey(ctx context.Context, id int64) (*model.APIKey, error) {
	var key model.APIKey
	err := s.db.GetContext(ctx, &key,
		s.db.Rebind(`SELECT id, key_hash, created_at FROM api_keys WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, unavailable("get key", err)
	}
	return &key, nil
}

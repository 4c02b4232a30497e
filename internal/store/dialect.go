package store

import (
	"fmt"

	mysqldriver "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// dialect carries the per-backend SQL that cannot be written portably.
type dialect struct {
	name       string
	driverName string // database/sql driver registered by the import above
	schema     []string
	insertHash string
}

var dialects = map[string]dialect{
	"postgres": {
		name:       "postgres",
		driverName: "pgx",
		schema: []string{
			`CREATE TABLE IF NOT EXISTS api_keys (
				id SERIAL PRIMARY KEY,
				key_hash TEXT UNIQUE NOT NULL,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			)`,
		},
		insertHash: `INSERT INTO api_keys (key_hash) VALUES (?) ON CONFLICT (key_hash) DO NOTHING`,
	},
	"mysql": {
		name:       "mysql",
		driverName: "mysql",
		schema: []string{
			`CREATE TABLE IF NOT EXISTS api_keys (
				id BIGINT AUTO_INCREMENT PRIMARY KEY,
				key_hash CHAR(64) NOT NULL,
				created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
				UNIQUE KEY uq_api_keys_key_hash (key_hash)
			)`,
		},
		insertHash: `INSERT INTO api_keys (key_hash) VALUES (?) ON DUPLICATE KEY UPDATE key_hash = key_hash`,
	},
	"sqlite": {
		name:       "sqlite",
		driverName: "sqlite",
		schema: []string{
			`CREATE TABLE IF NOT EXISTS api_keys (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				key_hash TEXT UNIQUE NOT NULL,
				created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
			)`,
		},
		insertHash: `INSERT INTO api_keys (key_hash) VALUES (?) ON CONFLICT (key_hash) DO NOTHING`,
	},
}

func lookupDialect(name string) (dialect, error) {
	d, ok := dialects[name]
	if !ok {
		return dialect{}, fmt.Errorf("unsupported database driver %q", name)
	}
	return d, nil
}

// normalizeDSN applies driver-specific adjustments before opening.
func normalizeDSN(d dialect, dsn string) (string, error) {
	switch d.name {
	case "mysql":
		// created_at must scan into time.Time.
		cfg, err := mysqldriver.ParseDSN(dsn)
		if err != nil {
			return "", fmt.Errorf("parse mysql dsn: %w", err)
		}
		cfg.ParseTime = true
		return cfg.FormatDSN(), nil
	default:
		return dsn, nil
	}
}

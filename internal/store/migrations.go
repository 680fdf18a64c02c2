package store

import "fmt"

// Bootstrap DDL, applied at open. Statements are idempotent so reopening an
// existing database is a no-op. The api_keys partial unique index enforces
// "one active key per (naan, name)" while letting revoked keys free their
// name for reuse.

var sqliteMigrations = []string{
	`CREATE TABLE IF NOT EXISTS naans (
		naan INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		url TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,

	`CREATE TABLE IF NOT EXISTS shoulders (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		naan INTEGER NOT NULL REFERENCES naans(naan),
		shoulder TEXT NOT NULL,
		name TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(naan, shoulder)
	)`,

	`CREATE TABLE IF NOT EXISTS api_keys (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		key_hash TEXT UNIQUE NOT NULL,
		key_prefix TEXT NOT NULL,
		naan INTEGER NOT NULL REFERENCES naans(naan),
		name TEXT NOT NULL,
		is_active INTEGER NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,

	`CREATE UNIQUE INDEX IF NOT EXISTS idx_api_keys_active_name
		ON api_keys(naan, name) WHERE is_active = 1`,

	`CREATE TABLE IF NOT EXISTS legacy_keys (
		key TEXT PRIMARY KEY,
		naan INTEGER NOT NULL REFERENCES naans(naan),
		is_active INTEGER NOT NULL DEFAULT 1
	)`,

	`CREATE TABLE IF NOT EXISTS arks (
		ark TEXT PRIMARY KEY,
		naan INTEGER NOT NULL REFERENCES naans(naan),
		shoulder TEXT NOT NULL,
		assigned_name TEXT NOT NULL,
		url TEXT NOT NULL DEFAULT '',
		metadata TEXT NOT NULL DEFAULT '',
		commitment TEXT NOT NULL DEFAULT ''
	)`,

	`CREATE INDEX IF NOT EXISTS idx_arks_naan ON arks(naan)`,
}

var postgresMigrations = []string{
	`CREATE TABLE IF NOT EXISTS naans (
		naan BIGINT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		url TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS shoulders (
		id BIGSERIAL PRIMARY KEY,
		naan BIGINT NOT NULL REFERENCES naans(naan),
		shoulder TEXT NOT NULL,
		name TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE(naan, shoulder)
	)`,

	`CREATE TABLE IF NOT EXISTS api_keys (
		id BIGSERIAL PRIMARY KEY,
		key_hash TEXT UNIQUE NOT NULL,
		key_prefix TEXT NOT NULL,
		naan BIGINT NOT NULL REFERENCES naans(naan),
		name TEXT NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE UNIQUE INDEX IF NOT EXISTS idx_api_keys_active_name
		ON api_keys(naan, name) WHERE is_active`,

	`CREATE TABLE IF NOT EXISTS legacy_keys (
		key TEXT PRIMARY KEY,
		naan BIGINT NOT NULL REFERENCES naans(naan),
		is_active BOOLEAN NOT NULL DEFAULT TRUE
	)`,

	`CREATE TABLE IF NOT EXISTS arks (
		ark TEXT PRIMARY KEY,
		naan BIGINT NOT NULL REFERENCES naans(naan),
		shoulder TEXT NOT NULL,
		assigned_name TEXT NOT NULL,
		url TEXT NOT NULL DEFAULT '',
		metadata TEXT NOT NULL DEFAULT '',
		commitment TEXT NOT NULL DEFAULT ''
	)`,

	`CREATE INDEX IF NOT EXISTS idx_arks_naan ON arks(naan)`,
}

func (s *Store) migrate() error {
	migrations := sqliteMigrations
	if s.driver == DriverPostgres {
		migrations = postgresMigrations
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}
	return nil
}

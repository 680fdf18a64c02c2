// Package store persists naans, shoulders, credentials, and minted arks.
// It speaks SQLite (the embedded default) or Postgres through sqlx; all
// concurrency control for minting is delegated to the database's uniqueness
// constraints, so CreateArk is the atomic insert the mint loop relies on.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/arkmint/arkmint/internal/model"
)

// Supported storage drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Options selects and configures the backing database. Zero value opens an
// in-memory SQLite database, which is what the tests use.
type Options struct {
	Driver  string // "sqlite" (default) or "postgres"
	DSN     string // Postgres connection string; unused for SQLite
	DataDir string // SQLite directory; empty means in-memory
}

// Store is the persistence layer shared by the minting, auth, and
// resolution services.
type Store struct {
	db     *sqlx.DB
	driver string
}

// Open connects to the configured database and applies bootstrap migrations.
func Open(opts Options) (*Store, error) {
	driver := opts.Driver
	if driver == "" {
		driver = DriverSQLite
	}

	var db *sqlx.DB
	var err error

	switch driver {
	case DriverSQLite:
		var dsn string
		if opts.DataDir == "" {
			dsn = ":memory:?_journal_mode=WAL"
		} else {
			if err := os.MkdirAll(opts.DataDir, 0755); err != nil {
				return nil, fmt.Errorf("create data dir: %w", err)
			}
			dsn = filepath.Join(opts.DataDir, "arkmint.db") + "?_journal_mode=WAL&_busy_timeout=5000"
		}
		db, err = sqlx.Connect("sqlite", dsn)
		if err != nil {
			return nil, fmt.Errorf("open sqlite database: %w", err)
		}
		db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes
		if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			return nil, fmt.Errorf("enable foreign keys: %w", err)
		}
	case DriverPostgres:
		db, err = sqlx.Connect("pgx", opts.DSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres database: %w", err)
		}
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
	default:
		return nil, fmt.Errorf("unsupported storage driver %q (supported: sqlite, postgres)", driver)
	}

	s := &Store{db: db, driver: driver}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies database connectivity, used by the readiness probe.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// isUniqueViolation classifies driver-specific uniqueness errors so callers
// can distinguish a mint collision from a real fault.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// ---------------------------------------------------------------------------
// Naans
// ---------------------------------------------------------------------------

// CreateNaan registers a naming authority. The CreatedAt and UpdatedAt
// fields on naan are populated before insert.
func (s *Store) CreateNaan(ctx context.Context, naan *model.Naan) error {
	now := time.Now().UTC()
	naan.CreatedAt = now
	naan.UpdatedAt = now

	const q = `INSERT INTO naans (naan, name, description, url, created_at, updated_at)
		VALUES (:naan, :name, :description, :url, :created_at, :updated_at)`

	if _, err := s.db.NamedExecContext(ctx, q, naan); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert naan: %w", err)
	}
	return nil
}

// GetNaan returns a naming authority by number.
func (s *Store) GetNaan(ctx context.Context, naan int64) (*model.Naan, error) {
	var n model.Naan
	if err := s.db.GetContext(ctx, &n, s.db.Rebind("SELECT * FROM naans WHERE naan = ?"), naan); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get naan: %w", err)
	}
	return &n, nil
}

// ListNaans returns all registered naming authorities.
func (s *Store) ListNaans(ctx context.Context) ([]model.Naan, error) {
	var naans []model.Naan
	if err := s.db.SelectContext(ctx, &naans, "SELECT * FROM naans ORDER BY naan"); err != nil {
		return nil, fmt.Errorf("list naans: %w", err)
	}
	return naans, nil
}

// UpdateNaan updates a naan's descriptive fields and base URL. The naan
// number itself is immutable.
func (s *Store) UpdateNaan(ctx context.Context, naan *model.Naan) error {
	naan.UpdatedAt = time.Now().UTC()

	const q = `UPDATE naans SET name = :name, description = :description,
		url = :url, updated_at = :updated_at WHERE naan = :naan`

	result, err := s.db.NamedExecContext(ctx, q, naan)
	if err != nil {
		return fmt.Errorf("update naan: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update naan rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ---------------------------------------------------------------------------
// Shoulders
// ---------------------------------------------------------------------------

// CreateShoulder registers a namespace prefix under a naan.
func (s *Store) CreateShoulder(ctx context.Context, sh *model.Shoulder) error {
	sh.CreatedAt = time.Now().UTC()

	const q = `INSERT INTO shoulders (naan, shoulder, name, description, created_at)
		VALUES (:naan, :shoulder, :name, :description, :created_at)`

	if _, err := s.db.NamedExecContext(ctx, q, sh); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert shoulder: %w", err)
	}
	return nil
}

// ListShoulders returns all shoulders registered under a naan.
func (s *Store) ListShoulders(ctx context.Context, naan int64) ([]model.Shoulder, error) {
	var shoulders []model.Shoulder
	q := s.db.Rebind("SELECT * FROM shoulders WHERE naan = ? ORDER BY shoulder")
	if err := s.db.SelectContext(ctx, &shoulders, q, naan); err != nil {
		return nil, fmt.Errorf("list shoulders: %w", err)
	}
	return shoulders, nil
}

// ---------------------------------------------------------------------------
// API keys
// ---------------------------------------------------------------------------

// CreateAPIKey inserts a new API key record. The key_hash must already be
// set by the caller; plaintext keys never reach this layer. Returns
// ErrDuplicate when an active key with the same (naan, name) exists.
func (s *Store) CreateAPIKey(ctx context.Context, key *model.APIKey) error {
	key.CreatedAt = time.Now().UTC()

	const q = `INSERT INTO api_keys (key_hash, key_prefix, naan, name, is_active, created_at)
		VALUES (:key_hash, :key_prefix, :naan, :name, :is_active, :created_at)`

	if _, err := s.db.NamedExecContext(ctx, q, key); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert api key: %w", err)
	}
	return nil
}

// GetAPIKeyByHash looks up an API key by its SHA-256 hash. Active and
// revoked keys are both returned; callers decide what revocation means.
func (s *Store) GetAPIKeyByHash(ctx context.Context, hash string) (*model.APIKey, error) {
	var key model.APIKey
	q := s.db.Rebind("SELECT * FROM api_keys WHERE key_hash = ?")
	if err := s.db.GetContext(ctx, &key, q, hash); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get api key by hash: %w", err)
	}
	return &key, nil
}

// ListAPIKeys returns all API keys, newest first.
func (s *Store) ListAPIKeys(ctx context.Context) ([]model.APIKey, error) {
	var keys []model.APIKey
	if err := s.db.SelectContext(ctx, &keys, "SELECT * FROM api_keys ORDER BY created_at DESC"); err != nil {
		return nil, fmt.Errorf("list api keys: %w", err)
	}
	return keys, nil
}

// RevokeAPIKeyByPrefix deactivates the active API key with the given display
// prefix. The key row is kept; only the active flag changes, which frees the
// (naan, name) pair for a future key.
func (s *Store) RevokeAPIKeyByPrefix(ctx context.Context, prefix string) error {
	q := s.db.Rebind("UPDATE api_keys SET is_active = FALSE WHERE key_prefix = ? AND is_active = TRUE")
	result, err := s.db.ExecContext(ctx, q, prefix)
	if err != nil {
		return fmt.Errorf("revoke api key: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("revoke api key rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ---------------------------------------------------------------------------
// Legacy keys
// ---------------------------------------------------------------------------

// CreateLegacyKey stores a raw-token credential.
func (s *Store) CreateLegacyKey(ctx context.Context, key *model.LegacyKey) error {
	const q = `INSERT INTO legacy_keys (key, naan, is_active) VALUES (:key, :naan, :is_active)`
	if _, err := s.db.NamedExecContext(ctx, q, key); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert legacy key: %w", err)
	}
	return nil
}

// GetLegacyKey looks up an active legacy credential by its raw token value.
func (s *Store) GetLegacyKey(ctx context.Context, token string) (*model.LegacyKey, error) {
	var key model.LegacyKey
	q := s.db.Rebind("SELECT * FROM legacy_keys WHERE key = ? AND is_active = TRUE")
	if err := s.db.GetContext(ctx, &key, q, token); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get legacy key: %w", err)
	}
	return &key, nil
}

// ---------------------------------------------------------------------------
// Arks
// ---------------------------------------------------------------------------

// CreateArk atomically inserts a minted ark. Uniqueness of the full ark
// string is enforced by the primary key, not by a prior existence check;
// a losing concurrent minter gets ErrDuplicate and retries with a fresh
// random suffix.
func (s *Store) CreateArk(ctx context.Context, ark *model.Ark) error {
	const q = `INSERT INTO arks (ark, naan, shoulder, assigned_name, url, metadata, commitment)
		VALUES (:ark, :naan, :shoulder, :assigned_name, :url, :metadata, :commitment)`

	if _, err := s.db.NamedExecContext(ctx, q, ark); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert ark: %w", err)
	}
	return nil
}

// GetArk returns an ark by its full canonical string.
func (s *Store) GetArk(ctx context.Context, ark string) (*model.Ark, error) {
	var a model.Ark
	q := s.db.Rebind("SELECT * FROM arks WHERE ark = ?")
	if err := s.db.GetContext(ctx, &a, q, ark); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get ark: %w", err)
	}
	return &a, nil
}

// UpdateArk sets the mutable fields of an existing ark in a single atomic
// statement; there is no read-modify-write window for concurrent updaters
// to lose writes in.
func (s *Store) UpdateArk(ctx context.Context, ark, url, metadata, commitment string) error {
	q := s.db.Rebind("UPDATE arks SET url = ?, metadata = ?, commitment = ? WHERE ark = ?")
	result, err := s.db.ExecContext(ctx, q, url, metadata, commitment, ark)
	if err != nil {
		return fmt.Errorf("update ark: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update ark rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// CountArks returns the number of arks minted under a naan.
func (s *Store) CountArks(ctx context.Context, naan int64) (int64, error) {
	var count int64
	q := s.db.Rebind("SELECT COUNT(*) FROM arks WHERE naan = ?")
	if err := s.db.GetContext(ctx, &count, q, naan); err != nil {
		return 0, fmt.Errorf("count arks: %w", err)
	}
	return count, nil
}

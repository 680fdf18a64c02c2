package model

import "time"

// APIKey authenticates mint and update requests on behalf of one naan. The
// raw key is never stored; only a SHA-256 hash and a short prefix for
// identification are persisted. At most one active key per (naan, name)
// exists at a time, but revoked keys never block reuse of their name.
type APIKey struct {
	ID        int64     `json:"id" db:"id"`
	KeyHash   string    `json:"-" db:"key_hash"` // SHA-256 hex, never expose
	KeyPrefix string    `json:"key_prefix" db:"key_prefix"`
	Naan      int64     `json:"naan" db:"naan"`
	Name      string    `json:"name" db:"name"`
	IsActive  bool      `json:"is_active" db:"is_active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// LegacyKey is the older raw-token credential scheme: an opaque token stored
// verbatim and matched by equality. Kept alongside hashed APIKeys until a
// deprecation decision is made.
type LegacyKey struct {
	Key      string `json:"-" db:"key"`
	Naan     int64  `json:"naan" db:"naan"`
	IsActive bool   `json:"is_active" db:"is_active"`
}

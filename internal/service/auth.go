package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/arkmint/arkmint/internal/model"
)

// ErrUnauthenticated is returned for any credential failure. It deliberately
// carries no detail about whether the token, the key state, or the naan was
// the problem.
var ErrUnauthenticated = errors.New("unauthenticated")

// keyPrefixLen is how much of the plaintext key is kept as a non-secret
// display prefix. It identifies keys in listings and logs; it plays no part
// in authentication.
const keyPrefixLen = 6

// KeyStore is the persistence surface the auth service needs.
type KeyStore interface {
	GetNaan(ctx context.Context, naan int64) (*model.Naan, error)
	CreateAPIKey(ctx context.Context, key *model.APIKey) error
	GetAPIKeyByHash(ctx context.Context, hash string) (*model.APIKey, error)
	CreateLegacyKey(ctx context.Context, key *model.LegacyKey) error
	GetLegacyKey(ctx context.Context, token string) (*model.LegacyKey, error)
}

// AuthService issues naan-scoped API keys and authenticates bearer tokens
// against them.
type AuthService struct {
	store KeyStore
}

// NewAuthService creates an AuthService backed by the given store.
func NewAuthService(store KeyStore) *AuthService {
	return &AuthService{store: store}
}

// HashKey returns the hex-encoded SHA-256 digest of a plaintext key. A
// single fast hash is sufficient: keys are generated UUID4s, so the secret
// space is high-entropy and the hash only exists to keep plaintext out of
// storage, not to slow down brute force of weak passwords.
func HashKey(plain string) string {
	return HashKeyBytes([]byte(plain))
}

// HashKeyBytes is HashKey for callers that already hold raw bytes. For any
// string s, HashKey(s) == HashKeyBytes([]byte(s)).
func HashKeyBytes(plain []byte) string {
	h := sha256.Sum256(plain)
	return hex.EncodeToString(h[:])
}

// IssueKey mints a new API key for a naan and returns the plaintext exactly
// once. Only the hash, a short display prefix, and the key metadata are
// stored; the plaintext cannot be recovered later, so the caller must
// deliver it immediately.
func (s *AuthService) IssueKey(ctx context.Context, naan int64, name string) (string, error) {
	if _, err := s.store.GetNaan(ctx, naan); err != nil {
		return "", fmt.Errorf("look up naan %d: %w", naan, err)
	}

	plain := uuid.NewString()
	key := &model.APIKey{
		KeyHash:   HashKey(plain),
		KeyPrefix: plain[:keyPrefixLen],
		Naan:      naan,
		Name:      name,
		IsActive:  true,
	}
	if err := s.store.CreateAPIKey(ctx, key); err != nil {
		return "", fmt.Errorf("create api key: %w", err)
	}
	return plain, nil
}

// IssueLegacyKey mints a raw-token credential for a naan and returns the
// token. Legacy keys are stored verbatim and matched by equality; they exist
// for deployments that predate hashed keys.
func (s *AuthService) IssueLegacyKey(ctx context.Context, naan int64) (string, error) {
	if _, err := s.store.GetNaan(ctx, naan); err != nil {
		return "", fmt.Errorf("look up naan %d: %w", naan, err)
	}

	token := uuid.NewString()
	key := &model.LegacyKey{
		Key:      token,
		Naan:     naan,
		IsActive: true,
	}
	if err := s.store.CreateLegacyKey(ctx, key); err != nil {
		return "", fmt.Errorf("create legacy key: %w", err)
	}
	return token, nil
}

// Authenticate resolves a bearer token to the naan it is authorized for.
// Exactly two credential schemes exist and they are tried in a fixed order:
// legacy raw tokens by direct lookup first, then hashed API keys. Every
// failure collapses into ErrUnauthenticated.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*model.Naan, error) {
	if token == "" {
		return nil, ErrUnauthenticated
	}

	if legacy, err := s.store.GetLegacyKey(ctx, token); err == nil {
		naan, err := s.store.GetNaan(ctx, legacy.Naan)
		if err != nil {
			return nil, ErrUnauthenticated
		}
		return naan, nil
	}

	key, err := s.store.GetAPIKeyByHash(ctx, HashKey(token))
	if err != nil || !key.IsActive {
		return nil, ErrUnauthenticated
	}
	naan, err := s.store.GetNaan(ctx, key.Naan)
	if err != nil {
		return nil, ErrUnauthenticated
	}
	return naan, nil
}

package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/arkmint/arkmint/internal/model"
	"github.com/arkmint/arkmint/internal/noid"
	"github.com/arkmint/arkmint/internal/store"
)

// DefaultGlobalResolver is the well-known external ARK resolver used as the
// last fallback tier for naans this instance doesn't know.
const DefaultGlobalResolver = "https://n2t.net"

// ErrReserved marks an ark that exists but has no target URL yet: minted,
// reserved, not yet pointed anywhere.
var ErrReserved = errors.New("ark is reserved but not yet targeted")

// ResolveStore is the persistence surface the resolver needs.
type ResolveStore interface {
	GetArk(ctx context.Context, ark string) (*model.Ark, error)
	GetNaan(ctx context.Context, naan int64) (*model.Naan, error)
}

// Resolver maps ark strings to redirect targets through a three-tier
// fallback: exact record, then the naan's own resolver, then the global
// resolver. Every syntactically valid ark resolves to some redirect.
type Resolver struct {
	store          ResolveStore
	globalResolver string
}

// NewResolver creates a Resolver. An empty globalResolver selects
// DefaultGlobalResolver.
func NewResolver(st ResolveStore, globalResolver string) *Resolver {
	if globalResolver == "" {
		globalResolver = DefaultGlobalResolver
	}
	return &Resolver{store: st, globalResolver: globalResolver}
}

// Resolve returns the redirect target for an ark string. A malformed input
// yields an error wrapping noid.ErrInvalidArk; an ark that exists without a
// target yields ErrReserved. Unknown arks and unknown naans are not errors,
// they degrade to the next tier.
func (r *Resolver) Resolve(ctx context.Context, arkString string) (string, error) {
	_, naanNum, assignedName, err := noid.ParseArk(arkString)
	if err != nil {
		return "", err
	}

	// The parsed assigned name still carries the shoulder (minus its
	// leading slash), so naan + "/" + assigned name reconstructs the
	// exact string the minter stored.
	canonical := fmt.Sprintf("%d/%s", naanNum, assignedName)

	ark, err := r.store.GetArk(ctx, canonical)
	switch {
	case err == nil && ark.URL != "":
		return ark.URL, nil
	case err == nil:
		return "", ErrReserved
	case !errors.Is(err, store.ErrNotFound):
		return "", fmt.Errorf("look up ark: %w", err)
	}

	naan, err := r.store.GetNaan(ctx, naanNum)
	switch {
	case err == nil:
		return fmt.Sprintf("%s/ark:/%d/%s", naan.URL, naan.Naan, assignedName), nil
	case !errors.Is(err, store.ErrNotFound):
		return "", fmt.Errorf("look up naan: %w", err)
	}

	return fmt.Sprintf("%s/ark:/%d/%s", r.globalResolver, naanNum, assignedName), nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/arkmint/arkmint/internal/model"
	"github.com/arkmint/arkmint/internal/noid"
	"github.com/arkmint/arkmint/internal/store"
)

const (
	// NoidLength is the number of random symbols in a minted suffix,
	// before the check digit.
	NoidLength = 8

	// MaxMintAttempts bounds the collision-retry loop. With an 8-symbol
	// betanumeric suffix a collision is astronomically rare; hitting this
	// bound means the random source or alphabet is degenerate, which is an
	// operational alarm rather than something to retry past.
	MaxMintAttempts = 10
)

// ErrMintExhausted is returned when every candidate ark string collided.
var ErrMintExhausted = errors.New("mint attempts exhausted")

// ArkStore is the persistence surface the minter needs: a single atomic,
// uniqueness-enforcing insert.
type ArkStore interface {
	CreateArk(ctx context.Context, ark *model.Ark) error
}

// Minter generates ark strings and writes them through an atomic insert,
// retrying on collision up to MaxMintAttempts.
type Minter struct {
	store  ArkStore
	logger *slog.Logger
}

// NewMinter creates a Minter.
func NewMinter(st ArkStore, logger *slog.Logger) *Minter {
	return &Minter{store: st, logger: logger}
}

// Mint creates a new ark under the given naan and shoulder. It returns the
// created ark and the number of collisions encountered (0 in the common
// case). On exhaustion it returns (nil, MaxMintAttempts, ErrMintExhausted);
// callers must treat that as a hard, server-side failure.
//
// Uniqueness is enforced entirely by the store's insert, never by a
// check-then-act existence probe, so concurrent minters cannot race past
// each other.
func (m *Minter) Mint(ctx context.Context, naan *model.Naan, shoulder, url, metadata, commitment string) (*model.Ark, int, error) {
	// The shoulder carries the path separator that splits naan from
	// assigned name in the canonical string; without it the minted ark
	// could never be parsed back apart.
	if !strings.HasPrefix(shoulder, "/") {
		shoulder = "/" + shoulder
	}

	collisions := 0

	for attempt := 0; attempt < MaxMintAttempts; attempt++ {
		suffix, err := noid.Generate(NoidLength)
		if err != nil {
			return nil, collisions, fmt.Errorf("generate noid: %w", err)
		}

		base := fmt.Sprintf("%d%s%s", naan.Naan, shoulder, suffix)
		check := noid.CheckDigit(base)

		ark := &model.Ark{
			Ark:          base + string(check),
			Naan:         naan.Naan,
			Shoulder:     shoulder,
			AssignedName: suffix + string(check),
			URL:          url,
			Metadata:     metadata,
			Commitment:   commitment,
		}

		err = m.store.CreateArk(ctx, ark)
		if err == nil {
			if collisions > 0 {
				m.logger.Warn("ark minted after collisions",
					"ark", ark.Ark, "collisions", collisions)
			}
			return ark, collisions, nil
		}
		if errors.Is(err, store.ErrDuplicate) {
			collisions++
			continue
		}
		return nil, collisions, fmt.Errorf("create ark: %w", err)
	}

	m.logger.Error("gave up minting ark",
		"naan", naan.Naan, "shoulder", shoulder, "collisions", collisions)
	return nil, collisions, ErrMintExhausted
}

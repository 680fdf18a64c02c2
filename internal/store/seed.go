package store

import (
	"context"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/arkmint/arkmint/internal/model"
)

// Seed is the YAML document consumed by `arkmint naan import`. It carries
// the out-of-band registry data (authorities and their shoulders) that the
// minting service refuses to invent on its own.
type Seed struct {
	Naans []SeedNaan `yaml:"naans"`
}

// SeedNaan declares one naming authority and its shoulders.
type SeedNaan struct {
	Naan        int64          `yaml:"naan"`
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	URL         string         `yaml:"url"`
	Shoulders   []SeedShoulder `yaml:"shoulders"`
}

// SeedShoulder declares one namespace prefix under its parent naan.
type SeedShoulder struct {
	Shoulder    string `yaml:"shoulder"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// LoadSeed reads and parses a seed file. Environment variables referenced as
// ${VAR_NAME} in the file are expanded before parsing.
func LoadSeed(path string) (*Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}

	content := os.ExpandEnv(string(data))

	var seed Seed
	if err := yaml.Unmarshal([]byte(content), &seed); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	return &seed, nil
}

// ApplySeed upserts the seed's naans and shoulders. Existing naans have
// their descriptive fields refreshed; existing shoulders are left alone
// since they are referenced by minted arks.
func (s *Store) ApplySeed(ctx context.Context, seed *Seed) error {
	for _, sn := range seed.Naans {
		naan := &model.Naan{
			Naan:        sn.Naan,
			Name:        sn.Name,
			Description: sn.Description,
			URL:         sn.URL,
		}
		err := s.CreateNaan(ctx, naan)
		if errors.Is(err, ErrDuplicate) {
			err = s.UpdateNaan(ctx, naan)
		}
		if err != nil {
			return fmt.Errorf("seed naan %d: %w", sn.Naan, err)
		}

		for _, ss := range sn.Shoulders {
			sh := &model.Shoulder{
				Naan:        sn.Naan,
				Shoulder:    ss.Shoulder,
				Name:        ss.Name,
				Description: ss.Description,
			}
			if err := s.CreateShoulder(ctx, sh); err != nil && !errors.Is(err, ErrDuplicate) {
				return fmt.Errorf("seed shoulder %d%s: %w", sn.Naan, ss.Shoulder, err)
			}
		}
	}
	return nil
}

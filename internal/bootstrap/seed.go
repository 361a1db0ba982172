package bootstrap

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/lexintel/LexTriage/internal/domain/legalcase"
	"github.com/lexintel/LexTriage/internal/domain/offense"
	"github.com/lexintel/LexTriage/internal/infrastructure/monitoring/logging"
	"github.com/lexintel/LexTriage/pkg/errors"
)

const (
	offenseSeedFile = "offenses.json"
	caseSeedFile    = "cases.json"
)

// LoadOffenseSeed reads an offense catalog seed file: a JSON array of
// offense objects.
func LoadOffenseSeed(path string) ([]*offense.Offense, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Newf(errors.ErrCodeNotFound, "seed: offense file %s not found", path)
		}
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "seed: failed to read offense file")
	}

	var items []*offense.Offense
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeValidation, "seed: malformed offense file")
	}
	for i, o := range items {
		if err := o.Validate(); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeValidation, fmt.Sprintf("seed: offense entry %d is invalid", i))
		}
	}
	return items, nil
}

// LoadCaseSeed reads a case corpus seed file: a JSON array of case objects.
func LoadCaseSeed(path string) ([]*legalcase.Case, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Newf(errors.ErrCodeNotFound, "seed: case file %s not found", path)
		}
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "seed: failed to read case file")
	}

	var items []*legalcase.Case
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeValidation, "seed: malformed case file")
	}
	for i, c := range items {
		if err := c.Validate(); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeValidation, fmt.Sprintf("seed: case entry %d is invalid", i))
		}
	}
	return items, nil
}

// Seed loads offenses.json and cases.json from dataDir into the given
// stores.  Missing files are skipped; duplicates of already stored entries
// are skipped so re-seeding an existing database is safe.
func Seed(ctx context.Context, catalog offense.Catalog, corpus legalcase.Corpus,
	dataDir string, logger logging.Logger) error {
	if dataDir == "" {
		return nil
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	logger = logger.Named("seed")

	offenses, err := LoadOffenseSeed(filepath.Join(dataDir, offenseSeedFile))
	switch {
	case errors.IsNotFound(err):
		logger.Debug("no offense seed file", logging.String("dir", dataDir))
	case err != nil:
		return err
	default:
		saved := 0
		for _, o := range offenses {
			if err := catalog.Save(ctx, o); err != nil {
				if errors.IsCode(err, errors.ErrCodeDuplicateOffense) {
					continue
				}
				return err
			}
			saved++
		}
		logger.Info("offense catalog seeded",
			logging.Int("loaded", len(offenses)), logging.Int("saved", saved))
	}

	cases, err := LoadCaseSeed(filepath.Join(dataDir, caseSeedFile))
	switch {
	case errors.IsNotFound(err):
		logger.Debug("no case seed file", logging.String("dir", dataDir))
	case err != nil:
		return err
	default:
		saved := 0
		for _, c := range cases {
			if err := corpus.Save(ctx, c); err != nil {
				if errors.IsCode(err, errors.ErrCodeDuplicateCaseID) {
					continue
				}
				return err
			}
			saved++
		}
		logger.Info("case corpus seeded",
			logging.Int("loaded", len(cases)), logging.Int("saved", saved))
	}

	return nil
}

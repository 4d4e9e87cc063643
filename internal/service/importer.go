package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"racetime/internal/fitfile"
	"racetime/internal/logger"
	"racetime/internal/store"
)

// ImportOptions controls how imported files are recorded
type ImportOptions struct {
	// AsRace also records each imported run as a race result
	AsRace bool
	Tags   []string
}

// ImportResult summarizes an import
type ImportResult struct {
	Imported int
	Races    int
	Skipped  int
	Errors   []error
}

// ImportService stores activities decoded from FIT files
type ImportService struct {
	store *store.DB
	log   logrus.FieldLogger
}

// NewImportService creates an import service
func NewImportService(db *store.DB, log logrus.FieldLogger) *ImportService {
	if log == nil {
		log = logger.Discard()
	}
	return &ImportService{store: db, log: log}
}

// ImportFiles decodes and stores each FIT file. A bad file is recorded in the
// result and does not stop the others; only cancellation aborts the batch.
func (s *ImportService) ImportFiles(ctx context.Context, paths []string, opts ImportOptions) (*ImportResult, error) {
	result := &ImportResult{}
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if err := s.importFile(ctx, path, opts, result); err != nil {
			s.log.WithError(err).WithField("file", path).Warn("import failed")
			result.Errors = append(result.Errors, fmt.Errorf("%s: %w", path, err))
		}
	}
	return result, nil
}

func (s *ImportService) importFile(ctx context.Context, path string, opts ImportOptions, result *ImportResult) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	a, err := fitfile.Decode(f, filepath.Base(path))
	if err != nil {
		return err
	}
	if !a.IsRun() {
		result.Skipped++
		s.log.WithFields(logrus.Fields{"file": path, "type": a.Type}).Info("skipping non-running activity")
		return nil
	}

	id, err := s.store.UpsertActivity(ctx, a)
	if err != nil {
		return fmt.Errorf("storing activity: %w", err)
	}
	result.Imported++

	if opts.AsRace {
		race := raceFromActivity(id, a)
		race.Tags = append([]string{"race", store.SourceFIT}, opts.Tags...)
		if err := s.store.UpsertRaceForActivity(ctx, race); err != nil {
			return fmt.Errorf("storing race: %w", err)
		}
		result.Races++
	}
	return nil
}

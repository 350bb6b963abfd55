package mail

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mikey/app-tracker/internal/core"
	"go.uber.org/zap"
)

// DirSource reads .eml files from a directory. It serves offline replays and tests.
type DirSource struct {
	dir        string
	normalizer *Normalizer
	logger     *zap.Logger
	now        func() time.Time
}

// NewDirSource creates a new directory mail source
func NewDirSource(dir string, normalizer *Normalizer, logger *zap.Logger) *DirSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DirSource{
		dir:        dir,
		normalizer: normalizer,
		logger:     logger,
		now:        time.Now,
	}
}

// Fetch parses every .eml file dated within the query window
func (s *DirSource) Fetch(ctx context.Context, q core.FetchQuery) ([]*core.NormalizedEmail, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read mail directory %s: %w", s.dir, err)
	}

	var emails []*core.NormalizedEmail
	for _, entry := range entries {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".eml") {
			continue
		}

		raw, err := os.ReadFile(filepath.Join(s.dir, entry.Name()))
		if err != nil {
			s.logger.Warn("Skipping unreadable file", zap.String("file", entry.Name()), zap.Error(err))
			continue
		}

		email, err := s.normalizer.FromRaw(strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name())), raw)
		if err != nil {
			s.logger.Warn("Skipping unparseable file", zap.String("file", entry.Name()), zap.Error(err))
			continue
		}
		emails = append(emails, email)
	}

	return window(emails, q.Cutoff(s.now()), q.Limit), nil
}

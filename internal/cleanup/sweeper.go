// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package cleanup

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ManuGH/reelforge/internal/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sweepFilesDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reelforge_cleanup_files_deleted_total",
		Help: "Files removed by the retention sweeper",
	})

	sweepFilesProtected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reelforge_cleanup_files_protected_total",
		Help: "Aged files spared by mark or active-job protection",
	}, []string{"reason"})

	sweepRuns = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reelforge_cleanup_sweeps_total",
		Help: "Completed retention sweeps",
	})
)

// ActiveIDsFunc supplies the IDs of jobs still in flight; their files
// are never deleted regardless of age.
type ActiveIDsFunc func(ctx context.Context) ([]string, error)

// Sweeper deletes aged files from the configured directories.
type Sweeper struct {
	Dirs      []string
	MaxAge    time.Duration
	Interval  time.Duration
	Marked    *MarkedSet
	ActiveIDs ActiveIDsFunc

	// now is swappable for tests.
	now func() time.Time
}

// NewSweeper wires a sweeper over the given directories.
func NewSweeper(dirs []string, maxAge, interval time.Duration, marked *MarkedSet, active ActiveIDsFunc) *Sweeper {
	return &Sweeper{
		Dirs:      dirs,
		MaxAge:    maxAge,
		Interval:  interval,
		Marked:    marked,
		ActiveIDs: active,
		now:       time.Now,
	}
}

// Run sweeps immediately, then on every interval tick until ctx ends.
func (s *Sweeper) Run(ctx context.Context) {
	logger := log.WithComponentFromContext(ctx, "cleanup")

	s.Sweep(ctx)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logger.Debug().Msg("sweeper stopped")
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep performs one pass over all directories.
func (s *Sweeper) Sweep(ctx context.Context) {
	logger := log.WithComponentFromContext(ctx, "cleanup")
	cutoff := s.now().Add(-s.MaxAge)

	protected := s.Marked.All()
	if s.ActiveIDs != nil {
		active, err := s.ActiveIDs(ctx)
		if err != nil {
			logger.Warn().Err(err).Msg("listing active jobs failed, sweeping with marks only")
		} else {
			protected = append(protected, active...)
		}
	}

	deleted := 0
	for _, dir := range s.Dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			if !os.IsNotExist(err) {
				logger.Warn().Err(err).Str("dir", dir).Msg("sweep: cannot read directory")
			}
			continue
		}
		for _, entry := range entries {
			if ctx.Err() != nil {
				return
			}
			if entry.IsDir() {
				continue
			}
			info, err := entry.Info()
			if err != nil {
				continue
			}
			if info.ModTime().After(cutoff) {
				continue
			}
			if id, hit := protectedBy(entry.Name(), protected); hit {
				reason := "active"
				if s.Marked.IsMarked(id) {
					reason = "marked"
				}
				sweepFilesProtected.WithLabelValues(reason).Inc()
				continue
			}

			path := filepath.Join(dir, entry.Name())
			if err := os.Remove(path); err != nil {
				logger.Warn().Err(err).Str("path", path).Msg("sweep: delete failed")
				continue
			}
			deleted++
			sweepFilesDeleted.Inc()
		}
	}

	sweepRuns.Inc()
	if deleted > 0 {
		logger.Info().Int("deleted", deleted).Msg("retention sweep complete")
	} else {
		logger.Debug().Msg("retention sweep complete, nothing to delete")
	}
}

// protectedBy reports whether any protected job ID appears as a
// substring of the filename.
func protectedBy(name string, ids []string) (string, bool) {
	for _, id := range ids {
		if id != "" && strings.Contains(name, id) {
			return id, true
		}
	}
	return "", false
}

package usecase

import (
	"context"
	"fmt"
	"log/slog"
)

// RepositorySink persists snapshots into a ResultRepository. Records are
// written once; the sweep metadata is refreshed with the final snapshot
// to capture the context destroy time.
type RepositorySink struct {
	repo    ResultRepository
	saved   map[string]struct{}
	started bool
}

// NewRepositorySink creates a sink writing to repo.
func NewRepositorySink(repo ResultRepository) *RepositorySink {
	return &RepositorySink{
		repo:  repo,
		saved: make(map[string]struct{}),
	}
}

// Write saves records not yet persisted. It is called from the writer
// goroutine only.
func (s *RepositorySink) Write(ctx context.Context, snap Snapshot) error {
	if !s.started || snap.Final {
		if err := s.repo.SaveSweep(ctx, snap.Meta); err != nil {
			return fmt.Errorf("save sweep: %w", err)
		}
		s.started = true
	}

	n := 0
	for _, rec := range snap.Records {
		if _, ok := s.saved[rec.UUID]; ok {
			continue
		}
		if err := s.repo.Save(ctx, snap.Meta.SweepID, rec); err != nil {
			return fmt.Errorf("save record %d: %w", rec.ID, err)
		}
		s.saved[rec.UUID] = struct{}{}
		n++
	}

	slog.Debug("RepositorySink: Records saved", "sweep_id", snap.Meta.SweepID, "new", n, "final", snap.Final)
	return nil
}

// Close is a no-op; the repository is owned by the caller.
func (s *RepositorySink) Close() error {
	return nil
}

package usecase

import (
	"cmp"
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/whhaicheng/FFT-BenchMind/internal/domain/execution"
)

// MemoryResultRepository provides an in-memory implementation of
// ResultRepository. It backs tests and runs without a database.
type MemoryResultRepository struct {
	sweeps  map[string]RunMetadata
	records map[string]*execution.ResultRecord
	// bySweep keeps record UUIDs per sweep in insertion order.
	bySweep map[string][]string
	mu      sync.RWMutex
}

// NewMemoryResultRepository creates a new in-memory result repository.
func NewMemoryResultRepository() *MemoryResultRepository {
	return &MemoryResultRepository{
		sweeps:  make(map[string]RunMetadata),
		records: make(map[string]*execution.ResultRecord),
		bySweep: make(map[string][]string),
	}
}

// SaveSweep inserts or updates sweep metadata.
func (r *MemoryResultRepository) SaveSweep(ctx context.Context, meta RunMetadata) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sweeps[meta.SweepID] = meta
	return nil
}

// Save stores a record unless its UUID is already known.
func (r *MemoryResultRepository) Save(ctx context.Context, sweepID string, rec *execution.ResultRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[rec.UUID]; ok {
		return nil
	}
	r.records[rec.UUID] = rec
	r.bySweep[sweepID] = append(r.bySweep[sweepID], rec.UUID)
	slog.Debug("MemoryResultRepository: Saved record", "uuid", rec.UUID, "id", rec.ID, "state", rec.State)
	return nil
}

// FindByUUID finds a record by its UUID.
func (r *MemoryResultRepository) FindByUUID(ctx context.Context, uuid string) (*execution.ResultRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[uuid]
	if !ok {
		return nil, ErrRecordNotFound
	}
	return rec, nil
}

// FindBySweep returns the records of a sweep ordered by ID.
func (r *MemoryResultRepository) FindBySweep(ctx context.Context, sweepID string) ([]*execution.ResultRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	uuids := r.bySweep[sweepID]
	out := make([]*execution.ResultRecord, 0, len(uuids))
	for _, id := range uuids {
		out = append(out, r.records[id])
	}
	slices.SortStableFunc(out, func(a, b *execution.ResultRecord) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return out, nil
}

// FindSweep returns sweep metadata.
func (r *MemoryResultRepository) FindSweep(ctx context.Context, sweepID string) (*RunMetadata, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	meta, ok := r.sweeps[sweepID]
	if !ok {
		return nil, ErrSweepNotFound
	}
	return &meta, nil
}

// ListSweeps returns sweeps newest first. A non-positive limit returns all.
func (r *MemoryResultRepository) ListSweeps(ctx context.Context, limit int) ([]RunMetadata, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]RunMetadata, 0, len(r.sweeps))
	for _, meta := range r.sweeps {
		out = append(out, meta)
	}
	slices.SortFunc(out, func(a, b RunMetadata) int {
		return b.StartedAt.Compare(a.StartedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Ensure MemoryResultRepository implements the repository interface.
var _ ResultRepository = (*MemoryResultRepository)(nil)

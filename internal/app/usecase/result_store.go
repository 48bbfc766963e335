package usecase

import (
	"errors"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/whhaicheng/FFT-BenchMind/internal/domain/execution"
	"github.com/whhaicheng/FFT-BenchMind/internal/domain/fft"
)

// ErrStoreClosed is returned by Add after Close.
var ErrStoreClosed = errors.New("result store closed")

// ResultStore is the append-only collection of finished result records.
// Every dumpFrequency-th insert signals the writer without blocking.
type ResultStore struct {
	mu      sync.Mutex
	records []*execution.ResultRecord
	closed  bool

	inserted      atomic.Int64
	dumpFrequency int64
	// flush holds at most one pending signal, so flushes coalesce.
	flush chan struct{}
}

// NewResultStore creates a store. A dumpFrequency below 1 is treated as 1.
func NewResultStore(dumpFrequency int) *ResultStore {
	return &ResultStore{
		dumpFrequency: int64(max(dumpFrequency, 1)),
		flush:         make(chan struct{}, 1),
	}
}

// Add appends a finished record. The record must not be modified afterwards.
func (s *ResultStore) Add(rec *execution.ResultRecord) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrStoreClosed
	}
	s.records = append(s.records, rec)
	s.mu.Unlock()

	if s.inserted.Add(1)%s.dumpFrequency == 0 {
		select {
		case s.flush <- struct{}{}:
		default:
		}
	}
	return nil
}

// Close rejects further inserts.
func (s *ResultStore) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

// Snapshot returns the records in their current order.
func (s *ResultStore) Snapshot() []*execution.ResultRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.records)
}

// Len returns the number of records.
func (s *ResultStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// Sort orders the records by precision, placement, layout,
// dimensionality and total extent, keeping insertion order for equal
// keys. Call it only after producers have stopped.
func (s *ResultStore) Sort() {
	s.mu.Lock()
	defer s.mu.Unlock()
	slices.SortStableFunc(s.records, func(a, b *execution.ResultRecord) int {
		return fft.Compare(a.Config, b.Config)
	})
}

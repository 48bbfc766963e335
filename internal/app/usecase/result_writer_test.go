package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/whhaicheng/FFT-BenchMind/internal/domain/execution"
	"github.com/whhaicheng/FFT-BenchMind/internal/domain/fft"
)

// recordingSink keeps a copy of every snapshot it receives.
type recordingSink struct {
	mu     sync.Mutex
	snaps  []Snapshot
	err    error
	closed bool
}

func (s *recordingSink) Write(ctx context.Context, snap Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snaps = append(s.snaps, snap)
	return s.err
}

func (s *recordingSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *recordingSink) snapshots() []Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Snapshot(nil), s.snaps...)
}

func (s *recordingSink) final() (Snapshot, bool) {
	snaps := s.snapshots()
	if len(snaps) == 0 {
		return Snapshot{}, false
	}
	last := snaps[len(snaps)-1]
	return last, last.Final
}

// countingObserver counts observer events.
type countingObserver struct {
	mu        sync.Mutex
	records   []*execution.ResultRecord
	snapshots int
	finals    int
	errors    int
}

func (o *countingObserver) RecordDone(rec *execution.ResultRecord) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.records = append(o.records, rec)
}

func (o *countingObserver) SnapshotWritten(records int, final bool, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.snapshots++
	if final {
		o.finals++
	}
	if err != nil {
		o.errors++
	}
}

// TestResultWriter_FinalSnapshot tests the shutdown sequence.
func TestResultWriter_FinalSnapshot(t *testing.T) {
	store := NewResultStore(1)
	sink := &recordingSink{}
	obs := &countingObserver{}
	w := NewResultWriter(store, RunMetadata{SweepID: "s"}, []ResultSink{sink}, []Observer{obs})
	w.Start()

	big := fft.MustConfiguration(fft.PrecisionFloat, fft.LayoutComplex, fft.PlacementInplace, 256)
	small := fft.MustConfiguration(fft.PrecisionFloat, fft.LayoutComplex, fft.PlacementInplace, 16)
	require.NoError(t, store.Add(storeRecord(0, big)))
	require.NoError(t, store.Add(storeRecord(1, small)))

	store.Close()
	require.NoError(t, w.Stop(ContextTimings{CreateMs: 1.5, DestroyMs: 2.5}))

	final, ok := sink.final()
	require.True(t, ok, "last snapshot must be final")
	require.Len(t, final.Records, 2)
	assert.Equal(t, 1, final.Records[0].ID, "final snapshot is sorted")
	assert.Equal(t, 0, final.Records[1].ID)
	assert.Equal(t, 1.5, final.Meta.ContextCreateMs)
	assert.Equal(t, 2.5, final.Meta.ContextDestroyMs)
	assert.True(t, sink.closed)

	// Every snapshot before the final one is unsorted and non-final.
	snaps := sink.snapshots()
	for _, s := range snaps[:len(snaps)-1] {
		assert.False(t, s.Final)
	}
	assert.Equal(t, 1, obs.finals)
	assert.Equal(t, len(snaps), obs.snapshots)
}

// TestResultWriter_FlushesDuringRun tests that records reach sinks before shutdown.
func TestResultWriter_FlushesDuringRun(t *testing.T) {
	store := NewResultStore(1)
	sink := &recordingSink{}
	w := NewResultWriter(store, RunMetadata{SweepID: "s"}, []ResultSink{sink}, nil)
	w.Start()

	cfg := fft.MustConfiguration(fft.PrecisionDouble, fft.LayoutReal, fft.PlacementOutplace, 32)
	require.NoError(t, store.Add(storeRecord(0, cfg)))

	assert.Eventually(t, func() bool {
		for _, s := range sink.snapshots() {
			if len(s.Records) == 1 && !s.Final {
				return true
			}
		}
		return false
	}, 2*time.Second, 5*time.Millisecond)

	store.Close()
	require.NoError(t, w.Stop(ContextTimings{}))

	// Stop is idempotent.
	require.NoError(t, w.Stop(ContextTimings{}))
}

// TestResultWriter_SinkErrors tests that sink errors are reported but do not stop the writer.
func TestResultWriter_SinkErrors(t *testing.T) {
	store := NewResultStore(1)
	failing := &recordingSink{err: errors.New("disk full")}
	healthy := &recordingSink{}
	obs := &countingObserver{}
	w := NewResultWriter(store, RunMetadata{SweepID: "s"}, []ResultSink{failing, healthy}, []Observer{obs})
	w.Start()

	cfg := fft.MustConfiguration(fft.PrecisionFloat, fft.LayoutReal, fft.PlacementInplace, 32)
	require.NoError(t, store.Add(storeRecord(0, cfg)))
	store.Close()

	err := w.Stop(ContextTimings{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")

	final, ok := healthy.final()
	require.True(t, ok)
	assert.Len(t, final.Records, 1)
	assert.True(t, failing.closed)
	assert.Positive(t, obs.errors)
}

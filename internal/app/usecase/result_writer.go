package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// ContextTimings carries the context create and destroy durations in
// milliseconds to the final snapshot.
type ContextTimings struct {
	CreateMs  float64
	DestroyMs float64
}

// ResultWriter owns the sinks and persists store snapshots on a
// background goroutine. Producers never wait for I/O.
type ResultWriter struct {
	store     *ResultStore
	meta      RunMetadata
	sinks     []ResultSink
	observers []Observer

	stop     chan ContextTimings
	done     chan struct{}
	stopOnce sync.Once

	// errs is owned by the writer goroutine until done is closed.
	errs []error
}

// NewResultWriter creates a writer for store. Call Start to run it.
func NewResultWriter(store *ResultStore, meta RunMetadata, sinks []ResultSink, observers []Observer) *ResultWriter {
	return &ResultWriter{
		store:     store,
		meta:      meta,
		sinks:     sinks,
		observers: observers,
		stop:      make(chan ContextTimings),
		done:      make(chan struct{}),
	}
}

// Start launches the writer goroutine.
func (w *ResultWriter) Start() {
	go w.loop()
}

// Stop sends the shutdown message and waits until the final sorted
// snapshot was written and all sinks closed. It returns the sink errors
// collected during the run.
func (w *ResultWriter) Stop(timings ContextTimings) error {
	w.stopOnce.Do(func() {
		w.stop <- timings
	})
	<-w.done
	return errors.Join(w.errs...)
}

func (w *ResultWriter) loop() {
	defer close(w.done)
	for {
		select {
		case <-w.store.flush:
			w.write(false)
		case t := <-w.stop:
			w.meta.ContextCreateMs = t.CreateMs
			w.meta.ContextDestroyMs = t.DestroyMs
			w.write(false)
			w.store.Sort()
			w.write(true)
			w.closeSinks()
			return
		}
	}
}

// write persists a snapshot taken under the store lock; sink I/O runs
// without holding it.
func (w *ResultWriter) write(final bool) {
	snap := Snapshot{
		Meta:    w.meta,
		Records: w.store.Snapshot(),
		Final:   final,
	}
	for _, sink := range w.sinks {
		err := sink.Write(context.Background(), snap)
		if err != nil {
			slog.Error("ResultWriter: Sink write failed",
				"sink", fmt.Sprintf("%T", sink),
				"records", len(snap.Records),
				"error", err)
			w.errs = append(w.errs, err)
		}
		for _, o := range w.observers {
			o.SnapshotWritten(len(snap.Records), final, err)
		}
	}
	slog.Debug("ResultWriter: Snapshot written", "records", len(snap.Records), "final", final)
}

func (w *ResultWriter) closeSinks() {
	for _, sink := range w.sinks {
		if err := sink.Close(); err != nil {
			w.errs = append(w.errs, fmt.Errorf("close sink: %w", err))
		}
	}
}

// Package usecase defines the benchmark driver, result aggregation and
// the persistence interfaces implemented by the infrastructure layer.
package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/whhaicheng/FFT-BenchMind/internal/domain/config"
	"github.com/whhaicheng/FFT-BenchMind/internal/domain/execution"
)

var (
	// ErrRecordNotFound is returned when a result record does not exist.
	ErrRecordNotFound = errors.New("result record not found")

	// ErrSweepNotFound is returned when a sweep does not exist.
	ErrSweepNotFound = errors.New("sweep not found")
)

// =============================================================================
// Result Sinks
// =============================================================================

// RunMetadata describes one process run. It is written to result preambles.
type RunMetadata struct {
	SweepID          string
	Library          string
	DeviceProperties string
	Protocol         execution.Protocol
	StartedAt        time.Time
	Hostname         string
	Version          string
	Tag              string

	// Context timings in milliseconds. ContextDestroyMs is only known
	// for the final snapshot.
	ContextCreateMs  float64
	ContextDestroyMs float64
}

// Snapshot is a consistent copy of the stored records.
type Snapshot struct {
	Meta    RunMetadata
	Records []*execution.ResultRecord
	// Final is set for the last, sorted snapshot of a run.
	Final bool
}

// ResultSink persists snapshots. Each Write receives every record stored
// so far, so sinks either rewrite their output or skip records already
// written.
type ResultSink interface {
	Write(ctx context.Context, snap Snapshot) error
	Close() error
}

// =============================================================================
// Result Repository Interface
// =============================================================================

// ResultRepository defines the interface for result record persistence.
type ResultRepository interface {
	// SaveSweep inserts or updates the metadata of a process run.
	SaveSweep(ctx context.Context, meta RunMetadata) error

	// Save inserts a record with its runs. A record whose UUID already
	// exists is left unchanged.
	Save(ctx context.Context, sweepID string, rec *execution.ResultRecord) error

	// FindByUUID finds a record by its UUID.
	FindByUUID(ctx context.Context, uuid string) (*execution.ResultRecord, error)

	// FindBySweep returns the records of a sweep ordered by numeric ID.
	FindBySweep(ctx context.Context, sweepID string) ([]*execution.ResultRecord, error)

	// FindSweep returns the metadata of a sweep.
	FindSweep(ctx context.Context, sweepID string) (*RunMetadata, error)

	// ListSweeps returns sweep metadata, newest first.
	ListSweeps(ctx context.Context, limit int) ([]RunMetadata, error)
}

// =============================================================================
// Observers
// =============================================================================

// Observer receives progress events from the driver and writer
// goroutines. Implementations must be safe for concurrent use.
type Observer interface {
	// RecordDone is called after a record was stored.
	RecordDone(rec *execution.ResultRecord)
	// SnapshotWritten is called after every sink write.
	SnapshotWritten(records int, final bool, err error)
}

// =============================================================================
// Settings Repository Interface
// =============================================================================

// SettingsRepository defines the interface for configuration persistence.
type SettingsRepository interface {
	// GetConfig returns the stored configuration or the defaults.
	GetConfig(ctx context.Context) (*config.Config, error)

	// SaveConfig stores the configuration.
	SaveConfig(ctx context.Context, cfg *config.Config) error
}

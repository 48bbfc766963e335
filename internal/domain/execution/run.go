// Package execution provides benchmark run domain model.
package execution

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/whhaicheng/FFT-BenchMind/internal/domain/fft"
)

const (
	// DefaultWarmups is the default number of warmup runs.
	DefaultWarmups = 2
	// DefaultWarmRuns is the default number of measured runs.
	DefaultWarmRuns = 10
	// DefaultErrorBound is the default round-trip deviation bound.
	DefaultErrorBound = 1e-5
)

// ErrInvalidProtocol is returned when run counts are out of range.
var ErrInvalidProtocol = errors.New("invalid run protocol")

// Protocol is the run sequence applied to every configuration of a
// process. It is fixed when the driver is constructed.
type Protocol struct {
	Warmups    int     `json:"warmups"`
	WarmRuns   int     `json:"warm_runs"`
	ErrorBound float64 `json:"error_bound"`
	// RoundTrip enables the inverse transform and deviation check.
	RoundTrip bool `json:"round_trip"`
}

// DefaultProtocol returns 2 warmups, 10 measured runs and a 1e-5 bound.
func DefaultProtocol() Protocol {
	return Protocol{
		Warmups:    DefaultWarmups,
		WarmRuns:   DefaultWarmRuns,
		ErrorBound: DefaultErrorBound,
		RoundTrip:  true,
	}
}

// Runs returns the total number of runs per configuration.
func (p Protocol) Runs() int {
	return p.Warmups + p.WarmRuns
}

// Validate validates the protocol.
func (p Protocol) Validate() error {
	if p.Warmups < 0 || p.WarmRuns < 0 {
		return fmt.Errorf("%w: negative run count", ErrInvalidProtocol)
	}
	if p.Runs() < 1 {
		return fmt.Errorf("%w: at least one run required", ErrInvalidProtocol)
	}
	if p.ErrorBound <= 0 {
		return fmt.Errorf("%w: error bound must be positive", ErrInvalidProtocol)
	}
	return nil
}

// IsWarmup reports whether run index i is a warmup run.
func (p Protocol) IsWarmup(i int) bool {
	return i < p.Warmups
}

// RunStatus is the outcome of one run.
type RunStatus string

const (
	StatusPending RunStatus = "pending"
	StatusWarmup  RunStatus = "Warmup"
	StatusSuccess RunStatus = "Success"
	StatusFailed  RunStatus = "Failed"
	StatusSkipped RunStatus = "Skipped"
)

// RunRecord holds the timings of one (configuration, run index) pair.
type RunRecord struct {
	Index  int                 `json:"index"`
	Values [NumMetrics]float64 `json:"values"`
	Status RunStatus           `json:"status"`
	Error  string              `json:"error,omitempty"`
	// Invalid marks a run whose round-trip deviation exceeded the bound.
	Invalid bool `json:"invalid,omitempty"`
}

// Value returns a recorded metric.
func (r *RunRecord) Value(m Metric) float64 {
	return r.Values[m]
}

// Set records a metric.
func (r *RunRecord) Set(m Metric, v float64) {
	r.Values[m] = v
}

// ResultRecord is the complete run history of one configuration.
type ResultRecord struct {
	UUID    string            `json:"uuid"`
	ID      int               `json:"id"`
	Library string            `json:"library"`
	Config  fft.Configuration `json:"-"`

	State RunState    `json:"state"`
	Runs  []RunRecord `json:"runs"`

	// ErrorRun is the index of the failed run, -1 if none failed.
	ErrorRun int    `json:"error_run"`
	Error    string `json:"error,omitempty"`

	// ValidationError is set when the round-trip deviation exceeded the bound.
	ValidationError string `json:"validation_error,omitempty"`

	CreatedAt   time.Time `json:"created_at"`
	CompletedAt time.Time `json:"completed_at"`
}

// NewResultRecord creates a record with runs pending.
func NewResultRecord(uuid string, id int, library string, cfg fft.Configuration, p Protocol) *ResultRecord {
	runs := make([]RunRecord, p.Runs())
	for i := range runs {
		runs[i] = RunRecord{Index: i, Status: StatusPending}
	}
	return &ResultRecord{
		UUID:      uuid,
		ID:        id,
		Library:   library,
		Config:    cfg,
		State:     StateUnstarted,
		Runs:      runs,
		ErrorRun:  -1,
		CreatedAt: time.Now(),
	}
}

// HasError reports whether a run failed.
func (r *ResultRecord) HasError() bool {
	return r.ErrorRun >= 0
}

// IsCompleted checks if the record is in a terminal state.
func (r *ResultRecord) IsCompleted() bool {
	return r.State.IsTerminal()
}

// SetState sets the state with validation.
// Returns an error if the transition is invalid.
func (r *ResultRecord) SetState(newState RunState) error {
	if !r.State.CanTransitionTo(newState) {
		return &InvalidStateTransitionError{
			From: r.State,
			To:   newState,
		}
	}
	r.State = newState
	return nil
}

// Fail records the failing run and marks all later runs skipped.
// Earlier runs keep their status.
func (r *ResultRecord) Fail(run int, msg string) {
	r.ErrorRun = run
	r.Error = msg
	for i := range r.Runs {
		switch {
		case i == run:
			r.Runs[i].Status = StatusFailed
			r.Runs[i].Error = msg
		case i > run:
			r.Runs[i].Status = StatusSkipped
		}
	}
	if r.State != StateFailed {
		r.State = StateFailed
	}
}

// StatusLabel returns the status column written for run i: "Warmup",
// "Success", the error message of the failed run, or "Skipped".
func (r *ResultRecord) StatusLabel(i int) string {
	run := r.Runs[i]
	switch run.Status {
	case StatusFailed:
		return run.Error
	case StatusSkipped:
		return string(StatusSkipped)
	default:
		return string(run.Status)
	}
}

// MeasuredValues returns the values of one metric over successful,
// non-warmup runs.
func (r *ResultRecord) MeasuredValues(m Metric) []float64 {
	var values []float64
	for i := range r.Runs {
		if r.Runs[i].Status == StatusSuccess {
			values = append(values, r.Runs[i].Values[m])
		}
	}
	return values
}

// ToJSON serializes the record to JSON.
func (r *ResultRecord) ToJSON() ([]byte, error) {
	return json.Marshal(r)
}

// InvalidStateTransitionError represents an invalid state transition.
type InvalidStateTransitionError struct {
	From RunState
	To   RunState
}

func (e *InvalidStateTransitionError) Error() string {
	return fmt.Sprintf("invalid state transition: %s -> %s", e.From, e.To)
}

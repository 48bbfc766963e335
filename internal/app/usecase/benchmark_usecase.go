package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/whhaicheng/FFT-BenchMind/internal/backend"
	"github.com/whhaicheng/FFT-BenchMind/internal/domain/execution"
	"github.com/whhaicheng/FFT-BenchMind/internal/domain/fft"
)

var (
	// ErrDriverNotOpen is returned when running before Open or after Close.
	ErrDriverNotOpen = errors.New("benchmark driver not open")

	// ErrDriverOpen is returned when Open is called twice.
	ErrDriverOpen = errors.New("benchmark driver already open")
)

// DriverOptions configures a BenchmarkDriver.
type DriverOptions struct {
	Protocol       execution.Protocol
	DumpFrequency  int
	Seed           int64
	ContextOptions backend.ContextOptions

	Tag     string
	Version string

	Sinks     []ResultSink
	Observers []Observer
}

// BenchmarkDriver runs configurations sequentially against one backend
// context and hands finished records to the result store.
type BenchmarkDriver struct {
	backend backend.Backend
	opts    DriverOptions
	store   *ResultStore
	writer  *ResultWriter
	rng     *rand.Rand

	ctx      backend.Context
	timings  ContextTimings
	nextID   int
	sweepID  string
	hostname string
}

// NewBenchmarkDriver creates a driver. The protocol is fixed for the
// lifetime of the driver.
func NewBenchmarkDriver(b backend.Backend, opts DriverOptions) (*BenchmarkDriver, error) {
	if err := opts.Protocol.Validate(); err != nil {
		return nil, err
	}
	hostname, _ := os.Hostname()
	return &BenchmarkDriver{
		backend:  b,
		opts:     opts,
		store:    NewResultStore(opts.DumpFrequency),
		rng:      rand.New(rand.NewSource(opts.Seed)),
		sweepID:  uuid.New().String(),
		hostname: hostname,
	}, nil
}

// Store returns the result store.
func (d *BenchmarkDriver) Store() *ResultStore {
	return d.store
}

// SweepID identifies this process run in result databases.
func (d *BenchmarkDriver) SweepID() string {
	return d.sweepID
}

// Context returns the open backend context, or nil.
func (d *BenchmarkDriver) Context() backend.Context {
	return d.ctx
}

// Open creates the backend context and starts the result writer.
func (d *BenchmarkDriver) Open() error {
	if d.ctx != nil {
		return ErrDriverOpen
	}

	ctx := d.backend.NewContext(d.opts.ContextOptions)
	start := time.Now()
	err := ctx.Create()
	d.timings.CreateMs = milliseconds(time.Since(start))
	if err != nil {
		_ = ctx.Destroy()
		return fmt.Errorf("create context: %w", err)
	}
	d.ctx = ctx

	info := d.backend.Info()
	meta := RunMetadata{
		SweepID:          d.sweepID,
		Library:          info.Title,
		DeviceProperties: ctx.DeviceProperties(),
		Protocol:         d.opts.Protocol,
		StartedAt:        time.Now(),
		Hostname:         d.hostname,
		Version:          d.opts.Version,
		Tag:              d.opts.Tag,
		ContextCreateMs:  d.timings.CreateMs,
	}
	d.writer = NewResultWriter(d.store, meta, d.opts.Sinks, d.opts.Observers)
	d.writer.Start()

	slog.Info("Benchmark: Context created",
		"library", info.Name,
		"device", ctx.Device().Name,
		"time_ms", d.timings.CreateMs)
	return nil
}

// Sweep checks every configuration against the backend limits, then
// runs them in order. A configuration error aborts before any plan is
// built. Resource and backend call errors are recorded on the affected
// record and the sweep continues. Cancellation is checked between
// configurations.
func (d *BenchmarkDriver) Sweep(ctx context.Context, cfgs []fft.Configuration) error {
	if d.ctx == nil {
		return ErrDriverNotOpen
	}
	for _, cfg := range cfgs {
		if err := backend.CheckLimits(d.ctx, cfg); err != nil {
			return err
		}
	}

	var failed int
	for _, cfg := range cfgs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := d.Run(cfg); err != nil {
			if errors.Is(err, backend.ErrConfiguration) || errors.Is(err, backend.ErrContext) ||
				errors.Is(err, ErrStoreClosed) {
				return err
			}
			failed++
		}
	}

	slog.Info("Benchmark: Sweep finished", "configurations", len(cfgs), "failed", failed)
	return nil
}

// Run benchmarks one configuration through the full protocol and stores
// the record. The returned error is the failure recorded on it, if any.
func (d *BenchmarkDriver) Run(cfg fft.Configuration) (*execution.ResultRecord, error) {
	if d.ctx == nil {
		return nil, ErrDriverNotOpen
	}

	rec := execution.NewResultRecord(uuid.New().String(), d.nextID, d.backend.Info().Title, cfg, d.opts.Protocol)
	d.nextID++
	if err := rec.SetState(execution.StateContextReady); err != nil {
		return nil, err
	}

	slog.Debug("Benchmark: Configuration started", "config", cfg.String(), "id", rec.ID)

	runErr := d.execute(rec)
	rec.CompletedAt = time.Now()

	if runErr != nil {
		slog.Error("Benchmark: Configuration failed",
			"config", cfg.String(),
			"run", rec.ErrorRun,
			"error", runErr)
	} else if rec.ValidationError != "" {
		slog.Warn("Benchmark: Round-trip validation failed",
			"config", cfg.String(),
			"error", rec.ValidationError)
	}

	if err := d.store.Add(rec); err != nil {
		return rec, err
	}
	for _, o := range d.opts.Observers {
		o.RecordDone(rec)
	}
	return rec, runErr
}

// execute builds the plan, performs every run and always destroys the
// plan. One-time values are written into every run.
func (d *BenchmarkDriver) execute(rec *execution.ResultRecord) error {
	setOnce := func(m execution.Metric, v float64) {
		for i := range rec.Runs {
			rec.Runs[i].Set(m, v)
		}
	}

	start := time.Now()
	runner, err := NewPlanRunner(d.ctx, rec.Config)
	if err == nil {
		setOnce(execution.MetricTransferSize, float64(runner.TransferSize()))
		setOnce(execution.MetricBufferSize, float64(runner.AllocationSize()))
		var scratch int64
		scratch, err = runner.PlanSize()
		setOnce(execution.MetricPlanSize, float64(scratch))
	}
	setOnce(execution.MetricDevice, milliseconds(time.Since(start)))

	if err == nil {
		defer func() {
			start := time.Now()
			if derr := runner.Destroy(); derr != nil {
				slog.Error("Benchmark: Plan destroy failed", "config", rec.Config.String(), "error", derr)
			}
			setOnce(execution.MetricCleanup, milliseconds(time.Since(start)))
		}()

		start = time.Now()
		err = runner.Allocate()
		setOnce(execution.MetricAllocation, milliseconds(time.Since(start)))
	} else if runner != nil {
		_ = runner.Destroy()
	}
	if err != nil {
		rec.Fail(0, err.Error())
		return err
	}
	if err := rec.SetState(execution.StatePlanConstructed); err != nil {
		return err
	}

	in, out := hostBuffers(rec.Config, d.rng)
	p := d.opts.Protocol
	for i := range rec.Runs {
		target := execution.StateMeasuring
		if p.IsWarmup(i) {
			target = execution.StateWarmingUp
		}
		if rec.State != target {
			if err := rec.SetState(target); err != nil {
				return err
			}
		}

		run := &rec.Runs[i]
		if err := d.runOnce(runner, run, in, out); err != nil {
			rec.Fail(i, err.Error())
			return err
		}
		run.Status = execution.StatusSuccess
		if p.IsWarmup(i) {
			run.Status = execution.StatusWarmup
		}
	}

	if err := rec.SetState(execution.StateCompleted); err != nil {
		return err
	}
	d.validate(rec)
	return nil
}

// runOnce performs one run. Each step returns only after the device
// finished, so wall-clock timing around it is exact.
func (d *BenchmarkDriver) runOnce(r *PlanRunner, run *execution.RunRecord, in, out any) error {
	total := time.Now()
	step := func(m execution.Metric, f func() error) error {
		start := time.Now()
		err := f()
		run.Set(m, milliseconds(time.Since(start)))
		return err
	}

	if err := step(execution.MetricUpload, func() error { return r.Upload(in) }); err != nil {
		return err
	}
	if err := step(execution.MetricPlanInitFwd, r.InitForward); err != nil {
		return err
	}
	if err := step(execution.MetricFFT, r.ExecuteForward); err != nil {
		return err
	}
	if d.opts.Protocol.RoundTrip {
		if err := step(execution.MetricPlanInitInv, r.InitInverse); err != nil {
			return err
		}
		if err := step(execution.MetricFFTInverse, r.ExecuteInverse); err != nil {
			return err
		}
	}
	if err := step(execution.MetricDownload, func() error { return r.Download(out) }); err != nil {
		return err
	}
	run.Set(execution.MetricTotal, milliseconds(time.Since(total)))

	if d.opts.Protocol.RoundTrip {
		run.Set(execution.MetricDeviation, deviation(in, out))
	}
	return nil
}

// validate compares the deviation of the last run with the bound and
// marks every run that exceeded it.
func (d *BenchmarkDriver) validate(rec *execution.ResultRecord) {
	p := d.opts.Protocol
	if !p.RoundTrip || len(rec.Runs) == 0 {
		return
	}
	last := rec.Runs[len(rec.Runs)-1].Value(execution.MetricDeviation)
	if last <= p.ErrorBound {
		return
	}
	rec.ValidationError = (&backend.ValidationError{Deviation: last, Bound: p.ErrorBound}).Error()
	for i := range rec.Runs {
		if v := rec.Runs[i].Value(execution.MetricDeviation); !(v <= p.ErrorBound) {
			rec.Runs[i].Invalid = true
		}
	}
}

// Close destroys the context, stops the writer and waits for the final
// sorted snapshot.
func (d *BenchmarkDriver) Close() error {
	if d.ctx == nil {
		return nil
	}

	start := time.Now()
	destroyErr := d.ctx.Destroy()
	d.timings.DestroyMs = milliseconds(time.Since(start))
	d.ctx = nil

	d.store.Close()
	writeErr := d.writer.Stop(d.timings)

	slog.Info("Benchmark: Context destroyed",
		"time_ms", d.timings.DestroyMs,
		"records", d.store.Len())

	if destroyErr != nil {
		destroyErr = fmt.Errorf("destroy context: %w", destroyErr)
	}
	return errors.Join(destroyErr, writeErr)
}

// Timings returns the context create and destroy durations.
func (d *BenchmarkDriver) Timings() ContextTimings {
	return d.timings
}

func milliseconds(d time.Duration) float64 {
	return float64(d.Nanoseconds()) / 1e6
}

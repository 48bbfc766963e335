package usecase

import (
	"errors"
	"fmt"

	"github.com/whhaicheng/FFT-BenchMind/internal/backend"
	"github.com/whhaicheng/FFT-BenchMind/internal/domain/fft"
)

// ErrCallOrder is returned when a plan step is invoked out of order.
var ErrCallOrder = errors.New("plan call out of order")

// memoryBudgetPercent is the share of device global memory a plan may use.
const memoryBudgetPercent = 95

// PlanRunner wraps one backend plan and enforces the order of its
// calls: size queries, Allocate, Upload, InitForward, ExecuteForward,
// InitInverse, ExecuteInverse, Download. Destroy may be called at any
// time and more than once.
type PlanRunner struct {
	plan   backend.Plan
	cfg    fft.Configuration
	device backend.Device

	scratch      int64
	sized        bool
	allocated    bool
	uploaded     bool
	forwardReady bool
	inverseReady bool
	destroyed    bool
}

// NewPlanRunner checks the backend limits and constructs the plan.
func NewPlanRunner(ctx backend.Context, cfg fft.Configuration) (*PlanRunner, error) {
	if err := backend.CheckLimits(ctx, cfg); err != nil {
		return nil, err
	}
	plan, err := ctx.NewPlan(cfg)
	if err != nil {
		var cfgErr *backend.ConfigurationError
		if errors.As(err, &cfgErr) || errors.Is(err, backend.ErrContext) {
			return nil, err
		}
		return nil, &backend.BackendCallError{Op: "create_plan", Err: err}
	}
	return &PlanRunner{plan: plan, cfg: cfg, device: ctx.Device()}, nil
}

// TransferSize returns the bytes moved per upload or download.
func (r *PlanRunner) TransferSize() int64 {
	return r.plan.TransferSize()
}

// AllocationSize returns the bytes of device buffers.
func (r *PlanRunner) AllocationSize() int64 {
	return r.plan.AllocationSize()
}

// PlanSize returns the plan scratch size and verifies that buffers,
// scratch and, on host-memory devices, the two host arrays fit in the
// memory budget. Scratch is probed when the plan supports it.
func (r *PlanRunner) PlanSize() (int64, error) {
	scratch := r.plan.PlanSize()
	if prober, ok := r.plan.(backend.ScratchProber); ok {
		probed, err := prober.ProbeScratch()
		if err != nil {
			return 0, &backend.BackendCallError{Op: "probe_scratch", Err: err}
		}
		scratch = probed
	}

	wanted := r.plan.AllocationSize() + scratch
	if r.device.HostMemory {
		wanted += 2 * r.plan.TransferSize()
	}
	budget := r.device.GlobalMemory / 100 * memoryBudgetPercent
	if wanted > budget {
		return 0, &backend.ResourceError{Budget: budget, Wanted: wanted, Deficit: wanted - budget}
	}

	r.scratch = scratch
	r.sized = true
	return scratch, nil
}

// Allocate creates the device buffers.
func (r *PlanRunner) Allocate() error {
	if err := r.require(r.sized, "allocate before size check"); err != nil {
		return err
	}
	if err := r.call("allocate", r.plan.Allocate); err != nil {
		return err
	}
	r.allocated = true
	return nil
}

// Upload copies host input to the device.
func (r *PlanRunner) Upload(host any) error {
	if err := r.require(r.allocated, "upload before allocate"); err != nil {
		return err
	}
	if err := r.call("upload", func() error { return r.plan.Upload(host) }); err != nil {
		return err
	}
	r.uploaded = true
	return nil
}

// InitForward builds the forward plan.
func (r *PlanRunner) InitForward() error {
	if err := r.require(r.allocated, "init forward before allocate"); err != nil {
		return err
	}
	if err := r.call("init_forward", r.plan.InitForward); err != nil {
		return err
	}
	r.forwardReady = true
	return nil
}

// ExecuteForward runs the forward transform.
func (r *PlanRunner) ExecuteForward() error {
	if err := r.require(r.forwardReady && r.uploaded, "forward before init or upload"); err != nil {
		return err
	}
	return r.call("execute_forward", r.plan.ExecuteForward)
}

// InitInverse builds the inverse plan. Real layouts discard the forward
// plan, so InitForward must run again before the next forward transform.
func (r *PlanRunner) InitInverse() error {
	if err := r.require(r.allocated, "init inverse before allocate"); err != nil {
		return err
	}
	if err := r.call("init_inverse", r.plan.InitInverse); err != nil {
		return err
	}
	r.inverseReady = true
	if !r.cfg.Layout.IsComplex() {
		r.forwardReady = false
	}
	return nil
}

// ExecuteInverse runs the inverse transform.
func (r *PlanRunner) ExecuteInverse() error {
	if err := r.require(r.inverseReady, "inverse before init"); err != nil {
		return err
	}
	return r.call("execute_inverse", r.plan.ExecuteInverse)
}

// Download copies the device result to host.
func (r *PlanRunner) Download(host any) error {
	if err := r.require(r.uploaded, "download before upload"); err != nil {
		return err
	}
	return r.call("download", func() error { return r.plan.Download(host) })
}

// Destroy releases the plan. It is idempotent.
func (r *PlanRunner) Destroy() error {
	if r.destroyed {
		return nil
	}
	r.destroyed = true
	r.allocated, r.uploaded, r.forwardReady, r.inverseReady = false, false, false, false
	return r.call("destroy", r.plan.Destroy)
}

func (r *PlanRunner) require(ok bool, what string) error {
	if r.destroyed {
		return fmt.Errorf("%w: plan destroyed", ErrCallOrder)
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrCallOrder, what)
	}
	return nil
}

func (r *PlanRunner) call(op string, f func() error) error {
	if err := f(); err != nil {
		return &backend.BackendCallError{Op: op, Err: err}
	}
	return nil
}

// Package mock wraps a backend to inject failures, shrink device memory,
// lower length ceilings and perturb results. It drives the failure paths
// of the benchmark driver in tests and from the command line.
package mock

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/whhaicheng/FFT-BenchMind/internal/backend"
	"github.com/whhaicheng/FFT-BenchMind/internal/domain/fft"
)

// ErrInjected is returned by an injected failure.
var ErrInjected = errors.New("injected failure")

// Step names a plan call that can fail.
type Step string

const (
	StepAllocate       Step = "allocate"
	StepUpload         Step = "upload"
	StepInitForward    Step = "init_forward"
	StepExecuteForward Step = "execute_forward"
	StepInitInverse    Step = "init_inverse"
	StepExecuteInverse Step = "execute_inverse"
	StepDownload       Step = "download"
)

var steps = []Step{
	StepAllocate, StepUpload, StepInitForward, StepExecuteForward,
	StepInitInverse, StepExecuteInverse, StepDownload,
}

// Fault fails Step during run Run of every plan. Allocate ignores Run.
type Fault struct {
	Step Step
	Run  int
}

// ParseFault parses "step@run", e.g. "execute_forward@3".
func ParseFault(s string) (Fault, error) {
	name, run, ok := strings.Cut(strings.TrimSpace(s), "@")
	if !ok {
		return Fault{}, backend.NewConfigurationError("fault %q: expected step@run", s)
	}
	idx, err := strconv.Atoi(run)
	if err != nil || idx < 0 {
		return Fault{}, backend.NewConfigurationError("fault %q: invalid run index", s)
	}
	for _, st := range steps {
		if string(st) == name {
			return Fault{Step: st, Run: idx}, nil
		}
	}
	return Fault{}, backend.NewConfigurationError("fault %q: unknown step", s)
}

// Option configures the wrapper.
type Option func(*Backend)

// WithFault injects a failure.
func WithFault(f Fault) Option {
	return func(b *Backend) { b.faults = append(b.faults, f) }
}

// WithGlobalMemory overrides the device memory size.
func WithGlobalMemory(bytes int64) Option {
	return func(b *Backend) { b.globalMemory = bytes }
}

// WithMaxLength overrides every length ceiling of supported combinations.
func WithMaxLength(n int64) Option {
	return func(b *Backend) { b.maxLength = n }
}

// WithDeviation adds delta to the first downloaded value of every run,
// which shows up as a round-trip deviation.
func WithDeviation(delta float64) Option {
	return func(b *Backend) { b.deviation = delta }
}

// Backend is a fault-injecting wrapper.
type Backend struct {
	inner        backend.Backend
	faults       []Fault
	globalMemory int64
	maxLength    int64
	deviation    float64
}

// Wrap returns inner wrapped with the given options.
func Wrap(inner backend.Backend, opts ...Option) *Backend {
	b := &Backend{inner: inner}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Info returns the wrapped backend's info.
func (b *Backend) Info() backend.Info {
	return b.inner.Info()
}

// Devices returns the wrapped devices with the memory override applied.
func (b *Backend) Devices() ([]backend.Device, error) {
	devices, err := b.inner.Devices()
	if err != nil {
		return nil, err
	}
	if b.globalMemory > 0 {
		for i := range devices {
			devices[i].GlobalMemory = b.globalMemory
		}
	}
	return devices, nil
}

// NewContext wraps the inner context.
func (b *Backend) NewContext(opts backend.ContextOptions) backend.Context {
	return &Context{Context: b.inner.NewContext(opts), backend: b}
}

// Context wraps a backend context.
type Context struct {
	backend.Context
	backend *Backend
}

// Device applies the memory override.
func (c *Context) Device() backend.Device {
	d := c.Context.Device()
	if c.backend.globalMemory > 0 {
		d.GlobalMemory = c.backend.globalMemory
	}
	return d
}

// MaxLength applies the length override.
func (c *Context) MaxLength(p fft.Precision, l fft.Layout) int64 {
	limit := c.Context.MaxLength(p, l)
	if limit > 0 && c.backend.maxLength > 0 {
		return min(limit, c.backend.maxLength)
	}
	return limit
}

// NewPlan wraps the inner plan.
func (c *Context) NewPlan(cfg fft.Configuration) (backend.Plan, error) {
	p, err := c.Context.NewPlan(cfg)
	if err != nil {
		return nil, err
	}
	return &Plan{inner: p, backend: c.backend, run: -1}, nil
}

// Plan counts runs by uploads and fails the configured steps.
type Plan struct {
	inner   backend.Plan
	backend *Backend
	run     int
}

func (p *Plan) check(step Step) error {
	for _, f := range p.backend.faults {
		if f.Step != step {
			continue
		}
		if step == StepAllocate || f.Run == p.run {
			return fmt.Errorf("%w: %s of run %d", ErrInjected, step, p.run)
		}
	}
	return nil
}

func (p *Plan) TransferSize() int64   { return p.inner.TransferSize() }
func (p *Plan) AllocationSize() int64 { return p.inner.AllocationSize() }
func (p *Plan) PlanSize() int64       { return p.inner.PlanSize() }

// ProbeScratch forwards to the inner plan when it can probe.
func (p *Plan) ProbeScratch() (int64, error) {
	if prober, ok := p.inner.(backend.ScratchProber); ok {
		return prober.ProbeScratch()
	}
	return p.inner.PlanSize(), nil
}

func (p *Plan) Allocate() error {
	if err := p.check(StepAllocate); err != nil {
		return err
	}
	return p.inner.Allocate()
}

func (p *Plan) Upload(host any) error {
	p.run++
	if err := p.check(StepUpload); err != nil {
		return err
	}
	return p.inner.Upload(host)
}

func (p *Plan) InitForward() error {
	if err := p.check(StepInitForward); err != nil {
		return err
	}
	return p.inner.InitForward()
}

func (p *Plan) ExecuteForward() error {
	if err := p.check(StepExecuteForward); err != nil {
		return err
	}
	return p.inner.ExecuteForward()
}

func (p *Plan) InitInverse() error {
	if err := p.check(StepInitInverse); err != nil {
		return err
	}
	return p.inner.InitInverse()
}

func (p *Plan) ExecuteInverse() error {
	if err := p.check(StepExecuteInverse); err != nil {
		return err
	}
	return p.inner.ExecuteInverse()
}

func (p *Plan) Download(host any) error {
	if err := p.check(StepDownload); err != nil {
		return err
	}
	if err := p.inner.Download(host); err != nil {
		return err
	}
	if d := p.backend.deviation; d != 0 {
		perturb(host, d)
	}
	return nil
}

func (p *Plan) Destroy() error {
	return p.inner.Destroy()
}

func perturb(host any, d float64) {
	switch s := host.(type) {
	case []float32:
		if len(s) > 0 {
			s[0] += float32(d)
		}
	case []float64:
		if len(s) > 0 {
			s[0] += d
		}
	case []complex64:
		if len(s) > 0 {
			s[0] += complex(float32(d), 0)
		}
	case []complex128:
		if len(s) > 0 {
			s[0] += complex(d, 0)
		}
	}
}

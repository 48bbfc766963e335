package host

import (
	"fmt"
	"log/slog"
	"runtime"

	"github.com/whhaicheng/FFT-BenchMind/internal/backend"
	"github.com/whhaicheng/FFT-BenchMind/internal/domain/fft"
)

// Backend runs FFT plans in host memory. The host exposes a single CPU
// device on platform 0.
type Backend struct {
	info    backend.Info
	kernels Kernels
}

// New creates a host backend using the given library kernels.
func New(info backend.Info, kernels Kernels) *Backend {
	return &Backend{info: info, kernels: kernels}
}

// Info returns the library description.
func (b *Backend) Info() backend.Info {
	return b.info
}

// Devices returns the host CPU.
func (b *Backend) Devices() ([]backend.Device, error) {
	mem, err := totalMemory()
	if err != nil {
		return nil, fmt.Errorf("%w: query host memory: %v", backend.ErrContext, err)
	}
	return []backend.Device{{
		Platform:     0,
		ID:           0,
		Name:         fmt.Sprintf("host %s/%s", runtime.GOOS, runtime.GOARCH),
		Vendor:       b.info.Title,
		Class:        backend.ClassCPU,
		ComputeUnits: runtime.NumCPU(),
		GlobalMemory: mem,
		HostMemory:   true,
	}}, nil
}

// NewContext returns an unconstructed context.
func (b *Backend) NewContext(opts backend.ContextOptions) backend.Context {
	return &Context{backend: b, opts: opts}
}

// Context is a host device context. Its worker count bounds the
// parallelism of every plan it creates.
type Context struct {
	backend *Backend
	opts    backend.ContextOptions

	device  backend.Device
	workers int
	created bool
}

// Create resolves the selected device and applies the sub-device partition.
func (c *Context) Create() error {
	if c.created {
		return fmt.Errorf("%w: context already created", backend.ErrContext)
	}

	devices, err := c.backend.Devices()
	if err != nil {
		return err
	}
	dev, err := c.opts.Selector.Resolve(devices)
	if err != nil {
		return err
	}

	workers := dev.ComputeUnits
	if cores := c.opts.SubDeviceCores; cores > 0 {
		if cores > dev.ComputeUnits {
			return fmt.Errorf("%w: sub-device of %d cores exceeds %d compute units",
				backend.ErrContext, cores, dev.ComputeUnits)
		}
		workers = cores
		dev.ComputeUnits = cores
		dev.Name += " (sub-device)"
	}

	c.device = dev
	c.workers = max(workers, 1)
	c.created = true

	slog.Debug("Host: Context created",
		"backend", c.backend.info.Name,
		"device", dev.Name,
		"workers", c.workers)
	return nil
}

// Destroy releases the context. It is idempotent.
func (c *Context) Destroy() error {
	if c.created {
		slog.Debug("Host: Context destroyed", "backend", c.backend.info.Name)
	}
	c.created = false
	return nil
}

// DeviceProperties describes the device for the result preamble.
func (c *Context) DeviceProperties() string {
	d := c.device
	return fmt.Sprintf("%s %s, %s, %d compute units, %d MiB global memory",
		c.backend.info.Title, c.backend.info.Version, d.Name, d.ComputeUnits, d.GlobalMemory>>20)
}

// Device returns the resolved device.
func (c *Context) Device() backend.Device {
	return c.device
}

// MaxLength returns the host length ceiling for p and l.
func (c *Context) MaxLength(p fft.Precision, l fft.Layout) int64 {
	if c.factoryMissing(p) {
		return 0
	}
	return backend.DefaultMaxLength(p, l)
}

// NewPlan constructs a plan for cfg.
func (c *Context) NewPlan(cfg fft.Configuration) (backend.Plan, error) {
	if !c.created {
		return nil, fmt.Errorf("%w: context not created", backend.ErrContext)
	}

	construct, ok := variants[cfg.Variant()]
	if !ok || c.factoryMissing(cfg.Precision) {
		return nil, backend.NewConfigurationError("%s does not support %s", c.backend.info.Name, cfg.Variant())
	}
	return construct(c, cfg), nil
}

func (c *Context) factoryMissing(p fft.Precision) bool {
	switch p {
	case fft.PrecisionFloat:
		return c.backend.kernels.Complex64 == nil
	case fft.PrecisionDouble:
		return c.backend.kernels.Complex128 == nil
	default:
		return true
	}
}

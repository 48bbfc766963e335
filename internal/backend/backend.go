// Package backend defines the capability contract every FFT library
// backend satisfies, plus device selection and the backend registry.
package backend

import (
	"fmt"
	"runtime/debug"

	"github.com/whhaicheng/FFT-BenchMind/internal/domain/fft"
)

// DeviceClass is the kind of compute device.
type DeviceClass string

const (
	ClassCPU         DeviceClass = "cpu"
	ClassGPU         DeviceClass = "gpu"
	ClassAccelerator DeviceClass = "accelerator"
)

// Info describes a backend library.
type Info struct {
	// Name is the registry key, e.g. "gonum".
	Name string
	// Title is written to the library column of result files.
	Title   string
	Version string
}

// Device describes one compute device a backend can run on.
type Device struct {
	Platform     int
	ID           int
	Name         string
	Vendor       string
	Class        DeviceClass
	ComputeUnits int
	// GlobalMemory is the device memory size in bytes.
	GlobalMemory int64
	// HostMemory reports whether device buffers live in host RAM.
	HostMemory bool
}

// String returns a one-line device description.
func (d Device) String() string {
	return fmt.Sprintf("%d:%d %s (%s, %s, %d units, %d MiB)",
		d.Platform, d.ID, d.Name, d.Vendor, d.Class, d.ComputeUnits, d.GlobalMemory>>20)
}

// ContextOptions configures context creation.
type ContextOptions struct {
	Selector Selector
	// SubDeviceCores partitions a CPU device into a logical sub-device
	// of that many cores. Zero uses the whole device.
	SubDeviceCores int
}

// Backend is an FFT library that can create device contexts.
type Backend interface {
	Info() Info
	// Devices enumerates the devices of all platforms.
	Devices() ([]Device, error)
	// NewContext returns an unconstructed context. No resources are
	// acquired until Create.
	NewContext(opts ContextOptions) Context
}

// Context owns the device resources shared by all plans of a sweep.
type Context interface {
	// Create acquires the device. It is called exactly once.
	Create() error
	// Destroy releases the device. It is idempotent and safe on a
	// context whose Create was never called or failed.
	Destroy() error
	// DeviceProperties returns the device description written to the
	// result preamble.
	DeviceProperties() string
	Device() Device
	// MaxLength returns the largest total extent supported for the
	// precision and layout, or 0 if the combination is unsupported.
	MaxLength(p fft.Precision, l fft.Layout) int64
	// NewPlan constructs a plan for cfg. No buffers are allocated.
	NewPlan(cfg fft.Configuration) (Plan, error)
}

// Plan drives one transform configuration on a device. Every method
// returns only after the device work it issued has completed.
type Plan interface {
	// TransferSize is the number of bytes moved by Upload and Download.
	TransferSize() int64
	// AllocationSize is the number of bytes of device buffers.
	AllocationSize() int64
	// PlanSize is the static estimate of plan scratch memory in bytes.
	PlanSize() int64

	Allocate() error
	// Upload copies the host input (a []float32, []float64, []complex64
	// or []complex128 of Configuration.N elements) to the device.
	Upload(host any) error
	// Download copies the device result back into host, which has the
	// same type and length as the Upload argument.
	Download(host any) error

	InitForward() error
	ExecuteForward() error
	InitInverse() error
	ExecuteInverse() error

	// Destroy frees buffers and plans. It is idempotent.
	Destroy() error
}

// ScratchProber is implemented by plans that can measure their scratch
// memory by transiently building and discarding forward and inverse plans.
type ScratchProber interface {
	ProbeScratch() (int64, error)
}

// ModuleVersion returns the version of a dependency module as recorded
// in the build info, or "devel" when unavailable.
func ModuleVersion(path string) string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "devel"
	}
	for _, dep := range info.Deps {
		if dep.Path == path {
			return dep.Version
		}
	}
	return "devel"
}

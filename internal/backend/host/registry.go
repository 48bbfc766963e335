package host

import (
	"github.com/whhaicheng/FFT-BenchMind/internal/backend"
	"github.com/whhaicheng/FFT-BenchMind/internal/domain/fft"
)

type planConstructor func(c *Context, cfg fft.Configuration) backend.Plan

// variants maps every supported precision, layout and placement to its
// plan constructor. Dimensionality is handled inside the plan.
var variants = map[fft.Variant]planConstructor{}

func register[F float32 | float64, C complex64 | complex128](p fft.Precision, factory func(Kernels) KernelFactory[C]) {
	for _, l := range []fft.Layout{fft.LayoutComplex, fft.LayoutReal} {
		for _, pl := range []fft.Placement{fft.PlacementInplace, fft.PlacementOutplace} {
			variants[fft.Variant{Precision: p, Layout: l, Placement: pl}] = func(c *Context, cfg fft.Configuration) backend.Plan {
				return newPlan[F, C](cfg, factory(c.backend.kernels), c.workers)
			}
		}
	}
}

func init() {
	register[float32, complex64](fft.PrecisionFloat, func(k Kernels) KernelFactory[complex64] { return k.Complex64 })
	register[float64, complex128](fft.PrecisionDouble, func(k Kernels) KernelFactory[complex128] { return k.Complex128 })
}

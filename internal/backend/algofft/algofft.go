// Package algofft provides a host backend built on the algo-fft
// generic plans.
package algofft

import (
	algofft "github.com/MeKo-Christian/algo-fft"

	"github.com/whhaicheng/FFT-BenchMind/internal/backend"
	"github.com/whhaicheng/FFT-BenchMind/internal/backend/host"
)

// Name is the registry key of the backend.
const Name = "algofft"

const modulePath = "github.com/MeKo-Christian/algo-fft"

// New returns the algo-fft backend.
func New() *host.Backend {
	return host.New(
		backend.Info{
			Name:    Name,
			Title:   "algo-fft",
			Version: backend.ModuleVersion(modulePath),
		},
		host.Kernels{
			Complex64:  newKernel[complex64],
			Complex128: newKernel[complex128],
		},
	)
}

// kernel adapts an algo-fft plan. Its Inverse is already normalized.
type kernel[C algofft.Complex] struct {
	plan *algofft.Plan[C]
	n    int
}

func newKernel[C complex64 | complex128](n int) (host.Kernel[C], error) {
	plan, err := algofft.NewPlanT[C](n)
	if err != nil {
		return nil, err
	}
	return &kernel[C]{plan: plan, n: n}, nil
}

func (k *kernel[C]) Len() int {
	return k.n
}

func (k *kernel[C]) Forward(dst, src []C) error {
	return k.plan.Forward(dst, src)
}

func (k *kernel[C]) Inverse(dst, src []C) error {
	return k.plan.Inverse(dst, src)
}

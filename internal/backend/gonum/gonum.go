// Package gonum provides a host backend built on gonum's dsp/fourier
// complex FFT.
package gonum

import (
	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/whhaicheng/FFT-BenchMind/internal/backend"
	"github.com/whhaicheng/FFT-BenchMind/internal/backend/host"
)

// Name is the registry key of the backend.
const Name = "gonum"

const modulePath = "gonum.org/v1/gonum"

// New returns the gonum backend.
func New() *host.Backend {
	return host.New(
		backend.Info{
			Name:    Name,
			Title:   "gonum",
			Version: backend.ModuleVersion(modulePath),
		},
		host.Kernels{
			Complex64:  newKernel64,
			Complex128: newKernel128,
		},
	)
}

// kernel128 wraps fourier.CmplxFFT. Sequence is unnormalized, so the
// inverse scales by 1/n.
type kernel128 struct {
	fft   *fourier.CmplxFFT
	scale complex128
}

func newKernel128(n int) (host.Kernel[complex128], error) {
	return &kernel128{
		fft:   fourier.NewCmplxFFT(n),
		scale: complex(1/float64(n), 0),
	}, nil
}

func (k *kernel128) Len() int {
	return k.fft.Len()
}

func (k *kernel128) Forward(dst, src []complex128) error {
	k.fft.Coefficients(dst, src)
	return nil
}

func (k *kernel128) Inverse(dst, src []complex128) error {
	k.fft.Sequence(dst, src)
	for i := range dst {
		dst[i] *= k.scale
	}
	return nil
}

// kernel64 runs single precision through the double precision kernel.
type kernel64 struct {
	k       *kernel128
	in, out []complex128
}

func newKernel64(n int) (host.Kernel[complex64], error) {
	k, _ := newKernel128(n)
	return &kernel64{
		k:   k.(*kernel128),
		in:  make([]complex128, n),
		out: make([]complex128, n),
	}, nil
}

func (k *kernel64) Len() int {
	return k.k.Len()
}

func (k *kernel64) Forward(dst, src []complex64) error {
	return k.run(dst, src, k.k.Forward)
}

func (k *kernel64) Inverse(dst, src []complex64) error {
	return k.run(dst, src, k.k.Inverse)
}

func (k *kernel64) run(dst, src []complex64, f func(dst, src []complex128) error) error {
	for i, v := range src {
		k.in[i] = complex128(v)
	}
	if err := f(k.out, k.in); err != nil {
		return err
	}
	for i, v := range k.out {
		dst[i] = complex64(v)
	}
	return nil
}

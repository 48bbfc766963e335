package usecase

import (
	"math"
	"math/cmplx"
	"math/rand"

	"github.com/whhaicheng/FFT-BenchMind/internal/domain/fft"
)

// hostBuffers returns random input data in [0,1) and a result array of
// the same type: []float32 or []float64 for real layouts, []complex64 or
// []complex128 for complex layouts.
func hostBuffers(cfg fft.Configuration, rng *rand.Rand) (in, out any) {
	n := int(cfg.N())
	isReal := !cfg.Layout.IsComplex()
	switch {
	case cfg.Precision == fft.PrecisionDouble && isReal:
		s := make([]float64, n)
		for i := range s {
			s[i] = rng.Float64()
		}
		return s, make([]float64, n)
	case cfg.Precision == fft.PrecisionDouble:
		s := make([]complex128, n)
		for i := range s {
			s[i] = complex(rng.Float64(), rng.Float64())
		}
		return s, make([]complex128, n)
	case isReal:
		s := make([]float32, n)
		for i := range s {
			s[i] = rng.Float32()
		}
		return s, make([]float32, n)
	default:
		s := make([]complex64, n)
		for i := range s {
			s[i] = complex(rng.Float32(), rng.Float32())
		}
		return s, make([]complex64, n)
	}
}

// deviation returns the root mean square of the element-wise difference
// between want and got, which must have the same type and length.
func deviation(want, got any) float64 {
	var sum float64
	var n int
	switch w := want.(type) {
	case []float32:
		g := got.([]float32)
		n = len(w)
		for i := range w {
			d := float64(g[i]) - float64(w[i])
			sum += d * d
		}
	case []float64:
		g := got.([]float64)
		n = len(w)
		for i := range w {
			d := g[i] - w[i]
			sum += d * d
		}
	case []complex64:
		g := got.([]complex64)
		n = len(w)
		for i := range w {
			d := cmplx.Abs(complex128(g[i]) - complex128(w[i]))
			sum += d * d
		}
	case []complex128:
		g := got.([]complex128)
		n = len(w)
		for i := range w {
			d := cmplx.Abs(g[i] - w[i])
			sum += d * d
		}
	}
	if n == 0 {
		return 0
	}
	return math.Sqrt(sum / float64(n))
}

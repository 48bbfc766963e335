// Package host implements multi-dimensional real and complex FFT plans
// in host memory on top of a 1-D complex kernel supplied by a library
// backend.
package host

// Kernel is a 1-D complex transform of fixed length. Inverse is
// normalized by 1/Len. Kernels are not safe for concurrent use.
type Kernel[C complex64 | complex128] interface {
	Len() int
	Forward(dst, src []C) error
	Inverse(dst, src []C) error
}

// KernelFactory builds a kernel for length n.
type KernelFactory[C complex64 | complex128] func(n int) (Kernel[C], error)

// Kernels holds the kernel factories of a library. A nil factory marks
// the precision as unsupported.
type Kernels struct {
	Complex64  KernelFactory[complex64]
	Complex128 KernelFactory[complex128]
}

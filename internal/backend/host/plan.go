package host

import (
	"fmt"
	"runtime"
	"unsafe"

	"golang.org/x/sync/errgroup"

	"github.com/whhaicheng/FFT-BenchMind/internal/backend"
	"github.com/whhaicheng/FFT-BenchMind/internal/domain/fft"
)

// plan is a row-column FFT over an extent of up to three dimensions.
// Axis 0 is contiguous. Real layouts transform axis 0 through a full
// complex kernel and keep nx/2+1 bins; in-place real rows are padded to
// a pitch of 2*(nx/2+1) reals.
type plan[F float32 | float64, C complex64 | complex128] struct {
	cfg      fft.Configuration
	dims     int
	shape    [fft.MaxDims]int
	cshape   [fft.MaxDims]int
	n        int
	ncomplex int
	real     bool
	inplace  bool
	workers  int
	factory  KernelFactory[C]

	// realPitch is the distance in reals between rows of the real input.
	realPitch int
	realCopy  rowCopier[F]
	cplxCopy  rowCopier[C]

	// in holds complex input, or the storage of an in-place real transform.
	in []C
	// inF is the real input, aliasing in for in-place real transforms.
	inF []F
	// out holds the spectrum of out-of-place transforms.
	out []C

	fwd       *kernelSet[C]
	inv       *kernelSet[C]
	allocated bool
}

// kernelSet holds one kernel per axis and worker plus per-worker scratch lines.
type kernelSet[C complex64 | complex128] struct {
	axes [fft.MaxDims][]Kernel[C]
	a, b [][]C
}

func newPlan[F float32 | float64, C complex64 | complex128](cfg fft.Configuration, factory KernelFactory[C], workers int) *plan[F, C] {
	ext := cfg.Extent()
	cext := cfg.ComplexExtent()
	p := &plan[F, C]{
		cfg:      cfg,
		dims:     cfg.Dims(),
		n:        int(cfg.N()),
		ncomplex: int(cfg.NComplex()),
		real:     !cfg.Layout.IsComplex(),
		inplace:  cfg.Placement.IsInplace(),
		workers:  max(workers, 1),
		factory:  factory,
	}
	for i := range fft.MaxDims {
		p.shape[i] = ext.At(i)
		p.cshape[i] = cext.At(i)
	}

	nx := p.shape[0]
	rows := p.n / nx
	p.realPitch = nx
	p.realCopy = flatCopier[F](p.n)
	if p.real && p.inplace {
		p.realPitch = 2 * p.cshape[0]
		if p.dims > 1 {
			p.realCopy = pitchedCopier[F](rows, nx, p.realPitch)
		}
	}
	p.cplxCopy = flatCopier[C](p.n)
	return p
}

// TransferSize returns the bytes moved per upload or download.
func (p *plan[F, C]) TransferSize() int64 {
	return p.cfg.TransferBytes()
}

// AllocationSize returns the bytes of input and output buffers.
func (p *plan[F, C]) AllocationSize() int64 {
	return p.cfg.AllocationBytes()
}

// PlanSize estimates kernel and scratch memory of one kernel set.
func (p *plan[F, C]) PlanSize() int64 {
	var sum, longest int64
	for axis := 0; axis < p.dims; axis++ {
		n := int64(p.shape[axis])
		sum += n
		longest = max(longest, n)
	}
	return int64(p.workers) * (sum + 2*longest) * p.cfg.Precision.ComplexSize()
}

// ProbeScratch measures the heap allocated by building the forward and
// inverse kernel sets and returns the larger of the two.
func (p *plan[F, C]) ProbeScratch() (int64, error) {
	fwd, err := p.measure()
	if err != nil {
		return 0, err
	}
	if !p.real {
		return fwd, nil
	}
	inv, err := p.measure()
	if err != nil {
		return 0, err
	}
	return max(fwd, inv), nil
}

func (p *plan[F, C]) measure() (int64, error) {
	var before, after runtime.MemStats
	runtime.ReadMemStats(&before)
	ks, err := p.buildKernels()
	if err != nil {
		return 0, err
	}
	runtime.ReadMemStats(&after)
	runtime.KeepAlive(ks)
	return int64(after.TotalAlloc - before.TotalAlloc), nil
}

// Allocate creates the device buffers.
func (p *plan[F, C]) Allocate() error {
	if p.allocated {
		return nil
	}
	switch {
	case !p.real:
		p.in = make([]C, p.n)
		if !p.inplace {
			p.out = make([]C, p.n)
		}
	case p.inplace:
		p.in = make([]C, p.ncomplex)
		p.inF = realView[F](p.in)
	default:
		p.inF = make([]F, p.n)
		p.out = make([]C, p.ncomplex)
	}
	p.allocated = true
	return nil
}

// Upload copies the host input into the input buffer.
func (p *plan[F, C]) Upload(host any) error {
	if !p.allocated {
		return backend.ErrNotAllocated
	}
	if p.real {
		src, err := hostSlice[F](host, p.n)
		if err != nil {
			return err
		}
		p.realCopy.toDevice(p.inF, src)
		return nil
	}
	src, err := hostSlice[C](host, p.n)
	if err != nil {
		return err
	}
	p.cplxCopy.toDevice(p.in, src)
	return nil
}

// Download copies the input buffer, which holds the round-trip result,
// back to the host.
func (p *plan[F, C]) Download(host any) error {
	if !p.allocated {
		return backend.ErrNotAllocated
	}
	if p.real {
		dst, err := hostSlice[F](host, p.n)
		if err != nil {
			return err
		}
		p.realCopy.toHost(dst, p.inF)
		return nil
	}
	dst, err := hostSlice[C](host, p.n)
	if err != nil {
		return err
	}
	p.cplxCopy.toHost(dst, p.in)
	return nil
}

// InitForward builds the forward kernels. Real plans drop any inverse
// kernels first.
func (p *plan[F, C]) InitForward() error {
	if p.real {
		p.inv = nil
	}
	ks, err := p.buildKernels()
	if err != nil {
		return err
	}
	p.fwd = ks
	return nil
}

// InitInverse prepares the inverse transform. Real plans discard the
// forward kernels and build new ones with input and output swapped;
// complex plans reuse the forward kernels.
func (p *plan[F, C]) InitInverse() error {
	if !p.real && p.fwd != nil {
		p.inv = p.fwd
		return nil
	}
	p.fwd = nil
	ks, err := p.buildKernels()
	if err != nil {
		return err
	}
	p.inv = ks
	if !p.real {
		p.fwd = ks
	}
	return nil
}

// ExecuteForward transforms the input into the spectrum buffer.
func (p *plan[F, C]) ExecuteForward() error {
	if err := p.ready(p.fwd); err != nil {
		return err
	}
	spec := p.spectrum()
	var err error
	if p.real {
		err = p.realRowsForward(p.fwd, spec)
	} else {
		err = p.complexRows(p.fwd, p.in, spec, false)
	}
	if err != nil {
		return err
	}
	return p.outerAxes(p.fwd, spec, false)
}

// ExecuteInverse transforms the spectrum back into the input buffer.
func (p *plan[F, C]) ExecuteInverse() error {
	if err := p.ready(p.inv); err != nil {
		return err
	}
	spec := p.spectrum()
	if err := p.outerAxes(p.inv, spec, true); err != nil {
		return err
	}
	if p.real {
		return p.realRowsInverse(p.inv, spec)
	}
	return p.complexRows(p.inv, spec, p.in, true)
}

// Destroy releases buffers and kernels. It is idempotent.
func (p *plan[F, C]) Destroy() error {
	p.in, p.inF, p.out = nil, nil, nil
	p.fwd, p.inv = nil, nil
	p.allocated = false
	return nil
}

func (p *plan[F, C]) ready(ks *kernelSet[C]) error {
	if !p.allocated {
		return backend.ErrNotAllocated
	}
	if ks == nil {
		return backend.ErrNotInitialized
	}
	return nil
}

func (p *plan[F, C]) spectrum() []C {
	if p.inplace {
		return p.in
	}
	return p.out
}

func (p *plan[F, C]) buildKernels() (*kernelSet[C], error) {
	if p.factory == nil {
		return nil, backend.NewConfigurationError("no kernel for %s", p.cfg.Precision)
	}
	ks := &kernelSet[C]{
		a: make([][]C, p.workers),
		b: make([][]C, p.workers),
	}
	longest := 0
	for axis := 0; axis < p.dims; axis++ {
		n := p.shape[axis]
		ks.axes[axis] = make([]Kernel[C], p.workers)
		for w := range p.workers {
			k, err := p.factory(n)
			if err != nil {
				return nil, fmt.Errorf("build kernel of length %d: %w", n, err)
			}
			ks.axes[axis][w] = k
		}
		longest = max(longest, n)
	}
	for w := range p.workers {
		ks.a[w] = make([]C, longest)
		ks.b[w] = make([]C, longest)
	}
	return ks, nil
}

// parallel splits lines into one contiguous chunk per worker and waits
// for all chunks.
func (p *plan[F, C]) parallel(lines int, fn func(w, lo, hi int) error) error {
	if p.workers == 1 || lines < 2 {
		return fn(0, 0, lines)
	}
	var g errgroup.Group
	g.SetLimit(p.workers)
	chunk := (lines + p.workers - 1) / p.workers
	for w := range p.workers {
		lo := w * chunk
		if lo >= lines {
			break
		}
		hi := min(lo+chunk, lines)
		g.Go(func() error {
			return fn(w, lo, hi)
		})
	}
	return g.Wait()
}

func (p *plan[F, C]) complexRows(ks *kernelSet[C], src, dst []C, inverse bool) error {
	nx := p.shape[0]
	return p.parallel(p.n/nx, func(w, lo, hi int) error {
		k, a, b := ks.axes[0][w], ks.a[w][:nx], ks.b[w][:nx]
		for l := lo; l < hi; l++ {
			off := l * nx
			copy(a, src[off:off+nx])
			if err := apply(k, b, a, inverse); err != nil {
				return err
			}
			copy(dst[off:off+nx], b)
		}
		return nil
	})
}

func (p *plan[F, C]) realRowsForward(ks *kernelSet[C], spec []C) error {
	nx, cnx := p.shape[0], p.cshape[0]
	return p.parallel(p.n/nx, func(w, lo, hi int) error {
		k, a, b := ks.axes[0][w], ks.a[w][:nx], ks.b[w][:nx]
		af := realView[F](a)
		for r := lo; r < hi; r++ {
			row := p.inF[r*p.realPitch : r*p.realPitch+nx]
			for j, v := range row {
				af[2*j] = v
				af[2*j+1] = 0
			}
			if err := k.Forward(b, a); err != nil {
				return err
			}
			copy(spec[r*cnx:(r+1)*cnx], b[:cnx])
		}
		return nil
	})
}

// realRowsInverse rebuilds each Hermitian row from its nx/2+1 bins and
// keeps the real part of the inverse.
func (p *plan[F, C]) realRowsInverse(ks *kernelSet[C], spec []C) error {
	nx, cnx := p.shape[0], p.cshape[0]
	return p.parallel(p.n/nx, func(w, lo, hi int) error {
		k, a, b := ks.axes[0][w], ks.a[w][:nx], ks.b[w][:nx]
		af, bf := realView[F](a), realView[F](b)
		for r := lo; r < hi; r++ {
			half := spec[r*cnx : (r+1)*cnx]
			copy(a, half)
			for j := cnx; j < nx; j++ {
				a[j] = half[nx-j]
				af[2*j+1] = -af[2*j+1]
			}
			if err := k.Inverse(b, a); err != nil {
				return err
			}
			row := p.inF[r*p.realPitch : r*p.realPitch+nx]
			for j := range row {
				row[j] = bf[2*j]
			}
		}
		return nil
	})
}

// outerAxes transforms axes 1 and 2 of the complex array in place.
func (p *plan[F, C]) outerAxes(ks *kernelSet[C], data []C, inverse bool) error {
	stride := p.cshape[0]
	for axis := 1; axis < p.dims; axis++ {
		n := p.cshape[axis]
		block := stride * n
		err := p.parallel(p.ncomplex/n, func(w, lo, hi int) error {
			k, a, b := ks.axes[axis][w], ks.a[w][:n], ks.b[w][:n]
			for l := lo; l < hi; l++ {
				base := (l/stride)*block + l%stride
				for j := range n {
					a[j] = data[base+j*stride]
				}
				if err := apply(k, b, a, inverse); err != nil {
					return err
				}
				for j := range n {
					data[base+j*stride] = b[j]
				}
			}
			return nil
		})
		if err != nil {
			return err
		}
		stride = block
	}
	return nil
}

func apply[C complex64 | complex128](k Kernel[C], dst, src []C, inverse bool) error {
	if inverse {
		return k.Inverse(dst, src)
	}
	return k.Forward(dst, src)
}

// realView reinterprets interleaved complex values as reals.
func realView[F float32 | float64, C complex64 | complex128](c []C) []F {
	if len(c) == 0 {
		return nil
	}
	return unsafe.Slice((*F)(unsafe.Pointer(&c[0])), 2*len(c))
}

func hostSlice[T any](host any, n int) ([]T, error) {
	s, ok := host.([]T)
	if !ok {
		var zero T
		return nil, fmt.Errorf("%w: got %T, want []%T", backend.ErrHostBuffer, host, zero)
	}
	if len(s) != n {
		return nil, fmt.Errorf("%w: length %d, want %d", backend.ErrHostBuffer, len(s), n)
	}
	return s, nil
}

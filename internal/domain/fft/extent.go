package fft

import (
	"fmt"
	"strconv"
	"strings"
)

// MaxDims is the highest supported dimensionality.
const MaxDims = 3

// Extent is the shape of a transform. Extent[0] (nx) is the contiguous
// dimension in memory; real transforms halve it in the spectrum.
type Extent []int

// ParseExtent parses "1024", "32x32" or "16,16,16".
func ParseExtent(s string) (Extent, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidExtent)
	}
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == 'x' || r == 'X' || r == ','
	})
	ext := make(Extent, 0, len(fields))
	for _, f := range fields {
		n, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrInvalidExtent, s, err)
		}
		ext = append(ext, n)
	}
	if err := ext.Validate(); err != nil {
		return nil, err
	}
	return ext, nil
}

// Validate checks dimensionality and positivity.
func (e Extent) Validate() error {
	if len(e) == 0 || len(e) > MaxDims {
		return fmt.Errorf("%w: %d dimensions (want 1..%d)", ErrInvalidExtent, len(e), MaxDims)
	}
	for i, n := range e {
		if n < 1 {
			return fmt.Errorf("%w: dimension %d is %d", ErrInvalidExtent, i, n)
		}
	}
	return nil
}

// Dims returns the dimensionality.
func (e Extent) Dims() int {
	return len(e)
}

// Total returns the number of points.
func (e Extent) Total() int64 {
	total := int64(1)
	for _, n := range e {
		total *= int64(n)
	}
	return total
}

// At returns dimension i, or 1 when the extent has fewer dimensions.
func (e Extent) At(i int) int {
	if i < len(e) {
		return e[i]
	}
	return 1
}

// Kind classifies the extent the way result files group shapes:
// "powerof2", "radix357" (only factors 2, 3, 5, 7) or "oddshape".
func (e Extent) Kind() string {
	pow2 := true
	radix := true
	for _, n := range e {
		if n&(n-1) != 0 {
			pow2 = false
		}
		if !isRadix357(n) {
			radix = false
		}
	}
	switch {
	case pow2:
		return "powerof2"
	case radix:
		return "radix357"
	default:
		return "oddshape"
	}
}

func isRadix357(n int) bool {
	for _, f := range []int{2, 3, 5, 7} {
		for n%f == 0 {
			n /= f
		}
	}
	return n == 1
}

// String formats the extent as "nx x ny x nz".
func (e Extent) String() string {
	parts := make([]string, len(e))
	for i, n := range e {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, "x")
}

// Clone returns a copy that does not share storage.
func (e Extent) Clone() Extent {
	return append(Extent(nil), e...)
}

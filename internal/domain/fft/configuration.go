package fft

import (
	"cmp"
	"fmt"
	"slices"
)

// Configuration is one benchmarked transform variant. It is immutable
// once built by NewConfiguration.
type Configuration struct {
	Precision Precision
	Layout    Layout
	Placement Placement
	extent    Extent
}

// NewConfiguration validates the extent and returns a configuration.
func NewConfiguration(p Precision, l Layout, pl Placement, ext Extent) (Configuration, error) {
	if err := ext.Validate(); err != nil {
		return Configuration{}, err
	}
	return Configuration{
		Precision: p,
		Layout:    l,
		Placement: pl,
		extent:    ext.Clone(),
	}, nil
}

// MustConfiguration is NewConfiguration for fixed, known-good inputs.
func MustConfiguration(p Precision, l Layout, pl Placement, ext ...int) Configuration {
	c, err := NewConfiguration(p, l, pl, Extent(ext))
	if err != nil {
		panic(err)
	}
	return c
}

// Extent returns a copy of the transform shape.
func (c Configuration) Extent() Extent {
	return c.extent.Clone()
}

// Dims returns the dimensionality (1..3).
func (c Configuration) Dims() int {
	return len(c.extent)
}

// Variant returns the plan registry key.
func (c Configuration) Variant() Variant {
	return Variant{Precision: c.Precision, Layout: c.Layout, Placement: c.Placement}
}

// IsInplaceReal reports whether the layout needs padded rows.
func (c Configuration) IsInplaceReal() bool {
	return c.Placement.IsInplace() && !c.Layout.IsComplex()
}

// N returns the number of input points.
func (c Configuration) N() int64 {
	return c.extent.Total()
}

// ComplexExtent returns the spectrum shape. Real transforms keep only
// the nx/2+1 non-redundant bins of the contiguous dimension.
func (c Configuration) ComplexExtent() Extent {
	ext := c.extent.Clone()
	if !c.Layout.IsComplex() {
		ext[0] = ext[0]/2 + 1
	}
	return ext
}

// NComplex returns the number of spectrum points.
func (c Configuration) NComplex() int64 {
	return c.ComplexExtent().Total()
}

// valueSize is the byte size of one input element.
func (c Configuration) valueSize() int64 {
	if c.Layout.IsComplex() {
		return c.Precision.ComplexSize()
	}
	return c.Precision.RealSize()
}

// InputBytes returns the size of the input buffer. In-place real
// transforms reserve room for the complex result.
func (c Configuration) InputBytes() int64 {
	if c.IsInplaceReal() {
		return 2 * c.NComplex() * c.Precision.RealSize()
	}
	return c.N() * c.valueSize()
}

// OutputBytes returns the size of the distinct output buffer, zero in-place.
func (c Configuration) OutputBytes() int64 {
	if c.Placement.IsInplace() {
		return 0
	}
	return c.NComplex() * c.Precision.ComplexSize()
}

// AllocationBytes returns the device memory needed for buffers.
func (c Configuration) AllocationBytes() int64 {
	return c.InputBytes() + c.OutputBytes()
}

// TransferBytes returns the bytes moved per upload or download.
func (c Configuration) TransferBytes() int64 {
	if c.IsInplaceReal() {
		return c.N() * c.Precision.RealSize()
	}
	return c.InputBytes()
}

// String implements Stringer interface.
func (c Configuration) String() string {
	return fmt.Sprintf("%s %s %s %s", c.Precision, c.Placement, c.Layout, c.extent)
}

// Expand builds the cartesian product of the sweep axes. The order is
// extent, precision, layout, placement so a sweep walks shapes outermost.
func Expand(precisions []Precision, layouts []Layout, placements []Placement, extents []Extent) ([]Configuration, error) {
	out := make([]Configuration, 0, len(precisions)*len(layouts)*len(placements)*len(extents))
	for _, ext := range extents {
		for _, p := range precisions {
			for _, l := range layouts {
				for _, pl := range placements {
					c, err := NewConfiguration(p, l, pl, ext)
					if err != nil {
						return nil, err
					}
					out = append(out, c)
				}
			}
		}
	}
	return out, nil
}

// Compare orders configurations by precision, placement (in-place
// first), layout (complex first), dimensionality and total extent.
func Compare(a, b Configuration) int {
	if c := cmp.Compare(a.Precision, b.Precision); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Placement, b.Placement); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Layout, b.Layout); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Dims(), b.Dims()); c != 0 {
		return c
	}
	return cmp.Compare(a.N(), b.N())
}

// SortStable sorts configurations in place by Compare.
func SortStable(cfgs []Configuration) {
	slices.SortStableFunc(cfgs, Compare)
}

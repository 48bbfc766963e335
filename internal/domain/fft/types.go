// Package fft provides the transform configuration domain model.
package fft

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidExtent is returned when an extent is empty, too long or non-positive.
	ErrInvalidExtent = errors.New("invalid extent")

	// ErrUnknownPrecision is returned when a precision name is not recognized.
	ErrUnknownPrecision = errors.New("unknown precision")

	// ErrUnknownLayout is returned when a layout name is not recognized.
	ErrUnknownLayout = errors.New("unknown layout")

	// ErrUnknownPlacement is returned when a placement name is not recognized.
	ErrUnknownPlacement = errors.New("unknown placement")
)

// Precision is the floating point precision of a transform.
type Precision int

const (
	PrecisionHalf Precision = iota
	PrecisionFloat
	PrecisionDouble
)

// String returns the precision name as written to result files.
func (p Precision) String() string {
	switch p {
	case PrecisionHalf:
		return "float16"
	case PrecisionFloat:
		return "float"
	case PrecisionDouble:
		return "double"
	default:
		return fmt.Sprintf("precision(%d)", int(p))
	}
}

// RealSize returns the byte size of one real value.
func (p Precision) RealSize() int64 {
	switch p {
	case PrecisionHalf:
		return 2
	case PrecisionFloat:
		return 4
	default:
		return 8
	}
}

// ComplexSize returns the byte size of one interleaved complex value.
func (p Precision) ComplexSize() int64 {
	return 2 * p.RealSize()
}

// ParsePrecision parses a precision name (case-insensitive).
func ParsePrecision(s string) (Precision, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "half", "float16", "fp16":
		return PrecisionHalf, nil
	case "float", "single", "float32", "fp32":
		return PrecisionFloat, nil
	case "double", "float64", "fp64":
		return PrecisionDouble, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownPrecision, s)
	}
}

// Layout selects real-to-complex or complex-to-complex transforms.
type Layout int

const (
	LayoutComplex Layout = iota
	LayoutReal
)

// String returns the layout label used in result files.
func (l Layout) String() string {
	if l == LayoutReal {
		return "Real"
	}
	return "Complex"
}

// IsComplex reports whether the layout is complex-to-complex.
func (l Layout) IsComplex() bool {
	return l == LayoutComplex
}

// ParseLayout parses a layout name (case-insensitive).
func ParseLayout(s string) (Layout, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "complex", "c2c":
		return LayoutComplex, nil
	case "real", "r2c":
		return LayoutReal, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownLayout, s)
	}
}

// Placement selects in-place or out-of-place transforms.
type Placement int

const (
	PlacementInplace Placement = iota
	PlacementOutplace
)

// String returns the placement label used in result files.
func (p Placement) String() string {
	if p == PlacementOutplace {
		return "Outplace"
	}
	return "Inplace"
}

// IsInplace reports whether the result overwrites the input buffer.
func (p Placement) IsInplace() bool {
	return p == PlacementInplace
}

// ParsePlacement parses a placement name (case-insensitive).
func ParsePlacement(s string) (Placement, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "inplace", "in-place", "in":
		return PlacementInplace, nil
	case "outplace", "out-of-place", "outofplace", "out":
		return PlacementOutplace, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownPlacement, s)
	}
}

// Variant identifies a plan implementation independent of the extent.
// Backends key their plan constructors on it.
type Variant struct {
	Precision Precision
	Layout    Layout
	Placement Placement
}

// String implements Stringer interface.
func (v Variant) String() string {
	return fmt.Sprintf("%s/%s/%s", v.Precision, v.Layout, v.Placement)
}

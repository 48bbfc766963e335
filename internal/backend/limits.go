package backend

import "github.com/whhaicheng/FFT-BenchMind/internal/domain/fft"

// Default total-extent ceilings per precision and layout for host
// backends. Half precision is unsupported.
const (
	MaxLengthFloatReal     int64 = 1 << 24
	MaxLengthDoubleReal    int64 = 1 << 22
	MaxLengthFloatComplex  int64 = 1 << 27
	MaxLengthDoubleComplex int64 = 1 << 26
)

// DefaultMaxLength returns the ceiling for a precision and layout, or 0
// if the combination is unsupported.
func DefaultMaxLength(p fft.Precision, l fft.Layout) int64 {
	switch p {
	case fft.PrecisionFloat:
		if l.IsComplex() {
			return MaxLengthFloatComplex
		}
		return MaxLengthFloatReal
	case fft.PrecisionDouble:
		if l.IsComplex() {
			return MaxLengthDoubleComplex
		}
		return MaxLengthDoubleReal
	default:
		return 0
	}
}

// CheckLimits returns a ConfigurationError if ctx cannot run cfg.
func CheckLimits(ctx Context, cfg fft.Configuration) error {
	limit := ctx.MaxLength(cfg.Precision, cfg.Layout)
	if limit == 0 {
		return NewConfigurationError("%s %s transforms are not supported", cfg.Precision, cfg.Layout)
	}
	if cfg.N() > limit {
		return NewConfigurationError("%s exceeds the maximum length %d", cfg, limit)
	}
	return nil
}

package algofft

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/whhaicheng/FFT-BenchMind/internal/backend"
	"github.com/whhaicheng/FFT-BenchMind/internal/domain/fft"
)

// TestBackend_RoundTrip runs single and double precision plans.
func TestBackend_RoundTrip(t *testing.T) {
	b := New()
	assert.Equal(t, Name, b.Info().Name)

	ctx := b.NewContext(backend.ContextOptions{Selector: backend.Selector{Class: backend.ClassCPU}})
	require.NoError(t, ctx.Create())
	defer ctx.Destroy()

	t.Run("float real outplace 64x16", func(t *testing.T) {
		cfg := fft.MustConfiguration(fft.PrecisionFloat, fft.LayoutReal, fft.PlacementOutplace, 64, 16)
		p, err := ctx.NewPlan(cfg)
		require.NoError(t, err)
		defer p.Destroy()

		in := make([]float32, cfg.N())
		for i := range in {
			in[i] = float32(i%7) / 7
		}
		out := make([]float32, len(in))

		require.NoError(t, p.Allocate())
		require.NoError(t, p.Upload(in))
		require.NoError(t, p.InitForward())
		require.NoError(t, p.ExecuteForward())
		require.NoError(t, p.InitInverse())
		require.NoError(t, p.ExecuteInverse())
		require.NoError(t, p.Download(out))
		for i := range in {
			assert.InDelta(t, in[i], out[i], 1e-4)
		}
	})

	t.Run("double complex inplace 256", func(t *testing.T) {
		cfg := fft.MustConfiguration(fft.PrecisionDouble, fft.LayoutComplex, fft.PlacementInplace, 256)
		p, err := ctx.NewPlan(cfg)
		require.NoError(t, err)
		defer p.Destroy()

		in := make([]complex128, cfg.N())
		for i := range in {
			in[i] = complex(float64(i%5), -float64(i%3))
		}
		out := make([]complex128, len(in))

		require.NoError(t, p.Allocate())
		require.NoError(t, p.Upload(in))
		require.NoError(t, p.InitForward())
		require.NoError(t, p.ExecuteForward())
		require.NoError(t, p.InitInverse())
		require.NoError(t, p.ExecuteInverse())
		require.NoError(t, p.Download(out))
		for i := range in {
			assert.InDelta(t, real(in[i]), real(out[i]), 1e-9)
			assert.InDelta(t, imag(in[i]), imag(out[i]), 1e-9)
		}
	})
}

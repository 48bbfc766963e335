package mock

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/whhaicheng/FFT-BenchMind/internal/backend"
	"github.com/whhaicheng/FFT-BenchMind/internal/backend/gonum"
	"github.com/whhaicheng/FFT-BenchMind/internal/domain/fft"
)

// TestParseFault tests fault flag parsing.
func TestParseFault(t *testing.T) {
	tests := []struct {
		in      string
		want    Fault
		wantErr bool
	}{
		{"execute_forward@3", Fault{Step: StepExecuteForward, Run: 3}, false},
		{"allocate@0", Fault{Step: StepAllocate}, false},
		{"download", Fault{}, true},
		{"upload@x", Fault{}, true},
		{"explode@1", Fault{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFault(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, backend.ErrConfiguration)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// TestPlan_Fault tests that the fault fires only on the selected run.
func TestPlan_Fault(t *testing.T) {
	b := Wrap(gonum.New(), WithFault(Fault{Step: StepExecuteForward, Run: 1}), WithGlobalMemory(1<<20), WithMaxLength(64))
	ctx := b.NewContext(backend.ContextOptions{})
	require.NoError(t, ctx.Create())
	defer ctx.Destroy()

	assert.Equal(t, int64(1<<20), ctx.Device().GlobalMemory)
	assert.Equal(t, int64(64), ctx.MaxLength(fft.PrecisionDouble, fft.LayoutComplex))
	assert.Zero(t, ctx.MaxLength(fft.PrecisionHalf, fft.LayoutComplex))

	cfg := fft.MustConfiguration(fft.PrecisionDouble, fft.LayoutComplex, fft.PlacementOutplace, 8)
	p, err := ctx.NewPlan(cfg)
	require.NoError(t, err)
	defer p.Destroy()
	require.NoError(t, p.Allocate())
	require.NoError(t, p.InitForward())

	host := make([]complex128, 8)
	require.NoError(t, p.Upload(host))
	require.NoError(t, p.ExecuteForward())

	require.NoError(t, p.Upload(host))
	assert.ErrorIs(t, p.ExecuteForward(), ErrInjected)
}

// TestPlan_Deviation tests download perturbation.
func TestPlan_Deviation(t *testing.T) {
	b := Wrap(gonum.New(), WithDeviation(0.5))
	ctx := b.NewContext(backend.ContextOptions{})
	require.NoError(t, ctx.Create())
	defer ctx.Destroy()

	cfg := fft.MustConfiguration(fft.PrecisionFloat, fft.LayoutReal, fft.PlacementInplace, 4)
	p, err := ctx.NewPlan(cfg)
	require.NoError(t, err)
	require.NoError(t, p.Allocate())

	in := []float32{1, 2, 3, 4}
	out := make([]float32, 4)
	require.NoError(t, p.Upload(in))
	require.NoError(t, p.Download(out))
	assert.Equal(t, []float32{1.5, 2, 3, 4}, out)
}

// Package report provides unit tests for report domain models.
package report

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/whhaicheng/FFT-BenchMind/internal/domain/execution"
	"github.com/whhaicheng/FFT-BenchMind/internal/domain/fft"
)

// TestReportFormat_Validate tests format validation.
func TestReportFormat_Validate(t *testing.T) {
	tests := []struct {
		name    string
		format  ReportFormat
		wantErr bool
	}{
		{"valid markdown", FormatMarkdown, false},
		{"valid json", FormatJSON, false},
		{"invalid format", ReportFormat("pdf"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.format.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("ReportFormat.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

// TestReportFormat_FileExtension tests file extension.
func TestReportFormat_FileExtension(t *testing.T) {
	tests := []struct {
		name   string
		format ReportFormat
		want   string
	}{
		{"markdown", FormatMarkdown, ".md"},
		{"json", FormatJSON, ".json"},
		{"unknown", ReportFormat("unknown"), ".txt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.format.FileExtension(); got != tt.want {
				t.Errorf("ReportFormat.FileExtension() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestFormatForPath tests format detection.
func TestFormatForPath(t *testing.T) {
	assert.Equal(t, FormatJSON, FormatForPath("out/summary.JSON"))
	assert.Equal(t, FormatMarkdown, FormatForPath("summary.md"))
	assert.Equal(t, FormatMarkdown, FormatForPath("summary"))
}

// TestCalculateStats tests statistics aggregation.
func TestCalculateStats(t *testing.T) {
	tests := []struct {
		name    string
		values  []float64
		want    MetricStats
		meanStd string
		minMax  string
	}{
		{
			name:    "empty",
			values:  nil,
			want:    MetricStats{Metric: "m"},
			meanStd: "N/A",
			minMax:  "N/A",
		},
		{
			name:    "single value",
			values:  []float64{2.5},
			want:    MetricStats{Metric: "m", N: 1, Mean: 2.5, Min: 2.5, Max: 2.5},
			meanStd: "2.5000",
			minMax:  "2.5000",
		},
		{
			name:    "sample stddev",
			values:  []float64{1, 2, 3, 4},
			want:    MetricStats{Metric: "m", N: 4, Mean: 2.5, StdDev: 1.2909944487358056, Min: 1, Max: 4},
			meanStd: "2.5000 ± 1.2910",
			minMax:  "1.0000 .. 4.0000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculateStats("m", tt.values)
			assert.Equal(t, tt.want.N, got.N)
			assert.InDelta(t, tt.want.Mean, got.Mean, 1e-12)
			assert.InDelta(t, tt.want.StdDev, got.StdDev, 1e-12)
			assert.Equal(t, tt.want.Min, got.Min)
			assert.Equal(t, tt.want.Max, got.Max)
			assert.Equal(t, tt.meanStd, got.FormatMeanStdDev())
			assert.Equal(t, tt.minMax, got.FormatMinMax())
		})
	}
}

func newRecord(t *testing.T) *execution.ResultRecord {
	t.Helper()
	cfg := fft.MustConfiguration(fft.PrecisionFloat, fft.LayoutComplex, fft.PlacementInplace, 32, 32)
	p := execution.Protocol{Warmups: 1, WarmRuns: 3, ErrorBound: 1e-5, RoundTrip: true}
	rec := execution.NewResultRecord(uuid.New().String(), 4, "gonum", cfg, p)
	for i := range rec.Runs {
		rec.Runs[i].Set(execution.MetricFFT, float64(10*(i+1)))
		rec.Runs[i].Set(execution.MetricBufferSize, 8192)
		rec.Runs[i].Set(execution.MetricDeviation, 1e-7*float64(i+1))
		rec.Runs[i].Status = execution.StatusSuccess
	}
	rec.Runs[0].Status = execution.StatusWarmup
	return rec
}

// TestSummarize tests that warmup and failed runs are excluded.
func TestSummarize(t *testing.T) {
	rec := newRecord(t)
	rec.Fail(3, "execute_forward: boom")

	s := Summarize(rec)
	assert.Equal(t, 4, s.ID)
	assert.Equal(t, "powerof2", s.Kind)
	assert.True(t, s.Failed())
	assert.Equal(t, int64(8192), s.Sizes[execution.MetricBufferSize.String()])

	st, ok := s.Stat(execution.MetricFFT)
	require.True(t, ok)
	assert.Equal(t, 2, st.N)
	assert.InDelta(t, 25.0, st.Mean, 1e-12)
	assert.Equal(t, 20.0, st.Min)
	assert.Equal(t, 30.0, st.Max)

	assert.True(t, s.RoundTrip)
	assert.InDelta(t, 3e-7, s.Deviation, 1e-15)

	_, ok = s.Stat(execution.MetricDeviation)
	assert.False(t, ok, "deviation is not a time metric")
}

// TestGenerateContext_Validate tests context validation.
func TestGenerateContext_Validate(t *testing.T) {
	tests := []struct {
		name    string
		ctx     *GenerateContext
		wantErr bool
	}{
		{
			name:    "valid context",
			ctx:     NewGenerateContext("sweep-1", DefaultConfig(FormatMarkdown)),
			wantErr: false,
		},
		{
			name:    "missing sweep id",
			ctx:     &GenerateContext{Config: DefaultConfig(FormatMarkdown)},
			wantErr: true,
		},
		{
			name:    "missing config",
			ctx:     &GenerateContext{SweepID: "sweep-1"},
			wantErr: true,
		},
		{
			name:    "invalid format",
			ctx:     &GenerateContext{SweepID: "sweep-1", Config: &ReportConfig{Format: "html"}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.ctx.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("GenerateContext.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

// TestGenerateContext_AddRecords tests summary counters.
func TestGenerateContext_AddRecords(t *testing.T) {
	ok := newRecord(t)
	failed := newRecord(t)
	failed.Fail(2, "upload: boom")
	invalid := newRecord(t)
	invalid.ValidationError = "deviation too large"

	ctx := NewGenerateContext("sweep-1", DefaultConfig(FormatJSON))
	ctx.Protocol = execution.Protocol{Warmups: 1, WarmRuns: 3, ErrorBound: 1e-5}
	ctx.AddRecords([]*execution.ResultRecord{ok, failed, invalid})

	require.Len(t, ctx.Configs, 3)
	assert.Equal(t, 1, ctx.FailedCount())
	assert.Equal(t, 1, ctx.InvalidCount())
	assert.False(t, ctx.Configs[0].RoundTrip, "protocol without round trip")

	assert.Equal(t, "N/A", GetTimestamp(time.Time{}))
	assert.NotEqual(t, "N/A", GetTimestamp(time.Now()))
}

// Package report provides summary report domain models.
package report

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/whhaicheng/FFT-BenchMind/internal/domain/execution"
)

// ReportFormat represents the output format for a report.
type ReportFormat string

const (
	// FormatMarkdown generates Markdown format reports.
	FormatMarkdown ReportFormat = "markdown"
	// FormatJSON generates JSON format reports.
	FormatJSON ReportFormat = "json"
)

// String returns the string representation of the format.
func (f ReportFormat) String() string {
	return string(f)
}

// Validate checks if the format is valid.
func (f ReportFormat) Validate() error {
	switch f {
	case FormatMarkdown, FormatJSON:
		return nil
	default:
		return fmt.Errorf("invalid report format: %s", f)
	}
}

// FileExtension returns the file extension for this format.
func (f ReportFormat) FileExtension() string {
	switch f {
	case FormatMarkdown:
		return ".md"
	case FormatJSON:
		return ".json"
	default:
		return ".txt"
	}
}

// FormatForPath picks the format from a file extension. Unknown
// extensions produce Markdown.
func FormatForPath(path string) ReportFormat {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return FormatJSON
	}
	return FormatMarkdown
}

// ReportConfig represents configuration for report generation.
type ReportConfig struct {
	// Format is the output format.
	Format ReportFormat

	// IncludeCharts enables the text bar chart of mean FFT times.
	IncludeCharts bool

	// ChartWidth is the width for text-based charts (default: 60).
	ChartWidth int

	// Title is the custom report title (optional).
	Title string

	// OutputPath is the file path for the report.
	OutputPath string
}

// DefaultConfig returns a default report configuration.
func DefaultConfig(format ReportFormat) *ReportConfig {
	return &ReportConfig{
		Format:        format,
		IncludeCharts: true,
		ChartWidth:    60,
	}
}

// Report represents a generated report.
type Report struct {
	// Format is the report format.
	Format ReportFormat

	// Content is the report content.
	Content []byte

	// GeneratedAt is when the report was generated.
	GeneratedAt time.Time

	// SweepID is the associated process run.
	SweepID string

	// FilePath is the file path if saved to disk.
	FilePath string
}

// Generator is the interface for report generators.
type Generator interface {
	// Generate generates a report from the provided data.
	Generate(ctx *GenerateContext) (*Report, error)

	// Format returns the format this generator produces.
	Format() ReportFormat
}

// =============================================================================
// Statistics
// =============================================================================

// MetricStats contains aggregated statistics of one metric over the
// measured runs of a configuration.
type MetricStats struct {
	Metric string  `json:"metric"`
	N      int     `json:"n"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stddev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// CalculateStats computes mean, sample standard deviation and range.
func CalculateStats(name string, values []float64) MetricStats {
	n := len(values)
	if n == 0 {
		return MetricStats{Metric: name}
	}

	s := MetricStats{
		Metric: name,
		N:      n,
		Min:    floats.Min(values),
		Max:    floats.Max(values),
	}
	if n == 1 {
		s.Mean = values[0]
		return s
	}
	s.Mean, s.StdDev = stat.MeanStdDev(values, nil)
	return s
}

// IsValid reports whether any value was aggregated.
func (m *MetricStats) IsValid() bool {
	return m.N > 0
}

// FormatMeanStdDev returns formatted string "mean ± stddev".
func (m *MetricStats) FormatMeanStdDev() string {
	if !m.IsValid() {
		return "N/A"
	}
	if m.N == 1 {
		return formatFloat(m.Mean)
	}
	return formatFloat(m.Mean) + " ± " + formatFloat(m.StdDev)
}

// FormatMinMax returns formatted string "min .. max".
func (m *MetricStats) FormatMinMax() string {
	if !m.IsValid() {
		return "N/A"
	}
	if m.N == 1 {
		return formatFloat(m.Min)
	}
	return formatFloat(m.Min) + " .. " + formatFloat(m.Max)
}

func formatFloat(f float64) string {
	return fmt.Sprintf("%.4f", f)
}

// =============================================================================
// Configuration Summaries
// =============================================================================

// ConfigSummary is the aggregated view of one result record.
type ConfigSummary struct {
	ID         int              `json:"id"`
	UUID       string           `json:"uuid"`
	Config     string           `json:"config"`
	Kind       string           `json:"kind"`
	State      string           `json:"state"`
	Error      string           `json:"error,omitempty"`
	Validation string           `json:"validation_error,omitempty"`
	Deviation  float64          `json:"deviation"`
	RoundTrip  bool             `json:"round_trip"`
	Sizes      map[string]int64 `json:"sizes"`
	Stats      []MetricStats    `json:"stats"`
}

// Summarize aggregates the measured runs of a record. Warmup, failed
// and skipped runs are excluded from the statistics.
func Summarize(rec *execution.ResultRecord) ConfigSummary {
	s := ConfigSummary{
		ID:         rec.ID,
		UUID:       rec.UUID,
		Config:     rec.Config.String(),
		Kind:       rec.Config.Extent().Kind(),
		State:      rec.State.String(),
		Error:      rec.Error,
		Validation: rec.ValidationError,
		Sizes:      make(map[string]int64, 3),
	}

	for _, m := range []execution.Metric{execution.MetricBufferSize, execution.MetricPlanSize, execution.MetricTransferSize} {
		if len(rec.Runs) > 0 {
			s.Sizes[m.String()] = int64(rec.Runs[0].Value(m))
		}
	}

	for _, m := range execution.Metrics() {
		if !m.IsTime() {
			continue
		}
		s.Stats = append(s.Stats, CalculateStats(m.String(), rec.MeasuredValues(m)))
	}

	if devs := rec.MeasuredValues(execution.MetricDeviation); len(devs) > 0 {
		s.Deviation = devs[len(devs)-1]
		s.RoundTrip = true
	}
	return s
}

// Failed reports whether the configuration has a run failure.
func (s *ConfigSummary) Failed() bool {
	return s.Error != ""
}

// Stat returns the statistics of a metric by column name.
func (s *ConfigSummary) Stat(metric execution.Metric) (MetricStats, bool) {
	name := metric.String()
	for _, st := range s.Stats {
		if st.Metric == name {
			return st, true
		}
	}
	return MetricStats{}, false
}

// =============================================================================
// Generate Context
// =============================================================================

// GenerateContext contains data for report generation.
type GenerateContext struct {
	// SweepID is the process run ID.
	SweepID string

	// Library is the backend title and version.
	Library string

	// DeviceProperties is the device description of the context.
	DeviceProperties string

	// Protocol is the run protocol of the process.
	Protocol execution.Protocol

	// Hostname, Version and Tag are copied from the result preamble.
	Hostname string
	Version  string
	Tag      string

	// StartedAt is when the context was created.
	StartedAt time.Time

	// Context timings in milliseconds.
	ContextCreateMs  float64
	ContextDestroyMs float64

	// Configs holds one summary per result record in ID order.
	Configs []ConfigSummary

	// Config is the report configuration.
	Config *ReportConfig
}

// NewGenerateContext creates a new generate context with minimal required fields.
func NewGenerateContext(sweepID string, config *ReportConfig) *GenerateContext {
	return &GenerateContext{
		SweepID: sweepID,
		Config:  config,
		Configs: []ConfigSummary{},
	}
}

// AddRecords summarizes records and appends them. Set Protocol first.
func (ctx *GenerateContext) AddRecords(records []*execution.ResultRecord) {
	for _, rec := range records {
		s := Summarize(rec)
		if !ctx.Protocol.RoundTrip {
			s.RoundTrip = false
		}
		ctx.Configs = append(ctx.Configs, s)
	}
}

// Validate validates the generate context.
func (ctx *GenerateContext) Validate() error {
	if ctx.SweepID == "" {
		return fmt.Errorf("sweep_id is required")
	}
	if ctx.Config == nil {
		return fmt.Errorf("config is required")
	}
	if err := ctx.Config.Format.Validate(); err != nil {
		return err
	}
	return nil
}

// FailedCount returns the number of configurations with a run failure.
func (ctx *GenerateContext) FailedCount() int {
	n := 0
	for i := range ctx.Configs {
		if ctx.Configs[i].Failed() {
			n++
		}
	}
	return n
}

// InvalidCount returns the number of configurations that failed validation.
func (ctx *GenerateContext) InvalidCount() int {
	n := 0
	for i := range ctx.Configs {
		if ctx.Configs[i].Validation != "" {
			n++
		}
	}
	return n
}

// GetTimestamp returns the formatted timestamp.
func GetTimestamp(t time.Time) string {
	if t.IsZero() {
		return "N/A"
	}
	return t.Format(time.RFC3339)
}

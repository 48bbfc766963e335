package report

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/whhaicheng/FFT-BenchMind/internal/domain/report"
)

// JSONGenerator generates JSON format reports.
type JSONGenerator struct{}

// NewJSONGenerator creates a new JSON generator.
func NewJSONGenerator() *JSONGenerator {
	return &JSONGenerator{}
}

// Generate generates a JSON report.
func (g *JSONGenerator) Generate(data *report.GenerateContext) (*report.Report, error) {
	if err := data.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	output := g.buildJSON(data)

	content, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal json: %w", err)
	}

	return &report.Report{
		Format:      report.FormatJSON,
		Content:     content,
		GeneratedAt: time.Now(),
		SweepID:     data.SweepID,
	}, nil
}

// Format returns the format this generator produces.
func (g *JSONGenerator) Format() report.ReportFormat {
	return report.FormatJSON
}

// jsonReport represents the JSON report structure.
type jsonReport struct {
	Meta        jsonMeta               `json:"meta"`
	Summary     jsonSummary            `json:"summary"`
	Environment jsonEnvironment        `json:"environment"`
	Configs     []report.ConfigSummary `json:"configurations"`
}

// jsonMeta represents report metadata.
type jsonMeta struct {
	SweepID     string `json:"sweep_id"`
	Format      string `json:"format"`
	GeneratedAt string `json:"generated_at"`
	Version     string `json:"version"`
}

// jsonSummary represents the summary section.
type jsonSummary struct {
	Status         string  `json:"status"`
	Library        string  `json:"library"`
	Configurations int     `json:"configurations"`
	Failed         int     `json:"failed"`
	Invalid        int     `json:"invalid"`
	Warmups        int     `json:"warmups"`
	WarmRuns       int     `json:"warm_runs"`
	ErrorBound     float64 `json:"error_bound"`
	StartedAt      string  `json:"started_at,omitempty"`
	Tag            string  `json:"tag,omitempty"`
}

// jsonEnvironment represents environment information.
type jsonEnvironment struct {
	Device           string  `json:"device"`
	Hostname         string  `json:"hostname"`
	Version          string  `json:"version"`
	ContextCreateMs  float64 `json:"context_create_ms"`
	ContextDestroyMs float64 `json:"context_destroy_ms"`
}

// buildJSON builds the JSON report structure.
func (g *JSONGenerator) buildJSON(data *report.GenerateContext) *jsonReport {
	summary := jsonSummary{
		Status:         "completed",
		Library:        data.Library,
		Configurations: len(data.Configs),
		Failed:         data.FailedCount(),
		Invalid:        data.InvalidCount(),
		Warmups:        data.Protocol.Warmups,
		WarmRuns:       data.Protocol.WarmRuns,
		ErrorBound:     data.Protocol.ErrorBound,
		Tag:            data.Tag,
	}
	if summary.Failed > 0 {
		summary.Status = "failed"
	}
	if !data.StartedAt.IsZero() {
		summary.StartedAt = report.GetTimestamp(data.StartedAt)
	}

	return &jsonReport{
		Meta: jsonMeta{
			SweepID:     data.SweepID,
			Format:      report.FormatJSON.String(),
			GeneratedAt: time.Now().Format(time.RFC3339),
			Version:     "1.0",
		},
		Summary: summary,
		Environment: jsonEnvironment{
			Device:           data.DeviceProperties,
			Hostname:         data.Hostname,
			Version:          data.Version,
			ContextCreateMs:  data.ContextCreateMs,
			ContextDestroyMs: data.ContextDestroyMs,
		},
		Configs: data.Configs,
	}
}

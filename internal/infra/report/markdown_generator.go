package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/whhaicheng/FFT-BenchMind/internal/domain/execution"
	"github.com/whhaicheng/FFT-BenchMind/internal/domain/report"
)

// summaryMetrics are the columns of the per-configuration timing table.
var summaryMetrics = []execution.Metric{
	execution.MetricUpload,
	execution.MetricFFT,
	execution.MetricFFTInverse,
	execution.MetricDownload,
	execution.MetricTotal,
}

// MarkdownGenerator generates Markdown format reports.
type MarkdownGenerator struct {
	chartGen *ChartGenerator
}

// NewMarkdownGenerator creates a new Markdown generator.
func NewMarkdownGenerator() *MarkdownGenerator {
	return &MarkdownGenerator{
		chartGen: NewChartGenerator(),
	}
}

// Generate generates a Markdown report.
func (g *MarkdownGenerator) Generate(data *report.GenerateContext) (*report.Report, error) {
	if err := data.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	var sb strings.Builder

	g.writeTitle(&sb, data)
	g.writeSummary(&sb, data)
	g.writeEnvironment(&sb, data)
	g.writeResults(&sb, data)

	if data.Config.IncludeCharts {
		g.writeCharts(&sb, data)
	}

	g.writeFailures(&sb, data)
	g.writeFooter(&sb)

	return &report.Report{
		Format:      report.FormatMarkdown,
		Content:     []byte(sb.String()),
		GeneratedAt: time.Now(),
		SweepID:     data.SweepID,
	}, nil
}

// Format returns the format this generator produces.
func (g *MarkdownGenerator) Format() report.ReportFormat {
	return report.FormatMarkdown
}

func (g *MarkdownGenerator) writeTitle(sb *strings.Builder, data *report.GenerateContext) {
	title := data.Config.Title
	if title == "" {
		title = fmt.Sprintf("FFT Benchmark Summary - %s", data.SweepID)
	}
	sb.WriteString("# ")
	sb.WriteString(title)
	sb.WriteString("\n\n")
}

func (g *MarkdownGenerator) writeSummary(sb *strings.Builder, data *report.GenerateContext) {
	sb.WriteString("## Summary\n\n")

	failed := data.FailedCount()
	status := "✅ Completed"
	if failed > 0 {
		status = fmt.Sprintf("❌ %d of %d configurations failed", failed, len(data.Configs))
	}
	sb.WriteString(fmt.Sprintf("- **Status**: %s\n", status))
	sb.WriteString(fmt.Sprintf("- **Library**: %s\n", data.Library))
	sb.WriteString(fmt.Sprintf("- **Configurations**: %d\n", len(data.Configs)))
	if invalid := data.InvalidCount(); invalid > 0 {
		sb.WriteString(fmt.Sprintf("- **Validation failures**: %d\n", invalid))
	}
	sb.WriteString(fmt.Sprintf("- **Runs**: %d warmup + %d measured\n", data.Protocol.Warmups, data.Protocol.WarmRuns))
	sb.WriteString(fmt.Sprintf("- **Started**: %s\n", report.GetTimestamp(data.StartedAt)))
	if data.Tag != "" {
		sb.WriteString(fmt.Sprintf("- **Tag**: %s\n", data.Tag))
	}
	sb.WriteString("\n")
}

func (g *MarkdownGenerator) writeEnvironment(sb *strings.Builder, data *report.GenerateContext) {
	sb.WriteString("## Environment\n\n")
	sb.WriteString("| Property | Value |\n")
	sb.WriteString("|----------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Sweep ID | `%s` |\n", data.SweepID))
	sb.WriteString(fmt.Sprintf("| Device | %s |\n", escapeCell(data.DeviceProperties)))
	sb.WriteString(fmt.Sprintf("| Hostname | %s |\n", data.Hostname))
	sb.WriteString(fmt.Sprintf("| Version | %s |\n", data.Version))
	sb.WriteString(fmt.Sprintf("| Error bound | %g |\n", data.Protocol.ErrorBound))
	sb.WriteString(fmt.Sprintf("| Context create | %.3f ms |\n", data.ContextCreateMs))
	sb.WriteString(fmt.Sprintf("| Context destroy | %.3f ms |\n", data.ContextDestroyMs))
	sb.WriteString("\n")
}

func (g *MarkdownGenerator) writeResults(sb *strings.Builder, data *report.GenerateContext) {
	sb.WriteString("## Results\n\n")

	if len(data.Configs) == 0 {
		sb.WriteString("*No configurations were run*\n\n")
		return
	}

	sb.WriteString("| ID | Configuration | Kind | State |")
	for _, m := range summaryMetrics {
		sb.WriteString(" " + m.String() + " |")
	}
	sb.WriteString(" Deviation |\n")
	sb.WriteString("|----|---------------|------|-------|")
	for range summaryMetrics {
		sb.WriteString("------|")
	}
	sb.WriteString("-----------|\n")

	for i := range data.Configs {
		c := &data.Configs[i]
		sb.WriteString(fmt.Sprintf("| %d | %s | %s | %s |", c.ID, c.Config, c.Kind, c.State))
		for _, m := range summaryMetrics {
			st, _ := c.Stat(m)
			sb.WriteString(" " + st.FormatMeanStdDev() + " |")
		}
		if c.RoundTrip {
			sb.WriteString(fmt.Sprintf(" %.3e |\n", c.Deviation))
		} else {
			sb.WriteString(" N/A |\n")
		}
	}
	sb.WriteString("\n")
	sb.WriteString("*Times are mean ± sample standard deviation in ms over measured runs.*\n\n")
}

func (g *MarkdownGenerator) writeCharts(sb *strings.Builder, data *report.GenerateContext) {
	chart := g.chartGen.GenerateMetricChart(data.Configs, execution.MetricFFT, data.Config.ChartWidth)
	if chart == "" {
		return
	}
	sb.WriteString("## Charts\n\n")
	sb.WriteString("### Mean Time_FFT [ms]\n\n")
	sb.WriteString("```\n")
	sb.WriteString(chart)
	sb.WriteString("```\n\n")
}

func (g *MarkdownGenerator) writeFailures(sb *strings.Builder, data *report.GenerateContext) {
	var lines []string
	for i := range data.Configs {
		c := &data.Configs[i]
		if c.Failed() {
			lines = append(lines, fmt.Sprintf("- #%d %s: %s", c.ID, c.Config, c.Error))
		}
		if c.Validation != "" {
			lines = append(lines, fmt.Sprintf("- #%d %s: %s", c.ID, c.Config, c.Validation))
		}
	}
	if len(lines) == 0 {
		return
	}

	sb.WriteString("## Failures\n\n")
	for _, l := range lines {
		sb.WriteString(l)
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
}

func (g *MarkdownGenerator) writeFooter(sb *strings.Builder) {
	sb.WriteString("---\n\n")
	sb.WriteString(fmt.Sprintf("*Generated by FFT-BenchMind at %s*\n", time.Now().Format(time.RFC1123)))
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}

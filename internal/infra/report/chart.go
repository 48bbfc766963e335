// Package report provides summary report generators and the CSV result sink.
package report

import (
	"fmt"
	"strings"

	"github.com/whhaicheng/FFT-BenchMind/internal/domain/execution"
	"github.com/whhaicheng/FFT-BenchMind/internal/domain/report"
)

// ChartGenerator generates text-based charts for reports.
type ChartGenerator struct{}

// NewChartGenerator creates a new chart generator.
func NewChartGenerator() *ChartGenerator {
	return &ChartGenerator{}
}

// GenerateMetricChart draws the mean of one time metric per
// configuration. Configurations without measured runs are left out.
func (g *ChartGenerator) GenerateMetricChart(configs []report.ConfigSummary, metric execution.Metric, width int) string {
	var labels []string
	var values []float64
	for i := range configs {
		st, ok := configs[i].Stat(metric)
		if !ok || !st.IsValid() {
			continue
		}
		labels = append(labels, fmt.Sprintf("#%d %s", configs[i].ID, configs[i].Config))
		values = append(values, st.Mean)
	}
	return g.GenerateBarChart(labels, values, width)
}

// GenerateBarChart generates a simple horizontal bar chart.
func (g *ChartGenerator) GenerateBarChart(labels []string, values []float64, width int) string {
	if len(labels) != len(values) || len(labels) == 0 {
		return ""
	}

	// Find max for scaling
	maxVal := 0.0
	for _, v := range values {
		if v > maxVal {
			maxVal = v
		}
	}
	if maxVal == 0 {
		maxVal = 1
	}

	maxLabelLen := 0
	for _, l := range labels {
		if len(l) > maxLabelLen {
			maxLabelLen = len(l)
		}
	}

	var sb strings.Builder
	barWidth := width - maxLabelLen - 10
	if barWidth < 10 {
		barWidth = 10
	}

	for i, label := range labels {
		value := values[i]
		barLength := int(value / maxVal * float64(barWidth))
		if barLength < 0 {
			barLength = 0
		}
		bar := strings.Repeat("█", barLength)
		pad := strings.Repeat(" ", barWidth-barLength)
		sb.WriteString(fmt.Sprintf("%-*s │%s%s %.4f\n", maxLabelLen, label, bar, pad, value))
	}

	return sb.String()
}

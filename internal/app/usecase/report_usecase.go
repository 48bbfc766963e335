package usecase

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/whhaicheng/FFT-BenchMind/internal/domain/report"
)

// ReportUseCase provides summary report generation.
type ReportUseCase struct {
	repo ResultRepository

	// Registered generators
	generators map[report.ReportFormat]report.Generator
}

// NewReportUseCase creates a new report use case. repo may be nil when
// reports are only generated from live snapshots.
func NewReportUseCase(repo ResultRepository, generators ...report.Generator) *ReportUseCase {
	uc := &ReportUseCase{
		repo:       repo,
		generators: make(map[report.ReportFormat]report.Generator),
	}
	for _, g := range generators {
		uc.RegisterGenerator(g)
	}
	return uc
}

// RegisterGenerator registers a report generator.
func (uc *ReportUseCase) RegisterGenerator(generator report.Generator) {
	uc.generators[generator.Format()] = generator
}

// GenerateReport generates a report for a stored sweep.
func (uc *ReportUseCase) GenerateReport(ctx context.Context, sweepID string, config *report.ReportConfig) (*report.Report, error) {
	if uc.repo == nil {
		return nil, fmt.Errorf("no result repository configured")
	}

	meta, err := uc.repo.FindSweep(ctx, sweepID)
	if err != nil {
		return nil, fmt.Errorf("find sweep: %w", err)
	}
	records, err := uc.repo.FindBySweep(ctx, sweepID)
	if err != nil {
		return nil, fmt.Errorf("find records: %w", err)
	}

	return uc.GenerateFromSnapshot(Snapshot{Meta: *meta, Records: records, Final: true}, config)
}

// GenerateFromSnapshot generates a report from an in-memory snapshot and
// saves it when config.OutputPath is set.
func (uc *ReportUseCase) GenerateFromSnapshot(snap Snapshot, config *report.ReportConfig) (*report.Report, error) {
	if config == nil {
		config = report.DefaultConfig(report.FormatMarkdown)
	}
	if err := config.Format.Validate(); err != nil {
		return nil, fmt.Errorf("invalid format: %w", err)
	}

	generator, ok := uc.generators[config.Format]
	if !ok {
		return nil, fmt.Errorf("no generator registered for format: %s", config.Format)
	}

	rpt, err := generator.Generate(buildGenerateContext(snap, config))
	if err != nil {
		return nil, fmt.Errorf("generate report: %w", err)
	}

	if config.OutputPath != "" {
		if err := saveReport(rpt, config.OutputPath); err != nil {
			return nil, fmt.Errorf("save report: %w", err)
		}
		rpt.FilePath = config.OutputPath
	}

	return rpt, nil
}

func buildGenerateContext(snap Snapshot, config *report.ReportConfig) *report.GenerateContext {
	m := snap.Meta
	genCtx := report.NewGenerateContext(m.SweepID, config)
	genCtx.Library = m.Library
	genCtx.DeviceProperties = m.DeviceProperties
	genCtx.Protocol = m.Protocol
	genCtx.Hostname = m.Hostname
	genCtx.Version = m.Version
	genCtx.Tag = m.Tag
	genCtx.StartedAt = m.StartedAt
	genCtx.ContextCreateMs = m.ContextCreateMs
	genCtx.ContextDestroyMs = m.ContextDestroyMs
	genCtx.AddRecords(snap.Records)
	return genCtx
}

// saveReport saves a report to a file.
func saveReport(rpt *report.Report, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	if err := os.WriteFile(path, rpt.Content, 0644); err != nil {
		return fmt.Errorf("write file: %w", err)
	}

	return nil
}

// DefaultReportPath generates a report file path under dir.
func DefaultReportPath(dir, sweepID string, format report.ReportFormat) string {
	date := time.Now().Format("2006-01-02")
	filename := fmt.Sprintf("%s-%s%s", sweepID, date, format.FileExtension())
	return filepath.Join(dir, filename)
}

// ListSupportedFormats returns the registered report formats.
func (uc *ReportUseCase) ListSupportedFormats() []report.ReportFormat {
	formats := make([]report.ReportFormat, 0, len(uc.generators))
	for format := range uc.generators {
		formats = append(formats, format)
	}
	slices.Sort(formats)
	return formats
}

// IsFormatSupported checks if a format is supported.
func (uc *ReportUseCase) IsFormatSupported(format report.ReportFormat) bool {
	_, ok := uc.generators[format]
	return ok
}

// =============================================================================
// Summary Sink
// =============================================================================

// SummarySink writes a summary report when the final snapshot arrives.
// Intermediate snapshots are ignored.
type SummarySink struct {
	uc     *ReportUseCase
	config *report.ReportConfig
}

// NewSummarySink creates a sink that writes config.OutputPath.
func NewSummarySink(uc *ReportUseCase, config *report.ReportConfig) *SummarySink {
	return &SummarySink{uc: uc, config: config}
}

// Write generates the report for a final snapshot.
func (s *SummarySink) Write(ctx context.Context, snap Snapshot) error {
	if !snap.Final {
		return nil
	}
	_, err := s.uc.GenerateFromSnapshot(snap, s.config)
	return err
}

// Close is a no-op.
func (s *SummarySink) Close() error {
	return nil
}

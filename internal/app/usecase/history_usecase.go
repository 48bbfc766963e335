package usecase

import (
	"context"
	"fmt"

	"github.com/whhaicheng/FFT-BenchMind/internal/domain/execution"
	"github.com/whhaicheng/FFT-BenchMind/internal/domain/report"
)

// HistoryUseCase reads stored sweeps back from the result repository.
type HistoryUseCase struct {
	repo ResultRepository
}

// NewHistoryUseCase creates a new history use case.
func NewHistoryUseCase(repo ResultRepository) *HistoryUseCase {
	return &HistoryUseCase{repo: repo}
}

// ListSweeps returns the newest sweeps.
func (uc *HistoryUseCase) ListSweeps(ctx context.Context, limit int) ([]RunMetadata, error) {
	sweeps, err := uc.repo.ListSweeps(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list sweeps: %w", err)
	}
	return sweeps, nil
}

// GetSweep returns a sweep with its records ordered by ID.
func (uc *HistoryUseCase) GetSweep(ctx context.Context, sweepID string) (*RunMetadata, []*execution.ResultRecord, error) {
	meta, err := uc.repo.FindSweep(ctx, sweepID)
	if err != nil {
		return nil, nil, fmt.Errorf("find sweep: %w", err)
	}
	records, err := uc.repo.FindBySweep(ctx, sweepID)
	if err != nil {
		return nil, nil, fmt.Errorf("find records: %w", err)
	}
	return meta, records, nil
}

// ConfigComparison is the mean of one metric for a configuration present
// in two sweeps.
type ConfigComparison struct {
	Config    string
	Baseline  report.MetricStats
	Candidate report.MetricStats
	// Speedup is baseline mean over candidate mean; 0 when either side
	// has no measured runs.
	Speedup float64
}

// CompareSweeps matches configurations of two sweeps by their
// description and compares the measured means of metric. Configurations
// present in only one sweep are skipped.
func (uc *HistoryUseCase) CompareSweeps(ctx context.Context, baselineID, candidateID string, metric execution.Metric) ([]ConfigComparison, error) {
	_, baseline, err := uc.GetSweep(ctx, baselineID)
	if err != nil {
		return nil, fmt.Errorf("baseline: %w", err)
	}
	_, candidate, err := uc.GetSweep(ctx, candidateID)
	if err != nil {
		return nil, fmt.Errorf("candidate: %w", err)
	}

	byConfig := make(map[string]*execution.ResultRecord, len(baseline))
	for _, rec := range baseline {
		byConfig[rec.Config.String()] = rec
	}

	var out []ConfigComparison
	for _, rec := range candidate {
		key := rec.Config.String()
		base, ok := byConfig[key]
		if !ok {
			continue
		}
		c := ConfigComparison{
			Config:    key,
			Baseline:  report.CalculateStats(metric.String(), base.MeasuredValues(metric)),
			Candidate: report.CalculateStats(metric.String(), rec.MeasuredValues(metric)),
		}
		if c.Baseline.IsValid() && c.Candidate.IsValid() && c.Candidate.Mean > 0 {
			c.Speedup = c.Baseline.Mean / c.Candidate.Mean
		}
		out = append(out, c)
	}
	return out, nil
}

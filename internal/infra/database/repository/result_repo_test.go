package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/whhaicheng/FFT-BenchMind/internal/app/usecase"
	"github.com/whhaicheng/FFT-BenchMind/internal/domain/execution"
	"github.com/whhaicheng/FFT-BenchMind/internal/domain/fft"
	"github.com/whhaicheng/FFT-BenchMind/internal/infra/database"
)

// setupResultTestDB creates an in-memory SQLite result database.
func setupResultTestDB(t *testing.T) *ResultRepository {
	t.Helper()
	db, err := database.InitializeSQLite(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewResultRepository(db)
}

func testSweep(id string, started time.Time) usecase.RunMetadata {
	return usecase.RunMetadata{
		SweepID:          id,
		Library:          "gonum",
		DeviceProperties: "host linux/amd64",
		Protocol:         execution.Protocol{Warmups: 1, WarmRuns: 2, ErrorBound: 1e-5, RoundTrip: true},
		StartedAt:        started,
		Hostname:         "bench01",
		Version:          "1.0.0",
		Tag:              "nightly",
		ContextCreateMs:  1.25,
	}
}

func testRecord(uuid string, id int, cfg fft.Configuration) *execution.ResultRecord {
	rec := execution.NewResultRecord(uuid, id, "gonum", cfg, execution.Protocol{Warmups: 1, WarmRuns: 2, ErrorBound: 1e-5})
	rec.Runs[0].Status = execution.StatusWarmup
	rec.Runs[1].Status = execution.StatusSuccess
	rec.Runs[1].Set(execution.MetricFFT, 0.125)
	rec.Runs[1].Set(execution.MetricDeviation, 3.5e-7)
	rec.Fail(2, "download: injected failure")
	rec.CompletedAt = rec.CreatedAt.Add(time.Millisecond)
	return rec
}

// TestResultRepository_SaveAndFind tests a record round trip through SQL.
func TestResultRepository_SaveAndFind(t *testing.T) {
	ctx := context.Background()
	repo := setupResultTestDB(t)

	require.NoError(t, repo.SaveSweep(ctx, testSweep("s1", time.Now())))

	cfg := fft.MustConfiguration(fft.PrecisionDouble, fft.LayoutReal, fft.PlacementOutplace, 32, 16)
	rec := testRecord("u1", 0, cfg)
	require.NoError(t, repo.Save(ctx, "s1", rec))

	got, err := repo.FindByUUID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, rec.ID, got.ID)
	assert.Equal(t, cfg.String(), got.Config.String())
	assert.Equal(t, execution.StateFailed, got.State)
	assert.Equal(t, 2, got.ErrorRun)
	assert.Equal(t, "download: injected failure", got.Error)
	assert.True(t, rec.CreatedAt.Equal(got.CreatedAt))

	require.Len(t, got.Runs, 3)
	assert.Equal(t, execution.StatusWarmup, got.Runs[0].Status)
	assert.Equal(t, execution.StatusSuccess, got.Runs[1].Status)
	assert.Equal(t, 0.125, got.Runs[1].Value(execution.MetricFFT))
	assert.Equal(t, 3.5e-7, got.Runs[1].Value(execution.MetricDeviation))
	assert.Equal(t, execution.StatusFailed, got.Runs[2].Status)
	assert.Equal(t, "download: injected failure", got.Runs[2].Error)

	_, err = repo.FindByUUID(ctx, "missing")
	assert.ErrorIs(t, err, usecase.ErrRecordNotFound)
}

// TestResultRepository_SaveIgnoresDuplicates tests that a UUID is stored once.
func TestResultRepository_SaveIgnoresDuplicates(t *testing.T) {
	ctx := context.Background()
	repo := setupResultTestDB(t)
	require.NoError(t, repo.SaveSweep(ctx, testSweep("s1", time.Now())))

	cfg := fft.MustConfiguration(fft.PrecisionFloat, fft.LayoutComplex, fft.PlacementInplace, 64)
	require.NoError(t, repo.Save(ctx, "s1", testRecord("u1", 0, cfg)))

	dup := testRecord("u1", 9, cfg)
	require.NoError(t, repo.Save(ctx, "s1", dup))

	recs, err := repo.FindBySweep(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, 0, recs[0].ID)
}

// TestResultRepository_FindBySweep tests ordering and sweep isolation.
func TestResultRepository_FindBySweep(t *testing.T) {
	ctx := context.Background()
	repo := setupResultTestDB(t)
	require.NoError(t, repo.SaveSweep(ctx, testSweep("a", time.Now())))
	require.NoError(t, repo.SaveSweep(ctx, testSweep("b", time.Now())))

	cfg := fft.MustConfiguration(fft.PrecisionFloat, fft.LayoutComplex, fft.PlacementInplace, 16)
	for _, id := range []int{2, 0, 1} {
		require.NoError(t, repo.Save(ctx, "a", testRecord(fmt.Sprintf("a-%d", id), id, cfg)))
	}
	require.NoError(t, repo.Save(ctx, "b", testRecord("b-0", 0, cfg)))

	recs, err := repo.FindBySweep(ctx, "a")
	require.NoError(t, err)
	require.Len(t, recs, 3)
	for i, rec := range recs {
		assert.Equal(t, i, rec.ID)
		assert.Len(t, rec.Runs, 3)
	}

	recs, err = repo.FindBySweep(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, recs)
}

// TestResultRepository_Sweeps tests sweep metadata upserts and listing.
func TestResultRepository_Sweeps(t *testing.T) {
	ctx := context.Background()
	repo := setupResultTestDB(t)

	now := time.Now()
	older := testSweep("older", now.Add(-time.Hour))
	newer := testSweep("newer", now)
	require.NoError(t, repo.SaveSweep(ctx, older))
	require.NoError(t, repo.SaveSweep(ctx, newer))

	newer.ContextDestroyMs = 4.5
	require.NoError(t, repo.SaveSweep(ctx, newer))

	got, err := repo.FindSweep(ctx, "newer")
	require.NoError(t, err)
	assert.Equal(t, 4.5, got.ContextDestroyMs)
	assert.Equal(t, 1.25, got.ContextCreateMs)
	assert.Equal(t, newer.Protocol, got.Protocol)
	assert.Equal(t, "nightly", got.Tag)
	assert.True(t, now.Equal(got.StartedAt))

	_, err = repo.FindSweep(ctx, "missing")
	assert.ErrorIs(t, err, usecase.ErrSweepNotFound)

	list, err := repo.ListSweeps(ctx, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "newer", list[0].SweepID)
	assert.Equal(t, "older", list[1].SweepID)

	list, err = repo.ListSweeps(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

// TestResultRepository_RepositorySink tests the repository behind the
// snapshot sink.
func TestResultRepository_RepositorySink(t *testing.T) {
	ctx := context.Background()
	repo := setupResultTestDB(t)
	sink := usecase.NewRepositorySink(repo)

	cfg := fft.MustConfiguration(fft.PrecisionFloat, fft.LayoutReal, fft.PlacementInplace, 128)
	meta := testSweep("s", time.Now())
	first := testRecord("u0", 0, cfg)
	require.NoError(t, sink.Write(ctx, usecase.Snapshot{Meta: meta, Records: []*execution.ResultRecord{first}}))

	meta.ContextDestroyMs = 2
	second := testRecord("u1", 1, cfg)
	require.NoError(t, sink.Write(ctx, usecase.Snapshot{
		Meta: meta, Records: []*execution.ResultRecord{first, second}, Final: true,
	}))

	recs, err := repo.FindBySweep(ctx, "s")
	require.NoError(t, err)
	assert.Len(t, recs, 2)

	sweep, err := repo.FindSweep(ctx, "s")
	require.NoError(t, err)
	assert.Equal(t, 2.0, sweep.ContextDestroyMs)
}

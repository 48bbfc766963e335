// Package usecase provides unit tests for settings use case.
package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/whhaicheng/FFT-BenchMind/internal/domain/config"
)

// mockSettingsRepository keeps the configuration in memory.
type mockSettingsRepository struct {
	cfg   *config.Config
	saves int
}

func (m *mockSettingsRepository) GetConfig(ctx context.Context) (*config.Config, error) {
	if m.cfg == nil {
		return config.DefaultConfig(), nil
	}
	c := *m.cfg
	return &c, nil
}

func (m *mockSettingsRepository) SaveConfig(ctx context.Context, cfg *config.Config) error {
	c := *cfg
	m.cfg = &c
	m.saves++
	return nil
}

// TestSettingsUseCase_GetConfig tests default configuration retrieval.
func TestSettingsUseCase_GetConfig(t *testing.T) {
	uc := NewSettingsUseCase(&mockSettingsRepository{})

	cfg, err := uc.GetConfig(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.Version)
	assert.Equal(t, "gonum", cfg.Device.Backend)
}

// TestSettingsUseCase_UpdateConfig tests validated updates.
func TestSettingsUseCase_UpdateConfig(t *testing.T) {
	ctx := context.Background()
	repo := &mockSettingsRepository{}
	uc := NewSettingsUseCase(repo)

	cfg := config.DefaultConfig()
	cfg.Device.Backend = "algofft"
	require.NoError(t, uc.UpdateConfig(ctx, cfg))

	got, err := uc.GetConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, "algofft", got.Device.Backend)

	cfg.Version = 7
	err = uc.UpdateConfig(ctx, cfg)
	assert.True(t, errors.Is(err, config.ErrInvalidConfiguration))
	assert.Equal(t, 1, repo.saves, "invalid config must not be saved")
}

// TestSettingsUseCase_SectionUpdates tests per-section updates.
func TestSettingsUseCase_SectionUpdates(t *testing.T) {
	ctx := context.Background()
	uc := NewSettingsUseCase(&mockSettingsRepository{})

	sweep := config.SweepConfig{
		Precisions: []string{"double"},
		Layouts:    []string{"real"},
		Placements: []string{"outplace"},
		Extents:    []string{"64x64"},
	}
	require.NoError(t, uc.UpdateSweepConfig(ctx, sweep))
	gotSweep, err := uc.GetSweepConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"64x64"}, gotSweep.Extents)

	db := config.DatabaseConfig{Enabled: true, Driver: config.DriverSQLite, DSN: "results.db"}
	require.NoError(t, uc.UpdateDatabaseConfig(ctx, db))
	gotDB, err := uc.GetDatabaseConfig(ctx)
	require.NoError(t, err)
	assert.True(t, gotDB.Enabled)

	assert.Error(t, uc.UpdateDatabaseConfig(ctx, config.DatabaseConfig{Enabled: true, Driver: "oracle", DSN: "x"}))
	assert.Error(t, uc.UpdateAdvancedConfig(ctx, config.AdvancedConfig{LogLevel: "trace"}))
	assert.Error(t, uc.UpdateSweepConfig(ctx, config.SweepConfig{}))

	require.NoError(t, uc.UpdateAdvancedConfig(ctx, config.AdvancedConfig{LogLevel: "debug"}))
	gotAdv, err := uc.GetAdvancedConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, "debug", gotAdv.LogLevel)
}

// TestSettingsUseCase_ResetSettings tests resetting to defaults.
func TestSettingsUseCase_ResetSettings(t *testing.T) {
	ctx := context.Background()
	uc := NewSettingsUseCase(&mockSettingsRepository{})

	require.NoError(t, uc.UpdateAdvancedConfig(ctx, config.AdvancedConfig{LogLevel: "error"}))
	require.NoError(t, uc.ResetSettings(ctx))

	cfg, err := uc.GetConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.Advanced.LogLevel)
}

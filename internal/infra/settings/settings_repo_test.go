// Package settings provides unit tests for configuration file persistence.
package settings

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/whhaicheng/FFT-BenchMind/internal/domain/config"
)

// TestFileRepository_GetConfig_Default tests getting default config.
func TestFileRepository_GetConfig_Default(t *testing.T) {
	repo := NewFileRepository(filepath.Join(t.TempDir(), "config.yaml"))

	cfg, err := repo.GetConfig(context.Background())
	if err != nil {
		t.Fatalf("GetConfig() failed: %v", err)
	}

	if cfg.Version != 1 {
		t.Errorf("Version = %d, want 1", cfg.Version)
	}
	if cfg.Benchmark.WarmRuns != 10 {
		t.Errorf("WarmRuns = %d, want 10", cfg.Benchmark.WarmRuns)
	}
}

// TestFileRepository_PartialYAML tests that omitted keys keep defaults.
func TestFileRepository_PartialYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bench.yml")
	content := `version: 1
benchmark:
  warm_runs: 3
sweep:
  precisions: [double]
  extents: ["16x16", "64"]
device:
  backend: algofft
  sub_device_cores: 2
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := NewFileRepository(path).GetConfig(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Benchmark.WarmRuns)
	assert.Equal(t, 2, cfg.Benchmark.Warmups)
	assert.Equal(t, []string{"double"}, cfg.Sweep.Precisions)
	assert.Equal(t, []string{"16x16", "64"}, cfg.Sweep.Extents)
	assert.Equal(t, []string{"complex", "real"}, cfg.Sweep.Layouts)
	assert.Equal(t, "algofft", cfg.Device.Backend)
	assert.Equal(t, 2, cfg.Device.SubDeviceCores)
}

// TestFileRepository_SaveAndLoad tests a JSON round trip through disk.
func TestFileRepository_SaveAndLoad(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "config.json")
	repo := NewFileRepository(path)

	cfg := config.DefaultConfig()
	cfg.Output.Tag = "nightly"
	cfg.Benchmark.DumpFrequency = 4
	require.NoError(t, repo.SaveConfig(ctx, cfg))

	loaded, err := repo.GetConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, "nightly", loaded.Output.Tag)
	assert.Equal(t, 4, loaded.Benchmark.DumpFrequency)
}

// TestFileRepository_Invalid tests rejection of bad files.
func TestFileRepository_Invalid(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("advanced:\n  log_level: trace\n"), 0644))
	_, err := NewFileRepository(bad).GetConfig(ctx)
	assert.ErrorIs(t, err, config.ErrInvalidConfiguration)

	toml := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(toml, []byte("x = 1"), 0644))
	_, err = NewFileRepository(toml).GetConfig(ctx)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	err = NewFileRepository(toml).SaveConfig(ctx, config.DefaultConfig())
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

// Package config provides unit tests for configuration domain models.
package config

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/whhaicheng/FFT-BenchMind/internal/domain/fft"
)

// TestBenchmarkConfig_Validate tests run protocol validation.
func TestBenchmarkConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  BenchmarkConfig
		wantErr bool
	}{
		{
			name:    "valid config",
			config:  BenchmarkConfig{Warmups: 2, WarmRuns: 10, ErrorBound: 1e-5, DumpFrequency: 1},
			wantErr: false,
		},
		{
			name:    "only warmups",
			config:  BenchmarkConfig{Warmups: 1, ErrorBound: 1e-5, DumpFrequency: 1},
			wantErr: false,
		},
		{
			name:    "no runs",
			config:  BenchmarkConfig{ErrorBound: 1e-5, DumpFrequency: 1},
			wantErr: true,
		},
		{
			name:    "zero dump frequency",
			config:  BenchmarkConfig{Warmups: 2, WarmRuns: 10, ErrorBound: 1e-5},
			wantErr: true,
		},
		{
			name:    "negative error bound",
			config:  BenchmarkConfig{Warmups: 2, WarmRuns: 10, ErrorBound: -1, DumpFrequency: 1},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.config.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("BenchmarkConfig.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

// TestSweepConfig_Configurations tests sweep expansion.
func TestSweepConfig_Configurations(t *testing.T) {
	c := SweepConfig{
		Precisions: []string{"float", "double"},
		Layouts:    []string{"real"},
		Placements: []string{"inplace", "outplace"},
		Extents:    []string{"1024", "32x32"},
	}
	require.NoError(t, c.Validate())

	cfgs, err := c.Configurations()
	require.NoError(t, err)
	require.Len(t, cfgs, 8)
	assert.Equal(t, fft.Extent{1024}, cfgs[0].Extent())
	assert.Equal(t, fft.Extent{32, 32}, cfgs[7].Extent())

	c.Extents = []string{"0x4"}
	err = c.Validate()
	assert.ErrorIs(t, err, ErrInvalidConfiguration)

	c.Extents = []string{"64"}
	c.Layouts = []string{"hermitian"}
	assert.Error(t, c.Validate())

	c.Layouts = nil
	assert.ErrorIs(t, c.Validate(), ErrInvalidConfiguration)
}

// TestDatabaseConfig_Validate tests database configuration validation.
func TestDatabaseConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  DatabaseConfig
		wantErr error
	}{
		{"disabled ignores fields", DatabaseConfig{}, nil},
		{"sqlite", DatabaseConfig{Enabled: true, Driver: DriverSQLite, DSN: "results.db"}, nil},
		{"postgres", DatabaseConfig{Enabled: true, Driver: DriverPostgres, DSN: "postgres://localhost/fft"}, nil},
		{"unknown driver", DatabaseConfig{Enabled: true, Driver: "oracle", DSN: "x"}, ErrUnknownDriver},
		{"missing dsn", DatabaseConfig{Enabled: true, Driver: DriverMySQL}, ErrInvalidConfiguration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("DatabaseConfig.Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// TestAdvancedConfig_Validate tests advanced configuration validation.
func TestAdvancedConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		level   string
		wantErr bool
	}{
		{"debug", "debug", false},
		{"info", "info", false},
		{"warn", "warn", false},
		{"error", "error", false},
		{"invalid", "trace", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := AdvancedConfig{LogLevel: tt.level}
			if err := c.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("AdvancedConfig.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

// TestConfig_Validate tests complete configuration validation.
func TestConfig_Validate(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	cfg.Version = 2
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfiguration)

	cfg = DefaultConfig()
	cfg.Device.Backend = ""
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfiguration)

	cfg = DefaultConfig()
	cfg.Output.Tag = `bad"tag`
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfiguration)
}

// TestDefaultConfig tests default configuration values.
func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	p := cfg.Benchmark.Protocol()
	assert.Equal(t, 2, p.Warmups)
	assert.Equal(t, 10, p.WarmRuns)
	assert.Equal(t, 1e-5, p.ErrorBound)
	assert.True(t, p.RoundTrip)
	assert.Equal(t, 1, cfg.Benchmark.DumpFrequency)
	assert.Equal(t, "gonum", cfg.Device.Backend)
	assert.False(t, cfg.Database.Enabled)
}

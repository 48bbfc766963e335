// Package config provides configuration domain models.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/whhaicheng/FFT-BenchMind/internal/domain/execution"
	"github.com/whhaicheng/FFT-BenchMind/internal/domain/fft"
)

var (
	// ErrInvalidConfiguration is returned when configuration is invalid.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrUnknownDriver is returned when a database driver is not supported.
	ErrUnknownDriver = errors.New("unknown database driver")
)

// Supported result database drivers.
const (
	DriverSQLite    = "sqlite"
	DriverPostgres  = "postgres"
	DriverMySQL     = "mysql"
	DriverSQLServer = "sqlserver"
)

// BenchmarkConfig represents the run protocol configuration.
type BenchmarkConfig struct {
	// Warmups is the number of untimed-for-statistics warmup runs.
	Warmups int `json:"warmups" yaml:"warmups"`

	// WarmRuns is the number of measured runs.
	WarmRuns int `json:"warm_runs" yaml:"warm_runs"`

	// ErrorBound is the maximum accepted round-trip deviation.
	ErrorBound float64 `json:"error_bound" yaml:"error_bound"`

	// DumpFrequency is the number of stored records between flushes.
	DumpFrequency int `json:"dump_frequency" yaml:"dump_frequency"`

	// RoundTrip enables the inverse transform and deviation check.
	RoundTrip bool `json:"round_trip" yaml:"round_trip"`

	// Seed seeds the input data generator.
	Seed int64 `json:"seed" yaml:"seed"`
}

// Validate validates the benchmark configuration.
func (c *BenchmarkConfig) Validate() error {
	if err := c.Protocol().Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfiguration, err)
	}

	if c.DumpFrequency < 1 {
		return fmt.Errorf("%w: dump_frequency must be at least 1", ErrInvalidConfiguration)
	}

	return nil
}

// Protocol returns the run protocol described by the configuration.
func (c *BenchmarkConfig) Protocol() execution.Protocol {
	return execution.Protocol{
		Warmups:    c.Warmups,
		WarmRuns:   c.WarmRuns,
		ErrorBound: c.ErrorBound,
		RoundTrip:  c.RoundTrip,
	}
}

// SweepConfig represents the set of transform configurations to run.
type SweepConfig struct {
	// Precisions lists precision names (float, double, half).
	Precisions []string `json:"precisions" yaml:"precisions"`

	// Layouts lists layout names (real, complex).
	Layouts []string `json:"layouts" yaml:"layouts"`

	// Placements lists placement names (inplace, outplace).
	Placements []string `json:"placements" yaml:"placements"`

	// Extents lists transform shapes such as "1024" or "32x32".
	Extents []string `json:"extents" yaml:"extents"`
}

// Validate validates the sweep configuration.
func (c *SweepConfig) Validate() error {
	if len(c.Precisions) == 0 || len(c.Layouts) == 0 || len(c.Placements) == 0 {
		return fmt.Errorf("%w: precisions, layouts and placements must not be empty", ErrInvalidConfiguration)
	}
	if len(c.Extents) == 0 {
		return fmt.Errorf("%w: at least one extent is required", ErrInvalidConfiguration)
	}
	if _, err := c.Configurations(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfiguration, err)
	}
	return nil
}

// Configurations expands the sweep into transform configurations.
func (c *SweepConfig) Configurations() ([]fft.Configuration, error) {
	precisions := make([]fft.Precision, 0, len(c.Precisions))
	for _, s := range c.Precisions {
		p, err := fft.ParsePrecision(s)
		if err != nil {
			return nil, err
		}
		precisions = append(precisions, p)
	}

	layouts := make([]fft.Layout, 0, len(c.Layouts))
	for _, s := range c.Layouts {
		l, err := fft.ParseLayout(s)
		if err != nil {
			return nil, err
		}
		layouts = append(layouts, l)
	}

	placements := make([]fft.Placement, 0, len(c.Placements))
	for _, s := range c.Placements {
		p, err := fft.ParsePlacement(s)
		if err != nil {
			return nil, err
		}
		placements = append(placements, p)
	}

	extents := make([]fft.Extent, 0, len(c.Extents))
	for _, s := range c.Extents {
		e, err := fft.ParseExtent(s)
		if err != nil {
			return nil, err
		}
		extents = append(extents, e)
	}

	return fft.Expand(precisions, layouts, placements, extents)
}

// DeviceConfig represents backend and device selection.
type DeviceConfig struct {
	// Backend is the registered backend name (gonum, algofft).
	Backend string `json:"backend" yaml:"backend"`

	// Selector is "platform:device" or a class name (cpu, gpu, acc).
	Selector string `json:"selector" yaml:"selector"`

	// SubDeviceCores partitions a CPU device; 0 uses the whole device.
	SubDeviceCores int `json:"sub_device_cores" yaml:"sub_device_cores"`
}

// Validate validates the device configuration.
func (c *DeviceConfig) Validate() error {
	if c.Backend == "" {
		return fmt.Errorf("%w: backend is required", ErrInvalidConfiguration)
	}
	if c.SubDeviceCores < 0 {
		return fmt.Errorf("%w: sub_device_cores cannot be negative", ErrInvalidConfiguration)
	}
	return nil
}

// OutputConfig represents result output configuration.
type OutputConfig struct {
	// Path is the CSV result file.
	Path string `json:"path" yaml:"path"`

	// Tag is an arbitrary label written to the result preamble.
	Tag string `json:"tag" yaml:"tag"`

	// Verbose prints each finished configuration to stdout.
	Verbose bool `json:"verbose" yaml:"verbose"`

	// SummaryPath is the optional Markdown summary file.
	SummaryPath string `json:"summary_path,omitempty" yaml:"summary_path,omitempty"`
}

// Validate validates the output configuration.
func (c *OutputConfig) Validate() error {
	if c.Path == "" {
		return fmt.Errorf("%w: output path is required", ErrInvalidConfiguration)
	}
	if strings.ContainsAny(c.Tag, "\"\n") {
		return fmt.Errorf("%w: tag must not contain quotes or newlines", ErrInvalidConfiguration)
	}
	return nil
}

// DatabaseConfig represents the optional result database.
type DatabaseConfig struct {
	// Enabled turns the database sink on.
	Enabled bool `json:"enabled" yaml:"enabled"`

	// Driver is one of sqlite, postgres, mysql, sqlserver.
	Driver string `json:"driver" yaml:"driver"`

	// DSN is the data source name; for sqlite it is the file path.
	DSN string `json:"dsn" yaml:"dsn"`
}

// Validate validates the database configuration.
func (c *DatabaseConfig) Validate() error {
	if !c.Enabled {
		return nil
	}

	switch c.Driver {
	case DriverSQLite, DriverPostgres, DriverMySQL, DriverSQLServer:
	default:
		return fmt.Errorf("%w: %w: %s", ErrInvalidConfiguration, ErrUnknownDriver, c.Driver)
	}

	if c.DSN == "" {
		return fmt.Errorf("%w: database dsn is required", ErrInvalidConfiguration)
	}

	return nil
}

// AdvancedConfig represents advanced configuration.
type AdvancedConfig struct {
	// LogLevel is the logging level (debug, info, warn, error).
	LogLevel string `json:"log_level" yaml:"log_level"`

	// LogDir is the directory for daily log files.
	LogDir string `json:"log_dir" yaml:"log_dir"`

	// MetricsAddr is the listen address of the metrics endpoint; empty disables it.
	MetricsAddr string `json:"metrics_addr,omitempty" yaml:"metrics_addr,omitempty"`
}

// Validate validates the advanced configuration.
func (c *AdvancedConfig) Validate() error {
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLevels[c.LogLevel] {
		return fmt.Errorf("%w: invalid log level: %s", ErrInvalidConfiguration, c.LogLevel)
	}

	return nil
}

// Config represents the complete application configuration.
type Config struct {
	// Version is the configuration version.
	Version int `json:"version" yaml:"version"`

	Benchmark BenchmarkConfig `json:"benchmark" yaml:"benchmark"`
	Sweep     SweepConfig     `json:"sweep" yaml:"sweep"`
	Device    DeviceConfig    `json:"device" yaml:"device"`
	Output    OutputConfig    `json:"output" yaml:"output"`
	Database  DatabaseConfig  `json:"database" yaml:"database"`
	Advanced  AdvancedConfig  `json:"advanced" yaml:"advanced"`
}

// Validate validates the complete configuration.
func (c *Config) Validate() error {
	if c.Version != 1 {
		return fmt.Errorf("%w: unsupported configuration version: %d", ErrInvalidConfiguration, c.Version)
	}

	if err := c.Benchmark.Validate(); err != nil {
		return fmt.Errorf("benchmark: %w", err)
	}

	if err := c.Sweep.Validate(); err != nil {
		return fmt.Errorf("sweep: %w", err)
	}

	if err := c.Device.Validate(); err != nil {
		return fmt.Errorf("device: %w", err)
	}

	if err := c.Output.Validate(); err != nil {
		return fmt.Errorf("output: %w", err)
	}

	if err := c.Database.Validate(); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	if err := c.Advanced.Validate(); err != nil {
		return fmt.Errorf("advanced: %w", err)
	}

	return nil
}

// DefaultConfig returns a default configuration.
func DefaultConfig() *Config {
	userHomeDir, _ := os.UserHomeDir()
	defaultDBPath := filepath.Join(userHomeDir, ".fft-benchmind", "results.db")

	return &Config{
		Version: 1,
		Benchmark: BenchmarkConfig{
			Warmups:       execution.DefaultWarmups,
			WarmRuns:      execution.DefaultWarmRuns,
			ErrorBound:    execution.DefaultErrorBound,
			DumpFrequency: 1,
			RoundTrip:     true,
			Seed:          1,
		},
		Sweep: SweepConfig{
			Precisions: []string{"float"},
			Layouts:    []string{"complex", "real"},
			Placements: []string{"inplace", "outplace"},
			Extents:    []string{"1024"},
		},
		Device: DeviceConfig{
			Backend:  "gonum",
			Selector: "cpu",
		},
		Output: OutputConfig{
			Path: "benchmark.csv",
		},
		Database: DatabaseConfig{
			Enabled: false,
			Driver:  DriverSQLite,
			DSN:     defaultDBPath,
		},
		Advanced: AdvancedConfig{
			LogLevel: "info",
			LogDir:   filepath.Join(".", "data", "logs"),
		},
	}
}

// Package settings provides configuration file persistence.
package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/whhaicheng/FFT-BenchMind/internal/domain/config"
)

// ErrUnsupportedFormat is returned for config files that are neither YAML nor JSON.
var ErrUnsupportedFormat = errors.New("unsupported config file format")

// FileRepository loads and saves the configuration as YAML or JSON,
// chosen by file extension.
type FileRepository struct {
	configPath string
}

// NewFileRepository creates a new settings repository.
func NewFileRepository(configPath string) *FileRepository {
	return &FileRepository{
		configPath: configPath,
	}
}

// GetConfig loads the complete configuration. Missing keys keep their
// default values; a missing file yields the defaults.
func (r *FileRepository) GetConfig(ctx context.Context) (*config.Config, error) {
	cfg := config.DefaultConfig()

	data, err := os.ReadFile(r.configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	switch r.format() {
	case "yaml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	case "json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, r.configPath)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the complete configuration.
func (r *FileRepository) SaveConfig(ctx context.Context, cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}

	var (
		data []byte
		err  error
	)
	switch r.format() {
	case "yaml":
		data, err = yaml.Marshal(cfg)
	case "json":
		data, err = json.MarshalIndent(cfg, "", "  ")
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, r.configPath)
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	dir := filepath.Dir(r.configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	if err := os.WriteFile(r.configPath, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// GetConfigPath returns the configuration file path.
func (r *FileRepository) GetConfigPath() string {
	return r.configPath
}

func (r *FileRepository) format() string {
	switch strings.ToLower(filepath.Ext(r.configPath)) {
	case ".yaml", ".yml":
		return "yaml"
	case ".json":
		return "json"
	default:
		return ""
	}
}

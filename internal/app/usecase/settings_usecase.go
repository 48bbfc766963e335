package usecase

import (
	"context"
	"fmt"

	"github.com/whhaicheng/FFT-BenchMind/internal/domain/config"
)

// SettingsUseCase provides settings management business operations.
type SettingsUseCase struct {
	settingsRepo SettingsRepository
}

// NewSettingsUseCase creates a new settings use case.
func NewSettingsUseCase(settingsRepo SettingsRepository) *SettingsUseCase {
	return &SettingsUseCase{
		settingsRepo: settingsRepo,
	}
}

// GetConfig retrieves the current configuration.
func (uc *SettingsUseCase) GetConfig(ctx context.Context) (*config.Config, error) {
	return uc.settingsRepo.GetConfig(ctx)
}

// UpdateConfig updates the configuration.
func (uc *SettingsUseCase) UpdateConfig(ctx context.Context, cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}

	return uc.settingsRepo.SaveConfig(ctx, cfg)
}

// ResetSettings resets all settings to defaults.
func (uc *SettingsUseCase) ResetSettings(ctx context.Context) error {
	return uc.settingsRepo.SaveConfig(ctx, config.DefaultConfig())
}

// GetSweepConfig retrieves the sweep configuration.
func (uc *SettingsUseCase) GetSweepConfig(ctx context.Context) (*config.SweepConfig, error) {
	cfg, err := uc.settingsRepo.GetConfig(ctx)
	if err != nil {
		return nil, err
	}
	return &cfg.Sweep, nil
}

// UpdateSweepConfig updates the sweep configuration.
func (uc *SettingsUseCase) UpdateSweepConfig(ctx context.Context, sweepCfg config.SweepConfig) error {
	if err := sweepCfg.Validate(); err != nil {
		return fmt.Errorf("validate sweep config: %w", err)
	}

	cfg, err := uc.settingsRepo.GetConfig(ctx)
	if err != nil {
		return fmt.Errorf("get config: %w", err)
	}

	cfg.Sweep = sweepCfg
	return uc.settingsRepo.SaveConfig(ctx, cfg)
}

// GetDatabaseConfig retrieves database configuration.
func (uc *SettingsUseCase) GetDatabaseConfig(ctx context.Context) (*config.DatabaseConfig, error) {
	cfg, err := uc.settingsRepo.GetConfig(ctx)
	if err != nil {
		return nil, err
	}
	return &cfg.Database, nil
}

// UpdateDatabaseConfig updates database configuration.
func (uc *SettingsUseCase) UpdateDatabaseConfig(ctx context.Context, dbCfg config.DatabaseConfig) error {
	if err := dbCfg.Validate(); err != nil {
		return fmt.Errorf("validate database config: %w", err)
	}

	cfg, err := uc.settingsRepo.GetConfig(ctx)
	if err != nil {
		return fmt.Errorf("get config: %w", err)
	}

	cfg.Database = dbCfg
	return uc.settingsRepo.SaveConfig(ctx, cfg)
}

// GetAdvancedConfig retrieves advanced configuration.
func (uc *SettingsUseCase) GetAdvancedConfig(ctx context.Context) (*config.AdvancedConfig, error) {
	cfg, err := uc.settingsRepo.GetConfig(ctx)
	if err != nil {
		return nil, err
	}
	return &cfg.Advanced, nil
}

// UpdateAdvancedConfig updates advanced configuration.
func (uc *SettingsUseCase) UpdateAdvancedConfig(ctx context.Context, advCfg config.AdvancedConfig) error {
	if err := advCfg.Validate(); err != nil {
		return fmt.Errorf("validate advanced config: %w", err)
	}

	cfg, err := uc.settingsRepo.GetConfig(ctx)
	if err != nil {
		return fmt.Errorf("get config: %w", err)
	}

	cfg.Advanced = advCfg
	return uc.settingsRepo.SaveConfig(ctx, cfg)
}

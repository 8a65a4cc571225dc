package main

import (
	"github.com/vyrodovalexey/avaguard/internal/config"
	"github.com/vyrodovalexey/avaguard/internal/observability"
)

// loadAndValidateConfig loads, overrides from the environment and validates
// the configuration. Any failure is fatal.
func loadAndValidateConfig(configPath string, logger observability.Logger) *config.GatewayConfig {
	logger.Info("starting avaguard",
		observability.String("version", version),
		observability.String("config", configPath),
	)

	cfg, err := loadConfig(configPath)
	if err != nil {
		fatalWithSync(logger, "invalid configuration", observability.Error(err))
		return nil // unreachable in production; allows test to continue
	}

	logger.Info("configuration loaded",
		observability.String("name", cfg.Metadata.Name),
		observability.String("environment", cfg.Spec.Environment),
		observability.String("upstream", cfg.Spec.Upstream.URL),
		observability.Bool("auth_enabled", cfg.Spec.AuthEnabled()),
		observability.String("key_source", cfg.Spec.Auth.Source),
		observability.Int("allowlist_entries", len(cfg.Spec.Auth.Allowlist)),
		observability.Int("service_matchers", len(cfg.Spec.ServiceMatchers)),
	)

	return cfg
}

// loadConfig is the non-fatal part of loadAndValidateConfig, shared with
// the reload path.
func loadConfig(configPath string) (*config.GatewayConfig, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)
	applyVaultEnvDefaults(cfg.Spec.Auth.Vault)

	if err := config.ValidateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

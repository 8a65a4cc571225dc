package main

import (
	"context"
	"io"
	"time"

	"github.com/vyrodovalexey/avaguard/internal/backendauth"
	"github.com/vyrodovalexey/avaguard/internal/config"
	"github.com/vyrodovalexey/avaguard/internal/observability"
	"github.com/vyrodovalexey/avaguard/internal/secrets"
)

// secretsConfig maps spec.auth onto the secrets provider configuration.
func secretsConfig(auth *config.AuthConfig) secrets.Config {
	sc := secrets.Config{
		Type: secrets.ProviderType(auth.Source),
		Keys: auth.Keys,
		File: auth.File,
	}
	if vc := auth.Vault; vc != nil {
		sc.Vault = secrets.VaultProviderConfig{
			Address:      vc.Address,
			Namespace:    vc.Namespace,
			AuthMethod:   vc.AuthMethod,
			Token:        vc.Token,
			RoleID:       vc.RoleID,
			SecretID:     vc.SecretID,
			AppRoleMount: vc.AppRoleMount,
			Mount:        vc.Mount,
			Path:         vc.Path,
			Timeout:      vc.Timeout.Duration(),
			CACert:       vc.CACert,
			SkipVerify:   vc.SkipVerify,
		}
	}
	if rc := auth.Redis; rc != nil {
		sc.Redis = secrets.RedisProviderConfig{
			URL:      rc.URL,
			Key:      rc.Key,
			Password: rc.Password,
			Timeout:  rc.Timeout.Duration(),
		}
	}
	return sc
}

// newKeyProvider creates the credential source named by spec.auth.source.
func newKeyProvider(
	cfg *config.GatewayConfig,
	logger observability.Logger,
	metrics *secrets.Metrics,
) (secrets.Provider, error) {
	provider, err := secrets.NewProvider(secretsConfig(&cfg.Spec.Auth),
		secrets.WithLogger(logger),
		secrets.WithMetrics(metrics),
	)
	if err != nil {
		return nil, err
	}
	logger.Info("backend key source configured",
		observability.String("source", string(provider.Type())),
	)
	return provider, nil
}

// fetchKeys reads the credential set. The Vault provider records its own
// fetch metrics.
func fetchKeys(ctx context.Context, provider secrets.Provider, metrics *secrets.Metrics) ([]string, error) {
	start := time.Now()
	keys, err := provider.Keys(ctx)
	if provider.Type() != secrets.ProviderTypeVault {
		metrics.RecordFetch(provider.Type(), len(keys), time.Since(start), err)
	}
	return keys, err
}

// buildGuard reads the current credential set and builds a guard. With
// enforcement off an unreadable key source is logged and tolerated, since
// keys then only feed the audit header.
func buildGuard(
	ctx context.Context,
	cfg *config.GatewayConfig,
	enabled bool,
	provider secrets.Provider,
	logger observability.Logger,
	metrics *secrets.Metrics,
	opts ...backendauth.Option,
) (*backendauth.Guard, error) {
	keys, err := fetchKeys(ctx, provider, metrics)
	if err != nil {
		if enabled {
			return nil, err
		}
		logger.Warn("failed to read backend keys, continuing without them",
			observability.Error(err),
		)
		keys = nil
	}

	if len(keys) > 0 {
		logger.Info("backend keys loaded",
			observability.String("source", string(provider.Type())),
			observability.Int("keys", len(keys)),
			observability.Fingerprint("current_key", keys[0]),
		)
	}

	return backendauth.New(backendauth.Config{
		Enabled:   enabled,
		Keys:      keys,
		Allowlist: cfg.Spec.Auth.Allowlist,
	}, append([]backendauth.Option{backendauth.WithLogger(logger)}, opts...)...)
}

// closeProvider releases a provider holding connections.
func closeProvider(provider secrets.Provider, logger observability.Logger) {
	c, ok := provider.(io.Closer)
	if !ok {
		return
	}
	if err := c.Close(); err != nil {
		logger.Warn("failed to close key provider", observability.Error(err))
	}
}

// newDenialAlerter returns nil when no alert rate is configured.
func newDenialAlerter(
	cfg *config.DenialAlertConfig,
	logger observability.Logger,
	metrics *backendauth.Metrics,
) *backendauth.DenialAlerter {
	if cfg == nil || cfg.Rate <= 0 {
		return nil
	}
	return backendauth.NewDenialAlerter(backendauth.AlertConfig{
		Rate:     cfg.Rate,
		Burst:    cfg.Burst,
		Interval: cfg.Interval.Duration(),
	}, logger, metrics)
}

package main

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"time"

	"github.com/vyrodovalexey/avaguard/internal/backendauth"
	"github.com/vyrodovalexey/avaguard/internal/config"
	"github.com/vyrodovalexey/avaguard/internal/observability"
	"github.com/vyrodovalexey/avaguard/internal/secrets"
)

// startConfigWatcher starts the configuration watcher. A file key source is
// watched alongside the configuration so rotating it takes effect without
// touching the configuration file.
func startConfigWatcher(
	ctx context.Context,
	app *application,
	configPath string,
	logger observability.Logger,
) *config.Watcher {
	opts := []config.WatcherOption{
		config.WithLogger(logger),
		config.WithLoader(loadConfig),
		config.WithErrorCallback(func(error) {
			app.metrics.RecordConfigReload(false)
		}),
	}
	if fp, ok := app.keyProvider.(*secrets.FileProvider); ok {
		opts = append(opts, config.WithExtraPaths(fp.Path()))
	}

	watcher, err := config.NewWatcher(configPath, func(newCfg *config.GatewayConfig) {
		logger.Info("configuration changed, reloading")
		_ = reloadConfig(ctx, app, newCfg, logger)
	}, opts...)
	if err != nil {
		logger.Warn("failed to create config watcher", observability.Error(err))
		return nil
	}

	if err := watcher.Start(ctx); err != nil {
		logger.Warn("failed to start config watcher", observability.Error(err))
		return watcher
	}

	return watcher
}

// forceReload re-reads the configuration and the key source. Without a
// watcher only the key source is re-read.
func forceReload(app *application, watcher *config.Watcher, logger observability.Logger) {
	if watcher != nil {
		if err := watcher.ForceReload(); err != nil {
			logger.Error("configuration reload failed, keeping previous configuration",
				observability.Error(err),
			)
			app.metrics.RecordConfigReload(false)
		}
		return
	}

	app.reloadMu.Lock()
	cfg := app.config
	app.reloadMu.Unlock()
	_ = reloadConfig(context.Background(), app, cfg, logger)
}

// reloadConfig rebuilds the guard from newCfg and swaps it in. Only the
// credential set and the allowlist change at runtime; the enable flag,
// the service table and the pipeline keep their startup values.
func reloadConfig(
	ctx context.Context,
	app *application,
	newCfg *config.GatewayConfig,
	logger observability.Logger,
) error {
	app.reloadMu.Lock()
	defer app.reloadMu.Unlock()

	start := time.Now()
	fail := func(msg string, err error) error {
		logger.Error(msg, observability.Error(err))
		app.metrics.RecordConfigReload(false)
		return err
	}

	applyEnvOverrides(newCfg)
	applyVaultEnvDefaults(newCfg.Spec.Auth.Vault)
	if err := config.ValidateConfig(newCfg); err != nil {
		return fail("invalid configuration, keeping previous configuration", err)
	}

	warnStaticChanges(app.config, newCfg, app.authEnabled, logger)

	provider := app.keyProvider
	if configSectionChanged(secretsConfig(&app.config.Spec.Auth), secretsConfig(&newCfg.Spec.Auth)) {
		p, err := newKeyProvider(newCfg, logger, app.secretsMetrics)
		if err != nil {
			return fail("failed to create key provider", err)
		}
		provider = p
	}

	fetchCtx, cancel := context.WithTimeout(ctx, keyFetchTimeout)
	defer cancel()
	guard, err := buildGuard(fetchCtx, newCfg, app.authEnabled, provider, logger, app.secretsMetrics,
		backendauth.WithoutStartupNotice())
	if err != nil {
		if provider != app.keyProvider {
			closeProvider(provider, logger)
		}
		return fail("failed to rebuild backend authentication, keeping previous keys", err)
	}

	app.guard.Swap(guard)
	if provider != app.keyProvider {
		closeProvider(app.keyProvider, logger)
	}
	app.keyProvider = provider
	app.config = newCfg
	app.metrics.RecordConfigReload(true)

	logger.Info("backend authentication reloaded",
		observability.Duration("duration", time.Since(start)),
	)
	return nil
}

// warnStaticChanges reports changes that need a restart to apply.
func warnStaticChanges(
	oldCfg, newCfg *config.GatewayConfig,
	authEnabled bool,
	logger observability.Logger,
) {
	if newCfg.Spec.AuthEnabled() != authEnabled {
		logger.Warn("backend authentication enable flag changed but is NOT hot-reloaded; " +
			"restart the gateway to apply it")
	}
	if configSectionChanged(oldCfg.Spec.Upstream, newCfg.Spec.Upstream) ||
		configSectionChanged(oldCfg.Spec.Listener, newCfg.Spec.Listener) {
		logger.Warn("listener or upstream configuration changed but is NOT hot-reloaded; " +
			"restart the gateway to apply it")
	}
	if configSectionChanged(oldCfg.Spec.ServiceMatchers, newCfg.Spec.ServiceMatchers) {
		logger.Warn("service matchers changed but the service table is frozen; " +
			"restart the gateway to apply them")
	}
	if configSectionChanged(oldCfg.Spec.SecurityHeaders, newCfg.Spec.SecurityHeaders) {
		logger.Warn("security headers changed but are NOT hot-reloaded; " +
			"restart the gateway to apply them")
	}
}

// configSectionHash returns a SHA-256 hash of the JSON form of v.
func configSectionHash(v any) ([sha256.Size]byte, bool) {
	data, err := json.Marshal(v)
	if err != nil {
		return [sha256.Size]byte{}, false
	}
	return sha256.Sum256(data), true
}

// configSectionChanged reports whether two configuration sections differ.
// Sections that cannot be hashed count as changed.
func configSectionChanged(oldSection, newSection any) bool {
	oldHash, okOld := configSectionHash(oldSection)
	newHash, okNew := configSectionHash(newSection)
	if !okOld || !okNew {
		return true
	}
	return oldHash != newHash
}

package main

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/vyrodovalexey/avaguard/internal/backendauth"
	"github.com/vyrodovalexey/avaguard/internal/classifier"
	"github.com/vyrodovalexey/avaguard/internal/config"
	"github.com/vyrodovalexey/avaguard/internal/gateway"
	"github.com/vyrodovalexey/avaguard/internal/health"
	"github.com/vyrodovalexey/avaguard/internal/observability"
	"github.com/vyrodovalexey/avaguard/internal/outbound"
	"github.com/vyrodovalexey/avaguard/internal/secrets"
)

// keyFetchTimeout bounds reading the credential set at startup and reload.
const keyFetchTimeout = 15 * time.Second

// application holds all application components.
type application struct {
	gateway       *gateway.Gateway
	guard         *backendauth.AtomicGuard
	classifier    *classifier.Classifier
	healthChecker *health.Checker
	metrics       *observability.Metrics
	metricsServer *http.Server
	tracer        *observability.Tracer
	logger        observability.Logger

	secretsMetrics *secrets.Metrics

	// authEnabled is decided once at startup; reloads only swap the
	// credential set and allowlist.
	authEnabled bool

	// reloadMu serializes file-triggered and SIGHUP reloads.
	reloadMu    sync.Mutex
	config      *config.GatewayConfig
	keyProvider secrets.Provider
}

// initApplication initializes all application components.
func initApplication(cfg *config.GatewayConfig, logger observability.Logger) *application {
	metrics := observability.NewMetrics(observability.DefaultNamespace)
	metrics.SetBuildInfo(version, gitCommit, buildTime)
	tracer := initTracer(cfg, logger)

	authMetrics := backendauth.NewMetrics(observability.DefaultNamespace)
	authMetrics.Init()
	authMetrics.MustRegister(metrics.Registry())

	classifierMetrics := classifier.NewMetrics(observability.DefaultNamespace)
	classifierMetrics.MustRegister(metrics.Registry())

	outboundMetrics := outbound.NewMetrics(observability.DefaultNamespace)
	outboundMetrics.MustRegister(metrics.Registry())

	secretsMetrics := secrets.NewMetrics(observability.DefaultNamespace)
	secretsMetrics.MustRegister(metrics.Registry())

	svc, err := initClassifier(cfg, logger, classifierMetrics)
	if err != nil {
		fatalWithSync(logger, "invalid service matchers", observability.Error(err))
		return nil // unreachable in production; allows test to continue
	}

	outboundOpts := []outbound.Option{
		outbound.WithMetrics(outboundMetrics),
		outbound.WithTracerProvider(tracer.Provider()),
	}
	upstreamTransport := outbound.NewTransport(svc,
		append([]outbound.Option{
			outbound.WithBase(newUpstreamRoundTripper(&cfg.Spec.Upstream, logger, outboundMetrics)),
		}, outboundOpts...)...,
	)

	provider, err := newKeyProvider(cfg, logger, secretsMetrics)
	if err != nil {
		fatalWithSync(logger, "failed to create key provider", observability.Error(err))
		return nil // unreachable in production; allows test to continue
	}

	authEnabled := cfg.Spec.AuthEnabled()
	ctx, cancel := context.WithTimeout(context.Background(), keyFetchTimeout)
	guard, err := buildGuard(ctx, cfg, authEnabled, provider, logger, secretsMetrics)
	cancel()
	if err != nil {
		fatalWithSync(logger, "failed to initialize backend authentication", observability.Error(err))
		return nil // unreachable in production; allows test to continue
	}
	atomicGuard := backendauth.NewAtomicGuard(guard)

	healthChecker := health.NewChecker(health.Info{
		Name:        cfg.Metadata.Name,
		Description: cfg.Metadata.Description,
		Version:     version,
		Commit:      gitCommit,
		BuildTime:   buildTime,
		Environment: cfg.Spec.Environment,
	}, logger)
	checkClient := outbound.NewClient(outbound.ClientConfig{Timeout: health.DefaultCheckTimeout}, svc, outboundOpts...)
	registerHealthChecks(healthChecker, cfg, provider, checkClient)

	authOpts := []backendauth.MiddlewareOption{backendauth.WithMetrics(authMetrics)}
	if alerter := newDenialAlerter(cfg.Spec.Auth.DenialAlert, logger, authMetrics); alerter != nil {
		authOpts = append(authOpts, backendauth.WithDenialAlerter(alerter))
	}

	gw, err := gateway.New(cfg, atomicGuard,
		gateway.WithLogger(logger),
		gateway.WithMetrics(metrics),
		gateway.WithHealthChecker(healthChecker),
		gateway.WithAuthOptions(authOpts...),
		gateway.WithUpstreamTransport(upstreamTransport),
		gateway.WithTracerProvider(tracer.Provider()),
	)
	if err != nil {
		fatalWithSync(logger, "failed to create gateway", observability.Error(err))
		return nil // unreachable in production; allows test to continue
	}

	return &application{
		gateway:        gw,
		guard:          atomicGuard,
		classifier:     svc,
		healthChecker:  healthChecker,
		metrics:        metrics,
		tracer:         tracer,
		logger:         logger,
		secretsMetrics: secretsMetrics,
		authEnabled:    authEnabled,
		config:         cfg,
		keyProvider:    provider,
	}
}

// initTracer initializes the tracer.
func initTracer(cfg *config.GatewayConfig, logger observability.Logger) *observability.Tracer {
	tracerCfg := observability.TracerConfig{
		ServiceName:    config.DefaultServiceName,
		ServiceVersion: version,
		Environment:    cfg.Spec.Environment,
		SamplingRate:   1.0,
	}

	if t := cfg.Spec.Observability.Tracing; t != nil {
		tracerCfg.Enabled = t.Enabled
		tracerCfg.SamplingRate = t.SamplingRate
		tracerCfg.OTLPEndpoint = t.OTLPEndpoint
		if t.ServiceName != "" {
			tracerCfg.ServiceName = t.ServiceName
		}
	}

	tracer, err := observability.NewTracer(tracerCfg)
	if err != nil {
		fatalWithSync(logger, "failed to initialize tracer", observability.Error(err))
		return nil // unreachable in production; allows test to continue
	}

	return tracer
}

// initClassifier builds the frozen service table: the default matchers in
// their declared order, then the upstream, then spec.serviceMatchers, which
// replace an entry of the same name in place.
func initClassifier(
	cfg *config.GatewayConfig,
	logger observability.Logger,
	metrics *classifier.Metrics,
) (*classifier.Classifier, error) {
	upstream, err := gateway.UpstreamEntry(cfg.Spec.Upstream.URL)
	if err != nil {
		return nil, err
	}

	b := classifier.NewBuilder().
		Register(classifier.DefaultEntries()...).
		Register(upstream)
	for _, m := range cfg.Spec.ServiceMatchers {
		b.Add(m.Name, m.Pattern)
	}

	table, err := b.Build()
	if err != nil {
		return nil, err
	}

	logger.Debug("service classifier built", observability.Int("services", table.Len()))
	return classifier.New(table,
		classifier.WithLogger(logger),
		classifier.WithMetrics(metrics),
	), nil
}

// newUpstreamBaseTransport builds the pooled transport to the upstream.
func newUpstreamBaseTransport(u *config.UpstreamConfig) *http.Transport {
	base := outbound.NewBaseTransport(outbound.ClientConfig{
		Timeout:             u.Timeout.Duration(),
		MaxIdleConnsPerHost: u.MaxIdleConnsPerHost,
		IdleConnTimeout:     u.IdleConnTimeout.Duration(),
	})
	if u.MaxIdleConns > 0 {
		base.MaxIdleConns = u.MaxIdleConns
	}
	return base
}

// newUpstreamRoundTripper wraps the pooled upstream transport in a circuit
// breaker when one is configured.
func newUpstreamRoundTripper(
	u *config.UpstreamConfig,
	logger observability.Logger,
	metrics *outbound.Metrics,
) http.RoundTripper {
	base := newUpstreamBaseTransport(u)
	cb := u.CircuitBreaker
	if cb == nil || !cb.Enabled {
		return base
	}
	logger.Info("upstream circuit breaker enabled",
		observability.Int("threshold", cb.Threshold),
		observability.Duration("timeout", cb.Timeout.Duration()),
	)
	return outbound.NewBreaker(base, outbound.BreakerConfig{
		Name:      gateway.RouteUpstream,
		Threshold: cb.Threshold,
		Timeout:   cb.Timeout.Duration(),
	},
		outbound.WithBreakerLogger(logger),
		outbound.WithBreakerMetrics(metrics),
	)
}

// registerHealthChecks adds the upstream probe and the key store status.
// A key store outage only degrades: the guard keeps its last keys.
func registerHealthChecks(
	checker *health.Checker,
	cfg *config.GatewayConfig,
	provider secrets.Provider,
	client *http.Client,
) {
	if path := cfg.Spec.Upstream.HealthPath; path != "" {
		url := strings.TrimSuffix(cfg.Spec.Upstream.URL, "/") + path
		checker.RegisterCheck("upstream", health.HTTPCheck(client, url))
	}
	switch p := provider.(type) {
	case *secrets.VaultProvider:
		checker.RegisterCheck("vault", health.ErrorCheck(health.StatusDegraded, p.Health))
	case *secrets.RedisProvider:
		checker.RegisterCheck("redis", health.ErrorCheck(health.StatusDegraded, p.Health))
	}
}

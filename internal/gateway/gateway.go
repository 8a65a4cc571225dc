package gateway

import (
	"context"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"

	"github.com/vyrodovalexey/avaguard/internal/backendauth"
	"github.com/vyrodovalexey/avaguard/internal/config"
	"github.com/vyrodovalexey/avaguard/internal/health"
	"github.com/vyrodovalexey/avaguard/internal/middleware"
	"github.com/vyrodovalexey/avaguard/internal/observability"
)

// State represents the gateway lifecycle state.
type State int32

const (
	// StateStopped indicates the gateway is stopped.
	StateStopped State = iota
	// StateStarting indicates the gateway is starting.
	StateStarting
	// StateRunning indicates the gateway is running.
	StateRunning
	// StateStopping indicates the gateway is stopping.
	StateStopping
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	default:
		return "unknown"
	}
}

// Gateway is the authenticating front door of one application: operational
// routes are answered locally, everything else is checked by the evaluator
// and proxied upstream.
type Gateway struct {
	config    *config.GatewayConfig
	evaluator backendauth.Evaluator
	engine    *gin.Engine
	listener  *Listener
	proxy     *Proxy
	health    *health.Checker
	logger    observability.Logger

	metrics        *observability.Metrics
	authOptions    []backendauth.MiddlewareOption
	clientIP       *middleware.ClientIPExtractor
	transport      http.RoundTripper
	tracerProvider trace.TracerProvider

	state           atomic.Int32
	startTime       time.Time
	shutdownTimeout time.Duration
}

// Option is a functional option for configuring the gateway.
type Option func(*Gateway)

// WithLogger sets the logger for the gateway.
func WithLogger(logger observability.Logger) Option {
	return func(g *Gateway) {
		g.logger = logger
	}
}

// WithMetrics sets the HTTP server metrics.
func WithMetrics(metrics *observability.Metrics) Option {
	return func(g *Gateway) {
		g.metrics = metrics
	}
}

// WithHealthChecker replaces the checker serving the operational routes.
func WithHealthChecker(checker *health.Checker) Option {
	return func(g *Gateway) {
		g.health = checker
	}
}

// WithAuthOptions passes options to the backend authentication middleware.
func WithAuthOptions(opts ...backendauth.MiddlewareOption) Option {
	return func(g *Gateway) {
		g.authOptions = append(g.authOptions, opts...)
	}
}

// WithClientIPExtractor sets how client addresses are resolved for logs and
// allowlist checks. By default only spec.auth.trustedProxies are trusted.
func WithClientIPExtractor(extractor *middleware.ClientIPExtractor) Option {
	return func(g *Gateway) {
		g.clientIP = extractor
	}
}

// WithUpstreamTransport sets the transport used to reach the upstream.
func WithUpstreamTransport(transport http.RoundTripper) Option {
	return func(g *Gateway) {
		g.transport = transport
	}
}

// WithTracerProvider sets the tracer provider for server spans.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(g *Gateway) {
		g.tracerProvider = tp
	}
}

// WithShutdownTimeout overrides spec.listener.shutdownTimeout.
func WithShutdownTimeout(timeout time.Duration) Option {
	return func(g *Gateway) {
		g.shutdownTimeout = timeout
	}
}

// New creates a gateway. The handler chain is built immediately, so
// Engine can be exercised without starting the listener.
func New(cfg *config.GatewayConfig, evaluator backendauth.Evaluator, opts ...Option) (*Gateway, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}
	if evaluator == nil {
		return nil, ErrNilEvaluator
	}

	g := &Gateway{
		config:          cfg,
		evaluator:       evaluator,
		logger:          observability.NopLogger(),
		shutdownTimeout: cfg.Spec.Listener.ShutdownTimeout.Duration(),
	}
	for _, opt := range opts {
		opt(g)
	}

	if g.shutdownTimeout <= 0 {
		g.shutdownTimeout = config.DefaultShutdownTimeout
	}
	if g.health == nil {
		g.health = health.NewChecker(health.Info{
			Name:        cfg.Metadata.Name,
			Description: cfg.Metadata.Description,
			Environment: cfg.Spec.Environment,
		}, g.logger)
	}
	if g.clientIP == nil {
		extractor, err := middleware.NewClientIPExtractor(cfg.Spec.Auth.TrustedProxies)
		if err != nil {
			return nil, err
		}
		g.clientIP = extractor
	}

	proxy, err := NewProxy(cfg.Spec.Upstream.URL,
		WithProxyLogger(g.logger),
		WithTransport(g.transport),
		WithUpstreamTimeout(cfg.Spec.Upstream.Timeout.Duration()),
	)
	if err != nil {
		return nil, err
	}
	g.proxy = proxy

	g.engine = g.buildEngine()
	g.listener = NewListener(cfg.Spec.Listener, g.engine,
		WithListenerLogger(g.logger),
		WithListenerName(cfg.Metadata.Name),
	)

	return g, nil
}

// buildEngine assembles the handler chain. Security headers are applied
// before authentication so a 401 carries them as well.
func (g *Gateway) buildEngine() *gin.Engine {
	engine := gin.New()

	security := middleware.DefaultSecurityConfig()
	security.CustomHeaders = g.config.Spec.SecurityHeaders

	authOpts := append([]backendauth.MiddlewareOption{
		backendauth.WithMiddlewareLogger(g.logger),
		backendauth.WithAddrResolver(g.clientIP),
	}, g.authOptions...)

	engine.Use(
		middleware.Recovery(g.logger, g.metrics),
		middleware.RequestID(),
		middleware.LoggingWithConfig(middleware.LoggingConfig{
			Logger:          g.logger,
			SkipOperational: true,
			ClientIP:        g.clientIP,
		}),
		middleware.SecurityHeadersWithConfig(security),
		middleware.Metrics(g.metrics),
		middleware.TracingWithConfig(middleware.TracingConfig{
			TracerProvider:  g.tracerProvider,
			SkipOperational: true,
		}),
		backendauth.Middleware(g.evaluator, authOpts...),
	)

	g.health.RegisterRoutes(engine)
	engine.NoRoute(g.proxy.Handler())

	return engine
}

// Start starts serving.
func (g *Gateway) Start(ctx context.Context) error {
	if !g.state.CompareAndSwap(int32(StateStopped), int32(StateStarting)) {
		return ErrGatewayNotStopped
	}

	g.logger.Info("starting gateway",
		observability.String("name", g.config.Metadata.Name),
		observability.String("environment", g.config.Spec.Environment),
		observability.String("upstream", g.proxy.Target().String()),
	)

	if err := g.listener.Start(ctx); err != nil {
		g.state.Store(int32(StateStopped))
		return err
	}

	g.startTime = time.Now()
	g.state.Store(int32(StateRunning))

	g.logger.Info("gateway started",
		observability.String("address", g.listener.Addr().String()),
	)
	return nil
}

// Stop drains in-flight requests, bounded by ctx and the shutdown timeout.
func (g *Gateway) Stop(ctx context.Context) error {
	if !g.state.CompareAndSwap(int32(StateRunning), int32(StateStopping)) {
		return ErrGatewayNotRunning
	}

	g.logger.Info("stopping gateway")

	ctx, cancel := context.WithTimeout(ctx, g.shutdownTimeout)
	defer cancel()

	err := g.listener.Stop(ctx)
	g.state.Store(int32(StateStopped))
	if err != nil {
		g.logger.Error("gateway stopped with error", observability.Error(err))
		return err
	}

	g.logger.Info("gateway stopped")
	return nil
}

// Engine returns the handler chain.
func (g *Gateway) Engine() *gin.Engine {
	return g.engine
}

// Health returns the checker serving the operational routes.
func (g *Gateway) Health() *health.Checker {
	return g.health
}

// Addr returns the bound listener address once started, or nil.
func (g *Gateway) Addr() net.Addr {
	return g.listener.Addr()
}

// Config returns the gateway configuration.
func (g *Gateway) Config() *config.GatewayConfig {
	return g.config
}

// State returns the current lifecycle state.
func (g *Gateway) State() State {
	return State(g.state.Load())
}

// IsRunning returns true if the gateway is running.
func (g *Gateway) IsRunning() bool {
	return g.State() == StateRunning
}

// Uptime returns how long the gateway has been running.
func (g *Gateway) Uptime() time.Duration {
	if !g.IsRunning() {
		return 0
	}
	return time.Since(g.startTime)
}

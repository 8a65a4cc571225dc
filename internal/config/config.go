package config

import (
	"strings"
	"time"
)

// Defaults.
const (
	DefaultAPIVersion        = "gateway.avaguard.io/v1"
	DefaultKind              = "Gateway"
	DefaultEnvironment       = "development"
	DefaultPort              = 8080
	DefaultMetricsPort       = 9090
	DefaultMetricsPath       = "/metrics"
	DefaultReadTimeout       = 30 * time.Second
	DefaultReadHeaderTimeout = 10 * time.Second
	DefaultWriteTimeout      = 30 * time.Second
	DefaultIdleTimeout       = 120 * time.Second
	DefaultShutdownTimeout   = 30 * time.Second
	DefaultUpstreamTimeout   = 30 * time.Second
	DefaultServiceName       = "avaguard"

	// EnvironmentProduction switches backend authentication on unless
	// spec.auth.enabled says otherwise.
	EnvironmentProduction = "production"
)

// Secret sources for the backend credential set.
const (
	KeySourceStatic = "static"
	KeySourceFile   = "file"
	KeySourceVault  = "vault"
	KeySourceRedis  = "redis"
)

// Circuit breaker defaults for the upstream.
const (
	DefaultBreakerThreshold = 5
	DefaultBreakerTimeout   = 30 * time.Second
)

// GatewayConfig is the root configuration document.
type GatewayConfig struct {
	APIVersion string      `yaml:"apiVersion" json:"apiVersion"`
	Kind       string      `yaml:"kind" json:"kind"`
	Metadata   Metadata    `yaml:"metadata" json:"metadata"`
	Spec       GatewaySpec `yaml:"spec" json:"spec"`
}

// Metadata names the application fronted by the gateway. It feeds the
// /__about and /__health documents.
type Metadata struct {
	Name        string            `yaml:"name" json:"name"`
	Description string            `yaml:"description,omitempty" json:"description,omitempty"`
	Labels      map[string]string `yaml:"labels,omitempty" json:"labels,omitempty"`
}

// GatewaySpec holds the gateway settings.
type GatewaySpec struct {
	Environment     string               `yaml:"environment,omitempty" json:"environment,omitempty"`
	Listener        ListenerConfig       `yaml:"listener" json:"listener"`
	Upstream        UpstreamConfig       `yaml:"upstream" json:"upstream"`
	Auth            AuthConfig           `yaml:"auth" json:"auth"`
	ServiceMatchers []ServiceMatcher     `yaml:"serviceMatchers,omitempty" json:"serviceMatchers,omitempty"`
	SecurityHeaders map[string]string    `yaml:"securityHeaders,omitempty" json:"securityHeaders,omitempty"`
	Observability   *ObservabilityConfig `yaml:"observability,omitempty" json:"observability,omitempty"`
}

// ListenerConfig configures the inbound HTTP listener.
type ListenerConfig struct {
	Bind              string   `yaml:"bind,omitempty" json:"bind,omitempty"`
	Port              int      `yaml:"port" json:"port"`
	ReadTimeout       Duration `yaml:"readTimeout,omitempty" json:"readTimeout,omitempty"`
	ReadHeaderTimeout Duration `yaml:"readHeaderTimeout,omitempty" json:"readHeaderTimeout,omitempty"`
	WriteTimeout      Duration `yaml:"writeTimeout,omitempty" json:"writeTimeout,omitempty"`
	IdleTimeout       Duration `yaml:"idleTimeout,omitempty" json:"idleTimeout,omitempty"`
	ShutdownTimeout   Duration `yaml:"shutdownTimeout,omitempty" json:"shutdownTimeout,omitempty"`
}

// UpstreamConfig points at the application requests are proxied to.
type UpstreamConfig struct {
	URL                 string   `yaml:"url" json:"url"`
	Timeout             Duration `yaml:"timeout,omitempty" json:"timeout,omitempty"`
	MaxIdleConns        int      `yaml:"maxIdleConns,omitempty" json:"maxIdleConns,omitempty"`
	MaxIdleConnsPerHost int      `yaml:"maxIdleConnsPerHost,omitempty" json:"maxIdleConnsPerHost,omitempty"`
	IdleConnTimeout     Duration `yaml:"idleConnTimeout,omitempty" json:"idleConnTimeout,omitempty"`
	// HealthPath, when set, is probed by /__health.
	HealthPath     string                `yaml:"healthPath,omitempty" json:"healthPath,omitempty"`
	CircuitBreaker *CircuitBreakerConfig `yaml:"circuitBreaker,omitempty" json:"circuitBreaker,omitempty"`
}

// CircuitBreakerConfig stops proxying to a failing upstream. The breaker
// opens once at least Threshold requests were seen in the current window
// and half of them failed, and probes again after Timeout.
type CircuitBreakerConfig struct {
	Enabled   bool     `yaml:"enabled" json:"enabled"`
	Threshold int      `yaml:"threshold,omitempty" json:"threshold,omitempty"`
	Timeout   Duration `yaml:"timeout,omitempty" json:"timeout,omitempty"`
}

// AuthConfig configures backend authentication.
type AuthConfig struct {
	// Enabled overrides the environment-derived default when set.
	Enabled        *bool              `yaml:"enabled,omitempty" json:"enabled,omitempty"`
	Source         string             `yaml:"source,omitempty" json:"source,omitempty"`
	Keys           []string           `yaml:"keys,omitempty" json:"keys,omitempty"`
	File           string             `yaml:"file,omitempty" json:"file,omitempty"`
	Vault          *VaultConfig       `yaml:"vault,omitempty" json:"vault,omitempty"`
	Redis          *RedisConfig       `yaml:"redis,omitempty" json:"redis,omitempty"`
	Allowlist      []string           `yaml:"allowlist,omitempty" json:"allowlist,omitempty"`
	TrustedProxies []string           `yaml:"trustedProxies,omitempty" json:"trustedProxies,omitempty"`
	DenialAlert    *DenialAlertConfig `yaml:"denialAlert,omitempty" json:"denialAlert,omitempty"`
}

// VaultConfig locates the KV v2 secret holding the credential set.
type VaultConfig struct {
	Address      string   `yaml:"address,omitempty" json:"address,omitempty"`
	Namespace    string   `yaml:"namespace,omitempty" json:"namespace,omitempty"`
	AuthMethod   string   `yaml:"authMethod,omitempty" json:"authMethod,omitempty"`
	Token        string   `yaml:"token,omitempty" json:"token,omitempty"`
	RoleID       string   `yaml:"roleId,omitempty" json:"roleId,omitempty"`
	SecretID     string   `yaml:"secretId,omitempty" json:"secretId,omitempty"`
	AppRoleMount string   `yaml:"appRoleMount,omitempty" json:"appRoleMount,omitempty"`
	Mount        string   `yaml:"mount,omitempty" json:"mount,omitempty"`
	Path         string   `yaml:"path" json:"path"`
	Timeout      Duration `yaml:"timeout,omitempty" json:"timeout,omitempty"`
	CACert       string   `yaml:"caCert,omitempty" json:"caCert,omitempty"`
	SkipVerify   bool     `yaml:"skipVerify,omitempty" json:"skipVerify,omitempty"`
}

// RedisConfig locates the Redis hash holding the credential set. The hash
// carries the same "current" and "retired" fields as a key file.
type RedisConfig struct {
	URL      string   `yaml:"url" json:"url"`
	Key      string   `yaml:"key" json:"key"`
	Password string   `yaml:"password,omitempty" json:"password,omitempty"`
	Timeout  Duration `yaml:"timeout,omitempty" json:"timeout,omitempty"`
}

// DenialAlertConfig sets the denial rate above which a warning is raised.
type DenialAlertConfig struct {
	Rate     float64  `yaml:"rate" json:"rate"`
	Burst    int      `yaml:"burst,omitempty" json:"burst,omitempty"`
	Interval Duration `yaml:"interval,omitempty" json:"interval,omitempty"`
}

// ServiceMatcher maps outbound URLs matching Pattern to the service Name.
type ServiceMatcher struct {
	Name    string `yaml:"name" json:"name"`
	Pattern string `yaml:"pattern" json:"pattern"`
}

// ObservabilityConfig represents observability configuration.
type ObservabilityConfig struct {
	Metrics *MetricsConfig `yaml:"metrics,omitempty" json:"metrics,omitempty"`
	Tracing *TracingConfig `yaml:"tracing,omitempty" json:"tracing,omitempty"`
	Logging *LoggingConfig `yaml:"logging,omitempty" json:"logging,omitempty"`
}

// MetricsConfig represents metrics configuration.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Path    string `yaml:"path,omitempty" json:"path,omitempty"`
	Port    int    `yaml:"port,omitempty" json:"port,omitempty"`
}

// TracingConfig represents tracing configuration.
type TracingConfig struct {
	Enabled      bool    `yaml:"enabled" json:"enabled"`
	SamplingRate float64 `yaml:"samplingRate,omitempty" json:"samplingRate,omitempty"`
	OTLPEndpoint string  `yaml:"otlpEndpoint,omitempty" json:"otlpEndpoint,omitempty"`
	ServiceName  string  `yaml:"serviceName,omitempty" json:"serviceName,omitempty"`
}

// LoggingConfig represents logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level,omitempty" json:"level,omitempty"`
	Format string `yaml:"format,omitempty" json:"format,omitempty"`
	Output string `yaml:"output,omitempty" json:"output,omitempty"`
}

// DefaultConfig returns a configuration with every default applied.
func DefaultConfig() *GatewayConfig {
	cfg := &GatewayConfig{
		APIVersion: DefaultAPIVersion,
		Kind:       DefaultKind,
		Metadata:   Metadata{Name: DefaultServiceName},
	}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills in unset fields.
func (c *GatewayConfig) ApplyDefaults() {
	s := &c.Spec
	if s.Environment == "" {
		s.Environment = DefaultEnvironment
	}

	if s.Listener.Port == 0 {
		s.Listener.Port = DefaultPort
	}
	setDuration(&s.Listener.ReadTimeout, DefaultReadTimeout)
	setDuration(&s.Listener.ReadHeaderTimeout, DefaultReadHeaderTimeout)
	setDuration(&s.Listener.WriteTimeout, DefaultWriteTimeout)
	setDuration(&s.Listener.IdleTimeout, DefaultIdleTimeout)
	setDuration(&s.Listener.ShutdownTimeout, DefaultShutdownTimeout)

	setDuration(&s.Upstream.Timeout, DefaultUpstreamTimeout)
	if cb := s.Upstream.CircuitBreaker; cb != nil {
		if cb.Threshold == 0 {
			cb.Threshold = DefaultBreakerThreshold
		}
		setDuration(&cb.Timeout, DefaultBreakerTimeout)
	}

	if s.Auth.Source == "" {
		s.Auth.Source = KeySourceStatic
	}

	if s.Observability == nil {
		s.Observability = &ObservabilityConfig{}
	}
	o := s.Observability
	if o.Metrics == nil {
		o.Metrics = &MetricsConfig{Enabled: true}
	}
	if o.Metrics.Path == "" {
		o.Metrics.Path = DefaultMetricsPath
	}
	if o.Metrics.Port == 0 {
		o.Metrics.Port = DefaultMetricsPort
	}
	if o.Tracing == nil {
		o.Tracing = &TracingConfig{}
	}
	if o.Tracing.ServiceName == "" {
		o.Tracing.ServiceName = c.Metadata.Name
	}
	if o.Logging == nil {
		o.Logging = &LoggingConfig{}
	}
	if o.Logging.Level == "" {
		o.Logging.Level = "info"
	}
	if o.Logging.Format == "" {
		o.Logging.Format = "json"
	}
}

func setDuration(d *Duration, def time.Duration) {
	if *d == 0 {
		*d = Duration(def)
	}
}

// IsProduction reports whether the environment is production, ignoring case.
func (s *GatewaySpec) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(s.Environment), EnvironmentProduction)
}

// AuthEnabled resolves whether backend authentication is on: the explicit
// spec.auth.enabled flag when present, otherwise production environments only.
func (s *GatewaySpec) AuthEnabled() bool {
	if s.Auth.Enabled != nil {
		return *s.Auth.Enabled
	}
	return s.IsProduction()
}

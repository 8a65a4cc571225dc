package config

import (
	"fmt"
	"net/netip"
	"strings"

	"github.com/vyrodovalexey/avaguard/internal/util"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Path    string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Message)
	}
	return e.Message
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

// Error implements the error interface.
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d validation errors:\n", len(e))
	for i, err := range e {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, err.Error())
	}
	return sb.String()
}

// Is lets errors.Is(err, util.ErrConfigInvalid) match validation failures.
func (e ValidationErrors) Is(target error) bool {
	return target == util.ErrConfigInvalid
}

// HasErrors returns true if there are validation errors.
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

// Validator validates gateway configuration.
type Validator struct {
	errors ValidationErrors
}

// NewValidator creates a new configuration validator.
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateConfig validates a gateway configuration.
func ValidateConfig(cfg *GatewayConfig) error {
	return NewValidator().Validate(cfg)
}

// Validate returns ValidationErrors listing every problem found, or nil.
func (v *Validator) Validate(cfg *GatewayConfig) error {
	v.errors = make(ValidationErrors, 0)

	if cfg == nil {
		v.addError("", "configuration is nil")
		return v.errors
	}

	v.validateRoot(cfg)
	v.validateSpec(&cfg.Spec)

	if v.errors.HasErrors() {
		return v.errors
	}
	return nil
}

func (v *Validator) validateRoot(cfg *GatewayConfig) {
	if cfg.APIVersion == "" {
		v.addError("apiVersion", "apiVersion is required")
	} else if !strings.HasPrefix(cfg.APIVersion, "gateway.avaguard.io/") {
		v.addError("apiVersion", "apiVersion must start with 'gateway.avaguard.io/'")
	}

	if cfg.Kind == "" {
		v.addError("kind", "kind is required")
	} else if cfg.Kind != DefaultKind {
		v.addError("kind", "kind must be 'Gateway'")
	}

	if strings.TrimSpace(cfg.Metadata.Name) == "" {
		v.addError("metadata.name", "name is required")
	}
}

func (v *Validator) validateSpec(spec *GatewaySpec) {
	v.validateListener(&spec.Listener)
	v.validateUpstream(&spec.Upstream)
	v.validateAuth(&spec.Auth, spec.AuthEnabled())
	v.validateServiceMatchers(spec.ServiceMatchers)

	for name, value := range spec.SecurityHeaders {
		if err := util.ValidateHeaderName(name); err != nil {
			v.addError("spec.securityHeaders", err.Error())
		}
		if err := util.ValidateHeaderValue(value); err != nil {
			v.addError("spec.securityHeaders."+name, err.Error())
		}
	}

	if spec.Observability != nil {
		v.validateObservability(spec.Observability)
		if m := spec.Observability.Metrics; m != nil && m.Enabled && m.Port == spec.Listener.Port {
			v.addError("spec.observability.metrics.port", "metrics port must differ from the listener port")
		}
	}
}

func (v *Validator) validateListener(l *ListenerConfig) {
	if err := util.ValidatePort(l.Port); err != nil {
		v.addError("spec.listener.port", err.Error())
	}
	if l.Bind != "" {
		if _, err := netip.ParseAddr(l.Bind); err != nil {
			v.addError("spec.listener.bind", fmt.Sprintf("invalid address %q", l.Bind))
		}
	}
	if l.ReadTimeout < 0 || l.WriteTimeout < 0 || l.IdleTimeout < 0 || l.ShutdownTimeout < 0 {
		v.addError("spec.listener", "timeouts must not be negative")
	}
}

func (v *Validator) validateUpstream(u *UpstreamConfig) {
	if err := util.ValidateURL(u.URL); err != nil {
		v.addError("spec.upstream.url", err.Error())
	}
	if u.Timeout < 0 {
		v.addError("spec.upstream.timeout", "timeout must not be negative")
	}
	if u.HealthPath != "" && !strings.HasPrefix(u.HealthPath, "/") {
		v.addError("spec.upstream.healthPath", "healthPath must start with '/'")
	}
	if cb := u.CircuitBreaker; cb != nil && cb.Enabled {
		if cb.Threshold < 1 {
			v.addError("spec.upstream.circuitBreaker.threshold", "threshold must be at least 1")
		}
		if cb.Timeout < 0 {
			v.addError("spec.upstream.circuitBreaker.timeout", "timeout must not be negative")
		}
	}
}

func (v *Validator) validateAuth(a *AuthConfig, enabled bool) {
	switch a.Source {
	case KeySourceStatic:
		if enabled && len(a.Keys) == 0 {
			v.addError("spec.auth.keys", "at least one key is required when authentication is enabled")
		}
	case KeySourceFile:
		if strings.TrimSpace(a.File) == "" {
			v.addError("spec.auth.file", "file is required for the file key source")
		}
	case KeySourceVault:
		v.validateVault(a.Vault)
	case KeySourceRedis:
		v.validateRedis(a.Redis)
	default:
		v.addError("spec.auth.source", fmt.Sprintf("unknown key source %q", a.Source))
	}

	v.validatePrefixes("spec.auth.allowlist", a.Allowlist)
	v.validatePrefixes("spec.auth.trustedProxies", a.TrustedProxies)

	if a.DenialAlert != nil {
		if a.DenialAlert.Rate < 0 {
			v.addError("spec.auth.denialAlert.rate", "rate must not be negative")
		}
		if a.DenialAlert.Burst < 0 {
			v.addError("spec.auth.denialAlert.burst", "burst must not be negative")
		}
	}
}

func (v *Validator) validateVault(vc *VaultConfig) {
	if vc == nil {
		v.addError("spec.auth.vault", "vault settings are required for the vault key source")
		return
	}
	if vc.Path == "" {
		v.addError("spec.auth.vault.path", "path is required")
	}
	if vc.Address != "" {
		if err := util.ValidateURL(vc.Address); err != nil {
			v.addError("spec.auth.vault.address", err.Error())
		}
	}
	switch vc.AuthMethod {
	case "", "token":
	case "approle":
		if vc.RoleID == "" || vc.SecretID == "" {
			v.addError("spec.auth.vault", "roleId and secretId are required for approle auth")
		}
	default:
		v.addError("spec.auth.vault.authMethod", fmt.Sprintf("unsupported auth method %q", vc.AuthMethod))
	}
}

func (v *Validator) validateRedis(rc *RedisConfig) {
	if rc == nil {
		v.addError("spec.auth.redis", "redis settings are required for the redis key source")
		return
	}
	if !strings.HasPrefix(rc.URL, "redis://") && !strings.HasPrefix(rc.URL, "rediss://") {
		v.addError("spec.auth.redis.url", "url must use the redis:// or rediss:// scheme")
	}
	if strings.TrimSpace(rc.Key) == "" {
		v.addError("spec.auth.redis.key", "key is required")
	}
	if rc.Timeout < 0 {
		v.addError("spec.auth.redis.timeout", "timeout must not be negative")
	}
}

// validatePrefixes accepts IP literals and CIDR ranges.
func (v *Validator) validatePrefixes(path string, entries []string) {
	for i, e := range entries {
		if _, err := util.ParsePrefix(e); err != nil {
			v.addError(fmt.Sprintf("%s[%d]", path, i), err.Error())
		}
	}
}

func (v *Validator) validateServiceMatchers(matchers []ServiceMatcher) {
	for i, m := range matchers {
		path := fmt.Sprintf("spec.serviceMatchers[%d]", i)
		if err := util.ValidateNonEmpty(m.Name, "name"); err != nil {
			v.addError(path+".name", err.Error())
		}
		if err := util.ValidateRegex(m.Pattern); err != nil {
			v.addError(path+".pattern", err.Error())
		}
	}
}

func (v *Validator) validateObservability(o *ObservabilityConfig) {
	if o.Metrics != nil && o.Metrics.Enabled {
		if err := util.ValidatePort(o.Metrics.Port); err != nil {
			v.addError("spec.observability.metrics.port", err.Error())
		}
		if !strings.HasPrefix(o.Metrics.Path, "/") {
			v.addError("spec.observability.metrics.path", "path must start with '/'")
		}
	}
	if o.Tracing != nil && (o.Tracing.SamplingRate < 0 || o.Tracing.SamplingRate > 1) {
		v.addError("spec.observability.tracing.samplingRate", "samplingRate must be between 0 and 1")
	}
	if o.Logging != nil {
		switch strings.ToLower(o.Logging.Level) {
		case "", "debug", "info", "warn", "error":
		default:
			v.addError("spec.observability.logging.level", fmt.Sprintf("unknown level %q", o.Logging.Level))
		}
		switch o.Logging.Format {
		case "", "json", "console":
		default:
			v.addError("spec.observability.logging.format", fmt.Sprintf("unknown format %q", o.Logging.Format))
		}
	}
}

func (v *Validator) addError(path, message string) {
	v.errors = append(v.errors, ValidationError{Path: path, Message: message})
}

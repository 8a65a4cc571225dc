package secrets

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	vaultapi "github.com/hashicorp/vault/api"

	"github.com/vyrodovalexey/avaguard/internal/observability"
)

// Vault auth methods.
const (
	VaultAuthToken   = "token"
	VaultAuthAppRole = "approle"
)

// Vault defaults.
const (
	DefaultVaultMount        = "secret"
	DefaultVaultAppRoleMount = "approle"
	DefaultVaultTimeout      = 10 * time.Second
)

// VaultProviderConfig configures the Vault credential source.
type VaultProviderConfig struct {
	Address    string
	Namespace  string
	AuthMethod string
	Token      string

	RoleID       string
	SecretID     string
	AppRoleMount string

	// Mount is the KV v2 mount and Path the secret under it.
	Mount string
	Path  string

	Timeout    time.Duration
	MaxRetries int

	CACert     string
	SkipVerify bool
}

// applyVaultProviderDefaults fills in unset fields.
func applyVaultProviderDefaults(cfg *VaultProviderConfig) {
	if cfg.AuthMethod == "" {
		cfg.AuthMethod = VaultAuthToken
	}
	if cfg.Mount == "" {
		cfg.Mount = DefaultVaultMount
	}
	if cfg.AppRoleMount == "" {
		cfg.AppRoleMount = DefaultVaultAppRoleMount
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultVaultTimeout
	}
	cfg.Mount = strings.Trim(cfg.Mount, "/")
	cfg.Path = strings.Trim(cfg.Path, "/")
}

func validateVaultProviderConfig(cfg *VaultProviderConfig) error {
	if cfg.Path == "" {
		return fmt.Errorf("%w: vault secret path is required", ErrProviderNotConfigured)
	}
	switch cfg.AuthMethod {
	case VaultAuthToken:
	case VaultAuthAppRole:
		if cfg.RoleID == "" || cfg.SecretID == "" {
			return fmt.Errorf("%w: approle auth requires roleID and secretID", ErrProviderNotConfigured)
		}
	default:
		return fmt.Errorf("%w: unsupported vault auth method %q", ErrProviderNotConfigured, cfg.AuthMethod)
	}
	return nil
}

// VaultProvider reads the credential set from a KV v2 secret.
type VaultProvider struct {
	client  *vaultapi.Client
	cfg     VaultProviderConfig
	logger  observability.Logger
	metrics *Metrics

	mu       sync.Mutex
	loggedIn bool
}

// VaultOption configures a VaultProvider.
type VaultOption func(*VaultProvider)

// WithLogger sets the logger.
func WithLogger(logger observability.Logger) VaultOption {
	return func(p *VaultProvider) {
		p.logger = logger
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m *Metrics) VaultOption {
	return func(p *VaultProvider) {
		p.metrics = m
	}
}

// NewVaultProvider creates a Vault provider. No request is made until the
// first call to Keys or Health.
func NewVaultProvider(cfg VaultProviderConfig, opts ...VaultOption) (*VaultProvider, error) {
	applyVaultProviderDefaults(&cfg)
	if err := validateVaultProviderConfig(&cfg); err != nil {
		return nil, err
	}

	apiConfig := vaultapi.DefaultConfig()
	if cfg.Address != "" {
		apiConfig.Address = cfg.Address
	}
	apiConfig.Timeout = cfg.Timeout
	apiConfig.MaxRetries = cfg.MaxRetries

	if cfg.CACert != "" || cfg.SkipVerify {
		if err := apiConfig.ConfigureTLS(&vaultapi.TLSConfig{
			CACert:   cfg.CACert,
			Insecure: cfg.SkipVerify,
		}); err != nil {
			return nil, fmt.Errorf("failed to configure vault TLS: %w", err)
		}
	}

	client, err := vaultapi.NewClient(apiConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}
	if cfg.Namespace != "" {
		client.SetNamespace(cfg.Namespace)
	}
	if cfg.AuthMethod == VaultAuthToken && cfg.Token != "" {
		client.SetToken(cfg.Token)
	}

	p := &VaultProvider{
		client: client,
		cfg:    cfg,
		logger: observability.NopLogger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.With(observability.String("component", "secrets.vault"))

	return p, nil
}

// Type returns the provider type.
func (p *VaultProvider) Type() ProviderType {
	return ProviderTypeVault
}

// dataPath returns the KV v2 read path for the configured secret.
func (p *VaultProvider) dataPath() string {
	return p.cfg.Mount + "/data/" + p.cfg.Path
}

// Keys reads the secret and returns its keys, newest first. With AppRole
// auth a 403 triggers one fresh login and a retry.
func (p *VaultProvider) Keys(ctx context.Context) ([]string, error) {
	start := time.Now()
	keys, err := p.readKeys(ctx)
	if err != nil && p.cfg.AuthMethod == VaultAuthAppRole && isPermissionDenied(err) {
		p.resetLogin()
		keys, err = p.readKeys(ctx)
	}
	p.metrics.RecordFetch(p.Type(), len(keys), time.Since(start), err)
	if err != nil {
		p.logger.Error("failed to read backend keys from vault",
			observability.String("path", p.dataPath()),
			observability.Error(err),
		)
		return nil, err
	}

	p.logger.Debug("read backend keys from vault",
		observability.String("path", p.dataPath()),
		observability.Int("keys", len(keys)),
	)
	return keys, nil
}

func (p *VaultProvider) readKeys(ctx context.Context) ([]string, error) {
	if err := p.login(ctx); err != nil {
		return nil, err
	}

	secret, err := p.client.Logical().ReadWithContext(ctx, p.dataPath())
	if err != nil {
		return nil, fmt.Errorf("vault read %s: %w", p.dataPath(), err)
	}
	if secret == nil || secret.Data == nil {
		return nil, fmt.Errorf("%w: %s", ErrSecretNotFound, p.dataPath())
	}

	// A deleted or destroyed version carries data: null.
	data, ok := secret.Data["data"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSecretNotFound, p.dataPath())
	}

	return keysFromData(data)
}

// login performs AppRole authentication once. Token auth is a no-op.
func (p *VaultProvider) login(ctx context.Context) error {
	if p.cfg.AuthMethod != VaultAuthAppRole {
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.loggedIn {
		return nil
	}

	secret, err := p.client.Logical().WriteWithContext(ctx, "auth/"+p.cfg.AppRoleMount+"/login", map[string]any{
		"role_id":   p.cfg.RoleID,
		"secret_id": p.cfg.SecretID,
	})
	if err != nil {
		return fmt.Errorf("approle auth failed: %w", err)
	}
	if secret == nil || secret.Auth == nil || secret.Auth.ClientToken == "" {
		return errors.New("approle auth failed: no client token returned")
	}

	p.client.SetToken(secret.Auth.ClientToken)
	p.loggedIn = true
	p.logger.Info("authenticated with vault",
		observability.String("method", VaultAuthAppRole),
		observability.Int("lease_duration", secret.Auth.LeaseDuration),
	)
	return nil
}

func (p *VaultProvider) resetLogin() {
	p.mu.Lock()
	p.loggedIn = false
	p.mu.Unlock()
}

// Health reports an error when Vault is unreachable, uninitialized or
// sealed.
func (p *VaultProvider) Health(ctx context.Context) error {
	resp, err := p.client.Sys().HealthWithContext(ctx)
	if err != nil {
		return fmt.Errorf("vault health: %w", err)
	}
	if !resp.Initialized {
		return errors.New("vault is not initialized")
	}
	if resp.Sealed {
		return errors.New("vault is sealed")
	}
	return nil
}

func isPermissionDenied(err error) bool {
	var respErr *vaultapi.ResponseError
	return errors.As(err, &respErr) && respErr.StatusCode == http.StatusForbidden
}

package secrets

import (
	"fmt"
)

// Config selects and configures a provider.
type Config struct {
	Type  ProviderType
	Keys  []string
	File  string
	Vault VaultProviderConfig
	Redis RedisProviderConfig
}

// NewProvider creates the provider named by cfg.Type. An empty type means
// static. Options configure the Vault provider; the Redis provider only
// takes the logger from them.
func NewProvider(cfg Config, opts ...VaultOption) (Provider, error) {
	switch cfg.Type {
	case "", ProviderTypeStatic:
		return NewStaticProvider(cfg.Keys), nil
	case ProviderTypeFile:
		return NewFileProvider(cfg.File)
	case ProviderTypeVault:
		return NewVaultProvider(cfg.Vault, opts...)
	case ProviderTypeRedis:
		var o VaultProvider
		for _, opt := range opts {
			opt(&o)
		}
		return NewRedisProvider(cfg.Redis, WithRedisLogger(o.logger))
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidProviderType, cfg.Type)
	}
}

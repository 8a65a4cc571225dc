package secrets

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vyrodovalexey/avaguard/internal/observability"
)

// DefaultRedisTimeout bounds dialing and each command.
const DefaultRedisTimeout = 5 * time.Second

// RedisProviderConfig configures the Redis credential source.
type RedisProviderConfig struct {
	// URL is a redis:// or rediss:// connection string.
	URL string
	// Key names the hash holding the "current" and "retired" fields.
	Key      string
	Password string
	Timeout  time.Duration
}

// RedisProvider reads the credential set from a Redis hash. Several
// gateways can share one hash and pick up a rotation on their next reload.
type RedisProvider struct {
	client *redis.Client
	key    string
	logger observability.Logger
}

// RedisOption is a functional option for the Redis provider.
type RedisOption func(*RedisProvider)

// WithRedisLogger sets the logger for the Redis provider.
func WithRedisLogger(logger observability.Logger) RedisOption {
	return func(p *RedisProvider) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewRedisProvider creates a Redis provider. No connection is made until
// the first call to Keys or Health.
func NewRedisProvider(cfg RedisProviderConfig, opts ...RedisOption) (*RedisProvider, error) {
	if strings.TrimSpace(cfg.Key) == "" {
		return nil, fmt.Errorf("%w: redis key is required", ErrProviderNotConfigured)
	}

	redisOpts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid redis URL: %w", ErrProviderNotConfigured, err)
	}
	if cfg.Password != "" {
		redisOpts.Password = cfg.Password
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultRedisTimeout
	}
	redisOpts.DialTimeout = timeout
	redisOpts.ReadTimeout = timeout
	redisOpts.WriteTimeout = timeout

	p := &RedisProvider{
		client: redis.NewClient(redisOpts),
		key:    cfg.Key,
		logger: observability.NopLogger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.With(observability.String("component", "secrets.redis"))

	return p, nil
}

// Type returns the provider type.
func (p *RedisProvider) Type() ProviderType {
	return ProviderTypeRedis
}

// Keys reads the hash and returns its keys, newest first.
func (p *RedisProvider) Keys(ctx context.Context) ([]string, error) {
	fields, err := p.client.HGetAll(ctx, p.key).Result()
	if err != nil {
		p.logger.Error("failed to read backend keys from redis",
			observability.String("key", p.key),
			observability.Error(err),
		)
		return nil, fmt.Errorf("redis read %s: %w", p.key, err)
	}
	// HGETALL answers an empty map for a missing hash.
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrSecretNotFound, p.key)
	}

	data := make(map[string]any, len(fields))
	for k, v := range fields {
		data[k] = v
	}
	if _, ok := data[FieldCurrent]; !ok {
		data[FieldCurrent] = ""
	}

	keys, err := keysFromData(data)
	if err != nil {
		return nil, err
	}
	p.logger.Debug("read backend keys from redis",
		observability.String("key", p.key),
		observability.Int("keys", len(keys)),
	)
	return keys, nil
}

// Health pings Redis.
func (p *RedisProvider) Health(ctx context.Context) error {
	if err := p.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis health: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (p *RedisProvider) Close() error {
	if err := p.client.Close(); err != nil && !errors.Is(err, redis.ErrClosed) {
		return err
	}
	return nil
}

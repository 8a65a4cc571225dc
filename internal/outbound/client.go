package outbound

import (
	"net"
	"net/http"
	"time"

	"github.com/vyrodovalexey/avaguard/internal/classifier"
)

// Client defaults.
const (
	DefaultTimeout             = 30 * time.Second
	DefaultDialTimeout         = 5 * time.Second
	DefaultMaxIdleConnsPerHost = 32
	DefaultIdleConnTimeout     = 90 * time.Second
)

// ClientConfig configures the HTTP client built by NewClient.
type ClientConfig struct {
	Timeout             time.Duration
	DialTimeout         time.Duration
	MaxIdleConnsPerHost int
	IdleConnTimeout     time.Duration
}

// DefaultClientConfig returns the default client configuration.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		Timeout:             DefaultTimeout,
		DialTimeout:         DefaultDialTimeout,
		MaxIdleConnsPerHost: DefaultMaxIdleConnsPerHost,
		IdleConnTimeout:     DefaultIdleConnTimeout,
	}
}

// NewBaseTransport creates the pooled transport that instrumented clients
// wrap. Zero values in cfg fall back to the defaults.
func NewBaseTransport(cfg ClientConfig) *http.Transport {
	cfg = withDefaults(cfg)
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.DialTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConnsPerHost:   cfg.MaxIdleConnsPerHost,
		IdleConnTimeout:       cfg.IdleConnTimeout,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
}

// NewClient creates an http.Client whose transport is instrumented with c.
// WithBase in opts overrides the pooled transport built from cfg.
func NewClient(cfg ClientConfig, c *classifier.Classifier, opts ...Option) *http.Client {
	cfg = withDefaults(cfg)
	opts = append([]Option{WithBase(NewBaseTransport(cfg))}, opts...)
	return &http.Client{
		Timeout:   cfg.Timeout,
		Transport: NewTransport(c, opts...),
	}
}

func withDefaults(cfg ClientConfig) ClientConfig {
	d := DefaultClientConfig()
	if cfg.Timeout <= 0 {
		cfg.Timeout = d.Timeout
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = d.DialTimeout
	}
	if cfg.MaxIdleConnsPerHost <= 0 {
		cfg.MaxIdleConnsPerHost = d.MaxIdleConnsPerHost
	}
	if cfg.IdleConnTimeout <= 0 {
		cfg.IdleConnTimeout = d.IdleConnTimeout
	}
	return cfg
}

package secrets

import (
	"context"
)

// StaticProvider serves a fixed key list taken from configuration.
type StaticProvider struct {
	keys []string
}

// NewStaticProvider creates a provider for keys, newest first.
func NewStaticProvider(keys []string) *StaticProvider {
	var current string
	var retired []string
	if len(keys) > 0 {
		current, retired = keys[0], keys[1:]
	}
	return &StaticProvider{keys: OrderKeys(current, retired)}
}

// Type returns the provider type.
func (p *StaticProvider) Type() ProviderType {
	return ProviderTypeStatic
}

// Keys returns a copy of the configured keys. An empty list is not an
// error here; the guard decides whether it can run without keys.
func (p *StaticProvider) Keys(_ context.Context) ([]string, error) {
	out := make([]string, len(p.keys))
	copy(out, p.keys)
	return out, nil
}

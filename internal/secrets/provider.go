// Package secrets loads the backend credential set from configuration, a
// local file, or HashiCorp Vault.
package secrets

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ProviderType identifies a credential source.
type ProviderType string

const (
	// ProviderTypeStatic reads keys straight from the gateway configuration.
	ProviderTypeStatic ProviderType = "static"
	// ProviderTypeFile reads keys from a YAML or JSON file.
	ProviderTypeFile ProviderType = "file"
	// ProviderTypeVault reads keys from a Vault KV v2 secret.
	ProviderTypeVault ProviderType = "vault"
	// ProviderTypeRedis reads keys from a Redis hash.
	ProviderTypeRedis ProviderType = "redis"
)

// Well-known secret fields.
const (
	FieldCurrent = "current"
	FieldRetired = "retired"
)

var (
	// ErrSecretNotFound is returned when the secret does not exist.
	ErrSecretNotFound = errors.New("secret not found")
	// ErrProviderNotConfigured is returned when a provider is missing required settings.
	ErrProviderNotConfigured = errors.New("provider not configured")
	// ErrInvalidSecret is returned when the secret data has the wrong shape.
	ErrInvalidSecret = errors.New("invalid secret data")
	// ErrInvalidProviderType is returned for an unknown provider type.
	ErrInvalidProviderType = errors.New("invalid provider type")
)

// Provider yields the ordered credential set, newest first.
type Provider interface {
	Type() ProviderType
	Keys(ctx context.Context) ([]string, error)
}

// OrderKeys builds the credential slice from a current key and the retired
// ones. Blank entries and duplicates are dropped; the first occurrence wins.
func OrderKeys(current string, retired []string) []string {
	keys := make([]string, 0, 1+len(retired))
	seen := make(map[string]struct{}, 1+len(retired))
	add := func(k string) {
		k = strings.TrimSpace(k)
		if k == "" {
			return
		}
		if _, dup := seen[k]; dup {
			return
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}

	add(current)
	for _, k := range retired {
		add(k)
	}
	return keys
}

// SplitList splits a comma-separated key list.
func SplitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return strings.Split(s, ",")
}

// keysFromData interprets a decoded secret document. retired may be a list
// or a comma-separated string.
func keysFromData(data map[string]any) ([]string, error) {
	if data == nil {
		return nil, ErrSecretNotFound
	}

	current, ok := data[FieldCurrent].(string)
	if !ok {
		return nil, fmt.Errorf("%w: %q must be a string", ErrInvalidSecret, FieldCurrent)
	}

	var retired []string
	switch v := data[FieldRetired].(type) {
	case nil:
	case string:
		retired = SplitList(v)
	case []string:
		retired = v
	case []any:
		for i, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%w: %s[%d] must be a string", ErrInvalidSecret, FieldRetired, i)
			}
			retired = append(retired, s)
		}
	default:
		return nil, fmt.Errorf("%w: %q must be a list or a string", ErrInvalidSecret, FieldRetired)
	}

	keys := OrderKeys(current, retired)
	if len(keys) == 0 {
		return nil, fmt.Errorf("%w: no keys present", ErrInvalidSecret)
	}
	return keys, nil
}

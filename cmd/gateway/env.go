package main

import (
	"os"
	"strconv"
	"strings"

	"github.com/vyrodovalexey/avaguard/internal/config"
	"github.com/vyrodovalexey/avaguard/internal/secrets"
)

// Environment variables read by the gateway. GATEWAY_* values override the
// configuration file; VAULT_* values only fill unset Vault settings.
const (
	envConfigPath   = "GATEWAY_CONFIG_PATH"
	envLogLevel     = "GATEWAY_LOG_LEVEL"
	envLogFormat    = "GATEWAY_LOG_FORMAT"
	envEnvironment  = "GATEWAY_ENVIRONMENT"
	envUpstreamURL  = "GATEWAY_UPSTREAM_URL"
	envAuthEnabled  = "GATEWAY_AUTH_ENABLED"
	envBackendKeys  = "GATEWAY_BACKEND_KEYS"
	envAllowlist    = "GATEWAY_AUTH_ALLOWLIST"
	envListenerPort = "GATEWAY_PORT"
	envRedisPass    = "GATEWAY_REDIS_PASSWORD"

	envVaultAddr       = "VAULT_ADDR"
	envVaultToken      = "VAULT_TOKEN"
	envVaultNamespace  = "VAULT_NAMESPACE"
	envVaultCACert     = "VAULT_CACERT"
	envVaultSkipVerify = "VAULT_SKIP_VERIFY"
	envVaultRoleID     = "VAULT_ROLE_ID"
	envVaultSecretID   = "VAULT_SECRET_ID"
)

// getEnvOrDefault returns the environment variable value or a default.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns the environment variable as a boolean or a default.
// Accepts "true", "1", "yes", "on" (case-insensitive) as true values.
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	switch strings.ToLower(value) {
	case "true", "1", "yes", "on":
		return true
	case "false", "0", "no", "off":
		return false
	default:
		return defaultValue
	}
}

func valueOr(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

// applyEnvOverrides applies GATEWAY_* overrides before validation.
func applyEnvOverrides(cfg *config.GatewayConfig) {
	if cfg == nil {
		return
	}
	spec := &cfg.Spec

	if v := os.Getenv(envEnvironment); v != "" {
		spec.Environment = v
	}
	if v := os.Getenv(envUpstreamURL); v != "" {
		spec.Upstream.URL = v
	}
	if v := os.Getenv(envListenerPort); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			spec.Listener.Port = port
		}
	}
	if os.Getenv(envAuthEnabled) != "" {
		enabled := getEnvBool(envAuthEnabled, spec.AuthEnabled())
		spec.Auth.Enabled = &enabled
	}
	if v := os.Getenv(envBackendKeys); v != "" {
		spec.Auth.Source = config.KeySourceStatic
		spec.Auth.Keys = secrets.OrderKeys("", secrets.SplitList(v))
	}
	if v := os.Getenv(envAllowlist); v != "" {
		entries := secrets.SplitList(v)
		for i := range entries {
			entries[i] = strings.TrimSpace(entries[i])
		}
		spec.Auth.Allowlist = entries
	}
	// The Redis password is only filled in, never overridden.
	if rc := spec.Auth.Redis; rc != nil && rc.Password == "" {
		rc.Password = os.Getenv(envRedisPass)
	}
}

// applyVaultEnvDefaults fills unset Vault settings from the standard VAULT_*
// variables.
func applyVaultEnvDefaults(vc *config.VaultConfig) {
	if vc == nil {
		return
	}
	if vc.Address == "" {
		vc.Address = os.Getenv(envVaultAddr)
	}
	if vc.Token == "" {
		vc.Token = os.Getenv(envVaultToken)
	}
	if vc.Namespace == "" {
		vc.Namespace = os.Getenv(envVaultNamespace)
	}
	if vc.CACert == "" {
		vc.CACert = os.Getenv(envVaultCACert)
	}
	if !vc.SkipVerify {
		vc.SkipVerify = getEnvBool(envVaultSkipVerify, false)
	}
	if vc.RoleID == "" {
		vc.RoleID = os.Getenv(envVaultRoleID)
	}
	if vc.SecretID == "" {
		vc.SecretID = os.Getenv(envVaultSecretID)
	}
}

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoader_Load(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "gateway.yaml")
	require.NoError(t, os.WriteFile(path, []byte(validConfigYAML), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "gateway.avaguard.io/v1", cfg.APIVersion)
	assert.Equal(t, "Gateway", cfg.Kind)
	assert.Equal(t, "next-article", cfg.Metadata.Name)
	assert.Equal(t, 8080, cfg.Spec.Listener.Port)
	assert.Equal(t, "http://127.0.0.1:3002", cfg.Spec.Upstream.URL)
	assert.Equal(t, []string{"k2", "k1"}, cfg.Spec.Auth.Keys)
	assert.Equal(t, []string{"10.0.0.0/8", "192.168.1.10"}, cfg.Spec.Auth.Allowlist)
	assert.True(t, cfg.Spec.AuthEnabled())
	assert.Equal(t, KeySourceStatic, cfg.Spec.Auth.Source, "defaults are applied")
	require.NoError(t, ValidateConfig(cfg))
}

func TestLoader_Load_FileNotFound(t *testing.T) {
	t.Parallel()

	_, err := LoadConfig("/nonexistent/path/gateway.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoader_LoadFromReader(t *testing.T) {
	t.Parallel()

	t.Run("valid", func(t *testing.T) {
		cfg, err := LoadConfigFromReader(strings.NewReader(validConfigYAML))
		require.NoError(t, err)
		assert.Equal(t, "next-article", cfg.Metadata.Name)
	})

	t.Run("empty document", func(t *testing.T) {
		_, err := LoadConfigFromReader(strings.NewReader(""))
		assert.EqualError(t, err, "configuration is empty")
	})

	t.Run("malformed yaml", func(t *testing.T) {
		_, err := LoadConfigFromReader(strings.NewReader("spec: [unclosed"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse YAML")
	})

	t.Run("unknown field", func(t *testing.T) {
		_, err := LoadConfigFromReader(strings.NewReader("spec:\n  listner:\n    port: 1\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "listner")
	})

	t.Run("durations", func(t *testing.T) {
		cfg, err := LoadConfigFromReader(strings.NewReader(`
spec:
  listener:
    shutdownTimeout: 5s
  upstream:
    timeout: 2
  auth:
    denialAlert:
      rate: 10
      interval: 30s
`))
		require.NoError(t, err)
		assert.Equal(t, 5*time.Second, cfg.Spec.Listener.ShutdownTimeout.Duration())
		assert.Equal(t, 2*time.Second, cfg.Spec.Upstream.Timeout.Duration())
		assert.Equal(t, 30*time.Second, cfg.Spec.Auth.DenialAlert.Interval.Duration())
	})
}

func TestLoader_SubstituteEnvVars(t *testing.T) {
	t.Parallel()

	env := map[string]string{
		"BACKEND_KEY": "k2",
		"EMPTY":       "",
	}
	l := &Loader{lookupEnv: func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}}

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "set", input: "${BACKEND_KEY}", want: "k2"},
		{name: "set ignores default", input: "${BACKEND_KEY:-other}", want: "k2"},
		{name: "unset uses default", input: "${ENVIRONMENT:-development}", want: "development"},
		{name: "unset without default", input: "[${MISSING}]", want: "[]"},
		{name: "set but empty beats default", input: "${EMPTY:-x}", want: ""},
		{name: "escaped dollar", input: "$${BACKEND_KEY}", want: "${BACKEND_KEY}"},
		{name: "plain text", input: "no variables", want: "no variables"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, l.substituteEnvVars(tt.input))
		})
	}
}

func TestLoader_OptionalKeysAreDropped(t *testing.T) {
	t.Parallel()

	l := &Loader{lookupEnv: func(k string) (string, bool) {
		if k == "BACKEND_KEY" {
			return "k2", true
		}
		return "", false
	}}

	cfg, err := l.LoadFromReader(strings.NewReader(`
spec:
  auth:
    keys: ["${BACKEND_KEY}", "${BACKEND_KEY_OLD:-}"]
`))
	require.NoError(t, err)
	assert.Equal(t, []string{"k2"}, cfg.Spec.Auth.Keys)
}

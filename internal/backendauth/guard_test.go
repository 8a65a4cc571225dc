package backendauth

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/vyrodovalexey/avaguard/internal/observability"
	"github.com/vyrodovalexey/avaguard/internal/util"
)

func headers(kv ...string) http.Header {
	h := http.Header{}
	for i := 0; i+1 < len(kv); i += 2 {
		h.Set(kv[i], kv[i+1])
	}
	return h
}

func newTestGuard(t *testing.T, cfg Config) *Guard {
	t.Helper()
	g, err := New(cfg)
	require.NoError(t, err)
	return g
}

func TestNew_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cfg     Config
		wantErr error
	}{
		{
			name:    "enabled without keys",
			cfg:     Config{Enabled: true},
			wantErr: ErrEmptyCredentialSet,
		},
		{
			name:    "enabled with blank key",
			cfg:     Config{Enabled: true, Keys: []string{""}},
			wantErr: ErrEmptyCredential,
		},
		{
			name:    "malformed allowlist while enabled",
			cfg:     Config{Enabled: true, Keys: []string{"k1"}, Allowlist: []string{"nope"}},
			wantErr: ErrInvalidAllowlistEntry,
		},
		{
			name:    "malformed allowlist while disabled",
			cfg:     Config{Allowlist: []string{"300.0.0.1"}},
			wantErr: ErrInvalidAllowlistEntry,
		},
		{
			name:    "hop-by-hop probe header",
			cfg:     Config{Enabled: true, Keys: []string{"k1"}, Probes: []Probe{{Header: "Connection"}}},
			wantErr: util.ErrConfigInvalid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			g, err := New(tt.cfg)
			require.Error(t, err)
			assert.Nil(t, g)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.ErrorIs(t, err, util.ErrConfigInvalid)
		})
	}
}

func TestNew_DisabledWithoutKeys(t *testing.T) {
	t.Parallel()

	g, err := New(Config{Enabled: false})
	require.NoError(t, err)
	assert.False(t, g.Enabled())
}

func TestNew_DisabledLogsWarningOnce(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)
	logger := observability.NewLoggerFromZap(zap.New(core))

	g, err := New(Config{Enabled: false, Keys: []string{"k1"}}, WithLogger(logger))
	require.NoError(t, err)

	for range 5 {
		g.Evaluate(Request{Path: "/content", Header: http.Header{}})
	}

	warnings := logs.FilterLevelExact(zapcore.WarnLevel).FilterMessage("backend authentication disabled")
	assert.Equal(t, 1, warnings.Len())
}

func TestNew_WithoutStartupNotice(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)
	logger := observability.NewLoggerFromZap(zap.New(core))

	_, err := New(Config{Enabled: false}, WithLogger(logger))
	require.NoError(t, err)
	for range 3 {
		g, err := New(Config{Enabled: false}, WithLogger(logger), WithoutStartupNotice())
		require.NoError(t, err)
		assert.False(t, g.Enabled())
	}

	assert.Equal(t, 1, logs.FilterLevelExact(zapcore.WarnLevel).Len())
	assert.Equal(t, 3, logs.FilterLevelExact(zapcore.DebugLevel).
		FilterMessage("backend authentication disabled").Len())
}

func TestNew_EnabledDoesNotWarn(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)
	logger := observability.NewLoggerFromZap(zap.New(core))

	_, err := New(Config{Enabled: true, Keys: []string{"k1"}}, WithLogger(logger))
	require.NoError(t, err)

	assert.Equal(t, 0, logs.FilterLevelExact(zapcore.WarnLevel).Len())
	assert.Equal(t, 1, logs.FilterMessage("backend authentication enabled").Len())
}

func TestGuard_Evaluate_Enabled(t *testing.T) {
	t.Parallel()

	g := newTestGuard(t, Config{
		Enabled:   true,
		Keys:      []string{"k2", "k1"},
		Allowlist: []string{"10.0.0.0/8"},
	})

	tests := []struct {
		name              string
		req               Request
		wantAllowed       bool
		wantReason        Reason
		wantAuthenticated bool
		wantHeader        string
	}{
		{
			name:              "current key in current header",
			req:               Request{Path: "/content", Header: headers(HeaderBackendKey, "k2")},
			wantAllowed:       true,
			wantReason:        ReasonValidCurrentKey,
			wantAuthenticated: true,
			wantHeader:        HeaderBackendKey,
		},
		{
			name:              "old key in current header",
			req:               Request{Path: "/content", Header: headers(HeaderBackendKey, "k1")},
			wantAllowed:       true,
			wantReason:        ReasonValidOldKey,
			wantAuthenticated: true,
			wantHeader:        HeaderBackendKey,
		},
		{
			name:              "current key in old slot",
			req:               Request{Path: "/content", Header: headers(HeaderBackendKeyOld, "k2")},
			wantAllowed:       true,
			wantReason:        ReasonValidCurrentKey,
			wantAuthenticated: true,
			wantHeader:        HeaderBackendKeyOld,
		},
		{
			name:              "legacy header",
			req:               Request{Path: "/content", Header: headers(HeaderLegacyBackendKey, "k2")},
			wantAllowed:       true,
			wantReason:        ReasonValidCurrentKey,
			wantAuthenticated: true,
			wantHeader:        HeaderLegacyBackendKey,
		},
		{
			name:              "legacy old slot with old key",
			req:               Request{Path: "/content", Header: headers(HeaderLegacyBackendKeyOld, "k1")},
			wantAllowed:       true,
			wantReason:        ReasonValidOldKey,
			wantAuthenticated: true,
			wantHeader:        HeaderLegacyBackendKeyOld,
		},
		{
			name: "newest key wins across probes",
			req: Request{Path: "/content", Header: headers(
				HeaderBackendKey, "k1",
				HeaderLegacyBackendKey, "k2",
			)},
			wantAllowed:       true,
			wantReason:        ReasonValidCurrentKey,
			wantAuthenticated: true,
			wantHeader:        HeaderLegacyBackendKey,
		},
		{
			name: "wrong key in one header, valid in another",
			req: Request{Path: "/content", Header: headers(
				HeaderBackendKey, "wrong",
				HeaderBackendKeyOld, "k1",
			)},
			wantAllowed:       true,
			wantReason:        ReasonValidOldKey,
			wantAuthenticated: true,
			wantHeader:        HeaderBackendKeyOld,
		},
		{
			name:       "wrong key",
			req:        Request{Path: "/content", Header: headers(HeaderBackendKey, "wrong")},
			wantReason: ReasonDenied,
		},
		{
			name:       "no headers",
			req:        Request{Path: "/content", Header: http.Header{}},
			wantReason: ReasonDenied,
		},
		{
			name:       "nil headers",
			req:        Request{Path: "/content"},
			wantReason: ReasonDenied,
		},
		{
			name:       "key in unrecognized header",
			req:        Request{Path: "/content", Header: headers("X-Api-Key", "k2")},
			wantReason: ReasonDenied,
		},
		{
			name:              "allowlisted address without key",
			req:               Request{Path: "/content", Header: http.Header{}, ClientAddr: "10.1.1.1"},
			wantAllowed:       true,
			wantReason:        ReasonAllowlistedIP,
			wantAuthenticated: true,
		},
		{
			name: "allowlist checked before keys",
			req: Request{
				Path:       "/content",
				Header:     headers(HeaderBackendKey, "k2"),
				ClientAddr: "10.1.1.1",
			},
			wantAllowed:       true,
			wantReason:        ReasonAllowlistedIP,
			wantAuthenticated: true,
		},
		{
			name:       "address outside allowlist",
			req:        Request{Path: "/content", Header: http.Header{}, ClientAddr: "192.0.2.1"},
			wantReason: ReasonDenied,
		},
		{
			name:        "exempt route without credentials",
			req:         Request{Path: "/__about", Header: http.Header{}},
			wantAllowed: true,
			wantReason:  ReasonBypassedRoute,
		},
		{
			name:              "exempt route with valid key",
			req:               Request{Path: "/__health", Header: headers(HeaderBackendKey, "k1")},
			wantAllowed:       true,
			wantReason:        ReasonBypassedRoute,
			wantAuthenticated: true,
			wantHeader:        HeaderBackendKey,
		},
		{
			name:              "exempt route from allowlisted address",
			req:               Request{Path: "/__gtg", ClientAddr: "10.9.9.9"},
			wantAllowed:       true,
			wantReason:        ReasonBypassedRoute,
			wantAuthenticated: true,
		},
		{
			name:       "single underscore is not exempt",
			req:        Request{Path: "/_about", Header: http.Header{}},
			wantReason: ReasonDenied,
		},
		{
			name:       "double underscore in later segment is not exempt",
			req:        Request{Path: "/content/__about", Header: http.Header{}},
			wantReason: ReasonDenied,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			d := g.Evaluate(tt.req)
			assert.Equal(t, tt.wantAllowed, d.Allowed)
			assert.Equal(t, tt.wantReason, d.Reason, "got %s", d.Reason)
			assert.Equal(t, tt.wantAuthenticated, d.Authenticated)
			assert.Equal(t, tt.wantHeader, d.Header)
		})
	}
}

func TestGuard_Evaluate_AnyRetiredKey(t *testing.T) {
	t.Parallel()

	g := newTestGuard(t, Config{Enabled: true, Keys: []string{"k3", "k2", "k1"}})

	for _, header := range []string{HeaderBackendKey, HeaderLegacyBackendKey, HeaderLegacyBackendKeyOld} {
		t.Run(header, func(t *testing.T) {
			t.Parallel()

			d := g.Evaluate(Request{Path: "/content", Header: headers(header, "k1")})
			assert.True(t, d.Allowed)
			assert.Equal(t, ReasonValidOldKey, d.Reason)
			assert.Equal(t, "true", d.AuditValue())
			assert.Equal(t, header, d.Header)
		})
	}
}

func TestGuard_Evaluate_Disabled(t *testing.T) {
	t.Parallel()

	g := newTestGuard(t, Config{
		Enabled:   false,
		Keys:      []string{"k2", "k1"},
		Allowlist: []string{"10.0.0.0/8"},
	})

	tests := []struct {
		name              string
		req               Request
		wantReason        Reason
		wantAuthenticated bool
	}{
		{
			name:       "no credentials",
			req:        Request{Path: "/content", Header: http.Header{}},
			wantReason: ReasonDisabled,
		},
		{
			name:       "wrong key",
			req:        Request{Path: "/content", Header: headers(HeaderBackendKey, "wrong")},
			wantReason: ReasonDisabled,
		},
		{
			name:              "valid key still audited",
			req:               Request{Path: "/content", Header: headers(HeaderBackendKey, "k1")},
			wantReason:        ReasonDisabled,
			wantAuthenticated: true,
		},
		{
			name:              "allowlisted address still audited",
			req:               Request{Path: "/content", ClientAddr: "10.0.0.5"},
			wantReason:        ReasonDisabled,
			wantAuthenticated: true,
		},
		{
			name:       "exempt route reports bypass",
			req:        Request{Path: "/__gtg", Header: http.Header{}},
			wantReason: ReasonBypassedRoute,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			d := g.Evaluate(tt.req)
			assert.True(t, d.Allowed)
			assert.Equal(t, tt.wantReason, d.Reason)
			assert.Equal(t, tt.wantAuthenticated, d.Authenticated)
		})
	}
}

func TestGuard_Evaluate_CustomProbes(t *testing.T) {
	t.Parallel()

	g := newTestGuard(t, Config{
		Enabled: true,
		Keys:    []string{"k1"},
		Probes:  []Probe{{Header: "X-Internal-Key", Style: HeaderStyleCurrent}},
	})

	d := g.Evaluate(Request{Path: "/", Header: headers("X-Internal-Key", "k1")})
	assert.True(t, d.Allowed)
	assert.Equal(t, ReasonValidCurrentKey, d.Reason)

	d = g.Evaluate(Request{Path: "/", Header: headers(HeaderBackendKey, "k1")})
	assert.False(t, d.Allowed)
}

func TestGuard_Evaluate_Deterministic(t *testing.T) {
	t.Parallel()

	g := newTestGuard(t, Config{Enabled: true, Keys: []string{"k2", "k1"}})
	req := Request{Path: "/content", Header: headers(HeaderBackendKey, "k1")}

	first := g.Evaluate(req)
	for range 100 {
		assert.Equal(t, first, g.Evaluate(req))
	}
}

func TestIsExemptPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		want bool
	}{
		{path: "/__health", want: true},
		{path: "/__about", want: true},
		{path: "/__gtg/deep", want: true},
		{path: "/__", want: true},
		{path: "__health", want: true},
		{path: "/_health", want: false},
		{path: "/health", want: false},
		{path: "/a/__health", want: false},
		{path: "/", want: false},
		{path: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, IsExemptPath(tt.path))
		})
	}
}

func TestReason_String(t *testing.T) {
	t.Parallel()

	want := map[Reason]string{
		ReasonDenied:          "denied",
		ReasonBypassedRoute:   "bypassed_route",
		ReasonValidCurrentKey: "valid_current_key",
		ReasonValidOldKey:     "valid_old_key",
		ReasonAllowlistedIP:   "allowlisted_ip",
		ReasonDisabled:        "disabled",
	}
	for r, s := range want {
		assert.Equal(t, s, r.String())
	}
	assert.Len(t, allReasons, len(want))
}

func TestDecision_AuditValue(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "true", Decision{Authenticated: true}.AuditValue())
	assert.Equal(t, "false", Decision{Allowed: true, Reason: ReasonBypassedRoute}.AuditValue())
}

func TestDefaultProbes(t *testing.T) {
	t.Parallel()

	probes := DefaultProbes()
	require.Len(t, probes, 4)
	assert.Equal(t, Probe{Header: HeaderBackendKey, Style: HeaderStyleCurrent}, probes[0])
	assert.Equal(t, Probe{Header: HeaderLegacyBackendKeyOld, Style: HeaderStyleLegacy}, probes[3])
	assert.Equal(t, "legacy", probes[2].Style.String())
	assert.Equal(t, "current", probes[1].Style.String())
}

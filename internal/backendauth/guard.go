package backendauth

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/vyrodovalexey/avaguard/internal/observability"
	"github.com/vyrodovalexey/avaguard/internal/util"
)

// exemptPrefix marks operational routes (health, about, good-to-go) that
// stay reachable even when the authentication setup itself is broken.
const exemptPrefix = "__"

// Config configures a Guard.
type Config struct {
	// Enabled turns enforcement on. When false every request is allowed.
	Enabled bool

	// Keys is the credential set, newest first.
	Keys []string

	// Allowlist holds IP addresses and CIDR ranges exempt from key checks.
	Allowlist []string

	// Probes overrides the headers inspected for keys. Nil means DefaultProbes.
	Probes []Probe
}

// Request is the part of an inbound request the guard looks at.
type Request struct {
	Path   string
	Header http.Header

	// ClientAddr is the client address as resolved by the trusted proxy
	// chain, never a raw forwarding header.
	ClientAddr string
}

// Evaluator produces a Decision for a request.
type Evaluator interface {
	Evaluate(req Request) Decision
}

// Guard is an immutable request evaluator.
type Guard struct {
	enabled     bool
	credentials *CredentialSet
	allowlist   *Allowlist
	probes      []Probe
	logger      observability.Logger
	quiet       bool
}

// Option is a functional option for the guard.
type Option func(*Guard)

// WithLogger sets the logger for the guard.
func WithLogger(logger observability.Logger) Option {
	return func(g *Guard) {
		g.logger = logger
	}
}

// WithoutStartupNotice logs the enforcement state at debug level. Reloads
// use it so the disabled warning is only raised once, at startup.
func WithoutStartupNotice() Option {
	return func(g *Guard) {
		g.quiet = true
	}
}

// New builds a Guard. With enforcement on, an empty credential set is a
// configuration error; a malformed allowlist entry is always one. A guard
// built with enforcement off logs a single warning.
func New(cfg Config, opts ...Option) (*Guard, error) {
	g := &Guard{
		enabled: cfg.Enabled,
		probes:  cfg.Probes,
		logger:  observability.NopLogger(),
	}
	for _, opt := range opts {
		opt(g)
	}
	if len(g.probes) == 0 {
		g.probes = DefaultProbes()
	}
	for i, p := range g.probes {
		if err := util.ValidateHeaderName(p.Header); err != nil {
			return nil, util.NewConfigurationErrorWithCause(fmt.Sprintf("probes[%d]", i), "unusable probe header", err)
		}
	}

	// Keys are still honored for the audit header when enforcement is off,
	// but only an enforcing guard requires a usable set.
	credentials, err := NewCredentialSet(cfg.Keys)
	switch {
	case err == nil:
		g.credentials = credentials
	case cfg.Enabled:
		return nil, err
	}

	allowlist, err := NewAllowlist(cfg.Allowlist)
	if err != nil {
		return nil, err
	}
	g.allowlist = allowlist

	g.logState()

	return g, nil
}

func (g *Guard) logState() {
	keys := observability.Int("keys", g.credentials.Len())
	switch {
	case g.quiet && !g.enabled:
		g.logger.Debug("backend authentication disabled", keys)
	case !g.enabled:
		g.logger.Warn("backend authentication disabled", keys)
	case g.quiet:
		g.logger.Debug("backend authentication enabled", keys)
	default:
		g.logger.Info("backend authentication enabled",
			keys,
			observability.Int("allowlist_entries", g.allowlist.Len()),
		)
	}
}

// Enabled reports whether the guard enforces authentication.
func (g *Guard) Enabled() bool {
	return g.enabled
}

// Evaluate decides whether req may proceed. The first matching rule wins:
// exempt route, disabled guard, allowlisted client, valid key, deny.
func (g *Guard) Evaluate(req Request) Decision {
	proof := g.authenticate(req)

	switch {
	case IsExemptPath(req.Path):
		return Decision{
			Allowed:       true,
			Reason:        ReasonBypassedRoute,
			Authenticated: proof.Authenticated,
			Header:        proof.Header,
		}
	case !g.enabled:
		return Decision{
			Allowed:       true,
			Reason:        ReasonDisabled,
			Authenticated: proof.Authenticated,
			Header:        proof.Header,
		}
	case proof.Authenticated:
		return proof
	default:
		return Decision{Reason: ReasonDenied}
	}
}

// authenticate checks the allowlist and then every probe header. All probes
// are compared even after a match; the newest matching key decides between
// current and old.
func (g *Guard) authenticate(req Request) Decision {
	if g.allowlist.Contains(req.ClientAddr) {
		return Decision{Allowed: true, Reason: ReasonAllowlistedIP, Authenticated: true}
	}

	best := -1
	header := ""
	for _, probe := range g.probes {
		for _, value := range req.Header.Values(probe.Header) {
			index, ok := g.credentials.Match(value)
			if ok && (best < 0 || index < best) {
				best = index
				header = probe.Header
			}
		}
	}

	switch {
	case best == 0:
		return Decision{Allowed: true, Reason: ReasonValidCurrentKey, Authenticated: true, Header: header}
	case best > 0:
		return Decision{Allowed: true, Reason: ReasonValidOldKey, Authenticated: true, Header: header}
	default:
		return Decision{Reason: ReasonDenied}
	}
}

// IsExemptPath reports whether the first path segment starts with two
// underscores.
func IsExemptPath(path string) bool {
	return strings.HasPrefix(strings.TrimPrefix(path, "/"), exemptPrefix)
}

// Ensure Guard implements Evaluator.
var _ Evaluator = (*Guard)(nil)

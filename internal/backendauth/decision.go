package backendauth

// Reason explains why a Decision was reached.
type Reason int

// Decision reasons.
const (
	ReasonDenied Reason = iota
	ReasonBypassedRoute
	ReasonValidCurrentKey
	ReasonValidOldKey
	ReasonAllowlistedIP
	ReasonDisabled
)

// String returns the snake_case form used in logs and metric labels.
func (r Reason) String() string {
	switch r {
	case ReasonBypassedRoute:
		return "bypassed_route"
	case ReasonValidCurrentKey:
		return "valid_current_key"
	case ReasonValidOldKey:
		return "valid_old_key"
	case ReasonAllowlistedIP:
		return "allowlisted_ip"
	case ReasonDisabled:
		return "disabled"
	default:
		return "denied"
	}
}

// allReasons lists every reason, used to pre-initialize metric labels.
var allReasons = []Reason{
	ReasonDenied,
	ReasonBypassedRoute,
	ReasonValidCurrentKey,
	ReasonValidOldKey,
	ReasonAllowlistedIP,
	ReasonDisabled,
}

// Decision is the outcome of evaluating one request.
//
// Allowed says whether the request may proceed. Authenticated says whether
// the caller proved itself through the allowlist or a valid key, regardless
// of whether that proof was needed; it drives the audit response header.
type Decision struct {
	Allowed       bool
	Reason        Reason
	Authenticated bool

	// Header is the probe header that carried the matching key, if any.
	Header string
}

// AuditValue returns the audit header value for the decision.
func (d Decision) AuditValue() string {
	if d.Authenticated {
		return "true"
	}
	return "false"
}

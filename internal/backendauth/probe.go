package backendauth

// Header names recognized by the guard.
const (
	// HeaderBackendKey carries a key in the current header style.
	HeaderBackendKey = "X-Backend-Key"

	// HeaderBackendKeyOld is the current-style slot for callers still
	// sending the previous key generation.
	HeaderBackendKeyOld = "X-Backend-Key-Old"

	// HeaderLegacyBackendKey carries a key in the legacy header style.
	HeaderLegacyBackendKey = "FT-Next-Backend-Key"

	// HeaderLegacyBackendKeyOld is the legacy-style old-key slot.
	HeaderLegacyBackendKeyOld = "FT-Next-Backend-Key-Old"

	// HeaderAuditResult is set on every response to "true" or "false".
	HeaderAuditResult = "FT-Backend-Authentication"
)

// HeaderStyle distinguishes the two supported header naming schemes.
type HeaderStyle int

// Header styles.
const (
	HeaderStyleCurrent HeaderStyle = iota
	HeaderStyleLegacy
)

// String returns the style name.
func (s HeaderStyle) String() string {
	if s == HeaderStyleLegacy {
		return "legacy"
	}
	return "current"
}

// Probe is one request header inspected for a key. Any probe may carry any
// key of the credential set; the style only records which naming scheme the
// caller used.
type Probe struct {
	Header string
	Style  HeaderStyle
}

// DefaultProbes returns the probe headers in evaluation order.
func DefaultProbes() []Probe {
	return []Probe{
		{Header: HeaderBackendKey, Style: HeaderStyleCurrent},
		{Header: HeaderBackendKeyOld, Style: HeaderStyleCurrent},
		{Header: HeaderLegacyBackendKey, Style: HeaderStyleLegacy},
		{Header: HeaderLegacyBackendKeyOld, Style: HeaderStyleLegacy},
	}
}

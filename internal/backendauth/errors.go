package backendauth

import "errors"

// Sentinel errors wrapped by the ConfigurationError values returned from New.
var (
	// ErrEmptyCredentialSet indicates authentication is enabled without keys.
	ErrEmptyCredentialSet = errors.New("credential set is empty")

	// ErrEmptyCredential indicates a blank entry in the credential set.
	ErrEmptyCredential = errors.New("credential is empty")

	// ErrInvalidAllowlistEntry indicates an entry that is neither an IP
	// address nor a CIDR range.
	ErrInvalidAllowlistEntry = errors.New("invalid allowlist entry")
)

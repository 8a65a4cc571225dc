// Package util provides shared error types and validation helpers.
//
// # Errors
//
// Sentinels such as ErrConfigInvalid name stable conditions checked with
// errors.Is. ConfigurationError carries the offending field and matches
// ErrConfigInvalid; ad-hoc context is added with fmt.Errorf and %w.
//
// # Validation
//
// Helpers for URLs, ports, header names and values, and patterns:
//
//	err := util.ValidateURL("https://example.com")
//	err := util.ValidateHeaderName("X-Backend-Key")
//
// # Addresses
//
// ParsePrefix accepts an IP literal or a CIDR range. The allowlist and the
// trusted proxy list both parse their entries with it.
package util

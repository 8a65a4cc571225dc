// Package middleware provides the gin middleware that wraps every request
// handled by the gateway: panic recovery, request IDs and access logging,
// security response headers, request metrics and client address resolution.
package middleware

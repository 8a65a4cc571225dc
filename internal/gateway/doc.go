// Package gateway wires the inbound HTTP pipeline: recovery, request IDs,
// access logs, security headers, metrics, tracing and backend
// authentication in front of the operational routes and the reverse
// proxy to the upstream application.
package gateway

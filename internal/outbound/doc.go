// Package outbound provides an instrumented HTTP client for calls the
// gateway makes to other services.
//
// Every request is classified into a service name, traced as a client span
// and, when the service is known, counted and timed under that name.
// Instrumentation never changes the outcome of the call: the wrapped
// transport's response and error are returned unchanged.
package outbound

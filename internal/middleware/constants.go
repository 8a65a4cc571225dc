package middleware

// HTTP header constants.
const (
	// HeaderXRequestID is the X-Request-ID header name.
	HeaderXRequestID = "X-Request-ID"

	// HeaderXForwardedFor is the X-Forwarded-For header name.
	HeaderXForwardedFor = "X-Forwarded-For"
)

// Gin context keys.
const (
	// RequestIDKey is the gin context key for the request ID.
	RequestIDKey = "requestID"

	// RouteKey lets handlers without a gin route pattern name their
	// route for metrics.
	RouteKey = "route"
)

// unmatchedRoute is the route label for requests gin could not match to a
// registered route pattern.
const unmatchedRoute = "unmatched"

// errInternalServer is the body written after a recovered panic.
const errInternalServer = `{"error":"internal server error"}`

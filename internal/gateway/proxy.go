package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httputil"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vyrodovalexey/avaguard/internal/backendauth"
	"github.com/vyrodovalexey/avaguard/internal/classifier"
	"github.com/vyrodovalexey/avaguard/internal/middleware"
	"github.com/vyrodovalexey/avaguard/internal/observability"
	"github.com/vyrodovalexey/avaguard/internal/outbound"
)

// RouteUpstream labels proxied requests in metrics and spans.
const RouteUpstream = "upstream"

// Bodies written when the upstream call fails.
const (
	errBadGateway     = `{"error":"bad gateway","message":"failed to proxy request"}`
	errGatewayTimeout = `{"error":"gateway timeout","message":"upstream did not respond in time"}`
	errUnavailable    = `{"error":"service unavailable","message":"upstream circuit breaker is open"}`
)

// Proxy forwards requests to the single upstream application.
type Proxy struct {
	target       *url.URL
	proxy        *httputil.ReverseProxy
	logger       observability.Logger
	transport    http.RoundTripper
	timeout      time.Duration
	stripHeaders []string
}

// ProxyOption is a functional option for configuring the proxy.
type ProxyOption func(*Proxy)

// WithProxyLogger sets the logger for the proxy.
func WithProxyLogger(logger observability.Logger) ProxyOption {
	return func(p *Proxy) {
		p.logger = logger
	}
}

// WithTransport sets the transport for upstream calls.
func WithTransport(transport http.RoundTripper) ProxyOption {
	return func(p *Proxy) {
		p.transport = transport
	}
}

// WithUpstreamTimeout bounds each upstream call.
func WithUpstreamTimeout(timeout time.Duration) ProxyOption {
	return func(p *Proxy) {
		p.timeout = timeout
	}
}

// WithStripHeaders replaces the request headers removed before forwarding.
// By default the backend key headers are removed so credentials never reach
// the upstream.
func WithStripHeaders(headers ...string) ProxyOption {
	return func(p *Proxy) {
		p.stripHeaders = headers
	}
}

// NewProxy creates a proxy for rawURL.
func NewProxy(rawURL string, opts ...ProxyOption) (*Proxy, error) {
	target, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid upstream URL: %w", err)
	}
	if target.Scheme == "" || target.Host == "" {
		return nil, fmt.Errorf("invalid upstream URL %q: scheme and host are required", rawURL)
	}

	p := &Proxy{
		target: target,
		logger: observability.NopLogger(),
	}
	for _, probe := range backendauth.DefaultProbes() {
		p.stripHeaders = append(p.stripHeaders, probe.Header)
	}

	for _, opt := range opts {
		opt(p)
	}

	p.proxy = &httputil.ReverseProxy{
		Director:       p.director,
		Transport:      p.transport,
		FlushInterval:  -1,
		ErrorHandler:   p.errorHandler,
		ModifyResponse: p.modifyResponse,
	}

	return p, nil
}

// Target returns the upstream URL.
func (p *Proxy) Target() *url.URL {
	u := *p.target
	return &u
}

// ServeHTTP implements http.Handler.
func (p *Proxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if p.timeout > 0 {
		ctx, cancel := context.WithTimeout(r.Context(), p.timeout)
		defer cancel()
		r = r.WithContext(ctx)
	}
	p.proxy.ServeHTTP(w, r)
}

// Handler returns the gin handler used for every non-operational route.
// The authentication outcome is forwarded to the upstream in the audit
// header.
func (p *Proxy) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.RouteKey, RouteUpstream)
		if d, ok := backendauth.DecisionFromContext(c); ok {
			c.Request.Header.Set(backendauth.HeaderAuditResult, d.AuditValue())
		} else {
			c.Request.Header.Del(backendauth.HeaderAuditResult)
		}
		p.ServeHTTP(c.Writer, c.Request)
	}
}

// director rewrites the outbound request to the upstream. X-Forwarded-For
// is appended by httputil.ReverseProxy itself.
func (p *Proxy) director(req *http.Request) {
	originalHost := req.Host

	req.URL.Scheme = p.target.Scheme
	req.URL.Host = p.target.Host
	req.URL.Path, req.URL.RawPath = joinURLPath(p.target, req.URL)
	switch {
	case p.target.RawQuery == "":
	case req.URL.RawQuery == "":
		req.URL.RawQuery = p.target.RawQuery
	default:
		req.URL.RawQuery = p.target.RawQuery + "&" + req.URL.RawQuery
	}

	for _, h := range p.stripHeaders {
		req.Header.Del(h)
	}

	if req.TLS != nil {
		req.Header.Set("X-Forwarded-Proto", "https")
	} else {
		req.Header.Set("X-Forwarded-Proto", "http")
	}
	req.Header.Set("X-Forwarded-Host", originalHost)

	req.Host = p.target.Host
}

// modifyResponse drops an audit header set by the upstream so the
// gateway's own value is the only one the caller sees.
func (p *Proxy) modifyResponse(resp *http.Response) error {
	resp.Header.Del(backendauth.HeaderAuditResult)
	return nil
}

func (p *Proxy) errorHandler(w http.ResponseWriter, r *http.Request, err error) {
	logger := p.logger.WithContext(r.Context())
	fields := []observability.Field{
		observability.String("path", r.URL.Path),
		observability.String("method", r.Method),
		observability.Error(err),
	}

	// The transport does not always wrap the context error.
	ctxErr := r.Context().Err()

	status, body := http.StatusBadGateway, errBadGateway
	switch {
	case errors.Is(err, context.Canceled) || errors.Is(ctxErr, context.Canceled):
		logger.Debug("client canceled upstream request", fields...)
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctxErr, context.DeadlineExceeded):
		status, body = http.StatusGatewayTimeout, errGatewayTimeout
		logger.Error("upstream request timed out", fields...)
	case errors.Is(err, outbound.ErrCircuitOpen):
		status, body = http.StatusServiceUnavailable, errUnavailable
		logger.Warn("upstream circuit breaker open", fields...)
	default:
		logger.Error("proxy error", fields...)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

// joinURLPath joins the target's base path with the request path.
func joinURLPath(a, b *url.URL) (path, rawpath string) {
	if a.RawPath == "" && b.RawPath == "" {
		return singleJoiningSlash(a.Path, b.Path), ""
	}

	apath := a.EscapedPath()
	bpath := b.EscapedPath()

	aslash := strings.HasSuffix(apath, "/")
	bslash := strings.HasPrefix(bpath, "/")

	switch {
	case aslash && bslash:
		return a.Path + b.Path[1:], apath + bpath[1:]
	case !aslash && !bslash:
		return a.Path + "/" + b.Path, apath + "/" + bpath
	}
	return a.Path + b.Path, apath + bpath
}

func singleJoiningSlash(a, b string) string {
	aslash := strings.HasSuffix(a, "/")
	bslash := strings.HasPrefix(b, "/")
	switch {
	case aslash && bslash:
		return a + b[1:]
	case !aslash && !bslash:
		return a + "/" + b
	}
	return a + b
}

// UpstreamEntry returns a service matcher naming calls to the upstream
// origin, so proxied calls are classified instead of reported as unmatched.
func UpstreamEntry(rawURL string) (classifier.Entry, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return classifier.Entry{}, fmt.Errorf("invalid upstream URL: %w", err)
	}
	return classifier.Entry{
		Name:    RouteUpstream,
		Pattern: "^" + regexp.QuoteMeta(u.Scheme+"://"+u.Host) + "(/|$|\\?)",
	}, nil
}

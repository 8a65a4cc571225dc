package util

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/http/httpguts"
)

// hopByHop lists headers a proxy drops, so they can never carry a key or
// a configured response header end to end.
var hopByHop = map[string]struct{}{
	"Connection":          {},
	"Keep-Alive":          {},
	"Proxy-Authenticate":  {},
	"Proxy-Authorization": {},
	"Te":                  {},
	"Trailer":             {},
	"Transfer-Encoding":   {},
	"Upgrade":             {},
}

// ValidateURL accepts an absolute http or https URL with a host.
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return errors.New("URL cannot be empty")
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	switch {
	case u.Scheme != "http" && u.Scheme != "https":
		return fmt.Errorf("URL scheme must be http or https, got %q", u.Scheme)
	case u.Host == "":
		return errors.New("URL must have a host")
	}
	return nil
}

// ValidateHeaderName accepts an RFC 9110 token that is not a hop-by-hop
// header.
func ValidateHeaderName(name string) error {
	if !httpguts.ValidHeaderFieldName(name) {
		return fmt.Errorf("invalid header name %q", name)
	}
	if _, ok := hopByHop[http.CanonicalHeaderKey(name)]; ok {
		return fmt.Errorf("hop-by-hop header %q is not allowed", name)
	}
	return nil
}

// ValidateHeaderValue rejects values containing control characters, which
// no client could send.
func ValidateHeaderValue(value string) error {
	if !httpguts.ValidHeaderFieldValue(value) {
		return errors.New("header value contains invalid characters")
	}
	return nil
}

// ValidatePort checks that port is in 1-65535.
func ValidatePort(port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", port)
	}
	return nil
}

// ValidateRegex checks that pattern is non-empty and compiles.
func ValidateRegex(pattern string) error {
	if pattern == "" {
		return errors.New("pattern cannot be empty")
	}
	if _, err := regexp.Compile(pattern); err != nil {
		return fmt.Errorf("invalid regex pattern: %w", err)
	}
	return nil
}

// ValidateNonEmpty fails when value is blank.
func ValidateNonEmpty(value, name string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s cannot be empty", name)
	}
	return nil
}

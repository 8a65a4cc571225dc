package middleware

import (
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"strings"

	"github.com/vyrodovalexey/avaguard/internal/util"
)

// ClientIPExtractor resolves the address a request came from. The
// X-Forwarded-For chain is consulted only when the direct peer is one of
// the trusted proxies.
type ClientIPExtractor struct {
	trusted []netip.Prefix
}

// NewClientIPExtractor parses trusted proxy addresses and CIDR ranges. A
// malformed entry is a configuration error, since dropping a proxy would
// change which address the allowlist sees.
func NewClientIPExtractor(trustedProxies []string) (*ClientIPExtractor, error) {
	e := &ClientIPExtractor{trusted: make([]netip.Prefix, 0, len(trustedProxies))}
	for i, proxy := range trustedProxies {
		p, err := util.ParsePrefix(proxy)
		if err != nil {
			return nil, util.NewConfigurationErrorWithCause(
				fmt.Sprintf("trustedProxies[%d]", i), "invalid trusted proxy", err)
		}
		e.trusted = append(e.trusted, p)
	}
	return e, nil
}

// Extract returns the client address for r, without a port.
//
// Behind a trusted peer the X-Forwarded-For hops are read right to left
// and the first untrusted one wins. Entries to its left are client
// controlled and ignored. If every hop is trusted the peer is returned.
func (e *ClientIPExtractor) Extract(r *http.Request) string {
	peer := hostOnly(r.RemoteAddr)
	if e == nil || len(e.trusted) == 0 || !util.PrefixesContain(e.trusted, peer) {
		return peer
	}

	// Repeated header lines form one list.
	hops := strings.Split(strings.Join(r.Header.Values(HeaderXForwardedFor), ","), ",")
	for i := len(hops) - 1; i >= 0; i-- {
		hop := strings.TrimSpace(hops[i])
		if hop != "" && !util.PrefixesContain(e.trusted, hop) {
			return hop
		}
	}
	return peer
}

// hostOnly strips the port from "1.2.3.4:80" or "[::1]:80". Input with no
// port is returned as is.
func hostOnly(addr string) string {
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}

package util

import (
	"errors"
	"fmt"
	"net/netip"
	"strings"
)

// ErrInvalidNetwork is returned for input that is neither an IP address
// nor a CIDR range.
var ErrInvalidNetwork = errors.New("not an IP address or CIDR range")

// ipv4InIPv6Bits is the length of the ::ffff:0:0/96 prefix.
const ipv4InIPv6Bits = 96

// ParsePrefix parses a CIDR range or a single address. A single address
// becomes a /32 or /128 host prefix; IPv4-mapped IPv6 input is unmapped
// so it matches plain IPv4 peers.
func ParsePrefix(s string) (netip.Prefix, error) {
	s = strings.TrimSpace(s)
	if !strings.Contains(s, "/") {
		addr, ok := ParseAddr(s)
		if !ok {
			return netip.Prefix{}, fmt.Errorf("%w: %q", ErrInvalidNetwork, s)
		}
		return netip.PrefixFrom(addr, addr.BitLen()), nil
	}

	p, err := netip.ParsePrefix(s)
	if err != nil {
		return netip.Prefix{}, fmt.Errorf("%w: %w", ErrInvalidNetwork, err)
	}
	if p.Addr().Is4In6() && p.Bits() >= ipv4InIPv6Bits {
		p = netip.PrefixFrom(p.Addr().Unmap(), p.Bits()-ipv4InIPv6Bits)
	}
	return p.Masked(), nil
}

// ParseAddr parses an IP address without a port. Zones are dropped and
// IPv4-mapped IPv6 addresses are unmapped.
func ParseAddr(s string) (netip.Addr, bool) {
	addr, err := netip.ParseAddr(strings.TrimSpace(s))
	if err != nil {
		return netip.Addr{}, false
	}
	return addr.WithZone("").Unmap(), true
}

// PrefixesContain reports whether addr parses and falls inside any of
// prefixes.
func PrefixesContain(prefixes []netip.Prefix, addr string) bool {
	ip, ok := ParseAddr(addr)
	if !ok {
		return false
	}
	for _, p := range prefixes {
		if p.Contains(ip) {
			return true
		}
	}
	return false
}

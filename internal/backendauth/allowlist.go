package backendauth

import (
	"fmt"
	"net/netip"

	"github.com/vyrodovalexey/avaguard/internal/util"
)

// Allowlist is a set of client networks exempt from key checks.
type Allowlist struct {
	prefixes []netip.Prefix
}

// NewAllowlist parses IP literals and CIDR ranges. Any malformed entry is a
// configuration error; entries are never silently skipped.
func NewAllowlist(entries []string) (*Allowlist, error) {
	al := &Allowlist{prefixes: make([]netip.Prefix, 0, len(entries))}
	for i, entry := range entries {
		p, err := util.ParsePrefix(entry)
		if err != nil {
			return nil, util.NewConfigurationErrorWithCause(
				fmt.Sprintf("allowlist[%d]", i),
				fmt.Sprintf("cannot parse %q", entry),
				fmt.Errorf("%w: %w", ErrInvalidAllowlistEntry, err),
			)
		}
		al.prefixes = append(al.prefixes, p)
	}
	return al, nil
}

// Len returns the number of networks in the allowlist.
func (a *Allowlist) Len() int {
	if a == nil {
		return 0
	}
	return len(a.prefixes)
}

// Contains reports whether addr falls inside any allowlisted network.
// addr must already be the resolved client address, without a port.
func (a *Allowlist) Contains(addr string) bool {
	if a == nil {
		return false
	}
	return util.PrefixesContain(a.prefixes, addr)
}

package backendauth

import (
	"crypto/subtle"
	"fmt"
	"strings"

	"github.com/vyrodovalexey/avaguard/internal/util"
)

// CredentialSet is an ordered list of shared keys, newest first. Index 0 is
// the current key; every later entry is a retired key that is still honored.
type CredentialSet struct {
	keys [][]byte
}

// NewCredentialSet builds a credential set. Keys are trimmed of surrounding
// whitespace. Blank keys, keys that cannot travel in a header and an
// empty list are configuration errors.
func NewCredentialSet(keys []string) (*CredentialSet, error) {
	if len(keys) == 0 {
		return nil, util.NewConfigurationErrorWithCause("keys", "at least one key is required", ErrEmptyCredentialSet)
	}

	cs := &CredentialSet{keys: make([][]byte, 0, len(keys))}
	for i, k := range keys {
		k = strings.TrimSpace(k)
		if k == "" {
			return nil, util.NewConfigurationErrorWithCause(
				fmt.Sprintf("keys[%d]", i), "blank key", ErrEmptyCredential)
		}
		if err := util.ValidateHeaderValue(k); err != nil {
			return nil, util.NewConfigurationErrorWithCause(fmt.Sprintf("keys[%d]", i), "unusable key", err)
		}
		cs.keys = append(cs.keys, []byte(k))
	}
	return cs, nil
}

// Len returns the number of keys in the set.
func (cs *CredentialSet) Len() int {
	if cs == nil {
		return 0
	}
	return len(cs.keys)
}

// Match reports whether value equals any key in the set and, if so, the
// index of the newest matching key. Every entry is compared in constant
// time and the scan never stops early, so the time taken does not reveal
// which entry matched.
func (cs *CredentialSet) Match(value string) (int, bool) {
	if cs == nil || value == "" {
		return -1, false
	}

	presented := []byte(value)
	index := -1
	for i := len(cs.keys) - 1; i >= 0; i-- {
		if subtle.ConstantTimeCompare(presented, cs.keys[i]) == 1 {
			index = i
		}
	}
	return index, index >= 0
}

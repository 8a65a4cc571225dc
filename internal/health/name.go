package health

import "strings"

// namePrefixes are deployment prefixes stripped from application names.
var namePrefixes = []string{"ft-next-", "next-"}

// NormalizeName returns the canonical application name: trimmed, lower
// case and without a deployment prefix. "FT-Next-Article" becomes
// "article".
func NormalizeName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, prefix := range namePrefixes {
		if trimmed, ok := strings.CutPrefix(name, prefix); ok && trimmed != "" {
			return trimmed
		}
	}
	return name
}

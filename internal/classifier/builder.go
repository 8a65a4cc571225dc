package classifier

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/vyrodovalexey/avaguard/internal/util"
)

// Entry names a service and the pattern identifying its URLs.
type Entry struct {
	Name    string `yaml:"name" json:"name"`
	Pattern string `yaml:"pattern" json:"pattern"`
}

// Builder collects entries in order. It is not safe for concurrent use.
type Builder struct {
	entries []Entry
	index   map[string]int
}

// NewBuilder creates an empty builder.
func NewBuilder() *Builder {
	return &Builder{index: make(map[string]int)}
}

// Add sets the pattern for name. An existing name keeps its position and
// only its pattern changes; a new name is appended.
func (b *Builder) Add(name, pattern string) *Builder {
	if i, ok := b.index[name]; ok {
		b.entries[i].Pattern = pattern
		return b
	}
	b.index[name] = len(b.entries)
	b.entries = append(b.entries, Entry{Name: name, Pattern: pattern})
	return b
}

// Register adds every entry in order.
func (b *Builder) Register(entries ...Entry) *Builder {
	for _, e := range entries {
		b.Add(e.Name, e.Pattern)
	}
	return b
}

// Entries returns a copy of the collected entries.
func (b *Builder) Entries() []Entry {
	out := make([]Entry, len(b.entries))
	copy(out, b.entries)
	return out
}

// Build compiles the entries into a frozen Table. A blank name or a pattern
// that fails to compile is a configuration error.
func (b *Builder) Build() (*Table, error) {
	matchers := make([]matcher, 0, len(b.entries))
	for i, e := range b.entries {
		field := fmt.Sprintf("serviceMatchers[%d]", i)
		if strings.TrimSpace(e.Name) == "" {
			return nil, util.NewConfigurationError(field, "service name cannot be empty")
		}
		if err := util.ValidateRegex(e.Pattern); err != nil {
			return nil, util.NewConfigurationErrorWithCause(
				field, fmt.Sprintf("service %q", e.Name), err)
		}
		matchers = append(matchers, matcher{
			name: e.Name,
			re:   regexp.MustCompile(e.Pattern),
		})
	}
	return &Table{matchers: matchers}, nil
}

type matcher struct {
	name string
	re   *regexp.Regexp
}

// Table is an immutable, ordered set of compiled service patterns. It is
// safe for concurrent use.
type Table struct {
	matchers []matcher
}

// Len returns the number of entries.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.matchers)
}

// Names returns the service names in match order.
func (t *Table) Names() []string {
	if t == nil {
		return nil
	}
	names := make([]string, len(t.matchers))
	for i, m := range t.matchers {
		names[i] = m.name
	}
	return names
}

// Match returns the name of the first entry whose pattern occurs anywhere
// in url.
func (t *Table) Match(url string) (string, bool) {
	if t == nil {
		return "", false
	}
	for _, m := range t.matchers {
		if m.re.MatchString(url) {
			return m.name, true
		}
	}
	return "", false
}

package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vyrodovalexey/avaguard/internal/util"
)

func TestBuilder_AddReplacesInPlace(t *testing.T) {
	t.Parallel()

	b := NewBuilder().
		Add("a", "^a").
		Add("b", "^b").
		Add("c", "^c").
		Add("b", "^bb")

	assert.Equal(t, []Entry{
		{Name: "a", Pattern: "^a"},
		{Name: "b", Pattern: "^bb"},
		{Name: "c", Pattern: "^c"},
	}, b.Entries())
}

func TestBuilder_RegisterAppendsNewNames(t *testing.T) {
	t.Parallel()

	b := NewBuilder().
		Register(Entry{Name: "a", Pattern: "^a"}, Entry{Name: "b", Pattern: "^b"}).
		Register(Entry{Name: "z", Pattern: "^z"}, Entry{Name: "a", Pattern: "^aa"})

	table, err := b.Build()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "z"}, table.Names())
}

func TestBuilder_EntriesIsACopy(t *testing.T) {
	t.Parallel()

	b := NewBuilder().Add("a", "^a")
	entries := b.Entries()
	entries[0].Pattern = "changed"

	assert.Equal(t, "^a", b.Entries()[0].Pattern)
}

func TestBuilder_BuildErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		entries []Entry
	}{
		{name: "invalid regex", entries: []Entry{{Name: "bad", Pattern: "([a-z"}}},
		{name: "empty pattern", entries: []Entry{{Name: "empty", Pattern: ""}}},
		{name: "blank name", entries: []Entry{{Name: " ", Pattern: "^x"}}},
		{name: "lookahead unsupported", entries: []Entry{{Name: "la", Pattern: "^(?=x)"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			table, err := NewBuilder().Register(tt.entries...).Build()
			require.Error(t, err)
			assert.Nil(t, table)
			assert.ErrorIs(t, err, util.ErrConfigInvalid)
		})
	}
}

func TestBuilder_BuildFreezesTable(t *testing.T) {
	t.Parallel()

	b := NewBuilder().Add("a", "^https://a")
	table, err := b.Build()
	require.NoError(t, err)

	b.Add("a", "^https://other").Add("b", "^https://b")

	assert.Equal(t, 1, table.Len())
	name, ok := table.Match("https://a/x")
	assert.True(t, ok)
	assert.Equal(t, "a", name)
	_, ok = table.Match("https://b/x")
	assert.False(t, ok)
}

func TestTable_Nil(t *testing.T) {
	t.Parallel()

	var table *Table
	assert.Equal(t, 0, table.Len())
	assert.Nil(t, table.Names())
	_, ok := table.Match("https://api.ft.com/content/abc")
	assert.False(t, ok)
}

func TestDefaultEntries_Compile(t *testing.T) {
	t.Parallel()

	table, err := NewBuilder().Register(DefaultEntries()...).Build()
	require.NoError(t, err)
	assert.Equal(t, len(DefaultEntries()), table.Len())
	assert.Equal(t, "capi-v1-article", table.Names()[0])
	assert.Equal(t, "ft.com", table.Names()[table.Len()-1])
}

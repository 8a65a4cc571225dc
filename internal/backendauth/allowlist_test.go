package backendauth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vyrodovalexey/avaguard/internal/util"
)

func TestNewAllowlist(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		entries []string
		wantLen int
		wantErr bool
	}{
		{name: "nil", entries: nil, wantLen: 0},
		{name: "single IPv4", entries: []string{"10.1.2.3"}, wantLen: 1},
		{name: "IPv4 CIDR", entries: []string{"10.0.0.0/8"}, wantLen: 1},
		{name: "IPv6 CIDR and address", entries: []string{"fd00::/8", "::1"}, wantLen: 2},
		{name: "surrounding whitespace", entries: []string{" 192.168.0.1 "}, wantLen: 1},
		{name: "garbage", entries: []string{"10.0.0.0/8", "not-an-ip"}, wantErr: true},
		{name: "bad prefix length", entries: []string{"10.0.0.0/33"}, wantErr: true},
		{name: "empty entry", entries: []string{""}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			al, err := NewAllowlist(tt.entries)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidAllowlistEntry)
				assert.ErrorIs(t, err, util.ErrConfigInvalid)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantLen, al.Len())
		})
	}
}

func TestAllowlist_Contains(t *testing.T) {
	t.Parallel()

	al, err := NewAllowlist([]string{"10.0.0.0/8", "192.168.1.10", "fd00::/8"})
	require.NoError(t, err)

	tests := []struct {
		addr string
		want bool
	}{
		{addr: "10.20.30.40", want: true},
		{addr: "192.168.1.10", want: true},
		{addr: "192.168.1.11", want: false},
		{addr: "fd00::1", want: true},
		{addr: "2001:db8::1", want: false},
		{addr: "::ffff:10.0.0.1", want: true},
		{addr: "", want: false},
		{addr: "10.0.0.1:8080", want: false},
		{addr: "bogus", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.addr, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, al.Contains(tt.addr))
		})
	}
}

func TestAllowlist_Empty(t *testing.T) {
	t.Parallel()

	al, err := NewAllowlist(nil)
	require.NoError(t, err)
	assert.False(t, al.Contains("127.0.0.1"))

	var nilList *Allowlist
	assert.False(t, nilList.Contains("127.0.0.1"))
	assert.Equal(t, 0, nilList.Len())
}

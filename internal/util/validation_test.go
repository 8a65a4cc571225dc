package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{name: "http", url: "http://localhost:3002"},
		{name: "https with path", url: "https://api.ft.com/content"},
		{name: "empty", url: "", wantErr: true},
		{name: "no scheme", url: "localhost:3002/path", wantErr: true},
		{name: "ftp scheme", url: "ftp://example.com", wantErr: true},
		{name: "no host", url: "http://", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := ValidateURL(tt.url)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateHeaderName(t *testing.T) {
	t.Parallel()

	assert.NoError(t, ValidateHeaderName("X-Backend-Key"))
	assert.Error(t, ValidateHeaderName(""))
	assert.Error(t, ValidateHeaderName("X Backend"))
	assert.EqualError(t, ValidateHeaderName("connection"), `hop-by-hop header "connection" is not allowed`)
}

func TestValidateHeaderValue(t *testing.T) {
	t.Parallel()

	assert.NoError(t, ValidateHeaderValue("k1-2024"))
	assert.NoError(t, ValidateHeaderValue(""))
	assert.Error(t, ValidateHeaderValue("k1\r\nX-Injected: 1"))
	assert.Error(t, ValidateHeaderValue("k1\x00"))
}

func TestValidatePort(t *testing.T) {
	t.Parallel()

	assert.NoError(t, ValidatePort(8080))
	assert.Error(t, ValidatePort(0))
	assert.Error(t, ValidatePort(70000))
}

func TestValidateRegex(t *testing.T) {
	t.Parallel()

	assert.NoError(t, ValidateRegex(`^https?:\/\/api\.ft\.com\/content\/[\w\-]+`))
	assert.Error(t, ValidateRegex(""))
	assert.Error(t, ValidateRegex(`(unclosed`))
}

func TestValidateNonEmpty(t *testing.T) {
	t.Parallel()

	assert.NoError(t, ValidateNonEmpty("k1", "key"))
	assert.EqualError(t, ValidateNonEmpty("  ", "key"), "key cannot be empty")
}

package secrets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// FileProvider reads the credential set from a YAML or JSON document
// holding "current" and "retired" fields. The file is read on every call
// so a mounted secret can be rotated in place.
type FileProvider struct {
	path string
}

// NewFileProvider creates a provider for path.
func NewFileProvider(path string) (*FileProvider, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("%w: file path is required", ErrProviderNotConfigured)
	}
	return &FileProvider{path: filepath.Clean(path)}, nil
}

// Type returns the provider type.
func (p *FileProvider) Type() ProviderType {
	return ProviderTypeFile
}

// Path returns the file the provider reads.
func (p *FileProvider) Path() string {
	return p.path
}

// Keys reads and parses the file.
func (p *FileProvider) Keys(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(p.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrSecretNotFound, p.path)
		}
		return nil, fmt.Errorf("failed to read %s: %w", p.path, err)
	}

	doc := make(map[string]any)
	if strings.EqualFold(filepath.Ext(p.path), ".json") {
		err = json.Unmarshal(data, &doc)
	} else {
		err = yaml.Unmarshal(data, &doc)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidSecret, p.path, err)
	}

	return keysFromData(doc)
}

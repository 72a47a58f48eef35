package loader

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"csvdeck/internal/manifest"
)

// FetchManifest retrieves and decodes the manifest published as name.
func FetchManifest(ctx context.Context, f Fetcher, name string) (*manifest.Manifest, error) {
	body, err := f.Fetch(ctx, name)
	if err != nil {
		return nil, err
	}
	m, err := manifest.Decode(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return m, nil
}

// Registry holds the fetched manifest and answers what can be selected.
type Registry struct {
	m *manifest.Manifest
}

func NewRegistry(m *manifest.Manifest) *Registry {
	if m == nil {
		m = &manifest.Manifest{Files: []manifest.Descriptor{}}
	}
	return &Registry{m: m}
}

// Datasets lists the descriptors in manifest order.
func (r *Registry) Datasets() []manifest.Descriptor {
	out := make([]manifest.Descriptor, len(r.m.Files))
	copy(out, r.m.Files)
	return out
}

func (r *Registry) Lookup(fileName string) (manifest.Descriptor, bool) {
	return r.m.Lookup(fileName)
}

func (r *Registry) Len() int { return len(r.m.Files) }

func (r *Registry) GeneratedAt() time.Time { return r.m.GeneratedAt.Time }

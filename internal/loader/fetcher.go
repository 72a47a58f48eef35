package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path"
	"strconv"
	"strings"
	"time"
)

// Fetcher retrieves a static resource addressed relative to the site root.
type Fetcher interface {
	Fetch(ctx context.Context, relPath string) ([]byte, error)
}

// HTTPFetcher reads resources from a deployed site. Every request carries a
// ts query parameter so no cache between us and the files serves stale data.
type HTTPFetcher struct {
	base   *url.URL
	Client *http.Client
	Now    func() time.Time
}

// NewHTTPFetcher targets source (scheme and host, optionally a path) mounted
// under basePath.
func NewHTTPFetcher(source, basePath string) (*HTTPFetcher, error) {
	u, err := url.Parse(source)
	if err != nil {
		return nil, fmt.Errorf("parse source url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("source %q is not an http(s) url", source)
	}
	u.Path = path.Join("/", u.Path, basePath)
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	u.RawQuery = ""
	u.Fragment = ""
	return &HTTPFetcher{
		base:   u,
		Client: &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// URL is the address fetched for relPath, cache-busting parameter included.
func (f *HTTPFetcher) URL(relPath string) string {
	now := time.Now
	if f.Now != nil {
		now = f.Now
	}
	u := f.base.ResolveReference(&url.URL{Path: strings.TrimPrefix(relPath, "/")})
	q := u.Query()
	q.Set("ts", strconv.FormatInt(now().UnixMilli(), 10))
	u.RawQuery = q.Encode()
	return u.String()
}

func (f *HTTPFetcher) Fetch(ctx context.Context, relPath string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.URL(relPath), nil)
	if err != nil {
		return nil, NewTransportError(relPath, err)
	}
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, NewTransportError(relPath, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, NewStatusError(relPath, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, NewTransportError(relPath, err)
	}
	return body, nil
}

// DirFetcher reads resources from local directories laid out like the
// deployed site. Mounts maps a leading path segment to another directory,
// e.g. "data" to the raw data directory.
type DirFetcher struct {
	Root   string
	Mounts map[string]string
}

func (f *DirFetcher) resolve(relPath string) (dir, name string, ok bool) {
	name = strings.TrimPrefix(path.Clean("/"+relPath), "/")
	if !fs.ValidPath(name) || name == "." {
		return "", "", false
	}
	if head, rest, found := strings.Cut(name, "/"); found {
		if mounted, ok := f.Mounts[head]; ok {
			return mounted, rest, true
		}
	}
	return f.Root, name, true
}

func (f *DirFetcher) Fetch(ctx context.Context, relPath string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, NewTransportError(relPath, err)
	}
	dir, name, ok := f.resolve(relPath)
	if !ok {
		return nil, NewStatusError(relPath, http.StatusBadRequest)
	}
	data, err := fs.ReadFile(os.DirFS(dir), name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, NewStatusError(relPath, http.StatusNotFound)
		}
		return nil, NewTransportError(relPath, err)
	}
	return data, nil
}

// NewFetcher picks an HTTPFetcher for http(s) sources and a DirFetcher
// otherwise.
func NewFetcher(source, basePath string, mounts map[string]string) (Fetcher, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		return NewHTTPFetcher(source, basePath)
	}
	return &DirFetcher{Root: source, Mounts: mounts}, nil
}

// Package registry downloads published crate archives from the registry's
// static download endpoint and caches them on disk.
package registry

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/Masterminds/semver/v3"

	"github.com/mwessel/cratecheck/pkg/cachedir"
	"github.com/mwessel/cratecheck/pkg/crate"
)

// DefaultBaseURL is the crates.io static download endpoint.
const DefaultBaseURL = "https://static.crates.io/crates"

// ErrNotFound is returned when the registry has no archive for the
// requested name and version.
var ErrNotFound = errors.New("crate not found in registry")

// Downloads can be large; this bounds a single GET, not the whole run.
const downloadTimeout = 60 * time.Second

// Client fetches and disk-caches published crate archives.
// It is safe for concurrent use; concurrent fetches of the same crate may
// race benignly (both download, one rename wins, contents identical).
type Client struct {
	http      *http.Client
	baseURL   string
	userAgent string
	cratesDir string
}

// NewClient creates a registry client writing downloads below cratesDir.
// baseURL defaults to [DefaultBaseURL] when empty. The userAgent is sent
// with every request, as crates.io policy requires.
func NewClient(cratesDir, baseURL, userAgent string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		http:      &http.Client{Timeout: downloadTimeout},
		baseURL:   baseURL,
		userAgent: userAgent,
		cratesDir: cratesDir,
	}
}

// Obtain returns the cached archive for name+version, downloading it on
// first use. Cached files are reused indefinitely and never re-validated
// here; checksum verification is the caller's explicit next step.
func (c *Client) Obtain(ctx context.Context, name string, version *semver.Version) (*crate.Archive, error) {
	dir := filepath.Join(c.cratesDir, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create crate cache dir: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("%s.crate", version))
	if cachedir.Exists(path) {
		return crate.New(path), nil
	}

	if err := c.download(ctx, name, version, path); err != nil {
		return nil, err
	}
	return crate.New(path), nil
}

func (c *Client) download(ctx context.Context, name string, version *semver.Version, path string) error {
	url := fmt.Sprintf("%s/%s/%s-%s.crate", c.baseURL, name, name, version)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("download %s: %w", url, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s v%s", ErrNotFound, name, version)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return fmt.Errorf("download %s: unexpected status %s", url, resp.Status)
	}

	if err := cachedir.WriteAtomic(path, resp.Body); err != nil {
		return fmt.Errorf("store %s: %w", path, err)
	}
	return nil
}

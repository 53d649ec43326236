// Package giturl canonicalizes repository URLs declared in crate manifests.
//
// The normalized form serves two purposes: it is the URL handed to git
// clone, and it is the key that groups packages sharing a repository so
// their checkouts never run concurrently. Two raw URLs denoting the same
// logical repository must normalize to the same key, and normalization is
// idempotent.
package giturl

import (
	"fmt"
	"net/url"
	"strings"
)

// RepoURL is a normalized repository URL. Equal repositories compare
// byte-equal via String.
type RepoURL struct {
	url *url.URL
}

// Normalize parses and canonicalizes a raw repository URL.
//
// Only http and https schemes are accepted and a host is required. For
// github.com and any gitlab.* multi-tenant host, the path is collapsed to
// exactly /{owner}/{repo}.git: a prior .git suffix is stripped before the
// suffix is re-applied, and path segments beyond owner and repo (for
// example /tree/main/...) are dropped. Other hosts pass through unchanged
// apart from scheme validation.
func Normalize(raw string) (RepoURL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return RepoURL{}, fmt.Errorf("parse repository url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return RepoURL{}, fmt.Errorf("unsupported repository scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return RepoURL{}, fmt.Errorf("repository url %q has no host", raw)
	}

	if isForgeHost(u.Host) {
		owner, repo, err := splitOwnerRepo(u.Path)
		if err != nil {
			return RepoURL{}, fmt.Errorf("repository url %q: %w", raw, err)
		}
		u.Path = fmt.Sprintf("/%s/%s.git", owner, repo)
	}

	u.Fragment = ""
	u.RawQuery = ""
	return RepoURL{url: u}, nil
}

// isForgeHost reports whether host is a known forge whose first two path
// segments identify a repository. gitlab is matched by prefix because of
// self-hosted multi-tenant instances (gitlab.freedesktop.org etc.).
func isForgeHost(host string) bool {
	return host == "github.com" || strings.HasPrefix(host, "gitlab.")
}

func splitOwnerRepo(path string) (owner, repo string, err error) {
	parts := strings.Split(strings.TrimPrefix(path, "/"), "/")
	if len(parts) < 1 || parts[0] == "" {
		return "", "", fmt.Errorf("missing repository owner")
	}
	if len(parts) < 2 || parts[1] == "" {
		return "", "", fmt.Errorf("missing repository name")
	}
	return parts[0], strings.TrimSuffix(parts[1], ".git"), nil
}

// String returns the canonical URL. It is used both as the clone target
// and as the grouping key.
func (r RepoURL) String() string {
	if r.url == nil {
		return ""
	}
	return r.url.String()
}

// IsZero reports whether r holds no URL.
func (r RepoURL) IsZero() bool { return r.url == nil }

// DirName derives the clone directory name for this repository:
// host followed by the path with slashes replaced by hyphens.
// Example: https://github.com/serde-rs/serde.git → github.com-serde-rs-serde.git
func (r RepoURL) DirName() string {
	return r.url.Host + strings.ReplaceAll(r.url.Path, "/", "-")
}

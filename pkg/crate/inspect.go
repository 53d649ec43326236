package crate

import (
	"encoding/json"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/BurntSushi/toml"
)

const (
	manifestName = "Cargo.toml"
	vcsInfoName  = ".cargo_vcs_info.json"
)

// ManifestInfo is the provenance metadata extracted from a published
// archive: the repository the crate claims to come from, and optionally
// the commit it was packaged at.
type ManifestInfo struct {
	// Repository is the repository URL declared in Cargo.toml.
	Repository string

	// VCSCommit is the sha1 recorded in .cargo_vcs_info.json, or empty if
	// the file is absent or unparsable. The field is advisory: it is only
	// used when tag matching fails, and to flag disagreement when it
	// contradicts a matched tag.
	VCSCommit string

	// ExtraManifests counts Cargo.toml entries beyond the first. More than
	// one manifest in an archive is an anomaly worth a log line but not an
	// error; the first one wins.
	ExtraManifests int
}

type manifestFile struct {
	Package struct {
		Name       string `toml:"name"`
		Repository string `toml:"repository"`
	} `toml:"package"`
}

type vcsInfoFile struct {
	Git struct {
		SHA1 string `json:"sha1"`
	} `json:"git"`
}

// Inspect streams the archive once and extracts ManifestInfo.
//
// A missing or unparsable Cargo.toml, or a manifest without a repository
// field, is an error: without a repository there is nothing to verify
// against. A second .cargo_vcs_info.json is also an error, because two
// conflicting provenance claims cannot be silently resolved. An
// unparsable .cargo_vcs_info.json is treated as "no hint".
func Inspect(a *Archive) (ManifestInfo, error) {
	var (
		info        ManifestInfo
		manifestSet bool
		vcsSeen     bool
		walkErr     error
	)

	err := a.walk(func(name string, r io.Reader) error {
		switch {
		case strings.HasSuffix(name, vcsInfoName):
			if vcsSeen {
				walkErr = fmt.Errorf("%s encountered multiple times", vcsInfoName)
				return errStopWalk
			}
			vcsSeen = true
			info.VCSCommit = parseVCSHint(r)

		case strings.HasSuffix(name, manifestName):
			if manifestSet {
				info.ExtraManifests++
				return nil
			}
			data, err := io.ReadAll(r)
			if err != nil {
				walkErr = fmt.Errorf("read %s: %w", manifestName, err)
				return errStopWalk
			}
			var m manifestFile
			if err := toml.Unmarshal(data, &m); err != nil {
				walkErr = fmt.Errorf("decode %s: %w", manifestName, err)
				return errStopWalk
			}
			info.Repository = m.Package.Repository
			manifestSet = true
		}
		return nil
	})
	if err != nil {
		return ManifestInfo{}, err
	}
	if walkErr != nil {
		return ManifestInfo{}, walkErr
	}
	if !manifestSet {
		return ManifestInfo{}, fmt.Errorf("%s not found in archive", manifestName)
	}
	if info.Repository == "" {
		return ManifestInfo{}, fmt.Errorf("missing repository attribute in %s", manifestName)
	}
	return info, nil
}

// parseVCSHint decodes a .cargo_vcs_info.json body, returning the commit
// sha1 or empty when the file doesn't yield a plausible one.
func parseVCSHint(r io.Reader) string {
	var v vcsInfoFile
	if err := json.NewDecoder(r).Decode(&v); err != nil {
		return ""
	}
	if !isCommitSHA(v.Git.SHA1) {
		return ""
	}
	return v.Git.SHA1
}

// isCommitSHA reports whether s looks like a full 40-hex-char commit id.
func isCommitSHA(s string) bool {
	if len(s) != 40 {
		return false
	}
	for _, c := range s {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') && (c < 'A' || c > 'F') {
			return false
		}
	}
	return true
}

// ignoredBasename reports whether the entry is a packaging artifact
// excluded from content comparison. The match is on the exact basename,
// case-sensitive, so Cargo.toml.orig and nested src/Cargo.toml.sample
// files are still compared.
func ignoredBasename(name string) bool {
	base := path.Base(name)
	return base == manifestName || base == vcsInfoName
}

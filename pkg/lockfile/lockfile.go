// Package lockfile reads Cargo.lock dependency snapshots.
//
// A lock file is an ordered list of exact package pins. Only the fields
// the verifier needs are decoded: name, version, source and checksum.
// Record order is preserved because packages sharing a repository are later
// verified in discovery order.
package lockfile

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/Masterminds/semver/v3"
)

// CratesIOSource is the source string Cargo writes for packages pinned to
// the official crates.io registry.
const CratesIOSource = "registry+https://github.com/rust-lang/crates.io-index"

// Record is one [[package]] entry from a Cargo.lock.
type Record struct {
	Name     string
	Version  *semver.Version
	Source   string // empty for path/workspace packages
	Checksum string // hex SHA-256 of the published archive, empty if absent
}

// IsCratesIO reports whether the record is pinned to the official
// crates.io registry. Records from other sources (path dependencies, git
// dependencies, alternative registries) are not verifiable against
// static.crates.io and are skipped.
func (r Record) IsCratesIO() bool {
	return r.Source == CratesIOSource
}

// IsRegistry reports whether the record comes from any registry source.
func (r Record) IsRegistry() bool {
	return strings.HasPrefix(r.Source, "registry+")
}

func (r Record) String() string {
	return fmt.Sprintf("%s v%s", r.Name, r.Version)
}

type lockFile struct {
	Packages []lockPackage `toml:"package"`
}

type lockPackage struct {
	Name     string `toml:"name"`
	Version  string `toml:"version"`
	Source   string `toml:"source"`
	Checksum string `toml:"checksum"`
}

// Load reads and decodes the lock file at path. The returned records keep
// the file's order. A missing file is the caller's fatal setup error;
// Load just reports it.
func Load(path string) ([]Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read lock file: %w", err)
	}
	return parse(data)
}

func parse(data []byte) ([]Record, error) {
	var lf lockFile
	if err := toml.Unmarshal(data, &lf); err != nil {
		return nil, fmt.Errorf("decode lock file: %w", err)
	}

	records := make([]Record, 0, len(lf.Packages))
	for _, p := range lf.Packages {
		if p.Name == "" {
			return nil, fmt.Errorf("lock file contains a package without a name")
		}
		v, err := semver.StrictNewVersion(p.Version)
		if err != nil {
			return nil, fmt.Errorf("package %s: invalid version %q: %w", p.Name, p.Version, err)
		}
		records = append(records, Record{
			Name:     p.Name,
			Version:  v,
			Source:   p.Source,
			Checksum: p.Checksum,
		})
	}
	return records, nil
}

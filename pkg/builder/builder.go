// Package builder reproduces a crate archive from a checked-out working
// copy by invoking cargo's packaging step.
package builder

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/Masterminds/semver/v3"

	"github.com/mwessel/cratecheck/pkg/cachedir"
	"github.com/mwessel/cratecheck/pkg/crate"
	"github.com/mwessel/cratecheck/pkg/execx"
	"github.com/mwessel/cratecheck/pkg/gitrepo"
)

// Builder packages crates with a pinned toolchain. Outputs land in
// cargo's own target/package directory inside the working copy and are
// reused across runs: an archive that already exists at the expected path
// is returned without rebuilding.
type Builder struct {
	runner    execx.Runner
	toolchain string
}

// New creates a Builder running cargo under the given toolchain.
func New(runner execx.Runner, toolchain string) *Builder {
	return &Builder{runner: runner, toolchain: toolchain}
}

// Build produces the distributable archive for exactly the named package
// at the repository's current checkout. The pre-publish verification step
// is skipped: only the archive's contents matter, not whether the crate
// compiles. The caller must hold the repository lock.
func (b *Builder) Build(ctx context.Context, repo *gitrepo.Repository, name string, version *semver.Version) (*crate.Archive, error) {
	out := filepath.Join(repo.Dir(), "target", "package", fmt.Sprintf("%s-%s.crate", name, version))
	if cachedir.Exists(out) {
		return crate.New(out), nil
	}

	_, err := b.runner.Run(ctx, execx.Cmd{
		Name: "cargo",
		Args: []string{"publish", "--dry-run", "--no-verify", "--package", name},
		Dir:  repo.Dir(),
		Env:  []string{"RUSTUP_TOOLCHAIN=" + b.toolchain},
	})
	if err != nil {
		return nil, fmt.Errorf("package %s v%s: %w", name, version, err)
	}

	if !cachedir.Exists(out) {
		return nil, fmt.Errorf("package %s v%s: cargo succeeded but %s was not produced", name, version, out)
	}
	return crate.New(out), nil
}

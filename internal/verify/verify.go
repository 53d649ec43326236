// Package verify orchestrates the verification pipeline: resolve every
// lock record against the registry, group records by repository, rebuild
// each release from source and compare contents.
//
// Parallelism is data-parallel across independent units: lock records
// during resolution, repository groups during verification. Within one repository group packages run strictly one at
// a time in discovery order, because the working copy is exclusive
// mutable state. All failures below the fatal setup level are reported
// and skipped; the run always completes.
package verify

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/mwessel/cratecheck/pkg/builder"
	"github.com/mwessel/cratecheck/pkg/cachedir"
	"github.com/mwessel/cratecheck/pkg/crate"
	"github.com/mwessel/cratecheck/pkg/gitrepo"
	"github.com/mwessel/cratecheck/pkg/giturl"
	"github.com/mwessel/cratecheck/pkg/lockfile"
	"github.com/mwessel/cratecheck/pkg/registry"
)

// resolved is a lock record that made it through the resolution phase:
// its archive is downloaded, checksum-verified and inspected, and its
// repository URL normalized.
type resolved struct {
	record  lockfile.Record
	archive *crate.Archive
	info    crate.ManifestInfo
	repoURL giturl.RepoURL
}

// Verifier runs the pipeline for one lock file.
type Verifier struct {
	cfg      Config
	reporter *Reporter
	registry *registry.Client
	repos    *gitrepo.Manager
	builder  *builder.Builder
}

// Run executes a full verification run. It returns an error only for
// fatal setup conditions: a missing lock file or an unusable cache
// directory. Everything else is reported as diagnostic lines and the run
// completes.
func Run(ctx context.Context, cfg Config) error {
	cfg.withDefaults(ctx)

	if _, err := os.Stat(cfg.LockPath); err != nil {
		return fmt.Errorf("%s not found in current working directory", cfg.LockPath)
	}
	records, err := lockfile.Load(cfg.LockPath)
	if err != nil {
		return err
	}

	layout, err := cachedir.New(cfg.CacheRoot)
	if err != nil {
		return err
	}

	v := &Verifier{
		cfg:      cfg,
		reporter: NewReporter(cfg.Out),
		registry: registry.NewClient(layout.CratesDir(), cfg.RegistryBaseURL, cfg.UserAgent),
		repos:    gitrepo.NewManager(layout.RepositoriesDir(), cfg.Runner),
		builder:  builder.New(cfg.Runner, cfg.Toolchain),
	}

	cfg.Logger.Debug("starting run",
		"packages", len(records),
		"workers", cfg.Workers,
		"toolchain", cfg.Toolchain)

	groups := v.resolveAll(ctx, records)
	v.verifyAll(ctx, groups)

	cfg.Logger.Info("run complete", "diagnostics", v.reporter.Lines())
	return nil
}

// resolveAll resolves every record in parallel, then groups the survivors
// by normalized repository URL. Group keys are returned in sorted order
// and packages within a group keep lock-file discovery order.
func (v *Verifier) resolveAll(ctx context.Context, records []lockfile.Record) map[string][]*resolved {
	results := make([]*resolved, len(records))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(v.cfg.Workers)
	for i, rec := range records {
		g.Go(func() error {
			r, err := v.resolve(ctx, rec)
			if err != nil {
				v.reporter.Printf("Couldn't resolve package %s: %v", rec, err)
				return nil
			}
			results[i] = r
			return nil
		})
	}
	_ = g.Wait()

	groups := make(map[string][]*resolved)
	for _, r := range results {
		if r == nil {
			continue
		}
		key := r.repoURL.String()
		groups[key] = append(groups[key], r)
	}

	v.cfg.Logger.Info("resolved packages", "records", len(records), "repositories", len(groups))
	return groups
}

// resolve downloads, checksum-verifies and inspects one record.
func (v *Verifier) resolve(ctx context.Context, rec lockfile.Record) (*resolved, error) {
	if rec.Source == "" {
		return nil, fmt.Errorf("package doesn't have a source")
	}
	if !rec.IsCratesIO() {
		return nil, fmt.Errorf("package isn't from the official crates.io registry")
	}

	archive, err := v.registry.Obtain(ctx, rec.Name, rec.Version)
	if err != nil {
		return nil, fmt.Errorf("obtain archive: %w", err)
	}

	// Checksum verification is a distinct step over the raw archive
	// bytes; the download itself is never re-validated.
	if rec.Checksum == "" {
		v.reporter.Printf("Package %s doesn't have a checksum", rec)
	} else {
		sum, err := archive.SHA256()
		if err != nil {
			return nil, fmt.Errorf("hash archive: %w", err)
		}
		if !strings.EqualFold(sum, rec.Checksum) {
			return nil, fmt.Errorf("archive digest doesn't match lock file checksum")
		}
	}

	info, err := crate.Inspect(archive)
	if err != nil {
		return nil, err
	}
	if info.ExtraManifests > 0 {
		v.reporter.Printf("Package %s: Cargo.toml encountered multiple times", rec)
	}

	repoURL, err := giturl.Normalize(info.Repository)
	if err != nil {
		return nil, err
	}

	return &resolved{record: rec, archive: archive, info: info, repoURL: repoURL}, nil
}

// verifyAll processes repository groups in parallel and packages within a
// group sequentially.
func (v *Verifier) verifyAll(ctx context.Context, groups map[string][]*resolved) {
	keys := make([]string, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(v.cfg.Workers)
	for _, key := range keys {
		group := groups[key]
		g.Go(func() error {
			repo, err := v.repos.Obtain(ctx, group[0].repoURL)
			if err != nil {
				v.reporter.Printf("Couldn't obtain repository for %s: %v url=%s",
					group[0].record, err, group[0].repoURL)
				return nil
			}
			for _, pkg := range group {
				if err := v.verifyPackage(ctx, repo, pkg); err != nil {
					v.reporter.Printf("Couldn't verify package %s: %v url=%s",
						pkg.record, err, pkg.repoURL)
				}
			}
			return nil
		})
	}
	_ = g.Wait()
}

// verifyPackage runs the checkout → build → digest → compare sequence for
// one package against its repository.
func (v *Verifier) verifyPackage(ctx context.Context, repo *gitrepo.Repository, pkg *resolved) error {
	commit, err := v.pickCommit(ctx, repo, pkg)
	if err != nil {
		return err
	}

	repo.Lock()
	defer repo.Unlock()

	if err := repo.Checkout(ctx, commit); err != nil {
		return err
	}

	built, err := v.builder.Build(ctx, repo, pkg.record.Name, pkg.record.Version)
	if err != nil {
		return err
	}

	builtContents, err := crate.Digest(built)
	if err != nil {
		return fmt.Errorf("digest rebuilt archive: %w", err)
	}
	registryContents, err := crate.Digest(pkg.archive)
	if err != nil {
		return fmt.Errorf("digest registry archive: %w", err)
	}

	for _, c := range crate.Compare(builtContents, registryContents) {
		switch c.Outcome {
		case crate.Equal:
			continue
		case crate.Different:
			v.reporter.Printf("Package %s has mismatching file hashes for %s", pkg.record.Name, c.Path)
		case crate.OnlyLeft:
			v.reporter.Printf("Package %s has file %s in the rebuilt archive but not in the registry archive",
				pkg.record.Name, c.Path)
		case crate.OnlyRight:
			v.reporter.Printf("Package %s has file %s in the registry archive but not in the rebuilt archive",
				pkg.record.Name, c.Path)
		}
	}
	return nil
}

// pickCommit chooses the commit to rebuild: a matched release tag when
// one exists, otherwise the archive's VCS hint. The two sources
// disagreeing is reported but the tag wins.
func (v *Verifier) pickCommit(ctx context.Context, repo *gitrepo.Repository, pkg *resolved) (string, error) {
	tags, err := repo.Tags(ctx)
	if err != nil {
		return "", err
	}

	tag, ok := gitrepo.MatchTag(tags, pkg.record.Name, pkg.record.Version)
	if !ok {
		if len(tags) == 0 {
			v.reporter.Printf("Package %s has no tags in its repository", pkg.record)
		} else {
			v.reporter.Printf("Found no tag match for package %s", pkg.record)
		}
		if pkg.info.VCSCommit == "" {
			return "", fmt.Errorf("couldn't determine commit matching the registry release")
		}
		return pkg.info.VCSCommit, nil
	}

	commit, err := repo.ResolveTag(ctx, tag)
	if err != nil {
		return "", err
	}
	if pkg.info.VCSCommit != "" && pkg.info.VCSCommit != commit {
		v.reporter.Printf("Commit between registry archive and tag %s doesn't match for %s", tag, pkg.record)
	}
	return commit, nil
}

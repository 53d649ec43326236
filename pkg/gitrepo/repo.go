// Package gitrepo manages local git working copies, one per normalized
// repository URL, and resolves release tags to commits.
//
// A working copy is exclusive, mutable, shared state: a checkout for one
// package must never observe or clobber an in-progress checkout for
// another. Every checkout/build sequence therefore runs under the
// repository's lock.
package gitrepo

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/mwessel/cratecheck/pkg/execx"
	"github.com/mwessel/cratecheck/pkg/giturl"
)

// Repository is one cloned working copy.
type Repository struct {
	url    giturl.RepoURL
	dir    string
	runner execx.Runner

	mu sync.Mutex // guards the working tree during checkout/build sequences

	tagsOnce sync.Once
	tags     []string
	tagsErr  error
}

// URL returns the repository's normalized URL.
func (r *Repository) URL() giturl.RepoURL { return r.url }

// Dir returns the working copy's directory.
func (r *Repository) Dir() string { return r.dir }

// Lock acquires exclusive access to the working tree. Hold it across the
// whole checkout → build → digest sequence and release it after comparison.
func (r *Repository) Lock() { r.mu.Lock() }

// Unlock releases exclusive access to the working tree.
func (r *Repository) Unlock() { r.mu.Unlock() }

// Tags lists the repository's tag names. The listing runs once per run and
// is memoized, including its failure: a broken repository surfaces the
// same error to every package that needs tags, without re-running git.
func (r *Repository) Tags(ctx context.Context) ([]string, error) {
	r.tagsOnce.Do(func() {
		out, err := r.runner.Run(ctx, execx.Cmd{
			Name: "git",
			Args: []string{"tag"},
			Dir:  r.dir,
		})
		if err != nil {
			r.tagsErr = fmt.Errorf("list tags: %w", err)
			return
		}
		for _, line := range strings.Split(string(out), "\n") {
			if tag := strings.TrimSpace(line); tag != "" {
				r.tags = append(r.tags, tag)
			}
		}
	})
	return r.tags, r.tagsErr
}

// ResolveTag returns the commit a tag points at, via git rev-list so
// annotated tags resolve to the tagged commit rather than the tag object.
func (r *Repository) ResolveTag(ctx context.Context, tag string) (string, error) {
	out, err := r.runner.Run(ctx, execx.Cmd{
		Name: "git",
		Args: []string{"rev-list", "-n", "1", tag},
		Dir:  r.dir,
	})
	if err != nil {
		return "", fmt.Errorf("resolve tag %s: %w", tag, err)
	}
	commit := strings.TrimSpace(strings.SplitN(string(out), "\n", 2)[0])
	if commit == "" {
		return "", fmt.Errorf("resolve tag %s: empty rev-list output", tag)
	}
	return commit, nil
}

// Checkout checks out the given commit and brings submodules in line.
// Each step's failure is reported with the step name. The caller must hold
// the repository lock.
func (r *Repository) Checkout(ctx context.Context, commit string) error {
	steps := []struct {
		name string
		args []string
	}{
		{"checkout", []string{"checkout", commit}},
		{"submodule init", []string{"submodule", "init"}},
		{"submodule sync", []string{"submodule", "sync"}},
		{"submodule update", []string{"submodule", "update"}},
	}

	for _, step := range steps {
		_, err := r.runner.Run(ctx, execx.Cmd{
			Name: "git",
			Args: step.args,
			Dir:  r.dir,
			Env:  []string{"GIT_TERMINAL_PROMPT=0"},
		})
		if err != nil {
			return fmt.Errorf("git %s: %w", step.name, err)
		}
	}
	return nil
}

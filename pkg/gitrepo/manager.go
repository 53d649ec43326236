package gitrepo

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/mwessel/cratecheck/pkg/cachedir"
	"github.com/mwessel/cratecheck/pkg/execx"
	"github.com/mwessel/cratecheck/pkg/giturl"
)

// Manager owns one Repository per normalized URL. Clones land under a
// shared directory and persist across runs; a repository directory that
// already exists is reused without contacting the remote.
type Manager struct {
	reposDir string
	runner   execx.Runner

	mu    sync.Mutex
	repos map[string]*Repository

	cloning singleflight.Group
}

// NewManager creates a Manager cloning below reposDir with the given
// runner. Pass execx.Local{} outside of tests.
func NewManager(reposDir string, runner execx.Runner) *Manager {
	return &Manager{
		reposDir: reposDir,
		runner:   runner,
		repos:    make(map[string]*Repository),
	}
}

// Obtain returns the Repository for url, cloning it on first reference.
// Concurrent calls for the same URL are deduplicated so a repository is
// cloned at most once per run. A clone failure aborts every package
// mapped to this repository.
func (m *Manager) Obtain(ctx context.Context, url giturl.RepoURL) (*Repository, error) {
	key := url.String()

	m.mu.Lock()
	if repo, ok := m.repos[key]; ok {
		m.mu.Unlock()
		return repo, nil
	}
	m.mu.Unlock()

	v, err, _ := m.cloning.Do(key, func() (any, error) {
		repo, err := m.clone(ctx, url)
		if err != nil {
			return nil, err
		}
		m.mu.Lock()
		m.repos[key] = repo
		m.mu.Unlock()
		return repo, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Repository), nil
}

func (m *Manager) clone(ctx context.Context, url giturl.RepoURL) (*Repository, error) {
	dir := filepath.Join(m.reposDir, url.DirName())

	if !cachedir.Exists(dir) {
		// Blob-less partial clone: tags and trees without file contents,
		// fetched on demand at checkout.
		_, err := m.runner.Run(ctx, execx.Cmd{
			Name: "git",
			Args: []string{"clone", "--filter=blob:none", "--", url.String(), dir},
			Env:  []string{"GIT_TERMINAL_PROMPT=0"},
		})
		if err != nil {
			return nil, fmt.Errorf("clone %s: %w", url, err)
		}
	}

	return &Repository{url: url, dir: dir, runner: m.runner}, nil
}

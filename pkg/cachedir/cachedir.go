// Package cachedir manages the on-disk cache shared by all workers.
//
// The cache root holds two trees: downloaded registry archives under
// crates/{name}/{version}.crate, and git working copies under
// repositories/{host}-{path}/. Both survive across runs and are shared with
// the external tools (git and cargo operate directly inside the
// repositories tree), so entries are plain files and directories rather
// than an opaque key-value store.
package cachedir

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Layout is the cache directory layout rooted at a single directory.
type Layout struct {
	root string
}

// New creates the cache layout under root, creating both subtrees.
// Failure to create the directories is a fatal setup condition for callers.
func New(root string) (*Layout, error) {
	l := &Layout{root: root}
	for _, dir := range []string{l.CratesDir(), l.RepositoriesDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create cache dir: %w", err)
		}
	}
	return l, nil
}

// Root returns the cache root directory.
func (l *Layout) Root() string { return l.root }

// CratesDir returns the directory holding downloaded registry archives.
func (l *Layout) CratesDir() string { return filepath.Join(l.root, "crates") }

// RepositoriesDir returns the directory holding git working copies.
func (l *Layout) RepositoriesDir() string { return filepath.Join(l.root, "repositories") }

// WriteAtomic streams r into path using a write-to-temporary-then-rename
// discipline: a concurrent reader never observes a partially written file,
// and an interrupted run leaves only a stray .tmp file behind. The
// temporary lives in the destination directory so the rename stays on one
// filesystem.
func WriteAtomic(path string, r io.Reader) (err error) {
	tmp := fmt.Sprintf("%s.%s.tmp", path, uuid.NewString())

	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp)
		}
	}()

	if _, err = io.Copy(f, r); err != nil {
		_ = f.Close()
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// Exists reports whether path exists. Existence checks before a fetch or
// build are best-effort: a benign race causes a redundant download, never
// corruption, because outputs for a given key are deterministic.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

package gitrepo

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/mwessel/cratecheck/pkg/execx"
	"github.com/mwessel/cratecheck/pkg/giturl"
)

// fakeRunner records invocations and serves canned responses keyed by the
// joined command line.
type fakeRunner struct {
	mu        sync.Mutex
	calls     []string
	responses map[string]string
	failures  map[string]error
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{
		responses: make(map[string]string),
		failures:  make(map[string]error),
	}
}

func (f *fakeRunner) Run(ctx context.Context, cmd execx.Cmd) ([]byte, error) {
	line := cmd.Name + " " + strings.Join(cmd.Args, " ")
	f.mu.Lock()
	f.calls = append(f.calls, line)
	f.mu.Unlock()

	if err, ok := f.failures[line]; ok {
		return nil, err
	}
	return []byte(f.responses[line]), nil
}

func (f *fakeRunner) callCount(prefix string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

func mustURL(t *testing.T, raw string) giturl.RepoURL {
	t.Helper()
	u, err := giturl.Normalize(raw)
	if err != nil {
		t.Fatal(err)
	}
	return u
}

func TestTagsMemoized(t *testing.T) {
	runner := newFakeRunner()
	runner.responses["git tag"] = "v1.0.0\nv1.1.0\n\n"
	repo := &Repository{dir: "/repo", runner: runner}

	for range 3 {
		tags, err := repo.Tags(context.Background())
		if err != nil {
			t.Fatalf("Tags failed: %v", err)
		}
		if len(tags) != 2 || tags[0] != "v1.0.0" || tags[1] != "v1.1.0" {
			t.Errorf("tags = %v", tags)
		}
	}

	if got := runner.callCount("git tag"); got != 1 {
		t.Errorf("git tag ran %d times, want 1", got)
	}
}

func TestTagsFailureMemoized(t *testing.T) {
	runner := newFakeRunner()
	runner.failures["git tag"] = errors.New("exit status 128")
	repo := &Repository{dir: "/repo", runner: runner}

	for range 2 {
		if _, err := repo.Tags(context.Background()); err == nil {
			t.Fatal("expected error")
		}
	}
	if got := runner.callCount("git tag"); got != 1 {
		t.Errorf("git tag ran %d times, want 1", got)
	}
}

func TestResolveTag(t *testing.T) {
	runner := newFakeRunner()
	runner.responses["git rev-list -n 1 v1.0.0"] = "abc123\n"
	repo := &Repository{dir: "/repo", runner: runner}

	commit, err := repo.ResolveTag(context.Background(), "v1.0.0")
	if err != nil {
		t.Fatalf("ResolveTag failed: %v", err)
	}
	if commit != "abc123" {
		t.Errorf("commit = %q", commit)
	}
}

func TestResolveTagEmptyOutput(t *testing.T) {
	runner := newFakeRunner()
	repo := &Repository{dir: "/repo", runner: runner}

	if _, err := repo.ResolveTag(context.Background(), "v1.0.0"); err == nil {
		t.Error("expected error for empty rev-list output")
	}
}

func TestCheckoutRunsAllSteps(t *testing.T) {
	runner := newFakeRunner()
	repo := &Repository{dir: "/repo", runner: runner}

	if err := repo.Checkout(context.Background(), "abc123"); err != nil {
		t.Fatalf("Checkout failed: %v", err)
	}

	want := []string{
		"git checkout abc123",
		"git submodule init",
		"git submodule sync",
		"git submodule update",
	}
	if len(runner.calls) != len(want) {
		t.Fatalf("calls = %v", runner.calls)
	}
	for i, w := range want {
		if runner.calls[i] != w {
			t.Errorf("step %d = %q, want %q", i, runner.calls[i], w)
		}
	}
}

func TestCheckoutReportsFailingStep(t *testing.T) {
	runner := newFakeRunner()
	runner.failures["git submodule sync"] = errors.New("exit status 1")
	repo := &Repository{dir: "/repo", runner: runner}

	err := repo.Checkout(context.Background(), "abc123")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "submodule sync") {
		t.Errorf("error %q does not name the failing step", err)
	}
}

func TestManagerClonesOnce(t *testing.T) {
	reposDir := t.TempDir()
	url := mustURL(t, "https://github.com/example/foo")
	cloneLine := fmt.Sprintf("git clone --filter=blob:none -- %s %s",
		url, filepath.Join(reposDir, url.DirName()))

	runner := newFakeRunner()
	m := NewManager(reposDir, runner)

	first, err := m.Obtain(context.Background(), url)
	if err != nil {
		t.Fatalf("Obtain failed: %v", err)
	}
	second, err := m.Obtain(context.Background(), url)
	if err != nil {
		t.Fatalf("second Obtain failed: %v", err)
	}
	if first != second {
		t.Error("Obtain must return the same Repository for the same URL")
	}
	if got := runner.callCount(cloneLine); got != 1 {
		t.Errorf("clone ran %d times, want 1", got)
	}
}

func TestManagerReusesExistingClone(t *testing.T) {
	reposDir := t.TempDir()
	url := mustURL(t, "https://github.com/example/foo")
	if err := os.MkdirAll(filepath.Join(reposDir, url.DirName()), 0o755); err != nil {
		t.Fatal(err)
	}

	runner := newFakeRunner()
	m := NewManager(reposDir, runner)

	if _, err := m.Obtain(context.Background(), url); err != nil {
		t.Fatalf("Obtain failed: %v", err)
	}
	if got := runner.callCount("git clone"); got != 0 {
		t.Errorf("clone ran %d times for an existing working copy, want 0", got)
	}
}

func TestManagerCloneFailure(t *testing.T) {
	reposDir := t.TempDir()
	url := mustURL(t, "https://github.com/example/broken")

	runner := newFakeRunner()
	runner.failures[fmt.Sprintf("git clone --filter=blob:none -- %s %s",
		url, filepath.Join(reposDir, url.DirName()))] = errors.New("exit status 128")

	m := NewManager(reposDir, runner)
	if _, err := m.Obtain(context.Background(), url); err == nil {
		t.Error("expected clone failure to propagate")
	}
}

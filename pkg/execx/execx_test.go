package execx

import (
	"context"
	"strings"
	"testing"
)

func TestLocalRunCapturesStdout(t *testing.T) {
	out, err := Local{}.Run(context.Background(), Cmd{
		Name: "sh",
		Args: []string{"-c", "echo hello"},
	})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if got := strings.TrimSpace(string(out)); got != "hello" {
		t.Errorf("stdout = %q, want %q", got, "hello")
	}
}

func TestLocalRunWorkingDirectory(t *testing.T) {
	dir := t.TempDir()

	out, err := Local{}.Run(context.Background(), Cmd{
		Name: "pwd",
		Dir:  dir,
	})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	// Resolve through symlinks is not needed; pwd reports the chdir target.
	if got := strings.TrimSpace(string(out)); got != dir {
		t.Errorf("pwd = %q, want %q", got, dir)
	}
}

func TestLocalRunExtraEnv(t *testing.T) {
	out, err := Local{}.Run(context.Background(), Cmd{
		Name: "sh",
		Args: []string{"-c", "printf %s \"$CRATECHECK_TEST\""},
		Env:  []string{"CRATECHECK_TEST=value"},
	})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if string(out) != "value" {
		t.Errorf("env passthrough = %q, want %q", out, "value")
	}
}

func TestLocalRunFailureIncludesStderr(t *testing.T) {
	_, err := Local{}.Run(context.Background(), Cmd{
		Name: "sh",
		Args: []string{"-c", "echo broken >&2; exit 3"},
	})
	if err == nil {
		t.Fatal("expected error for non-zero exit status")
	}
	if !strings.Contains(err.Error(), "broken") {
		t.Errorf("error %q should include stderr output", err)
	}
	if !strings.Contains(err.Error(), "sh") {
		t.Errorf("error %q should name the command", err)
	}
}

func TestLocalRunRespectsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Local{}.Run(ctx, Cmd{Name: "sh", Args: []string{"-c", "sleep 10"}})
	if err == nil {
		t.Fatal("expected error for canceled context")
	}
}

func TestStderrSuffixTruncation(t *testing.T) {
	long := "a\nb\nc\nd\ne\nf\ng"
	got := stderrSuffix(long)
	if strings.Contains(got, "a;") || strings.Contains(got, "b;") {
		t.Errorf("suffix %q should drop leading lines", got)
	}
	if !strings.Contains(got, "g") {
		t.Errorf("suffix %q should keep the last line", got)
	}

	if got := stderrSuffix("  \n "); got != "" {
		t.Errorf("blank stderr suffix = %q, want empty", got)
	}
}

func TestRunnerFunc(t *testing.T) {
	var seen Cmd
	r := RunnerFunc(func(ctx context.Context, cmd Cmd) ([]byte, error) {
		seen = cmd
		return []byte("ok"), nil
	})

	out, err := r.Run(context.Background(), Cmd{Name: "git", Args: []string{"tag"}})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if string(out) != "ok" {
		t.Errorf("out = %q, want %q", out, "ok")
	}
	if seen.Name != "git" || len(seen.Args) != 1 || seen.Args[0] != "tag" {
		t.Errorf("command not forwarded: %+v", seen)
	}
}

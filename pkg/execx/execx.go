// Package execx runs external tools (git, cargo, rustup) as subprocesses.
//
// Both the repository manager and the builder treat their external tools as
// opaque collaborators: a command either succeeds (exit status zero) and
// yields its stdout, or it fails. The Runner type exists so tests can swap
// in a fake without spawning processes.
package execx

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Cmd describes a single subprocess invocation.
type Cmd struct {
	Name string   // executable name, resolved via PATH
	Args []string // arguments, not including the executable name
	Dir  string   // working directory ("" means inherit)
	Env  []string // extra KEY=VALUE entries appended to the inherited environment
}

// Runner executes a command and returns its stdout.
// A non-zero exit status must be reported as an error.
type Runner interface {
	Run(ctx context.Context, cmd Cmd) ([]byte, error)
}

// Local runs commands on the local machine via os/exec.
type Local struct{}

// Run executes cmd and returns its stdout. On a non-zero exit status the
// returned error includes the command line and trailing stderr output.
func (Local) Run(ctx context.Context, cmd Cmd) ([]byte, error) {
	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	c.Dir = cmd.Dir
	if len(cmd.Env) > 0 {
		c.Env = append(c.Environ(), cmd.Env...)
	}

	var stderr strings.Builder
	c.Stderr = &stderr

	out, err := c.Output()
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w%s", cmd.Name, strings.Join(cmd.Args, " "), err, stderrSuffix(stderr.String()))
	}
	return out, nil
}

// stderrSuffix trims stderr for inclusion in an error message.
// Only the last few lines matter; git and cargo are chatty.
const maxStderrLines = 5

func stderrSuffix(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	lines := strings.Split(s, "\n")
	if len(lines) > maxStderrLines {
		lines = lines[len(lines)-maxStderrLines:]
	}
	return ": " + strings.Join(lines, "; ")
}

// RunnerFunc adapts a function to the Runner interface.
type RunnerFunc func(ctx context.Context, cmd Cmd) ([]byte, error)

// Run calls f.
func (f RunnerFunc) Run(ctx context.Context, cmd Cmd) ([]byte, error) {
	return f(ctx, cmd)
}

package verify

import (
	"context"
	"io"
	"os"
	"runtime"

	"github.com/charmbracelet/log"

	"github.com/mwessel/cratecheck/pkg/builder"
	"github.com/mwessel/cratecheck/pkg/execx"
	"github.com/mwessel/cratecheck/pkg/registry"
)

// Config holds the startup-resolved values for one verification run.
// Everything is resolved once and threaded through explicitly; there are
// no ambient globals.
type Config struct {
	// LockPath is the dependency lock file to verify. Its absence is a
	// fatal setup error.
	LockPath string

	// CacheRoot is the directory holding downloaded archives and clones.
	CacheRoot string

	// RegistryBaseURL overrides the crate download endpoint. Empty means
	// the official static.crates.io endpoint.
	RegistryBaseURL string

	// UserAgent identifies this tool to the registry.
	UserAgent string

	// Toolchain pins the build toolchain. Empty means "resolve the
	// machine default at startup, falling back to stable".
	Toolchain string

	// Workers bounds both parallel phases. Zero means available
	// parallelism.
	Workers int

	// Runner executes external tools. Nil means run them locally.
	Runner execx.Runner

	// Logger receives ambient progress logging (stderr). Diagnostics go
	// to Out, not the logger.
	Logger *log.Logger

	// Out receives the diagnostic lines. Defaults to stdout.
	Out io.Writer
}

func (c *Config) withDefaults(ctx context.Context) {
	if c.LockPath == "" {
		c.LockPath = "Cargo.lock"
	}
	if c.UserAgent == "" {
		c.UserAgent = "cratecheck"
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.Runner == nil {
		c.Runner = execx.Local{}
	}
	if c.Logger == nil {
		c.Logger = log.Default()
	}
	if c.Out == nil {
		c.Out = os.Stdout
	}
	if c.RegistryBaseURL == "" {
		c.RegistryBaseURL = registry.DefaultBaseURL
	}
	if c.Toolchain == "" {
		c.Toolchain = builder.DefaultToolchain(ctx, c.Runner)
	}
}

// Package cli implements the cratecheck command-line interface.
//
// The main command is verify, which reads the Cargo.lock in the current
// directory and checks every crates.io dependency against a rebuild of
// its declared source repository. The cache command manages the on-disk
// archive and repository cache. All commands support --verbose (-v) for
// debug-level logging; ambient logging goes to stderr while verification
// diagnostics go to stdout.
package cli

import (
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/mwessel/cratecheck/pkg/buildinfo"
)

// appName is the application name used for directories and display.
const appName = "cratecheck"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: log.NewWithOptions(w, log.Options{
			ReportTimestamp: true,
			TimeFormat:      "15:04:05.00",
			Level:           level,
		}),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "cratecheck verifies crates.io releases against their source repositories",
		Long: `cratecheck rebuilds every crates.io dependency pinned in a Cargo.lock from
its declared source repository and reports any file whose contents differ
from the published archive.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())

	root.AddCommand(c.verifyCommand())
	root.AddCommand(c.cacheCommand())

	return root
}

// cacheDir returns the cache directory using XDG standard (~/.cache/cratecheck/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mwessel/cratecheck/internal/verify"
	"github.com/mwessel/cratecheck/pkg/buildinfo"
)

// verifyCommand creates the verify subcommand.
func (c *CLI) verifyCommand() *cobra.Command {
	var (
		lockPath  string
		toolchain string
		workers   int
	)

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify locked dependencies against their source repositories",
		Long: `Verify reads the Cargo.lock in the current directory, downloads every
crates.io archive it pins, rebuilds each release from its declared source
repository and prints a diagnostic line for every discrepancy found.

A silent run means every package verified cleanly.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cache, err := cacheDir()
			if err != nil {
				return fmt.Errorf("resolving cache directory: %w", err)
			}

			return verify.Run(cmd.Context(), verify.Config{
				LockPath:  lockPath,
				CacheRoot: cache,
				UserAgent: buildinfo.UserAgent(),
				Toolchain: toolchain,
				Workers:   workers,
				Logger:    c.Logger,
				Out:       cmd.OutOrStdout(),
			})
		},
	}

	cmd.Flags().StringVar(&lockPath, "lock", "Cargo.lock", "path to the lock file to verify")
	cmd.Flags().StringVar(&toolchain, "toolchain", "", "Rust toolchain to build with (default: rustup default)")
	cmd.Flags().IntVar(&workers, "workers", 0, "maximum concurrent downloads and rebuilds (default: number of CPUs)")

	return cmd
}

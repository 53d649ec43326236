package builder

import (
	"context"
	"strings"

	"github.com/mwessel/cratecheck/pkg/execx"
)

// FallbackToolchain is used when the default toolchain cannot be
// determined, e.g. because rustup is not installed.
const FallbackToolchain = "stable"

// DefaultToolchain resolves the machine's default rustup toolchain once at
// startup. rustup prints something like
// "stable-x86_64-unknown-linux-gnu (default)"; the first field is the
// toolchain identifier. Any failure falls back to [FallbackToolchain].
func DefaultToolchain(ctx context.Context, runner execx.Runner) string {
	out, err := runner.Run(ctx, execx.Cmd{Name: "rustup", Args: []string{"default"}})
	if err != nil {
		return FallbackToolchain
	}
	fields := strings.Fields(string(out))
	if len(fields) == 0 {
		return FallbackToolchain
	}
	return fields[0]
}

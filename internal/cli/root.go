// Package cli provides the avatarctl command-line interface.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ironsheep/sprite-avatar-mcp/internal/version"
)

const programName = "avatarctl"

// NewRootCmd builds the command tree. Each call returns fresh commands and
// flag state.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   programName,
		Short: "Turn a 2x2 sprite sheet into four captioned avatar frames",
		Long: `avatarctl runs the sprite sheet avatar pipeline from the command line.

It removes the sheet background, cuts the sheet into its four frames,
scales them with nearest-neighbour sampling, draws an optional caption
and writes each frame as a PNG.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().String("log-level", "", "log level (trace, debug, info, warn, error); overrides AVATAR_MCP_LOG_LEVEL")
	root.SetVersionTemplate(version.String(programName))

	root.AddCommand(newRenderCmd())
	root.AddCommand(newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  `Print version information including build time and commit hash.`,
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprint(cmd.OutOrStdout(), version.String(programName))
		},
	}
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

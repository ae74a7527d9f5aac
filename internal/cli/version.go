package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Build metadata, overridable at link time:
//
//	go build -ldflags "-X meshbbs/internal/cli.version=v1.2.3"
var (
	version = "dev"
	commit  = "none"
)

// NewVersionCommand creates the version command.
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "meshbbs %s (%s)\n", version, commit)
		},
	}
}

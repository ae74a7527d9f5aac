package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"meshbbs/internal/app"
	"meshbbs/internal/config"
)

// NewServeCommand creates the serve command, which runs the gateway until
// interrupted.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	var nodeID string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the BBS gateway",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(rootOpts.ConfigPath)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			if nodeID != "" {
				cfg.NodeID = nodeID
			}

			a, err := app.NewApp(cmd.Context(), cfg)
			if err != nil {
				return fmt.Errorf("initializing gateway: %w", err)
			}
			return a.Run(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&nodeID, "node-id", "", "this gateway's mesh node id, like !a1b2c3d4")
	return cmd
}

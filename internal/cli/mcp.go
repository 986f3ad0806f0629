package cli

import (
	"github.com/spf13/cobra"

	"github.com/mark3labs/refitgen/internal/mcpserver"
)

var mcpRunner = mcpserver.Run

func newMCPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the generator over MCP on stdio",
		Long:  "Run a Model Context Protocol server on stdin/stdout exposing the generate and settings_schema tools. Logs go to stderr.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			verbose, err := cmd.Flags().GetBool("verbose")
			if err != nil {
				return err
			}
			return mcpRunner(cmd.Context(), commandLogger(cmd, verbose))
		},
	}
}

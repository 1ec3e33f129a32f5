package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/prgate/prgate/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP stdio server for agent integration",
	Long: `Start an MCP (Model Context Protocol) server on stdio.

This lets coding agents query the review gate natively. Configure with:

  {
    "mcpServers": {
      "prgate": { "command": "prgate", "args": ["mcp"] }
    }
  }

Available tools: prgate_get_state, prgate_list_states`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := getStore()
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		return mcp.NewServer(s).ServeStdio(ctx)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

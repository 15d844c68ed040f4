package cli

import (
	"fmt"

	"github.com/neilberkman/researchtrail/cmd/researchtrail/mcp"
	"github.com/neilberkman/researchtrail/internal/core/config"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "serve-mcp",
	Short: "Start MCP server for assistant integration",
	Long: `Start an MCP (Model Context Protocol) server that lets an assistant
list your research sessions, read them as markdown and edit their notes.

Configure in your MCP client's config file:
  {
    "mcpServers": {
      "researchtrail": {
        "command": "researchtrail",
        "args": ["serve-mcp"]
      }
    }
  }
`,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := mcp.StartServer(resolveDB(cmd, cfg)); err != nil {
		return fmt.Errorf("MCP server failed: %w", err)
	}
	return nil
}

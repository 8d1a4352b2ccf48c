package main

import (
	"fmt"

	"github.com/panbanda/hoist/internal/mcpserver"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP (Model Context Protocol) server for LLM tool integration",
	Long: `Starts an MCP server over stdio transport that exposes hoist's analysis
as a tool that LLMs can invoke.

To use with an MCP client, add to its config:
  {
    "mcpServers": {
      "hoist": {
        "command": "hoist",
        "args": ["mcp"]
      }
    }
  }

Available tools:
  - find_superclass_opportunities  Near-duplicate methods and extract-superclass suggestions

Use --manifest to print the server.json used for registry publishing.`,
	RunE: runMCP,
}

func init() {
	mcpCmd.Flags().Bool("manifest", false, "Print the MCP server manifest and exit")
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	if manifest, _ := cmd.Flags().GetBool("manifest"); manifest {
		data, err := mcpserver.GenerateManifest(version)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}

	loaded, err := loadConfig()
	if err != nil {
		return err
	}
	server := mcpserver.NewServer(version,
		mcpserver.WithConfig(loaded.Config),
		mcpserver.WithLogger(logger),
	)
	return server.Run(cmd.Context())
}

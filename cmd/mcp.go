package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	mcpserver "github.com/ziadkadry99/esg-benchmark/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server for AI agent integration",
	Long:  `Starts a Model Context Protocol (MCP) server on stdio, exposing report analysis, cached results, report search and disclosure classification as tools.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(context.Background())
		if err != nil {
			return err
		}
		defer a.Close()

		classifier, err := a.classifier()
		if err != nil {
			return fmt.Errorf("creating classifier: %w", err)
		}

		// Set version from the cmd package variable.
		mcpserver.Version = Version

		fmt.Fprintf(os.Stderr, "esgbench MCP server started on stdio (cached companies=%d)\n", len(a.service.CachedCompanies()))

		srv := mcpserver.NewServer(a.service, classifier)
		return srv.Serve()
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/esg-benchmark/internal/vectordb"
)

var searchCmd = &cobra.Command{
	Use:   "search <report.pdf> <query>",
	Short: "Semantically search a report",
	Long:  `Builds (or reuses) the report's vector index and prints the passages closest to the query.`,
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		results, err := a.service.Search(ctx, args[0], args[1], limit)
		if err != nil {
			return fmt.Errorf("search failed: %w", err)
		}
		if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
			return writeJSON(results)
		}
		fmt.Print(vectordb.FormatPassages(results))
		return nil
	},
}

func init() {
	searchCmd.Flags().Int("limit", 5, "maximum number of passages")
	searchCmd.Flags().Bool("json", false, "output as JSON")
	rootCmd.AddCommand(searchCmd)
}

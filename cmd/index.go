package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/esg-benchmark/internal/vectordb"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Inspect and drop per-report vector indexes",
	Long: `Report indexes are stored under the vector directory by the SHA-256 of the
PDF contents, so renamed copies of a report share one index.`,
}

var indexStatusCmd = &cobra.Command{
	Use:   "status <report.pdf>",
	Short: "Show whether a report has a persisted index",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(context.Background())
		if err != nil {
			return err
		}
		defer a.Close()

		key, err := vectordb.HashFile(args[0])
		if err != nil {
			return err
		}
		idx, err := a.indexes.Open(key)
		if errors.Is(err, vectordb.ErrIndexNotFound) {
			fmt.Printf("%s\n  key:      %s\n  index:    none (built on first analysis)\n", args[0], key)
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Printf("%s\n  key:      %s\n  passages: %d\n", args[0], key, idx.Count())
		return nil
	},
}

var indexDropCmd = &cobra.Command{
	Use:   "drop <report.pdf>",
	Short: "Delete a report's local index so the next analysis rebuilds it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(context.Background())
		if err != nil {
			return err
		}
		defer a.Close()

		key, err := vectordb.HashFile(args[0])
		if err != nil {
			return err
		}
		if err := a.indexes.Reset(key); err != nil {
			return err
		}
		fmt.Printf("Dropped local index %s\n", key)
		return nil
	},
}

func init() {
	indexCmd.AddCommand(indexStatusCmd, indexDropCmd)
	rootCmd.AddCommand(indexCmd)
}

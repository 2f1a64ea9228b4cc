package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/esg-benchmark/internal/audit"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Show the analysis run journal",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		company, _ := cmd.Flags().GetString("company")
		action, _ := cmd.Flags().GetString("action")
		failed, _ := cmd.Flags().GetBool("failed")
		limit, _ := cmd.Flags().GetInt("limit")
		since, _ := cmd.Flags().GetDuration("since")

		filter := audit.QueryFilter{
			Company:    company,
			Action:     audit.Action(action),
			FailedOnly: failed,
			Limit:      limit,
		}
		if since > 0 {
			t := time.Now().Add(-since)
			filter.Since = &t
		}

		entries, err := a.journal.Query(ctx, filter)
		if err != nil {
			return err
		}
		if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
			return writeJSON(entries)
		}
		if len(entries) == 0 {
			fmt.Println("No runs recorded.")
			return nil
		}
		for _, e := range entries {
			status := "ok"
			if e.Error != "" {
				status = "error: " + e.Error
			} else if e.Cached {
				status = "cached"
			}
			fmt.Printf("%s  %-12s %-20s Y%-2d P%-2d N%-2d %6dms  %s\n",
				e.Timestamp.Local().Format("2006-01-02 15:04:05"),
				e.Action, e.Company, e.YesCount, e.PartialCount, e.NoCount, e.Duration, status)
		}
		return nil
	},
}

var runsPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete journal entries older than a given age",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		olderThan, _ := cmd.Flags().GetDuration("older-than")
		if olderThan <= 0 {
			return fmt.Errorf("--older-than must be positive")
		}

		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		n, err := a.journal.DeleteBefore(ctx, time.Now().Add(-olderThan))
		if err != nil {
			return err
		}
		fmt.Printf("Deleted %d journal entries\n", n)
		return nil
	},
}

func init() {
	runsPruneCmd.Flags().Duration("older-than", 30*24*time.Hour, "age of entries to delete")
	runsCmd.AddCommand(runsPruneCmd)

	runsCmd.Flags().String("company", "", "only runs for this company")
	runsCmd.Flags().String("action", "", "only this action: analyze, keyword, reanalyze, classify, cache_delete, cache_clear")
	runsCmd.Flags().Bool("failed", false, "only failed runs")
	runsCmd.Flags().Int("limit", 50, "maximum number of runs")
	runsCmd.Flags().Duration("since", 0, "only runs newer than this (e.g. 24h)")
	runsCmd.Flags().Bool("json", false, "output as JSON")
	rootCmd.AddCommand(runsCmd)
}

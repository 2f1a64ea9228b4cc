package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/esg-benchmark/internal/progress"
)

var reanalyzeCmd = &cobra.Command{
	Use:   "reanalyze",
	Short: "Clear the analysis cache and re-analyze every uploaded report",
	Long: `Backs up and clears all cached analyses, then analyzes the newest upload of
each company found in the uploads directory. Failures are reported per company.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		dir, _ := cmd.Flags().GetString("dir")
		if dir == "" {
			dir = a.cfg.UploadsPath()
		}

		report, err := a.service.ReanalyzeAll(ctx, dir, progress.NewReporter())
		if err != nil {
			return err
		}

		fmt.Printf("\nRe-analyzed %d companies, %d failed\n", report.Analyzed, report.Failed)
		if report.BackupPath != "" {
			fmt.Printf("Previous cache backed up to %s\n", report.BackupPath)
		}
		for _, f := range report.Failures {
			fmt.Printf("  FAILED %-24s %s\n", f.Name, f.Error)
		}
		a.printUsage()
		return nil
	},
}

func init() {
	reanalyzeCmd.Flags().String("dir", "", "directory of uploaded reports (default: uploads_dir)")
	rootCmd.AddCommand(reanalyzeCmd)
}

package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and manage cached company analyses",
}

var cacheListCmd = &cobra.Command{
	Use:   "list",
	Short: "List companies with a cached analysis",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(context.Background())
		if err != nil {
			return err
		}
		defer a.Close()

		companies := a.service.CachedCompanies()
		if len(companies) == 0 {
			fmt.Println("No cached analyses.")
			return nil
		}
		for _, c := range companies {
			m, _ := a.service.CachedCompany(c)
			yes, partial, no := m.Counts()
			fmt.Printf("  %-24s Yes %2d  Partially %2d  No %2d\n", c, yes, partial, no)
		}
		return nil
	},
}

var cacheShowCmd = &cobra.Command{
	Use:   "show <company>",
	Short: "Print a cached analysis",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(context.Background())
		if err != nil {
			return err
		}
		defer a.Close()

		m, err := a.service.CachedCompany(args[0])
		if err != nil {
			return err
		}
		if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
			return writeJSON(m)
		}
		printCoverage(args[0], m)
		return nil
	},
}

var cacheDeleteCmd = &cobra.Command{
	Use:   "delete <company>",
	Short: "Forget a company's cached analysis",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		deleted, err := a.service.DeleteCompanyCache(ctx, args[0])
		if err != nil {
			return err
		}
		if !deleted {
			return fmt.Errorf("no analysis cached for %s", args[0])
		}
		fmt.Printf("Deleted cached analysis for %s\n", args[0])
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Back up and clear every cached analysis",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		backup, err := a.service.ClearAnalyses(ctx)
		if err != nil {
			return err
		}
		fmt.Println("Analysis cache cleared.")
		if backup != "" {
			fmt.Printf("Backup: %s\n", backup)
		}
		return nil
	},
}

var cacheReloadCmd = &cobra.Command{
	Use:   "reload",
	Short: "Re-read the analysis store and report what it holds",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.service.Reload(ctx); err != nil {
			return err
		}
		fmt.Printf("Analysis store holds %d companies (%s backend)\n", len(a.service.CachedCompanies()), a.cfg.Cache.Backend)
		return nil
	},
}

func init() {
	cacheShowCmd.Flags().Bool("json", false, "output as JSON")
	cacheCmd.AddCommand(cacheListCmd, cacheShowCmd, cacheDeleteCmd, cacheClearCmd, cacheReloadCmd)
	rootCmd.AddCommand(cacheCmd)
}

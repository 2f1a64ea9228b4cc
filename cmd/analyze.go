package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/esg-benchmark/internal/coverage"
	"github.com/ziadkadry99/esg-benchmark/internal/taxonomy"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <company> <report.pdf>",
	Short: "Rate a sustainability report against the reference issues",
	Long: `Extracts the report's material issues, matches them to the 18 reference
issues, and searches the report for the rest. The result is cached under the
company name; a cached result is returned without calling any model.`,
	Args: cobra.ExactArgs(2),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().Bool("json", false, "output results as JSON")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	company, path := args[0], args[1]
	jsonOutput, _ := cmd.Flags().GetBool("json")

	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("report not found: %s", path)
	}

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	m, err := a.service.AnalyzeCompanyIssues(ctx, path, company)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	if jsonOutput {
		return writeJSON(map[string]any{
			"company_name": company,
			"data":         m,
			"summary":      coverage.Summarize(m),
		})
	}

	printCoverage(company, m)
	a.printUsage()
	return nil
}

// printCoverage prints a coverage map in taxonomy order.
func printCoverage(company string, m coverage.Map) {
	sum := coverage.Summarize(m)
	fmt.Printf("%s\n", company)
	fmt.Println(strings.Repeat("=", len(company)))
	for _, it := range taxonomy.All() {
		r, ok := m[it.Name]
		if !ok {
			continue
		}
		pages := ""
		if len(r.SourcePages) > 0 {
			pages = fmt.Sprintf("  p.%v", r.SourcePages)
		}
		fmt.Printf("  [%s] %-10s %s%s\n", it.Category, r.Coverage, it.Name, pages)
		if verbose && r.Response != "" {
			fmt.Printf("        %s\n", strings.ReplaceAll(r.Response, "\n", "\n        "))
		}
	}
	fmt.Println()
	fmt.Printf("  Full: %d  Partial: %d  None: %d  Coverage: %.1f%%\n", sum.Full, sum.Partial, sum.None, sum.CoverageRate)
}

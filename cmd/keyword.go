package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/esg-benchmark/internal/benchmark"
	"github.com/ziadkadry99/esg-benchmark/internal/uploads"
)

var keywordCmd = &cobra.Command{
	Use:   "keyword <keyword> [report.pdf...]",
	Short: "Rate how well reports cover a keyword",
	Long: `Asks each report about the keyword and rates coverage by how much the report
says about it. With no report arguments, the newest upload of every company in
the uploads directory is used. Company names come from the file names.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runKeyword,
}

func init() {
	keywordCmd.Flags().Bool("json", false, "output results as JSON")
	rootCmd.AddCommand(keywordCmd)
}

func runKeyword(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	keyword := args[0]
	jsonOutput, _ := cmd.Flags().GetBool("json")

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	var companies []benchmark.CompanyReport
	if len(args) > 1 {
		for _, path := range args[1:] {
			companies = append(companies, benchmark.CompanyReport{
				Name: uploads.CompanyName(filepath.Base(path)),
				Path: path,
			})
		}
	} else {
		reports, err := uploads.List(a.cfg.UploadsPath())
		if err != nil {
			return err
		}
		for _, r := range uploads.LatestPerCompany(reports) {
			companies = append(companies, benchmark.CompanyReport{Name: r.Company, Path: r.Path})
		}
	}
	if len(companies) == 0 {
		return fmt.Errorf("no reports to analyze")
	}

	results, err := a.service.AnalyzeKeywordForCompanies(ctx, keyword, companies)
	if err != nil {
		return err
	}
	summary := a.service.Summarize(results)

	if jsonOutput {
		return writeJSON(map[string]any{
			"keyword": keyword,
			"results": results,
			"summary": summary,
		})
	}

	names := make([]string, 0, len(results))
	for name := range results {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Printf("Keyword: %s\n\n", keyword)
	for _, name := range names {
		r := results[name]
		fmt.Printf("  %-24s %-10s %s\n", name, r.Coverage, firstLine(r.Response, 80))
	}
	fmt.Println()
	fmt.Printf("  Companies: %d  Full: %d  Partial: %d  None: %d  Coverage: %.1f%%\n",
		summary.Total, summary.Full, summary.Partial, summary.None, summary.CoverageRate)
	a.printUsage()
	return nil
}

// firstLine returns the first line of s cut to n runes.
func firstLine(s string, n int) string {
	for i, r := range s {
		if r == '\n' {
			s = s[:i]
			break
		}
	}
	runes := []rune(s)
	if len(runes) > n {
		return string(runes[:n]) + "..."
	}
	return s
}

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/esg-benchmark/internal/pdftext"
	"github.com/ziadkadry99/esg-benchmark/internal/standards"
)

var classifyCmd = &cobra.Command{
	Use:   "classify [disclosure text]",
	Short: "Map standard disclosures onto the reference issues",
	Long: `Classifies a single disclosure given as text, or with --pdf extracts every
disclosure from a standard document (GRI, SASB, ...) and classifies each one,
grouping the results by reference issue.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runClassify,
}

func init() {
	classifyCmd.Flags().String("pdf", "", "standard document to extract disclosures from")
	classifyCmd.Flags().String("standard", "", "standard name recorded on extracted disclosures (e.g. GRI)")
	classifyCmd.Flags().Bool("json", false, "output results as JSON")
	rootCmd.AddCommand(classifyCmd)
}

func runClassify(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	pdfPath, _ := cmd.Flags().GetString("pdf")
	standard, _ := cmd.Flags().GetString("standard")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	if pdfPath == "" && len(args) == 0 {
		return fmt.Errorf("give disclosure text or --pdf")
	}

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	defer a.printUsage()

	classifier, err := a.classifier()
	if err != nil {
		return fmt.Errorf("creating classifier: %w", err)
	}

	if pdfPath == "" {
		c, err := classifier.ClassifyText(ctx, args[0])
		if err != nil {
			return err
		}
		if jsonOutput {
			return writeJSON(c)
		}
		printClassification(c)
		return nil
	}

	extractor := standards.NewExtractor(a.usage, pdftext.NewPDFExtractor(), a.cfg.Model, a.logger)
	disclosures, err := extractor.ExtractFromPDF(ctx, pdfPath, standard)
	if err != nil {
		return err
	}
	disclosures = standards.Dedupe(disclosures)
	if len(disclosures) == 0 {
		fmt.Fprintln(os.Stderr, "No disclosures found.")
		return nil
	}

	results := classifier.ClassifyAll(ctx, disclosures)
	groups := standards.GroupByItem(results)
	if jsonOutput {
		return writeJSON(map[string]any{
			"classifications": results,
			"groups":          groups,
			"count":           len(results),
		})
	}

	for _, g := range groups {
		if len(g.Disclosures) == 0 {
			continue
		}
		fmt.Printf("[%s] %s\n", g.Category, g.Item)
		for _, d := range g.Disclosures {
			fmt.Printf("    %-12s %s\n", d.ID, d.Title)
		}
	}
	failed := 0
	for _, r := range results {
		if r.Error != "" {
			failed++
		}
	}
	fmt.Printf("\n%d disclosure(s) classified, %d failed\n", len(results)-failed, failed)
	return nil
}

func printClassification(c standards.Classification) {
	fmt.Printf("Issue:      %s [%s]\n", c.Item, c.Category)
	fmt.Printf("Confidence: %.2f\n", c.Confidence)
	if c.Rationale != "" {
		fmt.Printf("Rationale:  %s\n", c.Rationale)
	}
	var names []string
	for _, cand := range c.Candidates {
		names = append(names, fmt.Sprintf("%s (%.3f)", cand.Item, cand.Similarity))
	}
	fmt.Printf("Candidates: %s\n", strings.Join(names, ", "))
}

func writeJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/esg-benchmark/internal/config"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "esgbench",
	Short: "Benchmark sustainability reports against a reference ESG issue list",
	Long: `esgbench reads corporate sustainability report PDFs, extracts the material
issues each company declares, and rates how well the report covers every item
of an 18-issue ESG reference list. It also maps standard disclosures (GRI,
SASB, ...) onto the same list, and serves results over HTTP and MCP.`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", config.DefaultPath, "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/esg-benchmark/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize esgbench configuration with an interactive wizard",
	Long:  `Runs an interactive wizard to pick providers and storage locations and writes a .esgbench.yml file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard(cfgFile)
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}

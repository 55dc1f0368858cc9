package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"fiscampos/internal/logger"
)

var version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:   "fiscampos",
	Short: "fiscampos - NFS-e import and ISS analysis for municipal service invoices",
	Long: `fiscampos reads Brazilian electronic service invoices (NFS-e) from XML files
or ZIP archives, classifies each invoice as cancelled or active and as due to
the home municipality or elsewhere, and summarises the ISS burden.

Results can be shown as a table with summary cards, written as JSON, YAML or
XLSX, appended to a Google Sheet, or summarised by an OpenAI model.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	log := logger.WithComponent("cmd")

	if err := rootCmd.Execute(); err != nil {
		log.Error().
			Err(err).
			Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Erro: %v\n", err)
		os.Exit(1)
	}
}

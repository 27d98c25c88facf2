package cmd

import (
	"github.com/ardanlabs/provenance/foundation/analysis"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var fingerprintCmd = &cobra.Command{
	Use:   "fingerprint <file>",
	Short: "Print the content fingerprint of a file.",
	Args:  cobra.ExactArgs(1),
	RunE:  fingerprintRun,
}

func init() {
	rootCmd.AddCommand(fingerprintCmd)
}

func fingerprintRun(cmd *cobra.Command, args []string) error {
	hash, err := analysis.FingerprintFile(args[0])
	if err != nil {
		return err
	}

	pterm.Println(hash)

	return nil
}

package cmd

import (
	"github.com/ardanlabs/provenance/foundation/blockchain/database"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Replay and verify the chain held in storage.",
	RunE:  verifyRun,
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}

func verifyRun(cmd *cobra.Command, args []string) error {
	db, err := openDatabase()
	if err != nil {
		if ie := database.GetIntegrityError(err); ie != nil {
			printIntegrity(ie)
		}
		return err
	}
	defer db.Close()

	if err := db.Verify(); err != nil {
		if ie := database.GetIntegrityError(err); ie != nil {
			printIntegrity(ie)
		}
		return err
	}

	pterm.Success.Printfln("chain is valid, height %d", db.Height())

	return nil
}

func printIntegrity(ie *database.IntegrityError) {
	data := pterm.TableData{
		{"first bad block", pterm.Sprint(ie.Number)},
		{"reason", ie.Reason},
	}
	if ie.Expected != "" || ie.Actual != "" {
		data = append(data, []string{"expected", ie.Expected}, []string{"actual", ie.Actual})
	}

	pterm.DefaultTable.WithData(data).Render()
}

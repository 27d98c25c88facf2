package cmd

import (
	"strconv"

	"github.com/ardanlabs/provenance/business/web/errs"
	"github.com/ardanlabs/provenance/foundation/blockchain/database"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var proof string

var sealCmd = &cobra.Command{
	Use:   "seal",
	Short: "Ask the node to seal the pending transactions into a block.",
	RunE:  sealRun,
}

func init() {
	rootCmd.AddCommand(sealCmd)
	sealCmd.Flags().StringVarP(&proof, "proof", "p", "", "Proof for the block, empty lets the node produce one.")
}

func sealRun(cmd *cobra.Command, args []string) error {
	var bd database.BlockData
	resp, err := client().R().
		SetBody(map[string]string{"proof": proof}).
		SetResult(&bd).
		SetError(&errs.Response{}).
		Post("/v1/blocks/seal")
	if err := checkResponse(resp, err); err != nil {
		return err
	}

	block, err := database.ToBlock(bd)
	if err != nil {
		return err
	}

	pterm.Success.Printfln("sealed block %d with %d transactions", block.Number, len(block.Trans))

	return pterm.DefaultTable.WithData(pterm.TableData{
		{"proof", block.Proof},
		{"prev", block.PrevBlockHash},
		{"hash", block.Hash()},
		{"trans", strconv.Itoa(len(block.Trans))},
	}).Render()
}

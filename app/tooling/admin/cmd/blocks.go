package cmd

import (
	"strconv"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var (
	fromBlock uint64
	toBlock   uint64
)

var blocksCmd = &cobra.Command{
	Use:   "blocks",
	Short: "Print the blocks held in storage.",
	RunE:  blocksRun,
}

func init() {
	rootCmd.AddCommand(blocksCmd)
	blocksCmd.Flags().Uint64VarP(&fromBlock, "from", "f", 1, "First block to print.")
	blocksCmd.Flags().Uint64VarP(&toBlock, "to", "t", 0, "Last block to print, 0 for the latest.")
}

func blocksRun(cmd *cobra.Command, args []string) error {
	db, err := openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	to := toBlock
	if to == 0 {
		to = db.Height()
	}

	data := pterm.TableData{
		{"Number", "Sealed", "Trans", "Proof", "Hash"},
	}
	for _, block := range db.Blocks(fromBlock, to) {
		sealed := time.UnixMicro(int64(block.TimeStamp)).UTC().Format(time.RFC3339)
		data = append(data, []string{
			strconv.FormatUint(block.Number, 10),
			sealed,
			strconv.Itoa(len(block.Trans)),
			block.Proof,
			block.Hash(),
		})
	}

	return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}

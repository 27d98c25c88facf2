// Package cmd contains the admin commands for the provenance ledger.
package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/ardanlabs/provenance/business/web/errs"
	"github.com/ardanlabs/provenance/foundation/blockchain/database"
	"github.com/ardanlabs/provenance/foundation/blockchain/database/storage"
	"github.com/ardanlabs/provenance/foundation/blockchain/genesis"
	"github.com/go-resty/resty/v2"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var (
	dbPath      string
	storageKind string
	genesisPath string
	url         string
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "zblock/blocks.db", "Path to the blocks storage.")
	rootCmd.PersistentFlags().StringVarP(&storageKind, "storage", "s", storage.KindFile, "Kind of storage: file or disk.")
	rootCmd.PersistentFlags().StringVarP(&genesisPath, "genesis", "g", "zblock/genesis.json", "Path to the genesis file.")
	rootCmd.PersistentFlags().StringVarP(&url, "url", "u", "http://localhost:8080", "Url of the node.")
}

var rootCmd = &cobra.Command{
	Use:           "admin",
	Short:         "Administer the provenance ledger",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the command specified on the command line.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}
}

// openDatabase replays the chain held in storage. The caller must close
// the returned database.
func openDatabase() (*database.Database, error) {
	gen, err := genesis.Load(genesisPath)
	if err != nil {
		return nil, fmt.Errorf("loading genesis: %w", err)
	}

	serializer, err := storage.Open(storageKind, dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening storage: %w", err)
	}

	db, err := database.New(gen, serializer, nil)
	if err != nil {
		serializer.Close()
		return nil, err
	}

	return db, nil
}

// client constructs the client used to talk to the node.
func client() *resty.Client {
	return resty.New().
		SetBaseURL(url).
		SetTimeout(30*time.Second).
		SetHeader("Content-Type", "application/json")
}

// checkResponse converts a failed response into an error.
func checkResponse(resp *resty.Response, err error) error {
	if err != nil {
		return err
	}

	if resp.IsError() {
		if ae, ok := resp.Error().(*errs.Response); ok && ae.Error != "" {
			if len(ae.Fields) > 0 {
				return fmt.Errorf("%s: %s %v", resp.Status(), ae.Error, ae.Fields)
			}
			return fmt.Errorf("%s: %s", resp.Status(), ae.Error)
		}
		return fmt.Errorf("%s", resp.Status())
	}

	return nil
}

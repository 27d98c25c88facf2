// Package genesis maintains access to the genesis file.
package genesis

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"time"
)

// DefaultProof is the sealing value placed in the genesis block when the
// genesis file does not provide one.
const DefaultProof = "100"

// Genesis represents the genesis file.
type Genesis struct {
	Date    time.Time `json:"date"`
	ChainID uint16    `json:"chain_id"` // The chain id represents an unique id for this running instance.
	Proof   string    `json:"proof"`    // Sealing value recorded in the genesis block.
}

// Default returns the genesis information used when no file exists.
func Default() Genesis {
	return Genesis{
		ChainID: 1,
		Proof:   DefaultProof,
	}
}

// =============================================================================

// Load opens and consumes the genesis file. A missing file is not an error,
// the default genesis is returned instead.
func Load(path string) (Genesis, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Default(), nil
		}
		return Genesis{}, err
	}

	var genesis Genesis
	if err := json.Unmarshal(content, &genesis); err != nil {
		return Genesis{}, err
	}

	if genesis.Proof == "" {
		genesis.Proof = DefaultProof
	}

	return genesis, nil
}

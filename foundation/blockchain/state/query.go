package state

import (
	"errors"
	"fmt"

	"github.com/ardanlabs/provenance/foundation/blockchain/database"
	"github.com/ardanlabs/provenance/foundation/blockchain/merkle"
)

// Snapshot represents the full chain at one point in time.
type Snapshot struct {
	Chain  []database.Block `json:"chain"`
	Length int              `json:"length"`
}

// TxProof proves a single transaction was sealed into a block.
type TxProof struct {
	Number uint64       `json:"number"`
	Root   string       `json:"root"`
	Tx     database.Tx  `json:"tx"`
	Proof  merkle.Proof `json:"proof"`
}

// =============================================================================

// Height returns the number of sealed blocks including the genesis block.
func (s *State) Height() uint64 {
	return s.db.Height()
}

// LatestBlock returns a copy of the most recently sealed block.
func (s *State) LatestBlock() (database.Block, error) {
	return s.db.LatestBlock()
}

// BlockAt returns a copy of the block with the specified number.
func (s *State) BlockAt(number uint64) (database.Block, error) {
	return s.db.BlockAt(number)
}

// Blocks returns the blocks between from and to inclusive.
func (s *State) Blocks(from uint64, to uint64) []database.Block {
	return s.db.Blocks(from, to)
}

// Snapshot returns a copy of the whole chain.
func (s *State) Snapshot() Snapshot {
	chain := s.db.Blocks(1, s.db.Height())

	return Snapshot{
		Chain:  chain,
		Length: len(chain),
	}
}

// PendingTransactions returns a copy of the transactions waiting to be sealed.
func (s *State) PendingTransactions() []database.Tx {
	return s.mempool.Copy()
}

// PendingCount returns the number of transactions waiting to be sealed.
func (s *State) PendingCount() int {
	return s.mempool.Count()
}

// Verify checks the linkage of the whole chain, reporting the first block
// that doesn't link to the block before it.
func (s *State) Verify() error {
	return s.db.Verify()
}

// TxProof returns the merkle inclusion proof for the transaction at the
// specified position of a sealed block.
func (s *State) TxProof(number uint64, index int) (TxProof, error) {
	block, err := s.db.BlockAt(number)
	if err != nil {
		return TxProof{}, err
	}

	if index < 0 || index >= len(block.Trans) {
		return TxProof{}, fmt.Errorf("block %d tx %d: %w", number, index, database.ErrNotFound)
	}

	tree, err := block.TxTree()
	if err != nil {
		if errors.Is(err, merkle.ErrNoLeaves) {
			return TxProof{}, fmt.Errorf("block %d has no transactions: %w", number, database.ErrNotFound)
		}
		return TxProof{}, err
	}

	proof, err := tree.Proof(index)
	if err != nil {
		return TxProof{}, err
	}

	return TxProof{
		Number: number,
		Root:   tree.RootHex(),
		Tx:     block.Trans[index],
		Proof:  proof,
	}, nil
}

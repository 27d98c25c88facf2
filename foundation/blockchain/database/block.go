package database

import (
	"fmt"
	"strconv"

	"github.com/ardanlabs/provenance/foundation/blockchain/genesis"
	"github.com/ardanlabs/provenance/foundation/blockchain/merkle"
	"github.com/ardanlabs/provenance/foundation/blockchain/signature"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// GenesisPrevHash is the sentinel stored as the previous block hash of the
// genesis block.
const GenesisPrevHash = "1"

// =============================================================================

// Block represents a group of transactions sealed together.
type Block struct {
	Number        uint64 `json:"number"`          // Position in the chain starting at 1.
	TimeStamp     uint64 `json:"timestamp"`       // Microseconds since the unix epoch when sealed.
	Trans         []Tx   `json:"trans"`           // Transactions sealed into this block.
	Proof         string `json:"proof"`           // Sealing value accepted by the sealing strategy.
	PrevBlockHash string `json:"prev_block_hash"` // Hash of the previous block in the chain.
}

// NewGenesisBlock constructs the first block of a chain.
func NewGenesisBlock(gen genesis.Genesis) Block {
	return Block{
		Number:        1,
		TimeStamp:     Now(),
		Trans:         []Tx{},
		Proof:         gen.Proof,
		PrevBlockHash: GenesisPrevHash,
	}
}

// NewBlock constructs the block that follows the previous block, taking
// ownership of the specified transactions.
func NewBlock(prevBlock Block, trans []Tx, proof string) Block {
	if trans == nil {
		trans = []Tx{}
	}

	return Block{
		Number:        prevBlock.Number + 1,
		TimeStamp:     Now(),
		Trans:         trans,
		Proof:         proof,
		PrevBlockHash: prevBlock.Hash(),
	}
}

// Hash returns the unique hash for the Block computed over the canonical
// encoding of all its fields.
func (b Block) Hash() string {
	return signature.Hash(b)
}

// WithProof returns a copy of the block carrying the specified proof.
func (b Block) WithProof(proof string) Block {
	b.Proof = proof
	return b
}

// Clone returns a copy of the block that shares no memory with the original.
func (b Block) Clone() Block {
	trans := make([]Tx, len(b.Trans))
	for i, tx := range b.Trans {
		trans[i] = tx.Clone()
	}
	b.Trans = trans

	return b
}

// TxTree constructs the merkle tree over the digests of the block's
// transactions. A block with no transactions has no tree.
func (b Block) TxTree() (*merkle.Tree, error) {
	leaves := make([][]byte, len(b.Trans))
	for i, tx := range b.Trans {
		leaf, err := hexutil.Decode(tx.Hash())
		if err != nil {
			return nil, fmt.Errorf("decoding tx %d hash: %w", i, err)
		}
		leaves[i] = leaf
	}

	return merkle.NewTree(leaves)
}

// ValidateTrans checks every transaction of the block can be recorded.
// Blocks are only hashed once their transactions pass.
func (b Block) ValidateTrans() error {
	for i, tx := range b.Trans {
		if err := tx.Validate(); err != nil {
			return fmt.Errorf("block %d tx %d: %w", b.Number, i, err)
		}
	}

	return nil
}

// ValidateNext checks the block can follow the previous block in the chain.
func (b Block) ValidateNext(prevBlock Block) error {
	nextNumber := prevBlock.Number + 1
	if b.Number != nextNumber {
		return &IntegrityError{
			Number:   b.Number,
			Reason:   "block number is not the next number",
			Expected: strconv.FormatUint(nextNumber, 10),
			Actual:   strconv.FormatUint(b.Number, 10),
		}
	}

	if hash := prevBlock.Hash(); b.PrevBlockHash != hash {
		return &IntegrityError{
			Number:   b.Number,
			Reason:   "previous block hash doesn't match the previous block",
			Expected: hash,
			Actual:   b.PrevBlockHash,
		}
	}

	return nil
}

// validateGenesis checks the block is a proper first block.
func (b Block) validateGenesis() error {
	if b.Number != 1 {
		return &IntegrityError{
			Number:   b.Number,
			Reason:   "first block is not number 1",
			Expected: "1",
			Actual:   strconv.FormatUint(b.Number, 10),
		}
	}

	if b.PrevBlockHash != GenesisPrevHash {
		return &IntegrityError{
			Number:   b.Number,
			Reason:   "genesis previous block hash is not the sentinel",
			Expected: GenesisPrevHash,
			Actual:   b.PrevBlockHash,
		}
	}

	return nil
}

// =============================================================================

// BlockData represents what is written to storage. The hash is stored with
// the block so a record altered at rest can be identified on replay.
type BlockData struct {
	Hash  string `json:"hash"`
	Block Block  `json:"block"`
}

// NewBlockData constructs the value to serialize to storage.
func NewBlockData(block Block) BlockData {
	return BlockData{
		Hash:  block.Hash(),
		Block: block,
	}
}

// ToBlock converts a storage record into a Block, checking the stored hash
// still matches the block contents.
func ToBlock(blockData BlockData) (Block, error) {
	block := blockData.Block
	if block.Trans == nil {
		block.Trans = []Tx{}
	}

	if err := block.ValidateTrans(); err != nil {
		return Block{}, &IntegrityError{
			Number: block.Number,
			Reason: err.Error(),
		}
	}

	if hash := block.Hash(); blockData.Hash != hash {
		return Block{}, &IntegrityError{
			Number:   block.Number,
			Reason:   "stored block hash doesn't match block contents",
			Expected: hash,
			Actual:   blockData.Hash,
		}
	}

	return block, nil
}

// String implements the Stringer interface for logging.
func (b Block) String() string {
	return fmt.Sprintf("blk[%d]: trans[%d]: prev[%s]", b.Number, len(b.Trans), b.PrevBlockHash)
}

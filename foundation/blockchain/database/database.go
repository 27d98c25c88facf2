// Package database handles all the lower level support for maintaining the
// chain of sealed blocks in memory and on storage.
package database

import (
	"fmt"
	"sync"

	"github.com/ardanlabs/provenance/foundation/blockchain/genesis"
)

// Serializer interface represents the behavior required to be implemented by any
// package providing support for storing and reading the blockchain.
type Serializer interface {
	Write(blockData BlockData) error
	ForEach() Iterator
	Close() error
}

// Iterator interface represents the behavior required to be implemented by any
// package providing support to iterate over the blocks.
type Iterator interface {
	Next() (BlockData, error)
	Done() bool
}

// =============================================================================

// Database manages the chain of blocks. Blocks are held in memory for
// reads and written to the serializer before they become visible.
type Database struct {
	wmu sync.Mutex   // Serializes writers across storage and memory.
	mu  sync.RWMutex // Guards the blocks slice for readers.

	genesis    genesis.Genesis
	blocks     []Block
	serializer Serializer
}

// New constructs a new database, replaying and validating the blocks stored
// by the serializer. When storage is empty the genesis block is created and
// written.
func New(gen genesis.Genesis, serializer Serializer, evHandler func(v string, args ...any)) (*Database, error) {
	ev := func(v string, args ...any) {
		if evHandler != nil {
			evHandler(v, args...)
		}
	}

	db := Database{
		genesis:    gen,
		serializer: serializer,
	}

	ev("database: New: replay: started")

	// Read all the blocks from storage, validating each one against the
	// block before it.
	iter := db.serializer.ForEach()
	for blockData, err := iter.Next(); !iter.Done(); blockData, err = iter.Next() {
		if err != nil {
			return nil, fmt.Errorf("reading block %d: %w", len(db.blocks)+1, err)
		}

		block, err := ToBlock(blockData)
		if err != nil {
			return nil, err
		}

		switch len(db.blocks) {
		case 0:
			err = block.validateGenesis()
		default:
			err = block.ValidateNext(db.blocks[len(db.blocks)-1])
		}
		if err != nil {
			return nil, err
		}

		ev("database: New: replay: %s", block)
		db.blocks = append(db.blocks, block)
	}

	ev("database: New: replay: completed: blocks[%d]", len(db.blocks))

	// A new chain always starts with the genesis block.
	if len(db.blocks) == 0 {
		block := NewGenesisBlock(gen)
		if err := db.serializer.Write(NewBlockData(block)); err != nil {
			return nil, fmt.Errorf("writing genesis block: %w", err)
		}

		ev("database: New: genesis: %s", block)
		db.blocks = append(db.blocks, block)
	}

	// The chain must verify before any new writes are accepted.
	if err := db.Verify(); err != nil {
		return nil, err
	}

	return &db, nil
}

// Close closes the open blocks database.
func (db *Database) Close() error {
	return db.serializer.Close()
}

// Genesis returns a copy of the genesis information.
func (db *Database) Genesis() genesis.Genesis {
	return db.genesis
}

// Add validates the block follows the latest block, writes it to storage
// and then makes it visible to readers. A block that fails to write is
// never published.
func (db *Database) Add(block Block) error {
	db.wmu.Lock()
	defer db.wmu.Unlock()

	latestBlock, err := db.LatestBlock()
	if err != nil {
		return err
	}

	if err := block.ValidateTrans(); err != nil {
		return err
	}

	if err := block.ValidateNext(latestBlock); err != nil {
		return err
	}

	block = block.Clone()

	if err := db.serializer.Write(NewBlockData(block)); err != nil {
		return fmt.Errorf("writing block %d: %w", block.Number, err)
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	db.blocks = append(db.blocks, block)

	return nil
}

// Height returns the number of blocks in the chain.
func (db *Database) Height() uint64 {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return uint64(len(db.blocks))
}

// LatestBlock returns the latest block.
func (db *Database) LatestBlock() (Block, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	if len(db.blocks) == 0 {
		return Block{}, ErrEmptyChain
	}

	return db.blocks[len(db.blocks)-1].Clone(), nil
}

// BlockAt returns the block with the specified number.
func (db *Database) BlockAt(number uint64) (Block, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	if number < 1 || number > uint64(len(db.blocks)) {
		return Block{}, fmt.Errorf("block %d: %w", number, ErrNotFound)
	}

	return db.blocks[number-1].Clone(), nil
}

// Blocks returns a copy of the blocks between from and to inclusive. The
// range is clipped to the blocks that exist.
func (db *Database) Blocks(from uint64, to uint64) []Block {
	db.mu.RLock()
	defer db.mu.RUnlock()

	if from < 1 {
		from = 1
	}
	if to > uint64(len(db.blocks)) {
		to = uint64(len(db.blocks))
	}

	var out []Block
	for i := from; i <= to; i++ {
		out = append(out, db.blocks[i-1].Clone())
	}

	return out
}

// Verify walks the chain from the genesis block forward checking every block
// holds recordable transactions and links to the hash of the block before
// it. The first inconsistent block is reported through an IntegrityError.
func (db *Database) Verify() error {
	db.mu.RLock()
	defer db.mu.RUnlock()

	if len(db.blocks) == 0 {
		return ErrEmptyChain
	}

	if err := db.blocks[0].validateGenesis(); err != nil {
		return err
	}

	// A block is checked before the block after it hashes it.
	for i := range db.blocks {
		if err := db.blocks[i].ValidateTrans(); err != nil {
			return &IntegrityError{
				Number: db.blocks[i].Number,
				Reason: err.Error(),
			}
		}

		if i+1 < len(db.blocks) {
			if err := db.blocks[i+1].ValidateNext(db.blocks[i]); err != nil {
				return err
			}
		}
	}

	return nil
}

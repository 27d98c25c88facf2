// Package memory implements the ability to read and write blocks to memory
// using a slice.
package memory

import (
	"errors"
	"sync"

	"github.com/ardanlabs/provenance/foundation/blockchain/database"
)

// Memory represents the serialization implementation for reading and storing
// blocks in memory using a slice. This implements the database.Serializer
// interface.
type Memory struct {
	mu     sync.RWMutex
	blocks []database.BlockData
}

// New constructs an Memory value for use.
func New() *Memory {
	return &Memory{}
}

// Close in this implementation has nothing to do since everything
// is in memory.
func (m *Memory) Close() error {
	return nil
}

// Write takes the specified database block and stores a copy in memory.
func (m *Memory) Write(blockData database.BlockData) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	l := len(m.blocks)
	if uint64(l+1) != blockData.Block.Number {
		return errors.New("block is out of order")
	}

	blockData.Block = blockData.Block.Clone()
	m.blocks = append(m.blocks, blockData)

	return nil
}

// GetBlock locates and returns a copy of the record for the specified
// block number.
func (m *Memory) GetBlock(num uint64) (database.BlockData, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if num < 1 || num > uint64(len(m.blocks)) {
		return database.BlockData{}, errors.New("block does not exist")
	}

	blockData := m.blocks[num-1]
	blockData.Block = blockData.Block.Clone()

	return blockData, nil
}

// ForEach returns an iterator to walk through all the blocks
// starting with block number 1.
func (m *Memory) ForEach() database.Iterator {
	return &memoryIterator{storage: m}
}

// =============================================================================

// memoryIterator represents the iteration implementation for walking
// through the blocks in memory. This implements the database
// Iterator interface.
type memoryIterator struct {
	storage *Memory // Access to the storage API.
	current uint64  // Current block number being iterated over.
	eoc     bool    // Represents the iterator is at the end of the chain.
}

// Next retrieves the next block from memory.
func (mi *memoryIterator) Next() (database.BlockData, error) {
	if mi.eoc {
		return database.BlockData{}, errors.New("end of chain")
	}

	mi.current++
	blockData, err := mi.storage.GetBlock(mi.current)
	if err != nil {
		mi.eoc = true
	}

	return blockData, err
}

// Done returns the end of chain value.
func (mi *memoryIterator) Done() bool {
	return mi.eoc
}

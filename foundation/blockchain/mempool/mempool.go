// Package mempool maintains the pool of transactions waiting to be sealed
// into the next block.
package mempool

import (
	"sync"

	"github.com/ardanlabs/provenance/foundation/blockchain/database"
)

// Mempool represents the ordered set of pending transactions. Transactions
// are kept in the order they were added and are never deduplicated.
type Mempool struct {
	mu   sync.RWMutex
	pool []database.Tx
}

// New constructs a new, empty mempool.
func New() *Mempool {
	return &Mempool{}
}

// Count returns the current number of transactions in the pool.
func (mp *Mempool) Count() int {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	return len(mp.pool)
}

// Add appends a transaction to the end of the pool, assigning the current
// time when the transaction has no timestamp. It returns the new number of
// transactions in the pool.
func (mp *Mempool) Add(tx database.Tx) int {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if tx.TimeStamp == 0 {
		tx.TimeStamp = database.Now()
	}

	mp.pool = append(mp.pool, tx.Clone())

	return len(mp.pool)
}

// Drain removes and returns all the transactions in the pool, in order.
// Ownership of the returned transactions moves to the caller.
func (mp *Mempool) Drain() []database.Tx {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	trans := mp.pool
	mp.pool = nil

	if trans == nil {
		trans = []database.Tx{}
	}

	return trans
}

// Restore puts a previously drained set of transactions back at the front
// of the pool, ahead of anything added since the drain.
func (mp *Mempool) Restore(trans []database.Tx) {
	if len(trans) == 0 {
		return
	}

	mp.mu.Lock()
	defer mp.mu.Unlock()

	pool := make([]database.Tx, 0, len(trans)+len(mp.pool))
	pool = append(pool, trans...)
	pool = append(pool, mp.pool...)

	mp.pool = pool
}

// Copy returns a copy of the pending transactions, in order.
func (mp *Mempool) Copy() []database.Tx {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	cpy := make([]database.Tx, len(mp.pool))
	for i, tx := range mp.pool {
		cpy[i] = tx.Clone()
	}

	return cpy
}

// Truncate clears all the transactions from the pool.
func (mp *Mempool) Truncate() {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	mp.pool = nil
}

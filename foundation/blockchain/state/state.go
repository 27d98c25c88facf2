// Package state is the core API for the ledger and implements all the
// business rules for submitting transactions and sealing blocks.
package state

import (
	"fmt"
	"sync"

	"github.com/ardanlabs/provenance/foundation/blockchain/database"
	"github.com/ardanlabs/provenance/foundation/blockchain/genesis"
	"github.com/ardanlabs/provenance/foundation/blockchain/mempool"
	"github.com/ardanlabs/provenance/foundation/blockchain/sealer"
)

// EventHandler defines a function that is called when events
// occur in the processing of sealing blocks.
type EventHandler func(v string, args ...any)

// Worker interface represents the behavior required to be implemented by any
// package providing background sealing.
type Worker interface {
	Shutdown()
	SignalSeal()
}

// =============================================================================

// Config represents the configuration required to start the ledger.
type Config struct {
	Genesis    genesis.Genesis
	Serializer database.Serializer
	Sealer     sealer.Strategy
	EvHandler  EventHandler
}

// State manages the ledger. Submitting transactions and sealing blocks
// are serialized, queries never wait on a seal.
type State struct {
	mu        sync.Mutex
	evHandler EventHandler

	genesis genesis.Genesis
	mempool *mempool.Mempool
	db      *database.Database
	sealer  sealer.Strategy

	Worker Worker
}

// New constructs the ledger, replaying the chain held by the serializer. Every
// replayed block after the genesis block must be accepted by the sealing
// strategy before the ledger accepts new writes.
func New(cfg Config) (*State, error) {

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	strategy := cfg.Sealer
	if strategy == nil {
		var err error
		strategy, err = sealer.Retrieve(sealer.StrategyNone, sealer.Config{})
		if err != nil {
			return nil, err
		}
	}

	// Access the storage for the ledger, this replays and verifies the chain.
	db, err := database.New(cfg.Genesis, cfg.Serializer, ev)
	if err != nil {
		return nil, err
	}

	for _, block := range db.Blocks(2, db.Height()) {
		if err := strategy.Verify(block); err != nil {
			return nil, fmt.Errorf("replay with strategy %s: %w", strategy.Name(), err)
		}
	}

	ev("state: New: ledger ready: height[%d]: strategy[%s]", db.Height(), strategy.Name())

	// The Worker is not set here. The call to worker.Run will assign itself
	// and start the background sealing for the node.
	state := State{
		evHandler: ev,
		genesis:   cfg.Genesis,
		mempool:   mempool.New(),
		db:        db,
		sealer:    strategy,
	}

	return &state, nil
}

// Shutdown cleanly brings the ledger down.
func (s *State) Shutdown() error {
	s.evHandler("state: shutdown: started")
	defer s.evHandler("state: shutdown: completed")

	// Stop all background sealing before closing storage.
	if s.Worker != nil {
		s.Worker.Shutdown()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.Close()
}

// Genesis returns a copy of the genesis information.
func (s *State) Genesis() genesis.Genesis {
	return s.genesis
}

// Strategy returns the name of the sealing strategy in use.
func (s *State) Strategy() string {
	return s.sealer.Name()
}

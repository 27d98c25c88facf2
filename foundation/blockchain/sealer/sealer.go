// Package sealer provides the strategies that produce and accept the proof
// carried by a sealed block.
package sealer

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"

	"github.com/ardanlabs/provenance/foundation/blockchain/database"
)

// ErrRejected is returned when a strategy doesn't accept the proof
// carried by a block.
var ErrRejected = errors.New("block rejected by sealing strategy")

// List of the sealing strategies.
const (
	StrategyNone      = "none"
	StrategyPOW       = "pow"
	StrategyAuthority = "authority"
)

// Strategy represents the behavior required to seal blocks.
type Strategy interface {
	Name() string
	Prove(ctx context.Context, candidate database.Block) (string, error)
	Verify(block database.Block) error
}

// Authorities represents the set of addresses allowed to seal blocks.
type Authorities interface {
	Exists(address string) bool
}

// Config represents the values the strategies are constructed with. Only
// the values needed by the selected strategy must be provided.
type Config struct {
	DefaultProof string
	Difficulty   int
	PrivateKey   *ecdsa.PrivateKey
	Authorities  Authorities
	EvHandler    func(v string, args ...any)
}

// Map of the strategies with their construction functions.
var strategies = map[string]func(Config) (Strategy, error){
	StrategyNone:      newNone,
	StrategyPOW:       newPOW,
	StrategyAuthority: newAuthority,
}

// Retrieve returns the specified sealing strategy.
func Retrieve(strategy string, cfg Config) (Strategy, error) {
	fn, exists := strategies[strategy]
	if !exists {
		return nil, fmt.Errorf("strategy %q does not exist", strategy)
	}

	if cfg.EvHandler == nil {
		cfg.EvHandler = func(v string, args ...any) {}
	}

	return fn(cfg)
}

// ============================================================================

// rejected constructs an error that wraps ErrRejected for the block.
func rejected(block database.Block, reason string) error {
	return fmt.Errorf("blk[%d]: %s: %w", block.Number, reason, ErrRejected)
}

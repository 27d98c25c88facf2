package state

import (
	"context"
	"fmt"

	"github.com/ardanlabs/provenance/foundation/blockchain/database"
)

// proveFunc produces the proof for a candidate block.
type proveFunc func(ctx context.Context, candidate database.Block) (string, error)

// Seal closes the pending transactions into a new block carrying the
// specified proof. The block must be accepted by the sealing strategy. An
// empty pool seals an empty block.
func (s *State) Seal(ctx context.Context, proof string) (database.Block, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prove := func(ctx context.Context, candidate database.Block) (string, error) {
		return proof, nil
	}

	return s.seal(ctx, prove)
}

// SealNext closes the pending transactions into a new block with a proof
// produced by the sealing strategy.
func (s *State) SealNext(ctx context.Context) (database.Block, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.seal(ctx, s.sealer.Prove)
}

// SubmitAndSeal adds the transaction to the pool and seals the pool into a
// new block, with a proof produced by the sealing strategy, without letting
// any other seal in between. When the seal fails the transaction stays
// pending.
func (s *State) SubmitAndSeal(ctx context.Context, tx database.Tx) (database.Block, error) {
	tx = tx.Clone()
	if err := tx.Validate(); err != nil {
		return database.Block{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	n := s.mempool.Add(tx)
	s.evHandler("state: SubmitAndSeal: tx[%s]: pending[%d]", tx.Kind, n)

	return s.seal(ctx, s.sealer.Prove)
}

// =============================================================================

// seal performs the sealing with the state lock held. When the block can't
// be proved, accepted or stored, the chain isn't extended and the drained
// transactions go back to the front of the pool.
func (s *State) seal(ctx context.Context, prove proveFunc) (database.Block, error) {
	s.evHandler("state: seal: started")
	defer s.evHandler("state: seal: completed")

	latestBlock, err := s.db.LatestBlock()
	if err != nil {
		return database.Block{}, err
	}

	trans := s.mempool.Drain()
	candidate := database.NewBlock(latestBlock, trans, "")

	restore := func(err error) (database.Block, error) {
		s.mempool.Restore(trans)
		s.evHandler("state: seal: ERROR: blk[%d]: restored pending[%d]: %s", candidate.Number, len(trans), err)
		return database.Block{}, err
	}

	s.evHandler("state: seal: prove: strategy[%s]: blk[%d]: trans[%d]", s.sealer.Name(), candidate.Number, len(trans))

	proof, err := prove(ctx, candidate)
	if err != nil {
		return restore(fmt.Errorf("proving block %d: %w", candidate.Number, err))
	}

	block := candidate.WithProof(proof)

	if err := s.sealer.Verify(block); err != nil {
		return restore(err)
	}

	if err := s.db.Add(block); err != nil {
		return restore(err)
	}

	s.evHandler("state: seal: sealed: %s: hash[%s]", block, block.Hash())

	return block, nil
}

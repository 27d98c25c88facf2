package state

import (
	"context"

	"github.com/ardanlabs/provenance/foundation/blockchain/database"
)

// SubmitTransaction accepts a transaction for inclusion in the next block.
// It returns the number of the block the transaction is expected to be
// sealed into.
func (s *State) SubmitTransaction(tx database.Tx) (uint64, error) {
	tx = tx.Clone()
	if err := tx.Validate(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	n := s.mempool.Add(tx)
	number := s.db.Height() + 1

	s.evHandler("state: SubmitTransaction: tx[%s]: pending[%d]: blk[%d]", tx.Kind, n, number)

	// Let the background sealer know the pool grew.
	if s.Worker != nil {
		s.Worker.SignalSeal()
	}

	return number, nil
}

// SubmitAnalysis accepts an analysis result for inclusion in the next block.
func (s *State) SubmitAnalysis(ar database.AnalysisResult) (uint64, error) {
	return s.SubmitTransaction(ar.Tx())
}

// SealAnalysis records an analysis result in a newly sealed block. The
// returned block always holds the analysis result.
func (s *State) SealAnalysis(ctx context.Context, ar database.AnalysisResult) (database.Block, error) {
	return s.SubmitAndSeal(ctx, ar.Tx())
}

// SubmitModelMetadata accepts model metadata for inclusion in the next block.
func (s *State) SubmitModelMetadata(mm database.ModelMetadata) (uint64, error) {
	return s.SubmitTransaction(mm.Tx())
}

package sealer

import (
	"context"
	"crypto/rand"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"time"

	"github.com/ardanlabs/provenance/foundation/blockchain/database"
)

// maxDifficulty is the number of hex digits in a block hash.
const maxDifficulty = 64

// pow accepts blocks whose hash starts with difficulty zero hex digits. The
// proof is the decimal nonce that produced that hash.
type pow struct {
	difficulty int
	ev         func(v string, args ...any)
}

func newPOW(cfg Config) (Strategy, error) {
	if cfg.Difficulty < 1 || cfg.Difficulty > maxDifficulty {
		return nil, fmt.Errorf("difficulty %d must be between 1 and %d", cfg.Difficulty, maxDifficulty)
	}

	return pow{difficulty: cfg.Difficulty, ev: cfg.EvHandler}, nil
}

func (p pow) Name() string {
	return StrategyPOW
}

// Prove searches for a nonce that solves the puzzle for the candidate block.
// The search can be cancelled through the context.
func (p pow) Prove(ctx context.Context, candidate database.Block) (string, error) {
	p.ev("sealer: pow: Prove: started: blk[%d]", candidate.Number)
	defer p.ev("sealer: pow: Prove: completed")

	t := time.Now()

	// Choose a random starting point for the nonce.
	nBig, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
	if err != nil {
		return "", fmt.Errorf("choosing nonce: %w", err)
	}
	nonce := nBig.Uint64()

	var attempts uint64
	for {
		attempts++
		if attempts%1_000_000 == 0 {
			p.ev("sealer: pow: Prove: attempts[%d]", attempts)
		}

		if ctx.Err() != nil {
			p.ev("sealer: pow: Prove: CANCELLED: attempts[%d]", attempts)
			return "", ctx.Err()
		}

		proof := strconv.FormatUint(nonce, 10)
		if p.isHashSolved(candidate.WithProof(proof).Hash()) {
			p.ev("sealer: pow: Prove: SOLVED: attempts[%d]: duration[%v]", attempts, time.Since(t))
			return proof, nil
		}

		nonce++
	}
}

// Verify checks the proof is a nonce that solves the puzzle for the block.
func (p pow) Verify(block database.Block) error {
	if _, err := strconv.ParseUint(block.Proof, 10, 64); err != nil {
		return rejected(block, fmt.Sprintf("proof %q is not a nonce", block.Proof))
	}

	if hash := block.Hash(); !p.isHashSolved(hash) {
		return rejected(block, fmt.Sprintf("hash %s doesn't have %d leading zeros", hash, p.difficulty))
	}

	return nil
}

// isHashSolved checks the hash to make sure it complies with the POW rules.
// We need to match a difficulty number of 0's after the 0x prefix.
func (p pow) isHashSolved(hash string) bool {
	const match = "0000000000000000000000000000000000000000000000000000000000000000"

	if len(hash) != 2+maxDifficulty {
		return false
	}

	return hash[2:2+p.difficulty] == match[:p.difficulty]
}

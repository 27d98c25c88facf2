package sealer

import (
	"context"
	"errors"
	"fmt"

	"github.com/ardanlabs/provenance/foundation/blockchain/database"
	"github.com/ardanlabs/provenance/foundation/blockchain/signature"
)

// authority accepts blocks signed by one of a known set of addresses. The
// proof is the signature over the block with an empty proof.
type authority struct {
	authorities Authorities
	cfg         Config
}

func newAuthority(cfg Config) (Strategy, error) {
	if cfg.Authorities == nil {
		return nil, errors.New("authority strategy requires a set of authorities")
	}

	return authority{authorities: cfg.Authorities, cfg: cfg}, nil
}

func (a authority) Name() string {
	return StrategyAuthority
}

// Prove signs the candidate block with the node's private key. A node
// without a key can verify blocks but not seal them.
func (a authority) Prove(ctx context.Context, candidate database.Block) (string, error) {
	if a.cfg.PrivateKey == nil {
		return "", errors.New("node has no authority key to sign with")
	}

	v, r, s, err := signature.Sign(candidate.WithProof(""), a.cfg.PrivateKey)
	if err != nil {
		return "", fmt.Errorf("signing block: %w", err)
	}

	a.cfg.EvHandler("sealer: authority: Prove: signed: blk[%d]: address[%s]", candidate.Number, signature.PublicKeyToAddress(a.cfg.PrivateKey.PublicKey))

	return signature.SignatureString(v, r, s), nil
}

// Verify recovers the signer of the block and checks it is an authority.
func (a authority) Verify(block database.Block) error {
	v, r, s, err := signature.ToVRSFromHexSignature(block.Proof)
	if err != nil {
		return rejected(block, fmt.Sprintf("proof is not a signature: %s", err))
	}

	if err := signature.VerifySignature(v, r, s); err != nil {
		return rejected(block, err.Error())
	}

	address, err := signature.FromAddress(block.WithProof(""), v, r, s)
	if err != nil {
		return rejected(block, fmt.Sprintf("recovering signer: %s", err))
	}

	if !a.authorities.Exists(address) {
		return rejected(block, fmt.Sprintf("signer %s is not an authority", address))
	}

	return nil
}

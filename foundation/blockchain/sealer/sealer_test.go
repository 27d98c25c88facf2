package sealer_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ardanlabs/provenance/foundation/blockchain/database"
	"github.com/ardanlabs/provenance/foundation/blockchain/genesis"
	"github.com/ardanlabs/provenance/foundation/blockchain/sealer"
	"github.com/ardanlabs/provenance/foundation/blockchain/signature"
	"github.com/ethereum/go-ethereum/crypto"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

const pkHexKey = "fae85851bdf5c9f49923722ce38f3c1defcfd3619ef5453230a58ad805499959"

type authorities map[string]bool

func (a authorities) Exists(address string) bool {
	return a[address]
}

// =============================================================================

func Test_Strategies(t *testing.T) {
	pk, err := crypto.HexToECDSA(pkHexKey)
	if err != nil {
		t.Fatalf("Should be able to parse the key: %v", err)
	}

	other, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("Should be able to generate a key: %v", err)
	}

	known := authorities{signature.PublicKeyToAddress(pk.PublicKey): true}

	type table struct {
		name     string
		strategy string
		cfg      sealer.Config
		bad      func(ctx context.Context, candidate database.Block) string
		signed   bool
	}

	tt := []table{
		{
			name:     "none",
			strategy: sealer.StrategyNone,
		},
		{
			name:     "pow",
			strategy: sealer.StrategyPOW,
			cfg:      sealer.Config{Difficulty: 2},
			bad: func(ctx context.Context, candidate database.Block) string {
				return "not-a-nonce"
			},
		},
		{
			name:     "authority",
			strategy: sealer.StrategyAuthority,
			cfg:      sealer.Config{PrivateKey: pk, Authorities: known},
			signed:   true,
			bad: func(ctx context.Context, candidate database.Block) string {
				v, r, s, err := signature.Sign(candidate.WithProof(""), other)
				if err != nil {
					t.Fatalf("Should be able to sign with another key: %v", err)
				}
				return signature.SignatureString(v, r, s)
			},
		},
	}

	t.Log("Given the need to prove and verify blocks.")
	{
		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen using the %s strategy.", testID, tst.name)
			{
				f := func(t *testing.T) {
					strategy, err := sealer.Retrieve(tst.strategy, tst.cfg)
					if err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould be able to retrieve the strategy: %v", failed, testID, err)
					}
					t.Logf("\t%s\tTest %d:\tShould be able to retrieve the strategy.", success, testID)

					if strategy.Name() != tst.strategy {
						t.Fatalf("\t%s\tTest %d:\tShould get back the strategy name %q, got %q.", failed, testID, tst.strategy, strategy.Name())
					}

					ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
					defer cancel()

					candidate := candidateBlock()

					proof, err := strategy.Prove(ctx, candidate)
					if err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould be able to prove the block: %v", failed, testID, err)
					}
					t.Logf("\t%s\tTest %d:\tShould be able to prove the block.", success, testID)

					if err := strategy.Verify(candidate.WithProof(proof)); err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould accept its own proof: %v", failed, testID, err)
					}
					t.Logf("\t%s\tTest %d:\tShould accept its own proof.", success, testID)

					if tst.bad == nil {
						return
					}

					err = strategy.Verify(candidate.WithProof(tst.bad(ctx, candidate)))
					if !errors.Is(err, sealer.ErrRejected) {
						t.Fatalf("\t%s\tTest %d:\tShould reject a bad proof, got %v.", failed, testID, err)
					}
					t.Logf("\t%s\tTest %d:\tShould reject a bad proof.", success, testID)

					if !tst.signed {
						return
					}

					changed := candidate.Clone().WithProof(proof)
					changed.Trans[0].Fields["video_accuracy"] = 10
					if err := strategy.Verify(changed); !errors.Is(err, sealer.ErrRejected) {
						t.Fatalf("\t%s\tTest %d:\tShould reject a proof for different contents, got %v.", failed, testID, err)
					}
					t.Logf("\t%s\tTest %d:\tShould reject a proof for different contents.", success, testID)
				}

				t.Run(tst.name, f)
			}
		}
	}
}

func Test_NoneDefaultProof(t *testing.T) {
	strategy, err := sealer.Retrieve(sealer.StrategyNone, sealer.Config{})
	if err != nil {
		t.Fatalf("Should be able to retrieve the strategy: %v", err)
	}

	proof, err := strategy.Prove(context.Background(), candidateBlock())
	if err != nil || proof != "12345" {
		t.Fatalf("Should prove with 12345, got %q: %v", proof, err)
	}

	strategy, _ = sealer.Retrieve(sealer.StrategyNone, sealer.Config{DefaultProof: "67890"})
	if proof, _ := strategy.Prove(context.Background(), candidateBlock()); proof != "67890" {
		t.Fatalf("Should prove with the configured proof, got %q.", proof)
	}
}

func Test_POWCancel(t *testing.T) {
	strategy, err := sealer.Retrieve(sealer.StrategyPOW, sealer.Config{Difficulty: 64})
	if err != nil {
		t.Fatalf("Should be able to retrieve the strategy: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if _, err := strategy.Prove(ctx, candidateBlock()); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Should stop proving when the context is done, got %v.", err)
	}
}

func Test_RetrieveErrors(t *testing.T) {
	tt := []struct {
		name     string
		strategy string
		cfg      sealer.Config
	}{
		{name: "unknown", strategy: "stake"},
		{name: "difficulty", strategy: sealer.StrategyPOW, cfg: sealer.Config{Difficulty: 0}},
		{name: "authorities", strategy: sealer.StrategyAuthority},
	}

	for _, tst := range tt {
		if _, err := sealer.Retrieve(tst.strategy, tst.cfg); err == nil {
			t.Fatalf("Should not be able to retrieve %s.", tst.name)
		}
	}
}

func Test_AuthorityWithoutKey(t *testing.T) {
	strategy, err := sealer.Retrieve(sealer.StrategyAuthority, sealer.Config{Authorities: authorities{}})
	if err != nil {
		t.Fatalf("Should be able to retrieve the strategy: %v", err)
	}

	if _, err := strategy.Prove(context.Background(), candidateBlock()); err == nil {
		t.Fatalf("Should not be able to prove without a key.")
	}
}

// =============================================================================

func candidateBlock() database.Block {
	tx := database.AnalysisResult{
		VideoName:     "clip.mp4",
		VideoAccuracy: 80,
		AudioAccuracy: 60,
		FileHash:      "abc123",
	}.Tx()
	tx.TimeStamp = database.Now()

	return database.NewBlock(database.NewGenesisBlock(genesis.Default()), []database.Tx{tx}, "")
}

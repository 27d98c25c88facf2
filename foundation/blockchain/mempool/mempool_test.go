package mempool_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/ardanlabs/provenance/foundation/blockchain/database"
	"github.com/ardanlabs/provenance/foundation/blockchain/mempool"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func TestCRUD(t *testing.T) {
	type table struct {
		name string
		txs  []database.Tx
	}

	tt := []table{
		{
			name: "basic",
			txs: []database.Tx{
				database.AnalysisResult{VideoName: "a.mp4", FileHash: "aaa"}.Tx(),
				database.ModelMetadata{ModelName: "Deepfake Detector v1.0", Dataset: "DFDC", Version: "1.0"}.Tx(),
				database.AnalysisResult{VideoName: "a.mp4", FileHash: "aaa"}.Tx(),
				database.AnalysisResult{VideoName: "b.mp4", FileHash: "bbb"}.Tx(),
			},
		},
	}

	t.Log("Given the need to validate mempool api.")
	{
		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen handling a set of transaction.", testID)
			{
				f := func(t *testing.T) {
					mp := mempool.New()

					for i, tx := range tst.txs {
						if n := mp.Add(tx); n != i+1 {
							t.Fatalf("\t%s\tTest %d:\tShould get back the pool size %d, got %d.", failed, testID, i+1, n)
						}
					}
					t.Logf("\t%s\tTest %d:\tShould be able to add duplicate transactions.", success, testID)

					for i, tx := range mp.Copy() {
						if tx.TimeStamp == 0 {
							t.Fatalf("\t%s\tTest %d:\tShould assign a timestamp to transaction %d.", failed, testID, i)
						}
						if tx.Fields["file_hash"] != tst.txs[i].Fields["file_hash"] || tx.Kind != tst.txs[i].Kind {
							t.Fatalf("\t%s\tTest %d:\tShould keep submission order at %d.", failed, testID, i)
						}
					}
					t.Logf("\t%s\tTest %d:\tShould keep submission order and assign timestamps.", success, testID)

					drained := mp.Drain()
					if len(drained) != len(tst.txs) || mp.Count() != 0 {
						t.Fatalf("\t%s\tTest %d:\tShould drain the full pool.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould drain the full pool.", success, testID)

					late := database.AnalysisResult{VideoName: "late.mp4", FileHash: "late"}.Tx()
					mp.Add(late)
					mp.Restore(drained)

					cpy := mp.Copy()
					if len(cpy) != len(tst.txs)+1 || cpy[0].Fields["file_hash"] != "aaa" || cpy[len(cpy)-1].Fields["file_hash"] != "late" {
						t.Fatalf("\t%s\tTest %d:\tShould restore drained transactions ahead of new ones.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould restore drained transactions ahead of new ones.", success, testID)

					mp.Truncate()
					if mp.Count() != 0 {
						t.Fatalf("\t%s\tTest %d:\tShould be able to truncate mempool.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould be able to truncate mempool.", success, testID)

					if drained := mp.Drain(); drained == nil || len(drained) != 0 {
						t.Fatalf("\t%s\tTest %d:\tShould drain an empty pool to an empty list.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould drain an empty pool to an empty list.", success, testID)
				}

				t.Run(tst.name, f)
			}
		}
	}
}

func TestConcurrentAdd(t *testing.T) {
	const workers = 8
	const perWorker = 250

	mp := mempool.New()

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				mp.Add(database.NewTx(database.KindAnalysisResult, map[string]any{
					"file_hash": fmt.Sprintf("%d:%d", w, i),
				}))
			}
		}(w)
	}
	wg.Wait()

	seen := make(map[string]bool)
	for _, tx := range mp.Drain() {
		key := tx.Fields["file_hash"].(string)
		if seen[key] {
			t.Fatalf("Should not see transaction %s twice.", key)
		}
		seen[key] = true
	}

	if len(seen) != workers*perWorker {
		t.Fatalf("Should see %d transactions, got %d.", workers*perWorker, len(seen))
	}
}

package worker_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/ardanlabs/provenance/foundation/blockchain/database"
	"github.com/ardanlabs/provenance/foundation/blockchain/database/storage/memory"
	"github.com/ardanlabs/provenance/foundation/blockchain/genesis"
	"github.com/ardanlabs/provenance/foundation/blockchain/state"
	"github.com/ardanlabs/provenance/foundation/blockchain/worker"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func Test_BackgroundSeal(t *testing.T) {
	t.Log("Given the need to seal pending transactions in the background.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen a transaction is pending.", testID)
		{
			st, err := state.New(state.Config{
				Genesis:    genesis.Default(),
				Serializer: memory.New(),
			})
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to construct the state: %v", failed, testID, err)
			}

			worker.Run(st, time.Hour, 1, nil)

			if _, err := st.SubmitAnalysis(database.AnalysisResult{FileHash: "abc123"}); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to submit: %v", failed, testID, err)
			}

			if !waitHeight(st, 2) || st.PendingCount() != 0 {
				t.Fatalf("\t%s\tTest %d:\tShould seal the pending transaction, height %d.", failed, testID, st.Height())
			}
			t.Logf("\t%s\tTest %d:\tShould seal the pending transaction.", success, testID)

			if err := st.Shutdown(); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to shutdown: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to shutdown.", success, testID)
		}
	}
}

func Test_BatchSeal(t *testing.T) {
	t.Log("Given the need to seal once enough transactions are pending.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen the batch size is 3.", testID)
		{
			st := newState(t)
			worker.Run(st, 0, 3, nil)

			submitN(t, st, 2)

			// The seal runs on the worker's G, give it a chance to act.
			time.Sleep(100 * time.Millisecond)
			if st.Height() != 1 || st.PendingCount() != 2 {
				t.Fatalf("\t%s\tTest %d:\tShould wait for the batch, height %d.", failed, testID, st.Height())
			}
			t.Logf("\t%s\tTest %d:\tShould wait for the batch.", success, testID)

			submitN(t, st, 1)

			if !waitHeight(st, 2) || st.PendingCount() != 0 {
				t.Fatalf("\t%s\tTest %d:\tShould seal the batch, height %d.", failed, testID, st.Height())
			}
			t.Logf("\t%s\tTest %d:\tShould seal the batch.", success, testID)

			if err := st.Shutdown(); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to shutdown: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to shutdown.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen only the interval is set.", testID)
		{
			st := newState(t)
			worker.Run(st, 50*time.Millisecond, 0, nil)

			submitN(t, st, 2)

			if !waitHeight(st, 2) || st.PendingCount() != 0 {
				t.Fatalf("\t%s\tTest %d:\tShould seal on the interval, height %d.", failed, testID, st.Height())
			}
			t.Logf("\t%s\tTest %d:\tShould seal on the interval.", success, testID)

			if err := st.Shutdown(); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to shutdown: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to shutdown.", success, testID)
		}
	}
}

// =============================================================================

func newState(t *testing.T) *state.State {
	st, err := state.New(state.Config{
		Genesis:    genesis.Default(),
		Serializer: memory.New(),
	})
	if err != nil {
		t.Fatalf("Should be able to construct the state: %v", err)
	}

	return st
}

func submitN(t *testing.T, st *state.State, n int) {
	for i := 0; i < n; i++ {
		if _, err := st.SubmitAnalysis(database.AnalysisResult{FileHash: fmt.Sprint(st.PendingCount(), i)}); err != nil {
			t.Fatalf("Should be able to submit: %v", err)
		}
	}
}

func waitHeight(st *state.State, height uint64) bool {
	deadline := time.Now().Add(5 * time.Second)
	for st.Height() != height && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	return st.Height() == height
}

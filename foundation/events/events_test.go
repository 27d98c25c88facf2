package events_test

import (
	"testing"

	"github.com/ardanlabs/provenance/foundation/events"
)

func Test_Events(t *testing.T) {
	evts := events.New()

	ch := evts.Acquire("a")
	if again := evts.Acquire("a"); again != ch {
		t.Fatalf("Should get the same channel for the same id.")
	}

	evts.Send("state: seal: sealed")

	if got := <-ch; got != "state: seal: sealed" {
		t.Fatalf("Should receive the event, got %q.", got)
	}

	for i := 0; i < 1000; i++ {
		evts.Send("flood")
	}
	t.Log("Should not block on a full subscriber.")

	if err := evts.Release("a"); err != nil {
		t.Fatalf("Should be able to release: %v", err)
	}
	if err := evts.Release("a"); err == nil {
		t.Fatalf("Should not be able to release twice.")
	}

	evts.Acquire("b")
	evts.Shutdown()
	if evts.Count() != 0 {
		t.Fatalf("Should remove every subscriber on shutdown.")
	}
}

// Package worker implements background sealing for the ledger.
package worker

import (
	"context"
	"sync"
	"time"

	"github.com/ardanlabs/provenance/foundation/blockchain/state"
)

// Worker manages the background sealing of pending transactions.
type Worker struct {
	state     *state.State
	wg        sync.WaitGroup
	ticker    *time.Ticker
	batch     int
	shut      chan struct{}
	startSeal chan bool
	cancel    context.CancelFunc
	ctx       context.Context
	evHandler state.EventHandler
}

// Run creates a worker, registers the worker with the state package, and
// starts sealing pending transactions. On every interval the whole pool is
// sealed, and once batch transactions are pending a seal starts right away.
// A zero interval or batch turns that trigger off.
func Run(st *state.State, interval time.Duration, batch int, evHandler state.EventHandler) *Worker {
	if evHandler == nil {
		evHandler = func(v string, args ...any) {}
	}

	ctx, cancel := context.WithCancel(context.Background())

	w := Worker{
		state:     st,
		batch:     batch,
		shut:      make(chan struct{}),
		startSeal: make(chan bool, 1),
		cancel:    cancel,
		ctx:       ctx,
		evHandler: evHandler,
	}

	if interval > 0 {
		w.ticker = time.NewTicker(interval)
	}

	// Register this worker with the state package.
	st.Worker = &w

	w.wg.Add(1)

	// We don't want to return until we know the G is up and running.
	hasStarted := make(chan bool)

	go func() {
		defer w.wg.Done()
		hasStarted <- true
		w.sealOperations()
	}()

	<-hasStarted

	return &w
}

// Shutdown terminates the goroutine performing work. A seal in progress
// is cancelled.
func (w *Worker) Shutdown() {
	w.evHandler("worker: shutdown: started")
	defer w.evHandler("worker: shutdown: completed")

	if w.ticker != nil {
		w.evHandler("worker: shutdown: stop ticker")
		w.ticker.Stop()
	}

	w.evHandler("worker: shutdown: cancel sealing")
	w.cancel()

	w.evHandler("worker: shutdown: terminate goroutines")
	close(w.shut)
	w.wg.Wait()
}

// SignalSeal starts a seal operation when the batch trigger is on. If there
// is already a signal pending in the channel, just return since a seal
// operation will start.
func (w *Worker) SignalSeal() {
	if w.batch <= 0 {
		return
	}

	select {
	case w.startSeal <- true:
	default:
	}
	w.evHandler("worker: SignalSeal: seal signaled")
}

// =============================================================================

// sealOperations handles sealing on every tick or signal.
func (w *Worker) sealOperations() {
	w.evHandler("worker: sealOperations: G started")
	defer w.evHandler("worker: sealOperations: G completed")

	// A nil channel never fires.
	var tick <-chan time.Time
	if w.ticker != nil {
		tick = w.ticker.C
	}

	for {
		threshold := 1

		select {
		case <-tick:
		case <-w.startSeal:
			threshold = w.batch
		case <-w.shut:
			w.evHandler("worker: sealOperations: received shut signal")
			return
		}

		if !w.isShutdown() {
			w.runSealOperation(threshold)
		}
	}
}

// runSealOperation seals the pending transactions into a new block once at
// least threshold of them are pending.
func (w *Worker) runSealOperation(threshold int) {
	length := w.state.PendingCount()
	if length == 0 || length < threshold {
		return
	}

	w.evHandler("worker: runSealOperation: SEAL: started: Txs[%d]", length)
	defer w.evHandler("worker: runSealOperation: SEAL: completed")

	t := time.Now()
	block, err := w.state.SealNext(w.ctx)
	duration := time.Since(t)

	w.evHandler("worker: runSealOperation: SEAL: duration[%v]", duration)

	if err != nil {
		switch {
		case w.ctx.Err() != nil:
			w.evHandler("worker: runSealOperation: SEAL: CANCEL: complete")
		default:
			w.evHandler("worker: runSealOperation: SEAL: ERROR: %s", err)
		}
		return
	}

	w.evHandler("worker: runSealOperation: SEAL: sealed: %s", block)
}

// isShutdown is used to test if a shutdown has been signaled.
func (w *Worker) isShutdown() bool {
	select {
	case <-w.shut:
		return true
	default:
		return false
	}
}

// Package public maintains the group of handlers for public access.
package public

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/ardanlabs/provenance/business/core/provenance"
	"github.com/ardanlabs/provenance/business/sys/metrics"
	"github.com/ardanlabs/provenance/business/sys/validate"
	"github.com/ardanlabs/provenance/business/web/errs"
	"github.com/ardanlabs/provenance/foundation/blockchain/database"
	"github.com/ardanlabs/provenance/foundation/blockchain/state"
	"github.com/ardanlabs/provenance/foundation/events"
	"github.com/ardanlabs/provenance/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Handlers manages the set of ledger endpoints.
type Handlers struct {
	Log            *zap.SugaredLogger
	State          *state.State
	Core           *provenance.Core
	WS             websocket.Upgrader
	Evts           *events.Events
	Metrics        *metrics.Metrics
	MaxUploadBytes int64
}

// Events handles a web socket to provide events to a client.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	// Need this to handle CORS on the websocket.
	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	// This upgrades the HTTP connection to a websocket connection.
	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	// This provides a channel for receiving events from the ledger.
	ch := h.Evts.Acquire(v.TraceID)
	defer h.Evts.Release(v.TraceID)

	// This starts a ticker to send a ping to the client.
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, wd := <-ch:

			// If the channel is closed, release the websocket.
			if !wd {
				return nil
			}

			if err := c.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return err
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}
		}
	}
}

// Blockchain returns the full chain and its length.
func (h Handlers) Blockchain(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.Snapshot(), http.StatusOK)
}

// Blocks returns the blocks between the from and to query values. Missing
// values default to the whole chain.
func (h Handlers) Blocks(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	from, err := queryNumber(r, "from", 1)
	if err != nil {
		return err
	}

	to, err := queryNumber(r, "to", h.State.Height())
	if err != nil {
		return err
	}

	blocks := h.State.Blocks(from, to)

	out := make([]database.BlockData, len(blocks))
	for i, block := range blocks {
		out[i] = database.NewBlockData(block)
	}

	return web.Respond(ctx, w, out, http.StatusOK)
}

// LatestBlock returns the most recently sealed block with its hash.
func (h Handlers) LatestBlock(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	block, err := h.State.LatestBlock()
	if err != nil {
		return errs.FromLedger(err)
	}

	return web.Respond(ctx, w, database.NewBlockData(block), http.StatusOK)
}

// BlockByNumber returns the specified block with its hash.
func (h Handlers) BlockByNumber(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	number, err := strconv.ParseUint(web.Param(r, "number"), 10, 64)
	if err != nil {
		return errs.NewTrusted(fmt.Errorf("invalid block number: %w", err), http.StatusBadRequest)
	}

	block, err := h.State.BlockAt(number)
	if err != nil {
		return errs.FromLedger(err)
	}

	return web.Respond(ctx, w, database.NewBlockData(block), http.StatusOK)
}

// TxProof returns the inclusion proof for a transaction of a sealed block.
func (h Handlers) TxProof(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	number, err := strconv.ParseUint(web.Param(r, "number"), 10, 64)
	if err != nil {
		return errs.NewTrusted(fmt.Errorf("invalid block number: %w", err), http.StatusBadRequest)
	}

	index, err := strconv.Atoi(web.Param(r, "index"))
	if err != nil {
		return errs.NewTrusted(fmt.Errorf("invalid tx index: %w", err), http.StatusBadRequest)
	}

	proof, err := h.State.TxProof(number, index)
	if err != nil {
		return errs.FromLedger(err)
	}

	return web.Respond(ctx, w, proof, http.StatusOK)
}

// Verify checks the linkage of the whole chain.
func (h Handlers) Verify(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	resp := verified{
		Valid:  true,
		Height: h.State.Height(),
	}

	if err := h.State.Verify(); err != nil {
		ie := database.GetIntegrityError(err)
		if ie == nil {
			return err
		}

		resp = verified{
			Height:        resp.Height,
			FirstBadIndex: ie.Number,
			Reason:        ie.Reason,
			Expected:      ie.Expected,
			Actual:        ie.Actual,
		}
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Pending returns the transactions waiting to be sealed.
func (h Handlers) Pending(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	trans := h.State.PendingTransactions()

	resp := pending{
		Count: len(trans),
		Trans: trans,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// SubmitAnalysis adds a new analysis result to the pending transactions.
func (h Handlers) SubmitAnalysis(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var na newAnalysis
	if err := web.Decode(r, &na); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	if err := validate.Check(na); err != nil {
		return err
	}

	h.Log.Infow("submit analysis", "traceid", web.GetTraceID(ctx), "video_name", na.VideoName, "file_hash", na.FileHash)

	number, err := h.State.SubmitAnalysis(na.toAnalysisResult())
	if err != nil {
		return errs.FromLedger(err)
	}

	resp := submitted{
		Status: "transaction added to pending pool",
		Block:  number,
	}

	return web.Respond(ctx, w, resp, http.StatusCreated)
}

// SubmitModelMetadata adds new model metadata to the pending transactions.
func (h Handlers) SubmitModelMetadata(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var nm newModel
	if err := web.Decode(r, &nm); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	if err := validate.Check(nm); err != nil {
		return err
	}

	h.Log.Infow("submit model", "traceid", web.GetTraceID(ctx), "model_name", nm.ModelName, "version", nm.Version)

	number, err := h.State.SubmitModelMetadata(nm.toModelMetadata())
	if err != nil {
		return errs.FromLedger(err)
	}

	resp := submitted{
		Status: "transaction added to pending pool",
		Block:  number,
	}

	return web.Respond(ctx, w, resp, http.StatusCreated)
}

// Seal closes the pending transactions into a new block.
func (h Handlers) Seal(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var sr sealRequest
	// An empty body asks for the default proof.
	if err := web.Decode(r, &sr); err != nil && !errors.Is(err, io.EOF) {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	var block database.Block
	var err error
	switch sr.Proof {
	case "":
		block, err = h.State.SealNext(ctx)
	default:
		block, err = h.State.Seal(ctx, sr.Proof)
	}

	h.Metrics.Sealed(err)

	if err != nil {
		return errs.FromLedger(err)
	}

	h.Log.Infow("seal", "traceid", web.GetTraceID(ctx), "block", block.Number, "trans", len(block.Trans))

	return web.Respond(ctx, w, database.NewBlockData(block), http.StatusCreated)
}

// Upload accepts an artifact, analyzes it and records the result.
func (h Handlers) Upload(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	if h.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.MaxUploadBytes)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		var mbe *http.MaxBytesError
		switch {
		case errors.As(err, &mbe):
			return errs.NewTrusted(fmt.Errorf("upload larger than %d bytes", mbe.Limit), http.StatusRequestEntityTooLarge)
		case errors.Is(err, http.ErrMissingFile):
			return errs.NewTrusted(errors.New("no file part in the request"), http.StatusBadRequest)
		}
		return errs.NewTrusted(fmt.Errorf("reading upload: %w", err), http.StatusBadRequest)
	}
	defer file.Close()

	rec, err := h.Core.Analyze(ctx, header.Filename, file)
	if err != nil {
		if errors.Is(err, provenance.ErrInvalidUpload) {
			return errs.NewTrusted(err, http.StatusBadRequest)
		}
		return errs.FromLedger(err)
	}

	h.Metrics.Sealed(nil)

	h.Log.Infow("upload", "traceid", web.GetTraceID(ctx), "name", rec.Name, "file_hash", rec.FileHash, "result", rec.FinalResult, "block", rec.Block)

	return web.Respond(ctx, w, rec, http.StatusOK)
}

// =============================================================================

// queryNumber returns the block number in the query string under key.
func queryNumber(r *http.Request, key string, def uint64) (uint64, error) {
	s := r.URL.Query().Get(key)
	if s == "" {
		return def, nil
	}

	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, errs.NewTrusted(fmt.Errorf("invalid %s value %q", key, s), http.StatusBadRequest)
	}

	return n, nil
}

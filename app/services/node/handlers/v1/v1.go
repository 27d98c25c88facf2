// Package v1 contains the full set of handler functions and routes
// supported by the v1 web api.
package v1

import (
	"net/http"

	"github.com/ardanlabs/provenance/app/services/node/handlers/v1/public"
	"github.com/ardanlabs/provenance/business/core/provenance"
	"github.com/ardanlabs/provenance/business/sys/metrics"
	"github.com/ardanlabs/provenance/foundation/blockchain/state"
	"github.com/ardanlabs/provenance/foundation/events"
	"github.com/ardanlabs/provenance/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const version = "v1"

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Log            *zap.SugaredLogger
	State          *state.State
	Core           *provenance.Core
	Evts           *events.Events
	Metrics        *metrics.Metrics
	MaxUploadBytes int64
}

// PublicRoutes binds all the version 1 public routes.
func PublicRoutes(app *web.App, cfg Config) {
	pbl := public.Handlers{
		Log:            cfg.Log,
		State:          cfg.State,
		Core:           cfg.Core,
		WS:             websocket.Upgrader{},
		Evts:           cfg.Evts,
		Metrics:        cfg.Metrics,
		MaxUploadBytes: cfg.MaxUploadBytes,
	}

	app.Handle(http.MethodGet, version, "/events", pbl.Events)
	app.Handle(http.MethodGet, version, "/blockchain", pbl.Blockchain)
	app.Handle(http.MethodGet, version, "/blocks/list", pbl.Blocks)
	app.Handle(http.MethodGet, version, "/blocks/latest", pbl.LatestBlock)
	app.Handle(http.MethodGet, version, "/blocks/:number", pbl.BlockByNumber)
	app.Handle(http.MethodGet, version, "/blocks/:number/trans/:index/proof", pbl.TxProof)
	app.Handle(http.MethodGet, version, "/verify", pbl.Verify)
	app.Handle(http.MethodGet, version, "/tx/pending", pbl.Pending)
	app.Handle(http.MethodPost, version, "/tx/analysis", pbl.SubmitAnalysis)
	app.Handle(http.MethodPost, version, "/tx/model", pbl.SubmitModelMetadata)
	app.Handle(http.MethodPost, version, "/blocks/seal", pbl.Seal)
	app.Handle(http.MethodPost, version, "/upload", pbl.Upload)
}

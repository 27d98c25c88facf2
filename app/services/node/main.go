package main

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ardanlabs/conf/v3"
	"github.com/ardanlabs/provenance/app/services/node/handlers"
	"github.com/ardanlabs/provenance/business/core/provenance"
	"github.com/ardanlabs/provenance/business/sys/metrics"
	"github.com/ardanlabs/provenance/foundation/analysis"
	"github.com/ardanlabs/provenance/foundation/blockchain/database"
	"github.com/ardanlabs/provenance/foundation/blockchain/database/storage"
	"github.com/ardanlabs/provenance/foundation/blockchain/genesis"
	"github.com/ardanlabs/provenance/foundation/blockchain/sealer"
	"github.com/ardanlabs/provenance/foundation/blockchain/signature"
	"github.com/ardanlabs/provenance/foundation/blockchain/state"
	"github.com/ardanlabs/provenance/foundation/blockchain/worker"
	"github.com/ardanlabs/provenance/foundation/events"
	"github.com/ardanlabs/provenance/foundation/logger"
	"github.com/ardanlabs/provenance/foundation/nameservice"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"
)

// build is the git version of this program. It is set using build flags in the makefile.
var build = "develop"

func main() {

	// Construct the application logger.
	log, err := logger.New("NODE")
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer log.Sync()

	// Perform the startup and shutdown sequence.
	if err := run(log); err != nil {
		log.Errorw("startup", "ERROR", err)
		log.Sync()
		os.Exit(1)
	}
}

func run(log *zap.SugaredLogger) error {

	// =========================================================================
	// Configuration

	// This is all the configuration for the application and the default values.
	// Configuration values will be passed through the application as individual
	// values.
	cfg := struct {
		conf.Version
		Web struct {
			ReadTimeout     time.Duration `conf:"default:5s"`
			WriteTimeout    time.Duration `conf:"default:60s"`
			IdleTimeout     time.Duration `conf:"default:120s"`
			ShutdownTimeout time.Duration `conf:"default:20s"`
			DebugHost       string        `conf:"default:0.0.0.0:7080"`
			PublicHost      string        `conf:"default:0.0.0.0:8080"`
			MaxUploadMB     int64         `conf:"default:512"`
		}
		Ledger struct {
			Storage         string        `conf:"default:file"`
			DBPath          string        `conf:"default:zblock/blocks.db"`
			GenesisPath     string        `conf:"default:zblock/genesis.json"`
			Strategy        string        `conf:"default:none"`
			DefaultProof    string        `conf:"default:12345"`
			Difficulty      int           `conf:"default:2"`
			AuthorityKey    string        `conf:"default:zblock/authorities/node.ecdsa"`
			AuthorityFolder string        `conf:"default:zblock/authorities/"`
			SealInterval    time.Duration `conf:"default:0s"`
			SealBatch       int           `conf:"default:0"`
		}
		Analysis struct {
			VideoURL      string
			AudioURL      string
			Timeout       time.Duration `conf:"default:2m"`
			FallbackScore int           `conf:"default:50"`
			UploadFolder  string        `conf:"default:static/videos"`
			Extensions    []string      `conf:"default:mp4;avi;mov;wmv;mkv;flv;mpeg;3gp"`
			ModelName     string        `conf:"default:Deepfake Detector v1.0"`
			Dataset       string        `conf:"default:DFDC"`
			ModelVersion  string        `conf:"default:1.0"`
			Uploader      string        `conf:"default:Guest"`
			Location      string        `conf:"default:Unknown"`
		}
	}{
		Version: conf.Version{
			Build: build,
			Desc:  "provenance ledger node",
		},
	}

	// Parse will set the defaults and then look for any overriding values
	// in environment variables and command line flags.
	const prefix = "NODE"
	help, err := conf.Parse(prefix, &cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			return nil
		}
		return fmt.Errorf("parsing config: %w", err)
	}

	// =========================================================================
	// App Starting

	fmt.Println(` ____  ____   _____     _______ _   _    _    _   _  ____ _____ `)
	fmt.Println(`|  _ \|  _ \ / _ \ \   / / ____| \ | |  / \  | \ | |/ ___| ____|`)
	fmt.Println(`| |_) | |_) | | | \ \ / /|  _| |  \| | / _ \ |  \| | |   |  _|  `)
	fmt.Println(`|  __/|  _ <| |_| |\ V / | |___| |\  |/ ___ \| |\  | |___| |___ `)
	fmt.Println(`|_|   |_| \_\\___/  \_/  |_____|_| \_/_/   \_\_| \_|\____|_____|`)
	fmt.Print("\n")

	log.Infow("starting service", "version", build)
	defer log.Infow("shutdown complete")

	// Display the current configuration to the logs.
	out, err := conf.String(&cfg)
	if err != nil {
		return fmt.Errorf("generating config for output: %w", err)
	}
	log.Infow("startup", "config", out)

	// =========================================================================
	// Ledger Support

	// The ledger packages accept a function of this signature to allow the
	// application to log. These raw messages are also sent to any websocket
	// client that is connected into the system through the events package.
	evts := events.New()
	ev := func(v string, args ...any) {
		s := fmt.Sprintf(v, args...)
		log.Infow(s, "traceid", "00000000-0000-0000-0000-000000000000")
		evts.Send(s)
	}

	gen, err := genesis.Load(cfg.Ledger.GenesisPath)
	if err != nil {
		return fmt.Errorf("loading genesis: %w", err)
	}

	strategy, err := loadStrategy(log, cfg.Ledger.Strategy, sealerConfig{
		DefaultProof:    cfg.Ledger.DefaultProof,
		Difficulty:      cfg.Ledger.Difficulty,
		AuthorityKey:    cfg.Ledger.AuthorityKey,
		AuthorityFolder: cfg.Ledger.AuthorityFolder,
	}, ev)
	if err != nil {
		return err
	}

	// Access the storage for the chain of blocks.
	serializer, err := storage.Open(cfg.Ledger.Storage, cfg.Ledger.DBPath)
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}

	// The state value represents the ledger and manages the chain of blocks
	// and the pending transactions. Replay fails the startup if the stored
	// chain doesn't verify.
	st, err := state.New(state.Config{
		Genesis:    gen,
		Serializer: serializer,
		Sealer:     strategy,
		EvHandler:  ev,
	})
	if err != nil {
		serializer.Close()
		if ie := database.GetIntegrityError(err); ie != nil {
			log.Errorw("startup", "status", "chain integrity failed", "block", ie.Number, "reason", ie.Reason)
		}
		return fmt.Errorf("starting ledger: %w", err)
	}
	defer st.Shutdown()

	log.Infow("startup", "status", "ledger ready", "chain_id", st.Genesis().ChainID, "height", st.Height(), "strategy", st.Strategy())

	// The worker seals pending transactions in the background. The worker
	// registers itself with the state.
	if cfg.Ledger.SealInterval > 0 || cfg.Ledger.SealBatch > 0 {
		worker.Run(st, cfg.Ledger.SealInterval, cfg.Ledger.SealBatch, ev)
	}

	// =========================================================================
	// Analysis Support

	core := provenance.NewCore(st, provenance.Config{
		UploadFolder: cfg.Analysis.UploadFolder,
		Extensions:   cfg.Analysis.Extensions,
		Video:        loadScorer("video", cfg.Analysis.VideoURL, cfg.Analysis.Timeout, cfg.Analysis.FallbackScore, ev),
		Audio:        loadScorer("audio", cfg.Analysis.AudioURL, cfg.Analysis.Timeout, cfg.Analysis.FallbackScore, ev),
		Model: database.ModelMetadata{
			ModelName: cfg.Analysis.ModelName,
			Dataset:   cfg.Analysis.Dataset,
			Version:   cfg.Analysis.ModelVersion,
		},
		Uploader: cfg.Analysis.Uploader,
		Location: cfg.Analysis.Location,
	})

	// =========================================================================
	// Start Debug Service

	m := metrics.New("node")
	m.RegisterLedger("node", st)

	log.Infow("startup", "status", "debug v1 router started", "host", cfg.Web.DebugHost)

	// The Debug function returns a mux to listen and serve on for all the debug
	// related endpoints. This includes the standard library endpoints.

	// Construct the mux for the debug calls.
	debugMux := handlers.DebugMux(build, log, st, m)

	// Start the service listening for debug requests.
	// Not concerned with shutting this down with load shedding.
	go func() {
		if err := http.ListenAndServe(cfg.Web.DebugHost, debugMux); err != nil {
			log.Errorw("shutdown", "status", "debug v1 router closed", "host", cfg.Web.DebugHost, "ERROR", err)
		}
	}()

	// =========================================================================
	// Service Start/Stop Support

	// Make a channel to listen for an interrupt or terminate signal from the OS.
	// Use a buffered channel because the signal package requires it.
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	// Make a channel to listen for errors coming from the listener. Use a
	// buffered channel so the goroutine can exit if we don't collect this error.
	serverErrors := make(chan error, 1)

	// =========================================================================
	// Start Public Service

	log.Infow("startup", "status", "initializing V1 public API support")

	// Construct the mux for the public API calls.
	publicMux := handlers.PublicMux(handlers.MuxConfig{
		Shutdown:       shutdown,
		Log:            log,
		State:          st,
		Core:           core,
		Evts:           evts,
		Metrics:        m,
		MaxUploadBytes: cfg.Web.MaxUploadMB << 20,
	})

	// Construct a server to service the requests against the mux.
	public := http.Server{
		Addr:         cfg.Web.PublicHost,
		Handler:      publicMux,
		ReadTimeout:  cfg.Web.ReadTimeout,
		WriteTimeout: cfg.Web.WriteTimeout,
		IdleTimeout:  cfg.Web.IdleTimeout,
		ErrorLog:     zap.NewStdLog(log.Desugar()),
	}

	// Start the service listening for api requests.
	go func() {
		log.Infow("startup", "status", "public api router started", "host", public.Addr)
		serverErrors <- public.ListenAndServe()
	}()

	// =========================================================================
	// Shutdown

	// Blocking main and waiting for shutdown.
	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		log.Infow("shutdown", "status", "shutdown started", "signal", sig)
		defer log.Infow("shutdown", "status", "shutdown complete", "signal", sig)

		// Release any web sockets that are currently active.
		log.Infow("shutdown", "status", "shutdown web socket channels")
		evts.Shutdown()

		// Give outstanding requests a deadline for completion.
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
		defer cancel()

		// Asking listener to shut down and shed load.
		log.Infow("shutdown", "status", "shutdown public API started")
		if err := public.Shutdown(ctx); err != nil {
			public.Close()
			return fmt.Errorf("could not stop public service gracefully: %w", err)
		}
	}

	return nil
}

// =============================================================================

// sealerConfig holds the settings used to construct the sealing strategy.
type sealerConfig struct {
	DefaultProof    string
	Difficulty      int
	AuthorityKey    string
	AuthorityFolder string
}

// loadStrategy constructs the configured sealing strategy. The authority
// strategy loads the set of authorities and, when present, this node's key.
func loadStrategy(log *zap.SugaredLogger, name string, cfg sealerConfig, ev func(v string, args ...any)) (sealer.Strategy, error) {
	scfg := sealer.Config{
		DefaultProof: cfg.DefaultProof,
		Difficulty:   cfg.Difficulty,
		EvHandler:    ev,
	}

	if name == sealer.StrategyAuthority {

		// The names come from the file names in the authorities folder.
		ns, err := nameservice.New(cfg.AuthorityFolder)
		if err != nil {
			return nil, fmt.Errorf("unable to load authority name service: %w", err)
		}

		// Logging the authorities for documentation in the logs.
		for address, authority := range ns.Copy() {
			log.Infow("startup", "status", "nameservice", "name", authority, "address", address)
		}

		var privateKey *ecdsa.PrivateKey
		switch _, err := os.Stat(cfg.AuthorityKey); {
		case err == nil:
			privateKey, err = crypto.LoadECDSA(cfg.AuthorityKey)
			if err != nil {
				return nil, fmt.Errorf("unable to load private key for node: %w", err)
			}
			log.Infow("startup", "status", "authority key loaded", "address", signature.PublicKeyToAddress(privateKey.PublicKey))

		case errors.Is(err, os.ErrNotExist):
			log.Infow("startup", "status", "no authority key, node can verify but not seal", "path", cfg.AuthorityKey)

		default:
			return nil, fmt.Errorf("checking private key for node: %w", err)
		}

		scfg.Authorities = ns
		scfg.PrivateKey = privateKey
	}

	strategy, err := sealer.Retrieve(name, scfg)
	if err != nil {
		return nil, fmt.Errorf("sealing strategy: %w", err)
	}

	return strategy, nil
}

// loadScorer constructs the scorer for the scoring service at url. Without
// a url the neutral score is always used.
func loadScorer(kind string, url string, timeout time.Duration, fallback int, ev func(v string, args ...any)) analysis.Scorer {
	if url == "" {
		return analysis.Neutral(fallback)
	}

	return analysis.WithFallback(kind, analysis.NewHTTPScorer(kind, url, timeout), fallback, ev)
}

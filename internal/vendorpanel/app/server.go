package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/facebookgo/clock"

	"gomarketplace_vendor/config"
	"gomarketplace_vendor/internal/vendorpanel/business/importer"
	"gomarketplace_vendor/internal/vendorpanel/business/notify"
	"gomarketplace_vendor/internal/vendorpanel/business/payout"
	"gomarketplace_vendor/internal/vendorpanel/models"
	"gomarketplace_vendor/internal/vendorpanel/pkg/clients"
	"gomarketplace_vendor/internal/vendorpanel/storage"
	"gomarketplace_vendor/metrics"
	"gomarketplace_vendor/pkg/dbconnect"
	"gomarketplace_vendor/pkg/dbconnect/migration"
	"gomarketplace_vendor/pkg/dbconnect/postgres"
	"gomarketplace_vendor/pkg/dbconnect/sqlite"
	"gomarketplace_vendor/pkg/logger"
	"gomarketplace_vendor/pkg/middleware"
)

const shutdownTimeout = 5 * time.Second

type Option func(*VendorServer)

// WithClock drives the status loop from c instead of the wall clock.
func WithClock(c clock.Clock) Option {
	return func(s *VendorServer) { s.clock = c }
}

// WithOnConfirmed sets the callback that runs after a confirmed import was handed to
// the watcher.
func WithOnConfirmed(fn func(transactionID string)) Option {
	return func(s *VendorServer) { s.onConfirmed = fn }
}

// VendorServer owns everything that has to outlive a single command: the state store,
// the notification hub and the status watcher.
type VendorServer struct {
	cfg    *config.AppConfig
	log    *logger.BaseLogger
	clock  clock.Clock
	db     dbconnect.Database
	cancel context.CancelFunc
	http   *http.Server

	onConfirmed func(transactionID string)

	Store     storage.WatchStateStore
	Hub       *notify.Hub
	Imports   *clients.ImportClient
	Watcher   *importer.Watcher
	Submitter *importer.Submitter
	Payouts   *payout.Service
}

func NewVendorServer(cfg *config.AppConfig, writer io.Writer, opts ...Option) (*VendorServer, error) {
	s := &VendorServer{
		cfg: cfg,
		log: logger.NewLogger(writer, "[VendorServer]"),
	}
	for _, opt := range opts {
		opt(s)
	}

	store, err := s.openStore()
	if err != nil {
		return nil, err
	}
	s.Store = store

	clientCfg := clients.ClientConfig{
		BaseURL:   cfg.API.BaseURL,
		Token:     cfg.API.Token,
		Timeout:   cfg.API.Timeout,
		RateLimit: cfg.API.RateLimit,
		RateBurst: cfg.API.RateBurst,
	}
	s.Imports = clients.NewImportClient(clientCfg, cfg.API.ImportCollection, s.log)
	s.Payouts = payout.NewService(clients.NewPayoutClient(clientCfg, s.log), s.log.WithPrefix("[Payouts]"))
	s.Hub = notify.NewHub(s.log.WithPrefix("[Notifications]"))

	// Status queries are bound to the server, not to the command that started the watch.
	base, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.Watcher = importer.NewWatcher(base, s.Imports, s.Store, s.Hub, importer.NewClockScheduler(s.clock),
		importer.WatcherConfig{Interval: cfg.Watch.Interval, MaxAttempts: cfg.Watch.MaxAttempts},
		s.log.WithPrefix("[ImportWatcher]"))
	s.Submitter = importer.NewSubmitter(s.Imports, s.Store, s.Watcher, s.Hub, s.log.WithPrefix("[ImportSubmitter]"),
		importer.SubmitterOptions{
			SourceEncoding: cfg.Import.SourceEncoding,
			OnConfirmed:    s.confirmed,
		})
	return s, nil
}

func (s *VendorServer) confirmed(result *models.ConfirmResult) {
	if s.onConfirmed != nil {
		s.onConfirmed(result.TransactionID)
	}
}

func (s *VendorServer) openStore() (storage.WatchStateStore, error) {
	var dialect dbconnect.Dialect
	switch s.cfg.State.Driver {
	case config.StateMemory:
		return storage.NewMemoryStore(), nil
	case config.StateSQLite:
		s.db = sqlite.NewSQLiteConnector(s.cfg.State.Path)
		dialect = sqlite.Dialect
	case config.StatePostgres:
		s.db = postgres.NewPgConnector(s.cfg.Postgres, s.log.WithPrefix("[Postgres]"))
		dialect = postgres.Dialect
	default:
		return nil, fmt.Errorf("unknown state driver %q", s.cfg.State.Driver)
	}

	db, err := s.db.Connect()
	if err != nil {
		return nil, err
	}
	if err := migration.Apply(db, dialect, s.log, &storage.WatchStateTable{}); err != nil {
		s.closeDB()
		return nil, err
	}
	s.log.Log("%s state store ready, session %s", dialect.Name, s.cfg.State.SessionID)
	return storage.NewSQLStore(db, dialect, s.cfg.State.SessionID)
}

type statusResponse struct {
	Watch           importer.WatchSnapshot `json:"watch"`
	Polls           int32                  `json:"polls"`
	TransientErrors int32                  `json:"transient_errors"`
	Completed       int32                  `json:"completed"`
	Failed          int32                  `json:"failed"`
	Abandoned       int32                  `json:"abandoned"`
}

// Handler serves /metrics and /status.
func (s *VendorServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.MetricsHandler())
	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		m := s.Watcher.Metrics()
		resp := statusResponse{
			Watch:           s.Watcher.Snapshot(),
			Polls:           m.Polls.Load(),
			TransientErrors: m.TransientErrors.Load(),
			Completed:       m.Completed.Load(),
			Failed:          m.Failed.Load(),
			Abandoned:       m.Abandoned.Load(),
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			s.log.Error("encode status: %s", err)
		}
	})
	return middleware.PrometheusMiddleware(mux)
}

// ServeMetrics starts the HTTP listener when metrics.addr is configured.
func (s *VendorServer) ServeMetrics() {
	if s.cfg.Metrics.Addr == "" {
		return
	}
	s.http = &http.Server{Addr: s.cfg.Metrics.Addr, Handler: s.Handler()}
	go func() {
		s.log.Log("serving metrics on %s", s.cfg.Metrics.Addr)
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("metrics server: %s", err)
		}
	}()
}

// Close stops the watcher, keeping the pending marker for the next run.
func (s *VendorServer) Close() error {
	s.Watcher.Stop()
	s.cancel()

	if s.http != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.http.Shutdown(ctx); err != nil {
			s.log.Warn("metrics server shutdown: %s", err)
		}
	}
	return s.closeDB()
}

func (s *VendorServer) closeDB() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Package app assembles the service: repositories, external clients,
// use cases and the HTTP server.
package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"
	semconv "go.opentelemetry.io/otel/semconv/v1.12.0"

	"github.com/mzawada/trainload/external/appsscript"
	"github.com/mzawada/trainload/external/sheets"
	"github.com/mzawada/trainload/internal/config"
	"github.com/mzawada/trainload/internal/domain/roster"
	"github.com/mzawada/trainload/internal/domain/snapshot"
	cacherepo "github.com/mzawada/trainload/internal/infrastructure/repository/cache"
	"github.com/mzawada/trainload/internal/infrastructure/repository/memory"
	"github.com/mzawada/trainload/internal/infrastructure/repository/postgres"
	"github.com/mzawada/trainload/internal/interfaces/httpapi"
	basecache "github.com/mzawada/trainload/internal/platform/cache"
	"github.com/mzawada/trainload/internal/platform/logging"
	"github.com/mzawada/trainload/internal/platform/resilience"
	"github.com/mzawada/trainload/internal/usecase"
)

// App owns the wired components and their shutdown order.
type App struct {
	cfg       config.Config
	logger    *logging.Logger
	server    *http.Server
	scheduler *usecase.Scheduler
	reconcile *usecase.ReconcileService
	db        *sqlx.DB
}

func New(cfg config.Config, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}

	sessionRepo := memory.NewSessionRepository()
	measurementRepo := memory.NewMeasurementRepository()
	pendingRepo := memory.NewPendingRepository()

	var rosterRepo roster.Repository = memory.NewRosterRepository()
	if cfg.CacheEnabled {
		rosterRepo = cacherepo.NewRosterRepository(rosterRepo, basecache.NewStore(cfg.CacheTTL))
	}

	fetcher := sheets.NewClient(sheets.ClientConfig{
		HTTPClient:   &http.Client{Timeout: cfg.SheetsTimeout},
		BaseURL:      cfg.SheetsBaseURL,
		ProxyBaseURL: cfg.SheetsProxyBaseURL,
		DocID:        cfg.SheetsDocID,
		Timeout:      cfg.SheetsTimeout,
		MaxRetries:   cfg.SheetsMaxRetries,
		Logger:       logger,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.SheetsCircuitEnabled,
			FailureThreshold: cfg.SheetsCircuitFailureCount,
			OpenTimeout:      cfg.SheetsCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.SheetsCircuitHalfOpenMaxReq,
		},
	})

	var snapshotRepo snapshot.Repository
	var db *sqlx.DB
	if cfg.SnapshotArchiveEnabled {
		var err error
		db, err = openSnapshotDB(cfg)
		if err != nil {
			return nil, fmt.Errorf("open snapshot db: %w", err)
		}
		snapshotRepo = postgres.NewSnapshotRepository(db)
	}

	ingestionSvc := usecase.NewIngestionService(fetcher, sessionRepo, measurementRepo, rosterRepo, snapshotRepo, usecase.IngestionRefs{
		Sessions:     usecase.TableRef{GID: cfg.SheetsSessionsGID},
		Measurements: usecase.TableRef{GID: cfg.SheetsMeasurementsGID},
		Roster:       usecase.TableRef{Sheet: cfg.SheetsRosterSheet},
	}, logger)

	var writer usecase.RowWriter = disabledWriter{}
	if cfg.AppsScriptEnabled {
		writer = appsscript.NewClient(appsscript.ClientConfig{
			HTTPClient: &http.Client{Timeout: cfg.AppsScriptTimeout},
			URL:        cfg.AppsScriptURL,
			Timeout:    cfg.AppsScriptTimeout,
			Logger:     logger,
			CircuitBreaker: resilience.CircuitBreakerConfig{
				Enabled:          cfg.AppsScriptCircuitEnabled,
				FailureThreshold: cfg.AppsScriptFailureCount,
				OpenTimeout:      cfg.AppsScriptOpenTimeout,
				HalfOpenMaxReq:   cfg.AppsScriptHalfOpenMaxReq,
			},
		})
	}

	sources := make([]usecase.PendingSource, 0, len(cfg.PendingSources))
	for _, src := range cfg.PendingSources {
		sources = append(sources, usecase.PendingSource{Sheet: src.Sheet, Label: src.Label})
	}
	reconcileSvc, err := usecase.NewReconcileService(sources, fetcher, writer, pendingRepo, cfg.StatusResetTTL, logger)
	if err != nil {
		if db != nil {
			_ = db.Close()
		}
		return nil, fmt.Errorf("build reconcile service: %w", err)
	}

	handler := httpapi.NewHandler(
		usecase.NewLoadService(sessionRepo),
		usecase.NewMaturityService(measurementRepo),
		reconcileSvc,
		ingestionSvc,
		logger,
	)
	router := httpapi.NewRouter(handler, logger, cfg.CORSAllowedOrigins)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	if server.Addr == "" {
		reconcileSvc.Close()
		if db != nil {
			_ = db.Close()
		}
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	var scheduler *usecase.Scheduler
	if cfg.RefreshEnabled {
		scheduler = usecase.NewScheduler(ingestionSvc, cfg.RefreshInterval, logger)
	}

	return &App{
		cfg:       cfg,
		logger:    logger,
		server:    server,
		scheduler: scheduler,
		reconcile: reconcileSvc,
		db:        db,
	}, nil
}

func (a *App) Server() *http.Server {
	return a.server
}

// RunScheduler blocks until ctx is cancelled. No-op when periodic refresh
// is disabled.
func (a *App) RunScheduler(ctx context.Context) {
	if a.scheduler == nil {
		<-ctx.Done()
		return
	}
	a.scheduler.Run(ctx)
}

func (a *App) Close() {
	a.reconcile.Close()
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("close snapshot db", "error", err)
		}
	}
}

func openSnapshotDB(cfg config.Config) (*sqlx.DB, error) {
	dsn := normalizeDBURL(cfg.DBURL, cfg.DBDisablePreparedBinary)
	db, err := otelsqlx.Connect("postgres", dsn,
		otelsql.WithAttributes(semconv.DBSystemPostgreSQL),
		otelsql.WithDBName(dbNameFromURL(cfg.DBURL)),
		otelsql.WithQueryFormatter(formatDBQueryForTrace),
	)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	return db, nil
}

// disabledWriter stands in when the write collaborator is not configured;
// reconciliation stays read-only.
type disabledWriter struct{}

func (disabledWriter) Submit(context.Context, usecase.WriteCommand) (usecase.WriteResult, error) {
	return usecase.WriteResult{}, fmt.Errorf("%w: write collaborator is disabled", usecase.ErrDependencyUnavailable)
}

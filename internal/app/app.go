// Package app wires repositories, services and handlers from configuration.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/selvxhini-10/EY-Schema-Merger/internal/api"
	"github.com/selvxhini-10/EY-Schema-Merger/internal/config"
	"github.com/selvxhini-10/EY-Schema-Merger/internal/db/repository"
	"github.com/selvxhini-10/EY-Schema-Merger/internal/domain"
	"github.com/selvxhini-10/EY-Schema-Merger/internal/service/approval"
	"github.com/selvxhini-10/EY-Schema-Merger/internal/service/export"
	"github.com/selvxhini-10/EY-Schema-Merger/internal/service/ingestion"
	"github.com/selvxhini-10/EY-Schema-Merger/internal/service/retention"
	"github.com/selvxhini-10/EY-Schema-Merger/internal/service/schema"
	"github.com/selvxhini-10/EY-Schema-Merger/internal/upstream"
)

// Deps holds what main() must provide: configuration, the history database
// pools and the root logger.
type Deps struct {
	Cfg     *config.Config
	WriteDB *sql.DB
	ReadDB  *sql.DB
	Logger  *slog.Logger
}

// Services groups the service pointers the router and background jobs need.
// Sink is nil when no export bucket is configured.
type Services struct {
	Schema    *schema.Service
	Ingestion *ingestion.Service
	Workspace *approval.Workspace
	Export    *export.Service
	Sink      export.Sink
	Backend   *upstream.Client
	LogStream *upstream.LogStream
	Hub       *upstream.Hub
}

// App is the fully wired application.
type App struct {
	Services Services
	Handler  *api.Handler
	Pruner   *retention.Pruner
}

// SchemaSource builds the matcher document source from configuration.
func SchemaSource(cfg *config.Config) *schema.FileSource {
	return &schema.FileSource{
		Dir:           cfg.SchemaDir,
		Bank1Schema:   cfg.SchemaFiles.Bank1Schema,
		Bank2Schema:   cfg.SchemaFiles.Bank2Schema,
		TableMapping:  cfg.SchemaFiles.TableMapping,
		ColumnMapping: cfg.SchemaFiles.ColumnMapping,
	}
}

// New wires everything and loads the initial workspace. A workspace that
// cannot be loaded at startup is logged and left empty; the reload endpoint
// retries.
func New(ctx context.Context, deps Deps) (*App, error) {
	cfg := deps.Cfg
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	historyRepo := repository.NewIngestionHistoryRepo(deps.WriteDB, deps.ReadDB)

	var sink export.Sink
	var store domain.ObjectStore
	if cfg.ExportSink.Configured() {
		s, err := export.NewSink(ctx, cfg.ExportSink)
		if err != nil {
			return nil, fmt.Errorf("create %s export sink: %w", cfg.ExportSink.Kind, err)
		}
		sink, store = s, s
		logger.Info("export sink enabled", "kind", cfg.ExportSink.Kind, "bucket", s.Bucket())
	}

	svcs := Services{
		Schema:    schema.NewService(SchemaSource(cfg), logger.With("component", "schema")),
		Ingestion: ingestion.NewService(historyRepo, logger.With("component", "ingestion")),
		Workspace: approval.NewWorkspace(logger.With("component", "workspace")),
		Export:    export.NewService(store, cfg.ExportSink.Prefix, logger.With("component", "export")),
		Sink:      sink,
		Backend:   upstream.NewClient(cfg.BackendURL, cfg.BackendTimeout, logger),
		LogStream: upstream.NewLogStream(cfg.PipelineLogURL(), logger),
		Hub:       upstream.NewHub(),
	}

	handler := api.NewHandler(api.Deps{
		Schemas:        svcs.Schema,
		Ingestion:      svcs.Ingestion,
		Workspace:      svcs.Workspace,
		Exports:        svcs.Export,
		Backend:        svcs.Backend,
		LogStream:      svcs.LogStream,
		Hub:            svcs.Hub,
		Logger:         logger,
		MaxUploadBytes: cfg.MaxUploadBytes,
	})

	if _, err := handler.ReloadWorkspace(ctx); err != nil {
		logger.Warn("initial workspace load failed", "schema_dir", cfg.SchemaDir, "error", err)
	}

	return &App{
		Services: svcs,
		Handler:  handler,
		Pruner:   retention.NewPruner(historyRepo, cfg.HistoryRetention, cfg.HistoryPruneSchedule, logger),
	}, nil
}

// Router builds the HTTP handler. ctx bounds middleware background work.
func (a *App) Router(ctx context.Context, cfg *config.Config, logger *slog.Logger) http.Handler {
	return api.NewRouter(ctx, a.Handler, api.RouterConfig{
		AllowedOrigins:    cfg.CORSAllowedOrigins,
		RequestsPerSecond: cfg.RateLimitRPS,
		Burst:             cfg.RateLimitBurst,
	}, logger)
}

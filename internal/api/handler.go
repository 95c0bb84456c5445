// Package api provides the HTTP handlers behind the schema-merge workspace.
package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/selvxhini-10/EY-Schema-Merger/internal/domain"
	"github.com/selvxhini-10/EY-Schema-Merger/internal/service/approval"
	"github.com/selvxhini-10/EY-Schema-Merger/internal/service/export"
	"github.com/selvxhini-10/EY-Schema-Merger/internal/service/ingestion"
	"github.com/selvxhini-10/EY-Schema-Merger/internal/service/schema"
	"github.com/selvxhini-10/EY-Schema-Merger/internal/upstream"
)

// defaultMaxUploadBytes applies when Deps.MaxUploadBytes is unset.
const defaultMaxUploadBytes = 32 << 20

// Deps are the services the handlers call.
type Deps struct {
	Schemas   *schema.Service
	Ingestion *ingestion.Service
	Workspace *approval.Workspace
	Exports   *export.Service
	Backend   *upstream.Client
	LogStream *upstream.LogStream
	Hub       *upstream.Hub
	Logger    *slog.Logger

	MaxUploadBytes int64
}

// Handler serves the REST API.
type Handler struct {
	schemas   *schema.Service
	ingestion *ingestion.Service
	workspace *approval.Workspace
	exports   *export.Service
	backend   *upstream.Client
	logStream *upstream.LogStream
	hub       *upstream.Hub
	logger    *slog.Logger
	maxUpload int64
	openapi   *openapi3.T
}

// NewHandler creates a Handler.
func NewHandler(d Deps) *Handler {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	maxUpload := d.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = defaultMaxUploadBytes
	}
	hub := d.Hub
	if hub == nil {
		hub = upstream.NewHub()
	}
	return &Handler{
		schemas:   d.Schemas,
		ingestion: d.Ingestion,
		workspace: d.Workspace,
		exports:   d.Exports,
		backend:   d.Backend,
		logStream: d.LogStream,
		hub:       hub,
		logger:    logger.With("component", "api"),
		maxUpload: maxUpload,
		openapi:   OpenAPIDocument(),
	}
}

// ReloadWorkspace rebuilds the review workspace from the matcher documents.
// On failure the previous workspace is left untouched.
func (h *Handler) ReloadWorkspace(ctx context.Context) (domain.WorkspaceSnapshot, error) {
	bundle, err := h.schemas.Bundle(ctx)
	if err != nil {
		return domain.WorkspaceSnapshot{}, err
	}
	h.workspace.Load(bundle.Tables)
	return h.workspace.Snapshot(), nil
}

func (h *Handler) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) openAPIDocument(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.openapi)
}

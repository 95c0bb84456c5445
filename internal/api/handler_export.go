package api

import (
	"mime"
	"net/http"
	"strconv"

	"github.com/selvxhini-10/EY-Schema-Merger/internal/service/export"
)

// downloadExport renders the current workspace as an attachment.
func (h *Handler) downloadExport(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	art, err := h.exports.Export(h.workspace.Snapshot(), format)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", art.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": art.Name}))
	w.Header().Set("Content-Length", strconv.Itoa(len(art.Body)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(art.Body)
}

type publishExportRequest struct {
	Format string `json:"format"`
}

// publishExport stores the rendered export in the object store.
func (h *Handler) publishExport(w http.ResponseWriter, r *http.Request) {
	var req publishExportRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	format, err := export.ParseFormat(req.Format)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	pub, err := h.exports.Publish(r.Context(), h.workspace.Snapshot(), format)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, pub)
}

func (h *Handler) getReport(w http.ResponseWriter, _ *http.Request) {
	body := h.exports.Report(h.workspace.Snapshot())
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}

package api

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/selvxhini-10/EY-Schema-Merger/internal/domain"
)

func (h *Handler) getWorkspace(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.workspace.Snapshot())
}

func (h *Handler) reloadWorkspace(w http.ResponseWriter, r *http.Request) {
	snap, err := h.ReloadWorkspace(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (h *Handler) toggleMapping(w http.ResponseWriter, r *http.Request) {
	id, err := pathParam(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	m, err := h.workspace.ToggleMapping(id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

type tableApprovalRequest struct {
	State string `json:"state"`
}

type tableApprovalResponse struct {
	Table      string               `json:"table"`
	State      domain.TableApproval `json:"state"`
	Completion float64              `json:"completion"`
}

func (h *Handler) setTableApproval(w http.ResponseWriter, r *http.Request) {
	table, err := pathParam(r, "table")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req tableApprovalRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	state, err := domain.ParseTableApproval(req.State)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.workspace.SetTableApproval(table, state)
	writeJSON(w, http.StatusOK, tableApprovalResponse{
		Table:      table,
		State:      h.workspace.TableApproval(table),
		Completion: h.workspace.Completion(),
	})
}

func (h *Handler) approveAll(w http.ResponseWriter, _ *http.Request) {
	n := h.workspace.ApproveAll()
	writeJSON(w, http.StatusOK, map[string]any{
		"approved": n,
		"summary":  h.workspace.Summary(),
	})
}

// pathParam returns a chi URL parameter. chi routes on RawPath when the
// request carries one, in which case the parameter is still escaped.
func pathParam(r *http.Request, name string) (string, error) {
	v := chi.URLParam(r, name)
	if r.URL.RawPath != "" {
		unescaped, err := url.PathUnescape(v)
		if err != nil {
			return "", domain.ErrValidation("invalid %s in path", name)
		}
		v = unescaped
	}
	if v == "" {
		return "", domain.ErrValidation("invalid %s in path", name)
	}
	return v, nil
}

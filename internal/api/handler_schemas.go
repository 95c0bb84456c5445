package api

import (
	"net/http"

	"github.com/selvxhini-10/EY-Schema-Merger/internal/domain"
	"github.com/selvxhini-10/EY-Schema-Merger/internal/service/schema"
	"github.com/selvxhini-10/EY-Schema-Merger/internal/upstream"
)

func (h *Handler) getSchemas(w http.ResponseWriter, r *http.Request) {
	bundle, err := h.schemas.Bundle(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bundle)
}

func (h *Handler) normalize(w http.ResponseWriter, r *http.Request) {
	if err := parseMultipart(w, r, h.maxUpload); err != nil {
		h.writeError(w, r, err)
		return
	}
	fh, err := formFile(r, "file")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	data, err := readFormFile(fh)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	fields, err := h.schemas.NormalizeFile(fh.Filename, data)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, fields)
}

// parseSchemas forwards master schema spreadsheets to the backend parser and
// fills any id or type the backend left blank.
func (h *Handler) parseSchemas(w http.ResponseWriter, r *http.Request) {
	if err := parseMultipart(w, r, h.maxUpload); err != nil {
		h.writeError(w, r, err)
		return
	}
	headers := formFiles(r, "files")
	files := make([]upstream.File, 0, len(headers))
	for _, fh := range headers {
		data, err := readFormFile(fh)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		files = append(files, upstream.File{Name: fh.Filename, Data: data})
	}

	res, err := h.backend.ParseSchemas(r.Context(), files)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	for i := range res.Parsed {
		if res.Parsed[i].Fields == nil {
			res.Parsed[i].Fields = []domain.SchemaField{}
		}
		schema.FillMissing(res.Parsed[i].Fields)
	}
	writeJSON(w, http.StatusOK, res)
}

// getManifest groups every successfully ingested file under the confident
// logical table it belongs to.
func (h *Handler) getManifest(w http.ResponseWriter, r *http.Request) {
	var files []schema.ManifestFile
	for _, bank := range []string{domain.BankA, domain.BankB} {
		paths, err := h.ingestion.IngestedPaths(r.Context(), bank)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		for _, p := range paths {
			files = append(files, schema.ManifestFile{Source: p, Bank: bank})
		}
	}

	m, err := h.schemas.Manifest(r.Context(), files)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

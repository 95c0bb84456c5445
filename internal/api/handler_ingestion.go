package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/selvxhini-10/EY-Schema-Merger/internal/domain"
	"github.com/selvxhini-10/EY-Schema-Merger/internal/service/ingestion"
)

// ingest converts a browser selection. Browsers send the folder-relative
// path of each file in a parallel "paths" field because multipart file names
// are reduced to base names; when absent the file name is used.
func (h *Handler) ingest(w http.ResponseWriter, r *http.Request) {
	if err := parseMultipart(w, r, h.maxUpload); err != nil {
		h.writeError(w, r, err)
		return
	}
	headers := formFiles(r, "files")
	paths := r.MultipartForm.Value["paths"]

	batch := ingestion.Batch{
		Bank:  strings.TrimSpace(r.FormValue("bank")),
		Root:  r.FormValue("root"),
		Files: make([]domain.SourceFile, 0, len(headers)),
	}
	for i, fh := range headers {
		data, err := readFormFile(fh)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		p := fh.Filename
		if i < len(paths) && paths[i] != "" {
			p = paths[i]
		}
		batch.Files = append(batch.Files, domain.SourceFile{Path: p, Data: data})
	}

	results, err := h.ingestion.IngestBatch(r.Context(), batch)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

type historyEntry struct {
	ID          string    `json:"id"`
	BatchID     string    `json:"batchId"`
	Bank        string    `json:"bank,omitempty"`
	Path        string    `json:"path"`
	DisplayName string    `json:"displayName"`
	IsFolder    bool      `json:"isFolder"`
	Kind        string    `json:"kind"`
	EntryCount  int       `json:"entryCount,omitempty"`
	SizeBytes   int64     `json:"sizeBytes"`
	Failure     string    `json:"failure,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

type historyPage struct {
	Records       []historyEntry `json:"records"`
	Total         int64          `json:"total"`
	NextPageToken string         `json:"nextPageToken,omitempty"`
}

func historyToAPI(rec domain.IngestionRecord) historyEntry {
	return historyEntry{
		ID:          rec.ID,
		BatchID:     rec.BatchID,
		Bank:        rec.Bank,
		Path:        rec.Path,
		DisplayName: rec.DisplayName,
		IsFolder:    rec.IsFolder,
		Kind:        rec.Kind,
		EntryCount:  rec.EntryCount,
		SizeBytes:   rec.SizeBytes,
		Failure:     rec.Failure,
		CreatedAt:   rec.CreatedAt,
	}
}

// historyFilterFromQuery reads bank, from (RFC 3339), max_results and
// page_token.
func historyFilterFromQuery(r *http.Request) (domain.IngestionHistoryFilter, error) {
	q := r.URL.Query()
	var f domain.IngestionHistoryFilter
	if bank := q.Get("bank"); bank != "" {
		f.Bank = &bank
	}
	if from := q.Get("from"); from != "" {
		t, err := time.Parse(time.RFC3339, from)
		if err != nil {
			return f, domain.ErrValidation("invalid from %q: must be RFC 3339", from)
		}
		f.From = &t
	}
	if mr := q.Get("max_results"); mr != "" {
		n, err := strconv.Atoi(mr)
		if err != nil {
			return f, domain.ErrValidation("invalid max_results %q", mr)
		}
		f.Page.MaxResults = n
	}
	f.Page.PageToken = q.Get("page_token")
	return f, nil
}

func (h *Handler) listHistory(w http.ResponseWriter, r *http.Request) {
	filter, err := historyFilterFromQuery(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	records, total, err := h.ingestion.History(r.Context(), filter)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	page := historyPage{
		Records:       make([]historyEntry, len(records)),
		Total:         total,
		NextPageToken: domain.NextPageToken(filter.Page.Offset(), filter.Page.Limit(), total),
	}
	for i, rec := range records {
		page.Records[i] = historyToAPI(rec)
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *Handler) historyStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.ingestion.Stats(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if stats == nil {
		stats = []domain.IngestionStat{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"stats": stats})
}

package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/selvxhini-10/EY-Schema-Merger/internal/service/ingestion"
	"github.com/selvxhini-10/EY-Schema-Merger/internal/upstream"
)

// upload forwards one raw data file to the backend. Byte progress is
// published to the pipeline console.
func (h *Handler) upload(w http.ResponseWriter, r *http.Request) {
	if err := parseMultipart(w, r, h.maxUpload); err != nil {
		h.writeError(w, r, err)
		return
	}
	bank, err := ingestion.NormalizeBank(r.FormValue("bank"))
	if err != nil {
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

	progress := func(pct int) {
		h.hub.Publish(fmt.Sprintf("[upload] %s: %d%%", fh.Filename, pct))
	}
	res, err := h.backend.Upload(r.Context(), bank, upstream.File{Name: fh.Filename, Data: data}, progress)
	if err != nil {
		h.hub.Publish(fmt.Sprintf("[upload] %s: failed", fh.Filename))
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// pipelineLogs relays the backend's log websocket, plus local console lines
// such as upload progress, as Server-Sent Events. When the backend stream
// ends, the closing line is sent and local lines keep flowing until the
// client disconnects.
func (h *Handler) pipelineLogs(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		h.writeError(w, r, errors.New("streaming unsupported"))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	local, unsubscribe := h.hub.Subscribe()
	defer unsubscribe()

	ctx, cancel := context.WithCancel(r.Context())
	remote := make(chan string, 16)
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer close(remote)
		h.logStream.Stream(ctx, func(line string) {
			select {
			case remote <- line:
			case <-ctx.Done():
			}
		})
	}()
	defer func() {
		cancel()
		<-done
	}()

	for {
		var line string
		select {
		case <-ctx.Done():
			return
		case l, open := <-remote:
			if !open {
				remote = nil
				continue
			}
			line = l
		case l, open := <-local:
			if !open {
				return
			}
			line = l
		}
		if err := writeEvent(w, line); err != nil {
			h.logger.Debug("pipeline log client gone", "error", err)
			return
		}
		flusher.Flush()
	}
}

// writeEvent writes one SSE message. Embedded newlines become extra data
// lines so the client reassembles the original text.
func writeEvent(w io.Writer, line string) error {
	var b strings.Builder
	for _, part := range strings.Split(line, "\n") {
		b.WriteString("data: ")
		b.WriteString(strings.TrimSuffix(part, "\r"))
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	_, err := io.WriteString(w, b.String())
	return err
}

// Package upstream talks to the external parse backend: file uploads, master
// schema parsing and the pipeline log stream.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/selvxhini-10/EY-Schema-Merger/internal/domain"
)

// maxErrorBody caps how much of an upstream error body is kept.
const maxErrorBody = 64 << 10

// Client calls the parse backend. Failed calls are never retried; the
// caller surfaces the upstream status and body and the user retries.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// NewClient creates a backend client.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger.With("component", "upstream"),
	}
}

// File is one file sent to the backend.
type File struct {
	Name string
	Data []byte
}

// UploadResult is the backend's reply to a raw data upload.
type UploadResult struct {
	Message  string `json:"message"`
	Filename string `json:"filename"`
}

// ParsedSchema is one parsed master schema spreadsheet.
type ParsedSchema struct {
	Fields []domain.SchemaField `json:"fields"`
}

// ParseResult is the backend's reply to a schema parse request.
type ParseResult struct {
	Parsed []ParsedSchema `json:"parsed"`
}

// ProgressFunc receives the upload percentage. Calls are monotonically
// increasing and end at 100 when the body was fully sent.
type ProgressFunc func(percent int)

// Upload sends a raw data file for the given bank to POST /upload.
func (c *Client) Upload(ctx context.Context, bank string, file File, progress ProgressFunc) (*UploadResult, error) {
	const op = "upload"
	body, contentType, err := multipartBody(func(mw *multipart.Writer) error {
		if err := mw.WriteField("bank", bank); err != nil {
			return err
		}
		return writeFile(mw, "file", file)
	})
	if err != nil {
		return nil, &domain.NetworkError{Op: op, Err: err}
	}

	var out UploadResult
	var raw map[string]any
	respBody, err := c.post(ctx, op, "/upload", contentType, body, progress)
	if err != nil {
		return nil, err
	}
	// the backend reports a rejected bank as a 200 with an error field
	if json.Unmarshal(respBody, &raw) == nil {
		if msg, ok := raw["error"].(string); ok {
			return nil, &domain.NetworkError{Op: op, StatusCode: http.StatusOK, Body: msg}
		}
	}
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, &domain.NetworkError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	c.logger.Info("file uploaded", "bank", bank, "name", file.Name, "bytes", len(file.Data))
	return &out, nil
}

// ParseSchemas sends master schema spreadsheets to POST /schemas/parse.
func (c *Client) ParseSchemas(ctx context.Context, files []File) (*ParseResult, error) {
	const op = "parse schemas"
	if len(files) == 0 {
		return nil, domain.ErrValidation("at least one file is required")
	}
	body, contentType, err := multipartBody(func(mw *multipart.Writer) error {
		for _, f := range files {
			if err := writeFile(mw, "files", f); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, &domain.NetworkError{Op: op, Err: err}
	}

	respBody, err := c.post(ctx, op, "/schemas/parse", contentType, body, nil)
	if err != nil {
		return nil, err
	}
	var out ParseResult
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, &domain.NetworkError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	if out.Parsed == nil {
		out.Parsed = []ParsedSchema{}
	}
	return &out, nil
}

func (c *Client) post(ctx context.Context, op, path, contentType string, body []byte, progress ProgressFunc) ([]byte, error) {
	var reader io.Reader = bytes.NewReader(body)
	if progress != nil {
		reader = &progressReader{r: reader, total: int64(len(body)), report: progress, last: -1}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, reader)
	if err != nil {
		return nil, &domain.NetworkError{Op: op, Err: fmt.Errorf("create request: %w", err)}
	}
	req.ContentLength = int64(len(body))
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("backend request failed", "op", op, "error", err)
		return nil, &domain.NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody+1<<20))
	if err != nil {
		return nil, &domain.NetworkError{Op: op, Err: fmt.Errorf("read response: %w", err)}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		text := string(respBody)
		if len(text) > maxErrorBody {
			text = text[:maxErrorBody]
		}
		c.logger.Warn("backend returned error", "op", op, "status", resp.StatusCode)
		return nil, &domain.NetworkError{Op: op, StatusCode: resp.StatusCode, Body: text}
	}
	return respBody, nil
}

func multipartBody(fill func(*multipart.Writer) error) ([]byte, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := fill(mw); err != nil {
		return nil, "", err
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), mw.FormDataContentType(), nil
}

func writeFile(mw *multipart.Writer, field string, f File) error {
	w, err := mw.CreateFormFile(field, f.Name)
	if err != nil {
		return err
	}
	_, err = w.Write(f.Data)
	return err
}

// progressReader reports whole-percent progress as the body is read.
type progressReader struct {
	r      io.Reader
	total  int64
	read   int64
	last   int
	report ProgressFunc
	mu     sync.Mutex
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	p.mu.Lock()
	defer p.mu.Unlock()
	p.read += int64(n)
	pct := 100
	if p.total > 0 {
		pct = int(p.read * 100 / p.total)
	}
	if pct > p.last {
		p.last = pct
		p.report(pct)
	}
	return n, err
}

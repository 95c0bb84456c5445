package api

import (
	"archive/zip"
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internaldb "github.com/selvxhini-10/EY-Schema-Merger/internal/db"
	"github.com/selvxhini-10/EY-Schema-Merger/internal/db/repository"
	"github.com/selvxhini-10/EY-Schema-Merger/internal/domain"
	"github.com/selvxhini-10/EY-Schema-Merger/internal/service/approval"
	"github.com/selvxhini-10/EY-Schema-Merger/internal/service/export"
	"github.com/selvxhini-10/EY-Schema-Merger/internal/service/ingestion"
	"github.com/selvxhini-10/EY-Schema-Merger/internal/service/schema"
	"github.com/selvxhini-10/EY-Schema-Merger/internal/upstream"
)

var testDocs = map[string]string{
	"bank1.json":   `{"tables":{"Customers":[{"label":"CustomerID","description":"Unique id"},{"label":"OpenDate","description":"Account open"}]}}`,
	"bank2.json":   `{"tables":{"Clients":[{"label":"ClientNo","description":"Client number"}]}}`,
	"tables.json":  `[{"best_match_bank1_table":"Customers","bank2_table":"Clients","status":"Confident Match","confidence_rating":91}]`,
	"columns.json": `{"Customers":[{"best_match_bank1_column":{"label":"CustomerID","description":""},"bank2_column":{"label":"ClientNo"},"status":"Confident Match","confidence_rating":88},{"best_match_bank1_column":null,"bank2_column":{"label":"Region"},"status":"Needs Review","confidence_rating":40}]}`,
}

type testEnv struct {
	srv     *httptest.Server
	handler *Handler
	hub     *upstream.Hub
}

// setupTestServer wires the real services against a temp schema directory,
// a temp SQLite history store and a fake parse backend.
func setupTestServer(t *testing.T, backend http.Handler, docs map[string]string) *testEnv {
	t.Helper()

	dir := t.TempDir()
	for name, body := range docs {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600))
	}
	source := &schema.FileSource{
		Dir:           dir,
		Bank1Schema:   "bank1.json",
		Bank2Schema:   "bank2.json",
		TableMapping:  "tables.json",
		ColumnMapping: "columns.json",
	}

	if backend == nil {
		backend = http.NotFoundHandler()
	}
	backendSrv := httptest.NewServer(backend)
	t.Cleanup(backendSrv.Close)

	pools := internaldb.OpenTestSQLite(t)
	hub := upstream.NewHub()
	h := NewHandler(Deps{
		Schemas:   schema.NewService(source, nil),
		Ingestion: ingestion.NewService(repository.NewIngestionHistoryRepo(pools.Write, pools.Read), nil),
		Workspace: approval.NewWorkspace(nil),
		Exports:   export.NewService(nil, "exports/", nil),
		Backend:   upstream.NewClient(backendSrv.URL, 5*time.Second, nil),
		LogStream: upstream.NewLogStream("ws"+strings.TrimPrefix(backendSrv.URL, "http")+"/ws/pipeline-logs", nil),
		Hub:       hub,
	})

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	srv := httptest.NewServer(NewRouter(ctx, h, RouterConfig{
		AllowedOrigins:    []string{"http://localhost:3000"},
		RequestsPerSecond: 1000,
		Burst:             1000,
	}, nil))
	t.Cleanup(srv.Close)

	return &testEnv{srv: srv, handler: h, hub: hub}
}

type formFileSpec struct {
	field, name string
	data        []byte
}

func multipartRequest(t *testing.T, values map[string][]string, files ...formFileSpec) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, vs := range values {
		for _, v := range vs {
			require.NoError(t, mw.WriteField(k, v))
		}
	}
	for _, f := range files {
		fw, err := mw.CreateFormFile(f.field, f.name)
		require.NoError(t, err)
		_, err = fw.Write(f.data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func doRequest(t *testing.T, method, url, contentType string, body io.Reader) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, body)
	require.NoError(t, err)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestHealthzAndOpenAPI(t *testing.T) {
	env := setupTestServer(t, nil, testDocs)

	resp := doRequest(t, http.MethodGet, env.srv.URL+"/healthz", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doRequest(t, http.MethodGet, env.srv.URL+"/openapi.json", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	doc := decodeBody[map[string]any](t, resp)
	paths, ok := doc["paths"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, paths, "/api/workspace/mappings/{id}/toggle")
	assert.Contains(t, paths, "/api/pipeline-logs")
}

func TestGetSchemas(t *testing.T) {
	env := setupTestServer(t, nil, testDocs)

	resp := doRequest(t, http.MethodGet, env.srv.URL+"/api/schemas", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	bundle := decodeBody[domain.SchemaBundle](t, resp)
	require.Len(t, bundle.Tables, 1)
	assert.Equal(t, "Customers", bundle.Tables[0].TableName)
	assert.Len(t, bundle.Tables[0].ColumnMappings, 2)
	assert.Contains(t, bundle.Bank2Schema.Tables, "Clients")
}

func TestGetSchemas_MissingDocument(t *testing.T) {
	docs := map[string]string{}
	for k, v := range testDocs {
		docs[k] = v
	}
	delete(docs, "columns.json")
	env := setupTestServer(t, nil, docs)

	resp := doRequest(t, http.MethodGet, env.srv.URL+"/api/schemas", "", nil)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	body := decodeBody[errorResponse](t, resp)
	assert.Equal(t, "Failed to read schema files", body.Error)
}

func TestWorkspaceFlow(t *testing.T) {
	env := setupTestServer(t, nil, testDocs)
	base := env.srv.URL + "/api/workspace"

	resp := doRequest(t, http.MethodGet, base, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	empty := decodeBody[domain.WorkspaceSnapshot](t, resp)
	assert.Empty(t, empty.Mappings)

	resp = doRequest(t, http.MethodPost, base+"/reload", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	snap := decodeBody[domain.WorkspaceSnapshot](t, resp)
	require.Len(t, snap.Mappings, 2)
	assert.True(t, snap.Mappings[0].Approved)
	assert.False(t, snap.Mappings[1].Approved)
	assert.Equal(t, 1, snap.Summary.UnresolvedConflicts)

	resp = doRequest(t, http.MethodPost, base+"/mappings/"+snap.Mappings[1].ID+"/toggle", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	toggled := decodeBody[domain.Mapping](t, resp)
	assert.True(t, toggled.Approved)

	resp = doRequest(t, http.MethodPost, base+"/mappings/cm-nope-9/toggle", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = doRequest(t, http.MethodPut, base+"/tables/Customers/approval", "application/json",
		strings.NewReader(`{"state":"approved"}`))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	approved := decodeBody[tableApprovalResponse](t, resp)
	assert.Equal(t, domain.ApprovalApproved, approved.State)
	assert.InDelta(t, 100, approved.Completion, 0.001)

	resp = doRequest(t, http.MethodPut, base+"/tables/Customers/approval", "application/json",
		strings.NewReader(`{"state":"maybe"}`))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = doRequest(t, http.MethodPost, base+"/approve-all", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doRequest(t, http.MethodGet, base, "", nil)
	final := decodeBody[domain.WorkspaceSnapshot](t, resp)
	assert.Equal(t, 2, final.Summary.ApprovedMappings)
	assert.Equal(t, domain.ApprovalApproved, final.Approvals["Customers"])
}

func TestWorkspace_EscapedPathParams(t *testing.T) {
	env := setupTestServer(t, nil, testDocs)
	base := env.srv.URL + "/api/workspace"

	for _, name := range []string{"Customers", "a/b", "100% Loans", "Loans 2024"} {
		t.Run(name, func(t *testing.T) {
			resp := doRequest(t, http.MethodPut, base+"/tables/"+url.PathEscape(name)+"/approval",
				"application/json", strings.NewReader(`{"state":"rejected"}`))
			require.Equal(t, http.StatusOK, resp.StatusCode)
			got := decodeBody[tableApprovalResponse](t, resp)
			assert.Equal(t, name, got.Table)
			assert.Equal(t, domain.ApprovalRejected, got.State)
		})
	}

	resp := doRequest(t, http.MethodPost, base+"/mappings/"+url.PathEscape("cm-100% Loans-0")+"/toggle", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestExportAndReport(t *testing.T) {
	env := setupTestServer(t, nil, testDocs)
	_, err := env.handler.ReloadWorkspace(context.Background())
	require.NoError(t, err)

	resp := doRequest(t, http.MethodGet, env.srv.URL+"/api/export?format=csv", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/csv; charset=utf-8", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "unified_schema_")
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "CustomerID")

	resp = doRequest(t, http.MethodGet, env.srv.URL+"/api/export?format=pdf", "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = doRequest(t, http.MethodPost, env.srv.URL+"/api/export", "application/json", strings.NewReader(`{"format":"json"}`))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "no sink configured")

	resp = doRequest(t, http.MethodGet, env.srv.URL+"/api/report", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	report, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(report), "# Schema Mapping Documentation Report")
}

func zipOf(t *testing.T, names ...string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, n := range names {
		w, err := zw.Create(n)
		require.NoError(t, err)
		_, _ = w.Write([]byte("x"))
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestIngestHistoryAndManifest(t *testing.T) {
	env := setupTestServer(t, nil, testDocs)

	body, ct := multipartRequest(t,
		map[string][]string{
			"bank":  {"b"},
			"root":  {"exports"},
			"paths": {"exports/clients_2024.csv", "exports/archive/bundle.zip"},
		},
		formFileSpec{"files", "clients_2024.csv", []byte("ClientNo,Region\n1,North\n")},
		formFileSpec{"files", "bundle.zip", zipOf(t, "a.csv", "b.csv")},
	)
	resp := doRequest(t, http.MethodPost, env.srv.URL+"/api/ingest", ct, body)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	files := decodeBody[[]domain.IngestedFile](t, resp)
	require.Len(t, files, 2)
	assert.Equal(t, "exports/clients_2024.csv", files[0].Path)
	require.NotNil(t, files[0].CSVPreview)
	preview, ok := files[0].CSVPreview.Get()
	require.True(t, ok)
	assert.Equal(t, "ClientNo,Region\n1,North\n", preview)
	assert.True(t, files[1].IsFolder)
	require.NotNil(t, files[1].ZipEntries)
	entries, ok := files[1].ZipEntries.Get()
	require.True(t, ok)
	assert.Equal(t, []string{"a.csv", "b.csv"}, entries)

	resp = doRequest(t, http.MethodGet, env.srv.URL+"/api/history?bank=BankB&max_results=1", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	page := decodeBody[historyPage](t, resp)
	assert.Equal(t, int64(2), page.Total)
	assert.Len(t, page.Records, 1)
	assert.NotEmpty(t, page.NextPageToken)

	resp = doRequest(t, http.MethodGet, env.srv.URL+"/api/history?max_results=many", "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = doRequest(t, http.MethodGet, env.srv.URL+"/api/history/stats", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doRequest(t, http.MethodGet, env.srv.URL+"/api/manifest", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	m := decodeBody[schema.Manifest](t, resp)
	require.Len(t, m.Tables["Customers"], 1)
	assert.Equal(t, "exports/clients_2024.csv", m.Tables["Customers"][0].Source)
}

func TestIngest_InvalidBank(t *testing.T) {
	env := setupTestServer(t, nil, testDocs)

	body, ct := multipartRequest(t, map[string][]string{"bank": {"C"}},
		formFileSpec{"files", "x.csv", []byte("a\n")})
	resp := doRequest(t, http.MethodPost, env.srv.URL+"/api/ingest", ct, body)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestNormalize(t *testing.T) {
	env := setupTestServer(t, nil, testDocs)

	body, ct := multipartRequest(t, nil, formFileSpec{"file", "fields.csv", []byte("CustomerID\nOpenDate\n")})
	resp := doRequest(t, http.MethodPost, env.srv.URL+"/api/normalize", ct, body)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	fields := decodeBody[[]domain.SchemaField](t, resp)
	require.Len(t, fields, 2)
	assert.Equal(t, "OpenDate", fields[1].Name)
	assert.Equal(t, domain.FieldTypeString, fields[1].Type)

	resp = doRequest(t, http.MethodPost, env.srv.URL+"/api/normalize", "application/json", strings.NewReader(`{}`))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUploadProxy(t *testing.T) {
	backend := http.NewServeMux()
	backend.HandleFunc("/upload", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseMultipartForm(1 << 20)
		if r.FormValue("bank") != "BankA" {
			http.Error(w, "unexpected bank", http.StatusTeapot)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "File uploaded successfully", "filename": "accounts.csv"})
	})
	env := setupTestServer(t, backend, testDocs)

	lines, unsubscribe := env.hub.Subscribe()
	defer unsubscribe()

	body, ct := multipartRequest(t, map[string][]string{"bank": {"a"}},
		formFileSpec{"file", "accounts.csv", []byte("id\n1\n")})
	resp := doRequest(t, http.MethodPost, env.srv.URL+"/api/upload", ct, body)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	res := decodeBody[upstream.UploadResult](t, resp)
	assert.Equal(t, "accounts.csv", res.Filename)

	var last string
	for {
		select {
		case l := <-lines:
			last = l
			continue
		default:
		}
		break
	}
	assert.Equal(t, "[upload] accounts.csv: 100%", last)
}

func TestUploadProxy_Failures(t *testing.T) {
	backend := http.NewServeMux()
	backend.HandleFunc("/upload", func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "disk full", http.StatusInternalServerError)
	})
	env := setupTestServer(t, backend, testDocs)

	body, ct := multipartRequest(t, map[string][]string{"bank": {"B"}},
		formFileSpec{"file", "loans.csv", []byte("id\n")})
	resp := doRequest(t, http.MethodPost, env.srv.URL+"/api/upload", ct, body)
	require.Equal(t, http.StatusBadGateway, resp.StatusCode)
	errBody := decodeBody[errorResponse](t, resp)
	assert.Equal(t, http.StatusInternalServerError, errBody.UpstreamStatus)
	assert.Equal(t, "disk full\n", errBody.UpstreamBody)

	body, ct = multipartRequest(t, map[string][]string{"bank": {"Bank C"}},
		formFileSpec{"file", "loans.csv", []byte("id\n")})
	resp = doRequest(t, http.MethodPost, env.srv.URL+"/api/upload", ct, body)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestParseSchemasProxy(t *testing.T) {
	backend := http.NewServeMux()
	backend.HandleFunc("/schemas/parse", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"parsed":[{"fields":[{"name":"OpenDate","type":""},{"id":"x","name":"Balance","type":"number"}]}]}`)
	})
	env := setupTestServer(t, backend, testDocs)

	body, ct := multipartRequest(t, nil, formFileSpec{"files", "master.xlsx", []byte("xlsx")})
	resp := doRequest(t, http.MethodPost, env.srv.URL+"/api/schemas/parse", ct, body)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	res := decodeBody[upstream.ParseResult](t, resp)
	require.Len(t, res.Parsed, 1)
	fields := res.Parsed[0].Fields
	require.Len(t, fields, 2)
	assert.Equal(t, "field-0", fields[0].ID)
	assert.Equal(t, domain.FieldTypeDate, fields[0].Type)
	assert.Equal(t, "x", fields[1].ID)

	body, ct = multipartRequest(t, nil)
	resp = doRequest(t, http.MethodPost, env.srv.URL+"/api/schemas/parse", ct, body)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "no files")
}

func TestPipelineLogs(t *testing.T) {
	backend := http.NewServeMux()
	backend.HandleFunc("/ws/pipeline-logs", func(w http.ResponseWriter, r *http.Request) {
		c, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		_ = c.Write(r.Context(), websocket.MessageText, []byte("[pipeline] unifying tables"))
		_ = c.Close(websocket.StatusNormalClosure, "")
	})
	env := setupTestServer(t, backend, testDocs)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, env.srv.URL+"/api/pipeline-logs", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	var got []string
	sc := bufio.NewScanner(resp.Body)
	for sc.Scan() {
		line, ok := strings.CutPrefix(sc.Text(), "data: ")
		if !ok {
			continue
		}
		got = append(got, line)
		if upstream.IsClosedLine(line) {
			break
		}
	}
	assert.Equal(t, []string{"[pipeline] unifying tables", upstream.LineClosed}, got)
}

func TestWriteEvent_MultiLine(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeEvent(&buf, "a\r\nb"))
	assert.Equal(t, "data: a\ndata: b\n\n", buf.String())
}

func TestHTTPStatusFromDomainError(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{domain.ErrNotFound("x"), http.StatusNotFound},
		{domain.ErrValidation("x"), http.StatusBadRequest},
		{domain.ErrConflict("x"), http.StatusConflict},
		{&domain.FileReadError{Name: "a"}, http.StatusBadRequest},
		{&domain.NetworkError{Op: "upload", StatusCode: 503}, http.StatusBadGateway},
		{&domain.SchemaLoadError{Document: "bank1_schema"}, http.StatusInternalServerError},
		{&http.MaxBytesError{Limit: 1}, http.StatusRequestEntityTooLarge},
		{io.EOF, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, httpStatusFromDomainError(tt.err), "%T", tt.err)
	}
}

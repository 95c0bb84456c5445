package api

import (
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/selvxhini-10/EY-Schema-Merger/internal/domain"
)

// route describes one documented endpoint.
type route struct {
	method      string
	path        string
	operationID string
	summary     string
	params      openapi3.Parameters
	request     *openapi3.RequestBody
	status      int
	response    *openapi3.Response
}

// OpenAPIDocument describes the REST API.
func OpenAPIDocument() *openapi3.T {
	doc := &openapi3.T{
		OpenAPI: "3.0.3",
		Info: &openapi3.Info{
			Title:       "Schema Merger API",
			Description: "Ingest bank exports, review unified schema mappings and export the approved set.",
			Version:     "1.0.0",
		},
		Paths: openapi3.NewPaths(),
	}

	for _, rt := range routes() {
		op := openapi3.NewOperation()
		op.OperationID = rt.operationID
		op.Summary = rt.summary
		op.Parameters = rt.params
		if rt.request != nil {
			op.RequestBody = &openapi3.RequestBodyRef{Value: rt.request}
		}
		op.AddResponse(rt.status, rt.response)
		op.AddResponse(0, jsonResponse("Error", errorSchema()))
		doc.AddOperation(rt.path, rt.method, op)
	}
	return doc
}

func routes() []route {
	files := multipartBody(openapi3.NewObjectSchema().
		WithProperty("files", openapi3.NewArraySchema().WithItems(binarySchema())).
		WithProperty("paths", openapi3.NewArraySchema().WithItems(openapi3.NewStringSchema())).
		WithProperty("root", openapi3.NewStringSchema()).
		WithProperty("bank", bankSchema()))
	singleFile := multipartBody(openapi3.NewObjectSchema().
		WithProperty("file", binarySchema()))
	upload := multipartBody(openapi3.NewObjectSchema().
		WithProperty("file", binarySchema()).
		WithProperty("bank", bankSchema()))
	parseFiles := multipartBody(openapi3.NewObjectSchema().
		WithProperty("files", openapi3.NewArraySchema().WithItems(binarySchema())))

	return []route{
		{http.MethodGet, "/healthz", "healthz", "Liveness probe", nil, nil,
			http.StatusOK, jsonResponse("Service is up", openapi3.NewObjectSchema().WithProperty("status", openapi3.NewStringSchema()))},
		{http.MethodGet, "/api/schemas", "getSchemas", "Unified tables with both bank schemas", nil, nil,
			http.StatusOK, jsonResponse("Schema bundle", openapi3.NewObjectSchema().
				WithProperty("tables", openapi3.NewArraySchema().WithItems(unifiedTableSchema())).
				WithProperty("bank1Schema", openapi3.NewObjectSchema()).
				WithProperty("bank2Schema", openapi3.NewObjectSchema()))},
		{http.MethodPost, "/api/schemas/parse", "parseSchemas", "Parse master schema spreadsheets via the backend", nil, parseFiles,
			http.StatusOK, jsonResponse("Parsed schemas", openapi3.NewObjectSchema().
				WithProperty("parsed", openapi3.NewArraySchema().WithItems(openapi3.NewObjectSchema().
					WithProperty("fields", openapi3.NewArraySchema().WithItems(schemaFieldSchema())))))},
		{http.MethodPost, "/api/normalize", "normalize", "Normalize an XLSX or CSV sheet into typed fields", nil, singleFile,
			http.StatusOK, jsonResponse("Fields", openapi3.NewArraySchema().WithItems(schemaFieldSchema()))},
		{http.MethodGet, "/api/manifest", "getManifest", "Group ingested files under confident tables", nil, nil,
			http.StatusOK, jsonResponse("Manifest", openapi3.NewObjectSchema().
				WithProperty("tables", openapi3.NewObjectSchema().WithAdditionalProperties(openapi3.NewArraySchema().WithItems(manifestFileSchema()))).
				WithProperty("unmatched", openapi3.NewArraySchema().WithItems(manifestFileSchema())))},
		{http.MethodPost, "/api/ingest", "ingest", "Ingest a folder selection", nil, files,
			http.StatusOK, jsonResponse("Ingested files in selection order", openapi3.NewArraySchema().WithItems(ingestedFileSchema()))},
		{http.MethodGet, "/api/history", "listHistory", "List ingestion history", openapi3.Parameters{
			queryParam("bank", openapi3.NewStringSchema()),
			queryParam("from", openapi3.NewDateTimeSchema()),
			queryParam("max_results", openapi3.NewIntegerSchema()),
			queryParam("page_token", openapi3.NewStringSchema()),
		}, nil, http.StatusOK, jsonResponse("History page", openapi3.NewObjectSchema().
			WithProperty("records", openapi3.NewArraySchema().WithItems(openapi3.NewObjectSchema())).
			WithProperty("total", openapi3.NewInt64Schema()).
			WithProperty("nextPageToken", openapi3.NewStringSchema()))},
		{http.MethodGet, "/api/history/stats", "historyStats", "Ingestion counts per bank and kind", nil, nil,
			http.StatusOK, jsonResponse("Stats", openapi3.NewObjectSchema().
				WithProperty("stats", openapi3.NewArraySchema().WithItems(openapi3.NewObjectSchema())))},
		{http.MethodGet, "/api/workspace", "getWorkspace", "Current review workspace", nil, nil,
			http.StatusOK, jsonResponse("Workspace snapshot", workspaceSchema())},
		{http.MethodPost, "/api/workspace/reload", "reloadWorkspace", "Rebuild the workspace from the matcher documents", nil, nil,
			http.StatusOK, jsonResponse("Workspace snapshot", workspaceSchema())},
		{http.MethodPost, "/api/workspace/mappings/{id}/toggle", "toggleMapping", "Flip one mapping's approval",
			openapi3.Parameters{pathParamRef("id")}, nil,
			http.StatusOK, jsonResponse("Updated mapping", mappingSchema())},
		{http.MethodPut, "/api/workspace/tables/{table}/approval", "setTableApproval", "Approve or reject a table",
			openapi3.Parameters{pathParamRef("table")},
			openapi3.NewRequestBody().WithRequired(true).WithJSONSchema(openapi3.NewObjectSchema().
				WithProperty("state", openapi3.NewStringSchema().WithEnum("none", "approved", "rejected"))),
			http.StatusOK, jsonResponse("Table approval", openapi3.NewObjectSchema().
				WithProperty("table", openapi3.NewStringSchema()).
				WithProperty("state", openapi3.NewStringSchema()).
				WithProperty("completion", openapi3.NewFloat64Schema()))},
		{http.MethodPost, "/api/workspace/approve-all", "approveAll", "Approve every mapping", nil, nil,
			http.StatusOK, jsonResponse("Approval count and summary", openapi3.NewObjectSchema().
				WithProperty("approved", openapi3.NewIntegerSchema()).
				WithProperty("summary", openapi3.NewObjectSchema()))},
		{http.MethodGet, "/api/export", "downloadExport", "Download the mapping export",
			openapi3.Parameters{queryParam("format", openapi3.NewStringSchema().WithEnum("csv", "json", "xlsx"))}, nil,
			http.StatusOK, openapi3.NewResponse().WithDescription("Export file").
				WithContent(openapi3.NewContentWithSchema(binarySchema(), []string{"text/csv", "application/json",
					"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"}))},
		{http.MethodPost, "/api/export", "publishExport", "Store the export in the object store", nil,
			openapi3.NewRequestBody().WithRequired(true).WithJSONSchema(openapi3.NewObjectSchema().
				WithProperty("format", openapi3.NewStringSchema().WithEnum("csv", "json", "xlsx"))),
			http.StatusCreated, jsonResponse("Stored object", openapi3.NewObjectSchema().
				WithProperty("key", openapi3.NewStringSchema()).
				WithProperty("url", openapi3.NewStringSchema()))},
		{http.MethodGet, "/api/report", "getReport", "Markdown mapping documentation report", nil, nil,
			http.StatusOK, openapi3.NewResponse().WithDescription("Report").
				WithContent(openapi3.NewContentWithSchema(openapi3.NewStringSchema(), []string{"text/markdown"}))},
		{http.MethodPost, "/api/upload", "upload", "Forward a raw data file to the backend", nil, upload,
			http.StatusOK, jsonResponse("Backend reply", openapi3.NewObjectSchema().
				WithProperty("message", openapi3.NewStringSchema()).
				WithProperty("filename", openapi3.NewStringSchema()))},
		{http.MethodGet, "/api/pipeline-logs", "pipelineLogs", "Pipeline console as Server-Sent Events", nil, nil,
			http.StatusOK, openapi3.NewResponse().WithDescription("Event stream").
				WithContent(openapi3.NewContentWithSchema(openapi3.NewStringSchema(), []string{"text/event-stream"}))},
	}
}

func jsonResponse(desc string, schema *openapi3.Schema) *openapi3.Response {
	return openapi3.NewResponse().WithDescription(desc).WithJSONSchema(schema)
}

func multipartBody(schema *openapi3.Schema) *openapi3.RequestBody {
	return openapi3.NewRequestBody().WithRequired(true).
		WithContent(openapi3.NewContentWithFormDataSchema(schema))
}

func queryParam(name string, schema *openapi3.Schema) *openapi3.ParameterRef {
	return &openapi3.ParameterRef{Value: openapi3.NewQueryParameter(name).WithSchema(schema)}
}

func pathParamRef(name string) *openapi3.ParameterRef {
	return &openapi3.ParameterRef{Value: openapi3.NewPathParameter(name).WithSchema(openapi3.NewStringSchema())}
}

func binarySchema() *openapi3.Schema {
	return openapi3.NewStringSchema().WithFormat("binary")
}

func bankSchema() *openapi3.Schema {
	return openapi3.NewStringSchema().WithEnum(domain.BankA, domain.BankB)
}

func errorSchema() *openapi3.Schema {
	return openapi3.NewObjectSchema().
		WithProperty("error", openapi3.NewStringSchema()).
		WithProperty("upstreamStatus", openapi3.NewIntegerSchema()).
		WithProperty("upstreamBody", openapi3.NewStringSchema())
}

func tierSchema() *openapi3.Schema {
	return openapi3.NewStringSchema().WithEnum("high", "medium", "low")
}

func schemaFieldSchema() *openapi3.Schema {
	return openapi3.NewObjectSchema().
		WithProperty("id", openapi3.NewStringSchema()).
		WithProperty("name", openapi3.NewStringSchema()).
		WithProperty("type", openapi3.NewStringSchema().WithEnum("date", "number", "string")).
		WithProperty("description", openapi3.NewStringSchema()).
		WithProperty("sampleValue", openapi3.NewStringSchema())
}

func unifiedTableSchema() *openapi3.Schema {
	field := openapi3.NewObjectSchema().
		WithProperty("id", openapi3.NewStringSchema()).
		WithProperty("name", openapi3.NewStringSchema()).
		WithProperty("type", openapi3.NewStringSchema()).
		WithProperty("description", openapi3.NewStringSchema())
	mapping := openapi3.NewObjectSchema().
		WithProperty("id", openapi3.NewStringSchema()).
		WithProperty("bankAColumn", openapi3.NewStringSchema()).
		WithProperty("bankBColumn", openapi3.NewStringSchema()).
		WithProperty("unifiedColumn", openapi3.NewStringSchema()).
		WithProperty("confidence", tierSchema()).
		WithProperty("confidenceRating", openapi3.NewFloat64Schema()).
		WithProperty("status", openapi3.NewStringSchema()).
		WithProperty("approved", openapi3.NewBoolSchema())
	return openapi3.NewObjectSchema().
		WithProperty("tableName", openapi3.NewStringSchema()).
		WithProperty("status", openapi3.NewStringSchema()).
		WithProperty("fields", openapi3.NewArraySchema().WithItems(field)).
		WithProperty("columnMappings", openapi3.NewArraySchema().WithItems(mapping))
}

func mappingSchema() *openapi3.Schema {
	return openapi3.NewObjectSchema().
		WithProperty("id", openapi3.NewStringSchema()).
		WithProperty("table", openapi3.NewStringSchema()).
		WithProperty("sourceField", openapi3.NewStringSchema()).
		WithProperty("targetField", openapi3.NewStringSchema()).
		WithProperty("unifiedField", openapi3.NewStringSchema()).
		WithProperty("confidence", tierSchema()).
		WithProperty("score", openapi3.NewFloat64Schema()).
		WithProperty("approved", openapi3.NewBoolSchema())
}

func workspaceSchema() *openapi3.Schema {
	return openapi3.NewObjectSchema().
		WithProperty("tables", openapi3.NewArraySchema().WithItems(unifiedTableSchema())).
		WithProperty("mappings", openapi3.NewArraySchema().WithItems(mappingSchema())).
		WithProperty("approvals", openapi3.NewObjectSchema().WithAdditionalProperties(
			openapi3.NewStringSchema().WithEnum("none", "approved", "rejected"))).
		WithProperty("completion", openapi3.NewFloat64Schema()).
		WithProperty("summary", openapi3.NewObjectSchema())
}

func manifestFileSchema() *openapi3.Schema {
	return openapi3.NewObjectSchema().
		WithProperty("source", openapi3.NewStringSchema()).
		WithProperty("bank", bankSchema())
}

func ingestedFileSchema() *openapi3.Schema {
	step := func(value *openapi3.Schema) *openapi3.Schema {
		return openapi3.NewObjectSchema().
			WithProperty("value", value).
			WithProperty("failure", openapi3.NewStringSchema().WithEnum("file_read", "archive_read")).
			WithProperty("message", openapi3.NewStringSchema())
	}
	return openapi3.NewObjectSchema().
		WithProperty("path", openapi3.NewStringSchema()).
		WithProperty("displayName", openapi3.NewStringSchema()).
		WithProperty("isFolder", openapi3.NewBoolSchema()).
		WithProperty("zipEntries", step(openapi3.NewArraySchema().WithItems(openapi3.NewStringSchema()))).
		WithProperty("csvPreview", step(openapi3.NewStringSchema()))
}

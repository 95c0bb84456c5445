// Package config handles application configuration and environment loading.
package config

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// SchemaFiles names the four matcher documents inside SchemaDir.
type SchemaFiles struct {
	Bank1Schema   string // default bank1__bank1_schema.json
	Bank2Schema   string // default bank2__bank2_schema.json
	TableMapping  string // default table_name_mapping.json
	ColumnMapping string // default bank_column_mapping.json
}

// DefaultSchemaFiles returns the document names the matcher writes.
func DefaultSchemaFiles() SchemaFiles {
	return SchemaFiles{
		Bank1Schema:   "bank1__bank1_schema.json",
		Bank2Schema:   "bank2__bank2_schema.json",
		TableMapping:  "table_name_mapping.json",
		ColumnMapping: "bank_column_mapping.json",
	}
}

func (f SchemaFiles) withDefaults() SchemaFiles {
	d := DefaultSchemaFiles()
	if f.Bank1Schema == "" {
		f.Bank1Schema = d.Bank1Schema
	}
	if f.Bank2Schema == "" {
		f.Bank2Schema = d.Bank2Schema
	}
	if f.TableMapping == "" {
		f.TableMapping = d.TableMapping
	}
	if f.ColumnMapping == "" {
		f.ColumnMapping = d.ColumnMapping
	}
	return f
}

// Export sink kinds.
const (
	SinkS3    = "s3"
	SinkAzure = "azure"
	SinkGCS   = "gcs"
)

// ExportSinkConfig holds the optional object store that exports can be
// pushed to. All pointer fields are nil when not configured.
type ExportSinkConfig struct {
	Kind     string  // s3 (default), azure or gcs
	KeyID    *string // s3
	Secret   *string // s3
	Endpoint *string // s3 endpoint, or an azure service URL override
	Region   *string // s3
	Bucket   *string // bucket, or the azure container
	Prefix   string  // key prefix (default "exports/")

	AccountName     *string // azure
	AccountKey      *string // azure shared key
	CredentialsFile *string // gcs service account key; default credentials when nil
}

// Configured returns true if every field the sink kind requires is set.
func (e *ExportSinkConfig) Configured() bool {
	switch e.Kind {
	case SinkAzure:
		return e.AccountName != nil && e.AccountKey != nil && e.Bucket != nil
	case SinkGCS:
		return e.Bucket != nil
	default:
		return e.KeyID != nil && e.Secret != nil &&
			e.Endpoint != nil && e.Region != nil && e.Bucket != nil
	}
}

func (e *ExportSinkConfig) incompleteWarning() string {
	if e.Kind == SinkAzure {
		return "EXPORT_AZURE_CONTAINER is set but the export sink is incomplete; set EXPORT_AZURE_ACCOUNT_NAME and EXPORT_AZURE_ACCOUNT_KEY"
	}
	return "EXPORT_S3_BUCKET is set but the export sink is incomplete; set EXPORT_S3_KEY_ID, EXPORT_S3_SECRET, EXPORT_S3_ENDPOINT and EXPORT_S3_REGION"
}

// loadExportSink reads the sink fields of the selected kind.
func loadExportSink() (ExportSinkConfig, error) {
	sink := ExportSinkConfig{
		Kind:   strings.ToLower(strings.TrimSpace(os.Getenv("EXPORT_SINK_KIND"))),
		Prefix: os.Getenv("EXPORT_SINK_PREFIX"),
	}
	if sink.Prefix == "" {
		sink.Prefix = os.Getenv("EXPORT_S3_PREFIX")
	}

	switch sink.Kind {
	case "", SinkS3:
		sink.Kind = SinkS3
		sink.KeyID = optionalEnv("EXPORT_S3_KEY_ID")
		sink.Secret = optionalEnv("EXPORT_S3_SECRET")
		sink.Endpoint = optionalEnv("EXPORT_S3_ENDPOINT")
		sink.Region = optionalEnv("EXPORT_S3_REGION")
		sink.Bucket = optionalEnv("EXPORT_S3_BUCKET")
	case SinkAzure:
		sink.AccountName = optionalEnv("EXPORT_AZURE_ACCOUNT_NAME")
		sink.AccountKey = optionalEnv("EXPORT_AZURE_ACCOUNT_KEY")
		sink.Endpoint = optionalEnv("EXPORT_AZURE_ENDPOINT")
		sink.Bucket = optionalEnv("EXPORT_AZURE_CONTAINER")
	case SinkGCS:
		sink.CredentialsFile = optionalEnv("EXPORT_GCS_CREDENTIALS_FILE")
		sink.Bucket = optionalEnv("EXPORT_GCS_BUCKET")
	default:
		return sink, fmt.Errorf("EXPORT_SINK_KIND must be s3, azure or gcs, got %q", sink.Kind)
	}
	return sink, nil
}

// optionalEnv returns nil for unset or empty variables.
func optionalEnv(key string) *string {
	if v := os.Getenv(key); v != "" {
		return &v
	}
	return nil
}

// Config holds the configuration for the HTTP API.
type Config struct {
	ListenAddr string // HTTP listen address (default ":8080")
	LogLevel   string // log level: debug, info, warn, error (default "info")
	Env        string // environment: "development" (default) or "production"

	// Matcher documents
	SchemaDir   string // directory holding the four JSON documents (default "schemas")
	SchemaFiles SchemaFiles

	// Upstream parse backend
	BackendURL      string        // default http://localhost:8000
	BackendTimeout  time.Duration // default 60s
	PipelineLogPath string        // websocket path on the backend (default /ws/pipeline-logs)

	// Ingestion history
	HistoryDBPath        string        // SQLite file (default ingestion_history.sqlite)
	HistoryRetention     time.Duration // rows older than this are pruned (default 720h)
	HistoryPruneSchedule string        // cron schedule (default @daily)

	MaxUploadBytes int64 // multipart body limit (default 32 MiB)

	// Rate limiting
	RateLimitRPS   float64 // sustained requests per second (default 100)
	RateLimitBurst int     // burst capacity (default 200)

	// CORS
	CORSAllowedOrigins []string // allowed origins for CORS (default: ["http://localhost:3000"])

	ExportSink ExportSinkConfig

	// Warnings collects non-fatal warnings generated during config loading.
	// These are logged by the caller after the logger is initialised.
	Warnings []string
}

// SlogLevel maps the LogLevel string to an slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// IsProduction returns true when the server is running in production mode.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// SchemaPath joins a document file name onto SchemaDir.
func (c *Config) SchemaPath(name string) string {
	return filepath.Join(c.SchemaDir, name)
}

// PipelineLogURL derives the websocket URL of the backend log stream.
func (c *Config) PipelineLogURL() string {
	base := strings.TrimRight(c.BackendURL, "/")
	switch {
	case strings.HasPrefix(base, "https://"):
		base = "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		base = "ws://" + strings.TrimPrefix(base, "http://")
	}
	return base + c.PipelineLogPath
}

// LoadFromEnv loads configuration from environment variables.
// The export sink is optional; the app can start without it.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		ListenAddr:           os.Getenv("LISTEN_ADDR"),
		LogLevel:             os.Getenv("LOG_LEVEL"),
		Env:                  os.Getenv("ENV"),
		SchemaDir:            os.Getenv("SCHEMA_DIR"),
		BackendURL:           os.Getenv("BACKEND_URL"),
		PipelineLogPath:      os.Getenv("PIPELINE_LOG_PATH"),
		HistoryDBPath:        os.Getenv("HISTORY_DB_PATH"),
		HistoryPruneSchedule: os.Getenv("HISTORY_PRUNE_SCHEDULE"),
		SchemaFiles: SchemaFiles{
			Bank1Schema:   os.Getenv("BANK1_SCHEMA_FILE"),
			Bank2Schema:   os.Getenv("BANK2_SCHEMA_FILE"),
			TableMapping:  os.Getenv("TABLE_MAPPING_FILE"),
			ColumnMapping: os.Getenv("COLUMN_MAPPING_FILE"),
		},
	}

	var err error
	if cfg.ExportSink, err = loadExportSink(); err != nil {
		return nil, err
	}
	if cfg.BackendTimeout, err = parseDurationEnv("BACKEND_TIMEOUT"); err != nil {
		return nil, err
	}
	if cfg.HistoryRetention, err = parseDurationEnv("HISTORY_RETENTION"); err != nil {
		return nil, err
	}
	if v := os.Getenv("MAX_UPLOAD_BYTES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("MAX_UPLOAD_BYTES must be a positive integer, got %q", v)
		}
		cfg.MaxUploadBytes = n
	}

	// Rate limiting
	if v := os.Getenv("RATE_LIMIT_RPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.RateLimitRPS = f
		}
	}
	if v := os.Getenv("RATE_LIMIT_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.RateLimitBurst = n
		}
	}

	// CORS
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		origins := strings.Split(v, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
		cfg.CORSAllowedOrigins = compactNonEmpty(origins)
	}

	// Defaults
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.SchemaDir == "" {
		cfg.SchemaDir = "schemas"
	}
	cfg.SchemaFiles = cfg.SchemaFiles.withDefaults()
	if cfg.BackendURL == "" {
		cfg.BackendURL = "http://localhost:8000"
	}
	if cfg.BackendTimeout == 0 {
		cfg.BackendTimeout = 60 * time.Second
	}
	if cfg.PipelineLogPath == "" {
		cfg.PipelineLogPath = "/ws/pipeline-logs"
	}
	if cfg.HistoryDBPath == "" {
		cfg.HistoryDBPath = "ingestion_history.sqlite"
	}
	if cfg.HistoryRetention == 0 {
		cfg.HistoryRetention = 30 * 24 * time.Hour
	}
	if cfg.HistoryPruneSchedule == "" {
		cfg.HistoryPruneSchedule = "@daily"
	}
	if cfg.MaxUploadBytes == 0 {
		cfg.MaxUploadBytes = 32 << 20
	}
	if cfg.RateLimitRPS == 0 {
		cfg.RateLimitRPS = 100
	}
	if cfg.RateLimitBurst == 0 {
		cfg.RateLimitBurst = 200
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		cfg.CORSAllowedOrigins = []string{"http://localhost:3000"}
	}
	if cfg.ExportSink.Prefix == "" {
		cfg.ExportSink.Prefix = "exports/"
	}
	if !cfg.ExportSink.Configured() && cfg.ExportSink.Bucket != nil {
		cfg.Warnings = append(cfg.Warnings, cfg.ExportSink.incompleteWarning())
	}
	if strings.HasPrefix(cfg.BackendURL, "http://") && !isLocalURL(cfg.BackendURL) {
		cfg.Warnings = append(cfg.Warnings, "BACKEND_URL uses plain HTTP to a non-local host")
	}

	// Production mode: insecure defaults are fatal errors.
	if cfg.IsProduction() {
		for _, o := range cfg.CORSAllowedOrigins {
			if o == "*" {
				return nil, fmt.Errorf("CORS wildcard (*) is not allowed in production (ENV=production)")
			}
		}
	}

	return cfg, nil
}

func parseDurationEnv(key string) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s must not be negative", key)
	}
	return d, nil
}

func isLocalURL(u string) bool {
	rest := strings.TrimPrefix(u, "http://")
	return strings.HasPrefix(rest, "localhost") || strings.HasPrefix(rest, "127.0.0.1")
}

func compactNonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

// LoadDotEnv reads a .env file and sets any variables not already in the environment.
// Lines must be in KEY=VALUE format. Comments (#) and blank lines are skipped.
func LoadDotEnv(path string) error {
	f, err := os.Open(path) //nolint:gosec // path is caller-controlled
	if err != nil {
		if os.IsNotExist(err) {
			return nil // .env not found is not an error
		}
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(strings.TrimPrefix(key, "export "))
		value = stripQuotes(strings.TrimSpace(value))
		// Env vars take precedence over the file.
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("setenv %s: %w", key, err)
			}
		}
	}
	return scanner.Err()
}

// stripQuotes removes surrounding double or single quotes from a value.
// Only strips if both the first and last characters are matching quotes.
func stripQuotes(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}

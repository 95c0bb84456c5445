package export

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/selvxhini-10/EY-Schema-Merger/internal/config"
)

// GCSSink stores export artifacts in a Google Cloud Storage bucket. Signing
// needs a service account key file; without one, Put still works through
// application default credentials and PresignGet fails.
type GCSSink struct {
	client *storage.Client
	bucket string

	accessID   string
	privateKey []byte
}

// NewGCSSink creates a sink for cfg.Bucket. The client honours
// STORAGE_EMULATOR_HOST.
func NewGCSSink(ctx context.Context, cfg config.ExportSinkConfig) (*GCSSink, error) {
	if cfg.Kind != config.SinkGCS || !cfg.Configured() {
		return nil, fmt.Errorf("gcs export sink config is incomplete")
	}

	s := &GCSSink{bucket: *cfg.Bucket}
	var opts []option.ClientOption
	if cfg.CredentialsFile != nil {
		if err := s.loadSigningKey(*cfg.CredentialsFile); err != nil {
			return nil, err
		}
		opts = append(opts, option.WithAuthCredentialsFile(option.ServiceAccount, *cfg.CredentialsFile))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create GCS client: %w", err)
	}
	s.client = client
	return s, nil
}

func (s *GCSSink) loadSigningKey(path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from configuration
	if err != nil {
		return fmt.Errorf("read gcs credentials: %w", err)
	}
	var key struct {
		ClientEmail string `json:"client_email"`
		PrivateKey  string `json:"private_key"`
	}
	if err := json.Unmarshal(data, &key); err != nil {
		return fmt.Errorf("parse gcs credentials: %w", err)
	}
	s.accessID, s.privateKey = key.ClientEmail, []byte(key.PrivateKey)
	return nil
}

// Put uploads one object.
func (s *GCSSink) Put(ctx context.Context, key, contentType string, body []byte) error {
	w := s.client.Bucket(s.bucket).Object(key).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := io.Copy(w, bytes.NewReader(body)); err != nil {
		_ = w.Close()
		return fmt.Errorf("put object %q: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("put object %q: %w", key, err)
	}
	return nil
}

// PresignGet returns a V4 signed GET URL for a stored object.
func (s *GCSSink) PresignGet(_ context.Context, key string, expiry time.Duration) (string, error) {
	if s.accessID == "" || len(s.privateKey) == 0 {
		return "", fmt.Errorf("sign %q: no service account key configured", key)
	}
	u, err := storage.SignedURL(s.bucket, key, &storage.SignedURLOptions{
		GoogleAccessID: s.accessID,
		PrivateKey:     s.privateKey,
		Method:         http.MethodGet,
		Expires:        time.Now().Add(expiry),
		Scheme:         storage.SigningSchemeV4,
	})
	if err != nil {
		return "", fmt.Errorf("sign GetObject for %q: %w", key, err)
	}
	return u, nil
}

// Bucket returns the configured bucket name.
func (s *GCSSink) Bucket() string { return s.bucket }

package export

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/selvxhini-10/EY-Schema-Merger/internal/config"
	"github.com/selvxhini-10/EY-Schema-Merger/internal/domain"
)

// Sink is an object store that also signs download URLs.
type Sink interface {
	domain.ObjectStore
	PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error)
	Bucket() string
}

var (
	_ Sink = (*S3Sink)(nil)
	_ Sink = (*AzureSink)(nil)
	_ Sink = (*GCSSink)(nil)
)

// NewSink creates the sink selected by cfg.Kind.
func NewSink(ctx context.Context, cfg config.ExportSinkConfig) (Sink, error) {
	switch cfg.Kind {
	case "", config.SinkS3:
		return NewS3Sink(cfg)
	case config.SinkAzure:
		return NewAzureSink(cfg)
	case config.SinkGCS:
		return NewGCSSink(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown export sink kind %q", cfg.Kind)
	}
}

// S3Sink stores export artifacts in an S3-compatible bucket.
type S3Sink struct {
	client  *s3.Client
	presign *s3.PresignClient
	bucket  string
}

// NewS3Sink creates a sink with path-style addressing, which most
// S3-compatible stores require.
func NewS3Sink(cfg config.ExportSinkConfig) (*S3Sink, error) {
	if !cfg.Configured() {
		return nil, fmt.Errorf("export sink config is incomplete")
	}

	endpoint := *cfg.Endpoint
	if !strings.Contains(endpoint, "://") {
		endpoint = "https://" + endpoint
	}

	client := s3.New(s3.Options{
		Region: *cfg.Region,
		Credentials: credentials.NewStaticCredentialsProvider(
			*cfg.KeyID, *cfg.Secret, "",
		),
		BaseEndpoint: aws.String(endpoint),
		UsePathStyle: true,
	})

	return &S3Sink{
		client:  client,
		presign: s3.NewPresignClient(client),
		bucket:  *cfg.Bucket,
	}, nil
}

// Put uploads one object.
func (s *S3Sink) Put(ctx context.Context, key, contentType string, body []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(body))),
		Body:          bytes.NewReader(body),
	})
	if err != nil {
		return fmt.Errorf("put object %q: %w", key, err)
	}
	return nil
}

// PresignGet returns a time-limited download URL for a stored object.
func (s *S3Sink) PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error) {
	res, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(expiry))
	if err != nil {
		return "", fmt.Errorf("presign GetObject for %q: %w", key, err)
	}
	return res.URL, nil
}

// Bucket returns the configured bucket name.
func (s *S3Sink) Bucket() string { return s.bucket }

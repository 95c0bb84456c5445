package export

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/streaming"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blockblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/container"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/sas"

	"github.com/selvxhini-10/EY-Schema-Merger/internal/config"
)

// AzureSink stores export artifacts in an Azure Blob Storage container and
// signs downloads with SAS tokens. Only shared-key auth can sign.
type AzureSink struct {
	container *container.Client
	name      string
}

// NewAzureSink creates a sink for cfg.Bucket in the account's blob service.
// cfg.Endpoint overrides the service URL, e.g. for Azurite.
func NewAzureSink(cfg config.ExportSinkConfig) (*AzureSink, error) {
	if cfg.Kind != config.SinkAzure || !cfg.Configured() {
		return nil, fmt.Errorf("azure export sink config is incomplete")
	}

	cred, err := azblob.NewSharedKeyCredential(*cfg.AccountName, *cfg.AccountKey)
	if err != nil {
		return nil, fmt.Errorf("create shared key credential: %w", err)
	}
	serviceURL := fmt.Sprintf("https://%s.blob.core.windows.net/", *cfg.AccountName)
	if cfg.Endpoint != nil {
		serviceURL = *cfg.Endpoint
	}
	client, err := azblob.NewClientWithSharedKeyCredential(serviceURL, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("create Azure blob client: %w", err)
	}

	return &AzureSink{
		container: client.ServiceClient().NewContainerClient(*cfg.Bucket),
		name:      *cfg.Bucket,
	}, nil
}

// Put uploads one block blob in a single request.
func (s *AzureSink) Put(ctx context.Context, key, contentType string, body []byte) error {
	_, err := s.container.NewBlockBlobClient(key).Upload(ctx,
		streaming.NopCloser(bytes.NewReader(body)),
		&blockblob.UploadOptions{HTTPHeaders: &blob.HTTPHeaders{BlobContentType: &contentType}})
	if err != nil {
		return fmt.Errorf("put blob %q: %w", key, err)
	}
	return nil
}

// PresignGet returns a read-only SAS URL for a stored blob.
func (s *AzureSink) PresignGet(_ context.Context, key string, expiry time.Duration) (string, error) {
	u, err := s.container.NewBlobClient(key).GetSASURL(sas.BlobPermissions{Read: true}, time.Now().Add(expiry), nil)
	if err != nil {
		return "", fmt.Errorf("generate SAS URL for %q: %w", key, err)
	}
	return u, nil
}

// Bucket returns the container name.
func (s *AzureSink) Bucket() string { return s.name }

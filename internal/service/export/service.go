package export

import (
	"context"
	"log/slog"
	"path"
	"time"

	"github.com/selvxhini-10/EY-Schema-Merger/internal/domain"
)

const downloadURLExpiry = 15 * time.Minute

type urlSigner interface {
	PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error)
}

// Service renders exports and reports, and publishes exports to the
// configured object store.
type Service struct {
	sink   domain.ObjectStore
	prefix string
	logger *slog.Logger
	now    func() time.Time
}

// NewService creates an export Service. sink may be nil when no object store
// is configured.
func NewService(sink domain.ObjectStore, prefix string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{sink: sink, prefix: prefix, logger: logger, now: time.Now}
}

// Export renders the snapshot as a downloadable artifact.
func (s *Service) Export(snap domain.WorkspaceSnapshot, format Format) (*Artifact, error) {
	body, err := Render(snap, format)
	if err != nil {
		return nil, err
	}
	return &Artifact{
		Name:        "unified_schema_" + s.now().UTC().Format("20060102T150405Z") + "." + string(format),
		ContentType: format.ContentType(),
		Body:        body,
	}, nil
}

// Published describes an artifact stored in the object store.
type Published struct {
	Key string `json:"key"`
	URL string `json:"url,omitempty"`
}

// Publish renders the snapshot and uploads it to the object store.
func (s *Service) Publish(ctx context.Context, snap domain.WorkspaceSnapshot, format Format) (*Published, error) {
	if s.sink == nil {
		return nil, domain.ErrValidation("no export sink is configured")
	}
	art, err := s.Export(snap, format)
	if err != nil {
		return nil, err
	}

	key := path.Join(s.prefix, art.Name)
	if err := s.sink.Put(ctx, key, art.ContentType, art.Body); err != nil {
		return nil, err
	}
	s.logger.Info("export published", "key", key, "format", format, "bytes", len(art.Body))

	out := &Published{Key: key}
	if signer, ok := s.sink.(urlSigner); ok {
		url, err := signer.PresignGet(ctx, key, downloadURLExpiry)
		if err != nil {
			s.logger.Warn("presign export download", "key", key, "error", err)
		} else {
			out.URL = url
		}
	}
	return out, nil
}

// Report renders the Markdown documentation report.
func (s *Service) Report(snap domain.WorkspaceSnapshot) string {
	return Report(snap, s.now())
}

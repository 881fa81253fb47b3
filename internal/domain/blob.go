package domain

import (
	"context"
	"io"
	"time"
)

// BlobInfo describes a stored object.
type BlobInfo struct {
	Path         string
	Size         int64
	ContentType  string
	LastModified time.Time
}

// BlobWriter uploads data to object storage.
type BlobWriter interface {
	Put(ctx context.Context, path string, data io.Reader, contentType string) error
	PutMultipart(ctx context.Context, path string, data io.Reader, partSize int64) error
}

// BlobReader retrieves data from object storage.
type BlobReader interface {
	Get(ctx context.Context, path string) (io.ReadCloser, error)
	List(ctx context.Context, prefix string) ([]BlobInfo, error)
	Exists(ctx context.Context, path string) (bool, error)
}

// Exporter copies draw history and analysis reports to cold storage.
type Exporter interface {
	// ExportDraws writes every draw up to asOf and returns how many the
	// export holds. An export that already exists is not rewritten.
	ExportDraws(ctx context.Context, variant string, asOf time.Time) (int64, error)
	ExportImpact(ctx context.Context, variant string, kind ImpactKind, asOf time.Time, impacts []Impact) (string, error)
	ExportPick(ctx context.Context, variant string, candidates []int, result PickResult) (string, error)
	// ListExports lists the stored exports of a variant.
	ListExports(ctx context.Context, variant string) ([]BlobInfo, error)
}

package diagnostics

import (
	"context"

	"github.com/medassist/gateway/internal/platform/objectstore"
)

type LabReportRepository interface {
	Create(ctx context.Context, r *LabReport) error
}

// Uploader stores a data URL and returns the stored object.
type Uploader interface {
	Upload(ctx context.Context, bucket, fileName, dataURL string) (*objectstore.Object, error)
}

package medication

import (
	"context"
	"errors"
	"time"

	"github.com/medassist/gateway/internal/platform/objectstore"
)

var (
	ErrPrescriptionNotFound = errors.New("prescription not found")
	// ErrVersionConflict is returned when a check-and-set update matched no
	// row because the prescription changed since it was read.
	ErrVersionConflict = errors.New("prescription version conflict")
)

type PrescriptionRepository interface {
	Create(ctx context.Context, p *Prescription) error
	GetByID(ctx context.Context, id string) (*Prescription, error)
	// MarkDispensed moves an active prescription at version to dispensed.
	MarkDispensed(ctx context.Context, id string, version int, pharmacistID string, at time.Time) (*Prescription, error)
}

// Uploader stores a data URL and returns the stored object.
type Uploader interface {
	Upload(ctx context.Context, bucket, fileName, dataURL string) (*objectstore.Object, error)
}

package diagnostics

import (
	"context"
	"fmt"

	"github.com/medassist/gateway/internal/platform/rowstore"
)

type labReportRepoStore struct {
	store rowstore.Store
}

func NewLabReportRepoStore(store rowstore.Store) LabReportRepository {
	return &labReportRepoStore{store: store}
}

// Create inserts r and replaces it with the stored row.
func (s *labReportRepoStore) Create(ctx context.Context, r *LabReport) error {
	if err := s.store.Insert(ctx, LabReportTable, r, r); err != nil {
		return fmt.Errorf("insert lab report: %w", err)
	}
	return nil
}

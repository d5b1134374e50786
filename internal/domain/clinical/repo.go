package clinical

import (
	"context"
	"fmt"

	"github.com/medassist/gateway/internal/platform/rowstore"
)

type MedicalRecordRepository interface {
	Create(ctx context.Context, r *MedicalRecord) error
}

type medicalRecordRepoStore struct {
	store rowstore.Store
}

func NewMedicalRecordRepoStore(store rowstore.Store) MedicalRecordRepository {
	return &medicalRecordRepoStore{store: store}
}

func (s *medicalRecordRepoStore) Create(ctx context.Context, r *MedicalRecord) error {
	if err := s.store.Insert(ctx, MedicalRecordTable, r, r); err != nil {
		return fmt.Errorf("insert medical record: %w", err)
	}
	return nil
}

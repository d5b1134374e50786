package medication

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/medassist/gateway/internal/platform/rowstore"
)

type prescriptionRepoStore struct {
	store rowstore.Store
}

func NewPrescriptionRepoStore(store rowstore.Store) PrescriptionRepository {
	return &prescriptionRepoStore{store: store}
}

func (r *prescriptionRepoStore) Create(ctx context.Context, p *Prescription) error {
	if p.Version == 0 {
		p.Version = 1
	}
	if err := r.store.Insert(ctx, PrescriptionTable, p, p); err != nil {
		return fmt.Errorf("insert prescription: %w", err)
	}
	return nil
}

func (r *prescriptionRepoStore) GetByID(ctx context.Context, id string) (*Prescription, error) {
	var p Prescription
	err := rowstore.SelectOne(ctx, r.store, PrescriptionTable, rowstore.Query{
		Filters: []rowstore.Filter{rowstore.Eq("id", id)},
	}, &p)
	if errors.Is(err, rowstore.ErrNoRows) {
		return nil, ErrPrescriptionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get prescription: %w", err)
	}
	return &p, nil
}

func (r *prescriptionRepoStore) MarkDispensed(ctx context.Context, id string, version int, pharmacistID string, at time.Time) (*Prescription, error) {
	patch := map[string]any{
		"status":                StatusDispensed,
		"pharmacy_dispensed_id": pharmacistID,
		"dispensed_at":          at,
		"updated_at":            at,
		"version":               version + 1,
	}
	var updated []Prescription
	n, err := r.store.Update(ctx, PrescriptionTable, []rowstore.Filter{
		rowstore.Eq("id", id),
		rowstore.Eq("status", StatusActive),
		rowstore.Eq("version", version),
	}, patch, &updated)
	if err != nil {
		return nil, fmt.Errorf("dispense prescription: %w", err)
	}
	if n == 0 || len(updated) == 0 {
		return nil, ErrVersionConflict
	}
	return &updated[0], nil
}

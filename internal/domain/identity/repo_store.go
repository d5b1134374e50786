package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/medassist/gateway/internal/platform/rowstore"
)

type patientRepoStore struct {
	store rowstore.Store
}

func NewPatientRepoStore(store rowstore.Store) PatientRepository {
	return &patientRepoStore{store: store}
}

func (r *patientRepoStore) GetByUserID(ctx context.Context, userID string) (*Patient, error) {
	var p Patient
	err := rowstore.SelectOne(ctx, r.store, PatientTable, rowstore.Query{
		Filters: []rowstore.Filter{rowstore.Eq("user_id", userID)},
	}, &p)
	if errors.Is(err, rowstore.ErrNoRows) {
		return nil, ErrPatientNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get patient for user: %w", err)
	}
	return &p, nil
}

func (r *patientRepoStore) UpdateProfile(ctx context.Context, id string, version int, patch map[string]any, at time.Time) (*Patient, error) {
	row := make(map[string]any, len(patch)+2)
	for k, v := range patch {
		row[k] = v
	}
	row["version"] = version + 1
	row["updated_at"] = at

	var updated []Patient
	n, err := r.store.Update(ctx, PatientTable, []rowstore.Filter{
		rowstore.Eq("id", id),
		rowstore.Eq("version", version),
	}, row, &updated)
	if err != nil {
		return nil, fmt.Errorf("update patient profile: %w", err)
	}
	if n == 0 || len(updated) == 0 {
		return nil, ErrVersionConflict
	}
	return &updated[0], nil
}

package emergency

import (
	"context"
	"errors"
	"fmt"

	"github.com/medassist/gateway/internal/platform/rowstore"
)

var criticalColumns = []string{
	"id", "health_id", "full_name", "blood_type", "allergies", "chronic_conditions",
	"emergency_contact_name", "emergency_contact_number",
}

type patientRepoStore struct {
	store rowstore.Store
}

func NewPatientRepoStore(store rowstore.Store) PatientRepository {
	return &patientRepoStore{store: store}
}

func (r *patientRepoStore) GetByHealthID(ctx context.Context, healthID string) (*Patient, error) {
	var p Patient
	err := rowstore.SelectOne(ctx, r.store, PatientTable, rowstore.Query{
		Columns: criticalColumns,
		Filters: []rowstore.Filter{rowstore.Eq("health_id", healthID)},
	}, &p)
	if errors.Is(err, rowstore.ErrNoRows) {
		return nil, ErrPatientNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get patient by health id: %w", err)
	}
	return &p, nil
}

type accessLogRepoStore struct {
	store rowstore.Store
}

func NewAccessLogRepoStore(store rowstore.Store) AccessLogRepository {
	return &accessLogRepoStore{store: store}
}

func (r *accessLogRepoStore) Create(ctx context.Context, l *AccessLog) error {
	var stored AccessLog
	if err := r.store.Insert(ctx, AccessTable, l, &stored); err != nil {
		return fmt.Errorf("insert emergency access: %w", err)
	}
	l.ID = stored.ID
	return nil
}

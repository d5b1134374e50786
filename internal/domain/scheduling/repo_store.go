package scheduling

import (
	"context"
	"errors"
	"fmt"

	"github.com/medassist/gateway/internal/platform/auth"
	"github.com/medassist/gateway/internal/platform/gated"
	"github.com/medassist/gateway/internal/platform/rowstore"
)

type patientRepoStore struct {
	store rowstore.Store
}

func NewPatientRepoStore(store rowstore.Store) PatientRepository {
	return &patientRepoStore{store: store}
}

func (r *patientRepoStore) IDForUser(ctx context.Context, userID string) (string, error) {
	var row struct {
		ID string `json:"id"`
	}
	err := rowstore.SelectOne(ctx, r.store, PatientTable, rowstore.Query{
		Columns: []string{"id"},
		Filters: []rowstore.Filter{rowstore.Eq("user_id", userID)},
	}, &row)
	if errors.Is(err, rowstore.ErrNoRows) {
		return "", ErrPatientNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get patient for user: %w", err)
	}
	return row.ID, nil
}

type doctorRepoStore struct {
	store rowstore.Store
}

func NewDoctorRepoStore(store rowstore.Store) DoctorRepository {
	return &doctorRepoStore{store: store}
}

func (r *doctorRepoStore) Check(ctx context.Context, doctorID, hospitalID string) error {
	var row struct {
		UserID string `json:"user_id"`
	}
	err := rowstore.SelectOne(ctx, r.store, gated.ProfileTable, rowstore.Query{
		Columns: []string{"user_id"},
		Filters: []rowstore.Filter{
			rowstore.Eq("user_id", doctorID),
			rowstore.Eq("role", string(auth.RoleDoctor)),
			rowstore.Eq("hospital_id", hospitalID),
		},
	}, &row)
	if errors.Is(err, rowstore.ErrNoRows) {
		return ErrDoctorNotFound
	}
	if err != nil {
		return fmt.Errorf("check doctor: %w", err)
	}
	return nil
}

type appointmentRepoStore struct {
	store rowstore.Store
}

func NewAppointmentRepoStore(store rowstore.Store) AppointmentRepository {
	return &appointmentRepoStore{store: store}
}

func (r *appointmentRepoStore) Create(ctx context.Context, a *Appointment) error {
	if err := r.store.Insert(ctx, AppointmentTable, a, a); err != nil {
		return fmt.Errorf("insert appointment: %w", err)
	}
	return nil
}

func (r *appointmentRepoStore) SlotTaken(ctx context.Context, doctorID, datetime string) (bool, error) {
	var rows []struct {
		Status string `json:"status"`
	}
	_, err := r.store.Select(ctx, AppointmentTable, rowstore.Query{
		Columns: []string{"status"},
		Filters: []rowstore.Filter{
			rowstore.Eq("doctor_id", doctorID),
			rowstore.Eq("appointment_datetime", datetime),
		},
	}, &rows)
	if err != nil {
		return false, fmt.Errorf("check appointment slot: %w", err)
	}
	for _, a := range rows {
		if a.Status == StatusScheduled || a.Status == StatusConfirmed {
			return true, nil
		}
	}
	return false, nil
}

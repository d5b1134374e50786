package admin

import (
	"context"
	"errors"
	"fmt"

	"github.com/medassist/gateway/internal/platform/gated"
	"github.com/medassist/gateway/internal/platform/rowstore"
	"github.com/medassist/gateway/pkg/pagination"
)

type staffRepoStore struct {
	store rowstore.Store
}

func NewStaffRepoStore(store rowstore.Store) StaffRepository {
	return &staffRepoStore{store: store}
}

var staffColumns = []string{
	"id", "user_id", "full_name", "email", "role", "contact_number", "license_number", "verified",
}

func (r *staffRepoStore) ListByHospital(ctx context.Context, hospitalID string) ([]StaffMember, error) {
	staff := []StaffMember{}
	_, err := r.store.Select(ctx, gated.ProfileTable, rowstore.Query{
		Columns: staffColumns,
		Filters: []rowstore.Filter{rowstore.Eq("hospital_id", hospitalID)},
		Order:   []rowstore.Order{{Column: "full_name"}},
	}, &staff)
	if err != nil {
		return nil, fmt.Errorf("list staff: %w", err)
	}
	return staff, nil
}

func (r *staffRepoStore) HospitalOf(ctx context.Context, userID string) (*string, error) {
	var row struct {
		HospitalID *string `json:"hospital_id"`
	}
	err := rowstore.SelectOne(ctx, r.store, gated.ProfileTable, rowstore.Query{
		Columns: []string{"hospital_id"},
		Filters: []rowstore.Filter{rowstore.Eq("user_id", userID)},
	}, &row)
	if errors.Is(err, rowstore.ErrNoRows) {
		return nil, ErrStaffNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get staff hospital: %w", err)
	}
	return row.HospitalID, nil
}

type appointmentRepoStore struct {
	store rowstore.Store
}

func NewAppointmentRepoStore(store rowstore.Store) AppointmentRepository {
	return &appointmentRepoStore{store: store}
}

func (r *appointmentRepoStore) ListByHospital(ctx context.Context, hospitalID string, p pagination.Params) ([]Appointment, int, error) {
	appts := []Appointment{}
	total, err := r.store.Select(ctx, AppointmentTable, rowstore.Query{
		Filters: []rowstore.Filter{rowstore.Eq("hospital_id", hospitalID)},
		Order:   []rowstore.Order{{Column: "appointment_datetime", Desc: true}},
		Limit:   p.Limit,
		Offset:  p.Offset,
		Count:   true,
	}, &appts)
	if err != nil {
		return nil, 0, fmt.Errorf("list appointments: %w", err)
	}
	return appts, total, nil
}

package analytics

import (
	"context"
	"fmt"

	"github.com/medassist/gateway/internal/platform/rowstore"
)

type repoStore struct {
	store rowstore.Store
}

func NewRepoStore(store rowstore.Store) Repository {
	return &repoStore{store: store}
}

func (r *repoStore) Patients(ctx context.Context, f Filter) ([]PatientRow, error) {
	var rows []PatientRow
	err := r.selectAll(ctx, "patients", rowstore.Query{
		Columns: []string{"gender", "blood_type", "city", "state"},
		Filters: append(dateFilters("created_at", f), regionFilters(f)...),
	}, &rows)
	return rows, err
}

func (r *repoStore) Appointments(ctx context.Context, f Filter) ([]AppointmentRow, error) {
	var rows []AppointmentRow
	err := r.selectAll(ctx, "appointments", rowstore.Query{
		Columns: []string{"status", "appointment_type", "appointment_date"},
		Filters: dateFilters("appointment_date", f),
	}, &rows)
	return rows, err
}

func (r *repoStore) Prescriptions(ctx context.Context, f Filter) ([]PrescriptionRow, error) {
	var rows []PrescriptionRow
	err := r.selectAll(ctx, "prescriptions", rowstore.Query{
		Columns: []string{"status", "date_issued"},
		Filters: dateFilters("date_issued", f),
	}, &rows)
	return rows, err
}

func (r *repoStore) Hospitals(ctx context.Context, f Filter) ([]HospitalRow, error) {
	var rows []HospitalRow
	err := r.selectAll(ctx, "hospitals", rowstore.Query{
		Columns: []string{"name", "city", "state", "total_beds", "available_beds", "emergency_services"},
		Filters: regionFilters(f),
	}, &rows)
	return rows, err
}

func (r *repoStore) selectAll(ctx context.Context, table string, q rowstore.Query, dest any) error {
	if _, err := r.store.Select(ctx, table, q, dest); err != nil {
		return fmt.Errorf("read %s for analytics: %w", table, err)
	}
	return nil
}

// dateFilters bounds column to [Start, End+1d) so an end date includes the
// whole day whether column holds a date or a timestamp.
func dateFilters(column string, f Filter) []rowstore.Filter {
	var out []rowstore.Filter
	if f.Start != nil {
		out = append(out, rowstore.Gte(column, f.Start.Format(dateLayout)))
	}
	if f.End != nil {
		out = append(out, rowstore.Lt(column, f.End.AddDate(0, 0, 1).Format(dateLayout)))
	}
	return out
}

func regionFilters(f Filter) []rowstore.Filter {
	if f.Region == "" {
		return nil
	}
	return []rowstore.Filter{rowstore.Eq("state", f.Region)}
}

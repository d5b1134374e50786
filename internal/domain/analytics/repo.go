package analytics

import "context"

// Repository reads the anonymized columns each report aggregates.
type Repository interface {
	Patients(ctx context.Context, f Filter) ([]PatientRow, error)
	Appointments(ctx context.Context, f Filter) ([]AppointmentRow, error)
	Prescriptions(ctx context.Context, f Filter) ([]PrescriptionRow, error)
	Hospitals(ctx context.Context, f Filter) ([]HospitalRow, error)
}

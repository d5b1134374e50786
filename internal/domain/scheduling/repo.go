package scheduling

import (
	"context"
	"errors"
)

var (
	ErrPatientNotFound = errors.New("no patient record for caller")
	ErrDoctorNotFound  = errors.New("doctor not found at hospital")
)

type PatientRepository interface {
	// IDForUser returns the patients.id owned by userID.
	IDForUser(ctx context.Context, userID string) (string, error)
}

type DoctorRepository interface {
	// Check returns ErrDoctorNotFound unless doctorID is a doctor at
	// hospitalID.
	Check(ctx context.Context, doctorID, hospitalID string) error
}

type AppointmentRepository interface {
	Create(ctx context.Context, a *Appointment) error
	// SlotTaken reports whether the doctor already has an open appointment
	// at datetime.
	SlotTaken(ctx context.Context, doctorID, datetime string) (bool, error)
}

package identity

import (
	"context"
	"errors"
	"time"
)

var (
	ErrPatientNotFound = errors.New("no patient record for caller")
	ErrVersionConflict = errors.New("patient version conflict")
)

type PatientRepository interface {
	GetByUserID(ctx context.Context, userID string) (*Patient, error)
	// UpdateProfile applies patch to the row only if it is still at
	// version, and bumps the version.
	UpdateProfile(ctx context.Context, id string, version int, patch map[string]any, at time.Time) (*Patient, error)
}

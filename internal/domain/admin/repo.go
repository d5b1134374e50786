package admin

import (
	"context"
	"errors"

	"github.com/medassist/gateway/internal/platform/hipaa"
	"github.com/medassist/gateway/pkg/pagination"
)

var ErrStaffNotFound = errors.New("staff member not found")

type StaffRepository interface {
	ListByHospital(ctx context.Context, hospitalID string) ([]StaffMember, error)
	// HospitalOf returns the hospital a user's profile is assigned to, or
	// nil when it has none.
	HospitalOf(ctx context.Context, userID string) (*string, error)
}

type AppointmentRepository interface {
	ListByHospital(ctx context.Context, hospitalID string, p pagination.Params) ([]Appointment, int, error)
}

// AuditReader is satisfied by *hipaa.AuditLogger.
type AuditReader interface {
	Search(ctx context.Context, params hipaa.AuditSearchParams) (*hipaa.AuditSearchResult, error)
}

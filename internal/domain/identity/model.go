package identity

import (
	"net/mail"
	"time"

	"github.com/medassist/gateway/internal/platform/middleware"
	"github.com/medassist/gateway/pkg/apperr"
)

const PatientTable = "patients"

// Patient is one patients row. Version is bumped on every profile update.
type Patient struct {
	ID                       string     `json:"id"`
	UserID                   *string    `json:"user_id"`
	HealthID                 string     `json:"health_id"`
	FullName                 string     `json:"full_name"`
	DateOfBirth              *string    `json:"date_of_birth"`
	Gender                   *string    `json:"gender"`
	BloodType                *string    `json:"blood_type"`
	ContactNumber            *string    `json:"contact_number"`
	Email                    *string    `json:"email"`
	Address                  *string    `json:"address"`
	City                     *string    `json:"city"`
	State                    *string    `json:"state"`
	PostalCode               *string    `json:"postal_code"`
	EmergencyContactName     *string    `json:"emergency_contact_name"`
	EmergencyContactNumber   *string    `json:"emergency_contact_number"`
	EmergencyContactRelation *string    `json:"emergency_contact_relation"`
	InsuranceProvider        *string    `json:"insurance_provider"`
	InsurancePolicyNumber    *string    `json:"insurance_policy_number"`
	Allergies                *string    `json:"allergies"`
	ChronicConditions        *string    `json:"chronic_conditions"`
	Version                  int        `json:"version"`
	CreatedAt                *time.Time `json:"created_at,omitempty"`
	UpdatedAt                *time.Time `json:"updated_at,omitempty"`
}

// ProfileInput is the body of POST /patients/profile. Only fields present
// in the body are changed; ExpectedVersion must match the stored row.
type ProfileInput struct {
	ExpectedVersion          int     `json:"expected_version"`
	ContactNumber            *string `json:"contact_number"`
	Email                    *string `json:"email"`
	Address                  *string `json:"address"`
	City                     *string `json:"city"`
	State                    *string `json:"state"`
	PostalCode               *string `json:"postal_code"`
	Allergies                *string `json:"allergies"`
	ChronicConditions        *string `json:"chronic_conditions"`
	EmergencyContactName     *string `json:"emergency_contact_name"`
	EmergencyContactNumber   *string `json:"emergency_contact_number"`
	EmergencyContactRelation *string `json:"emergency_contact_relation"`
}

func (in *ProfileInput) Validate() error {
	if in.ExpectedVersion < 1 {
		return apperr.Validation("expected_version is required")
	}
	if len(in.patch()) == 0 {
		return apperr.Validation("no profile fields to update")
	}
	if in.Email != nil && *in.Email != "" {
		if _, err := mail.ParseAddress(*in.Email); err != nil {
			return apperr.Validation("email is not a valid address")
		}
	}
	return nil
}

// patch returns the sanitized columns present in the input.
func (in *ProfileInput) patch() map[string]any {
	fields := map[string]*string{
		"contact_number":             in.ContactNumber,
		"email":                      in.Email,
		"address":                    in.Address,
		"city":                       in.City,
		"state":                      in.State,
		"postal_code":                in.PostalCode,
		"allergies":                  in.Allergies,
		"chronic_conditions":         in.ChronicConditions,
		"emergency_contact_name":     in.EmergencyContactName,
		"emergency_contact_number":   in.EmergencyContactNumber,
		"emergency_contact_relation": in.EmergencyContactRelation,
	}
	out := make(map[string]any, len(fields))
	for col, v := range fields {
		if v != nil {
			out[col] = middleware.SanitizeString(*v)
		}
	}
	return out
}

type ProfileResponse struct {
	Patient *Patient `json:"patient"`
}

package admin

import (
	"time"

	"github.com/medassist/gateway/internal/platform/gated"
	"github.com/medassist/gateway/internal/platform/hipaa"
	"github.com/medassist/gateway/pkg/apperr"
	"github.com/medassist/gateway/pkg/pagination"
)

const AppointmentTable = "appointments"

// StaffMember is the public part of a user_profiles row.
type StaffMember struct {
	ID            string  `json:"id"`
	UserID        string  `json:"user_id"`
	FullName      string  `json:"full_name"`
	Email         string  `json:"email"`
	Role          string  `json:"role"`
	ContactNumber *string `json:"contact_number"`
	LicenseNumber *string `json:"license_number"`
	Verified      bool    `json:"verified"`
}

type Appointment struct {
	ID                  string  `json:"id"`
	PatientID           string  `json:"patient_id"`
	DoctorID            string  `json:"doctor_id"`
	AppointmentDatetime string  `json:"appointment_datetime"`
	DurationMinutes     int     `json:"duration_minutes"`
	Status              string  `json:"status"`
	AppointmentType     string  `json:"appointment_type"`
	ChiefComplaint      *string `json:"chief_complaint"`
}

// OverviewInput pages the appointment list of the overview.
type OverviewInput struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

func (in *OverviewInput) Validate() error {
	if in.Limit < 0 || in.Offset < 0 {
		return apperr.Validation("limit and offset must not be negative")
	}
	return nil
}

type Overview struct {
	HospitalID   string               `json:"hospital_id"`
	Staff        []StaffMember        `json:"staff"`
	StaffByRole  map[string]int       `json:"staff_by_role"`
	Appointments *pagination.Response `json:"appointments"`
}

// AuditTrailInput filters audit_logs. Times are RFC 3339.
type AuditTrailInput struct {
	UserID    string `json:"userId"`
	Action    string `json:"action"`
	Success   *bool  `json:"success"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	Limit     int    `json:"limit"`
	Offset    int    `json:"offset"`
}

func (in *AuditTrailInput) Validate() error {
	if in.Limit < 0 || in.Offset < 0 {
		return apperr.Validation("limit and offset must not be negative")
	}
	if in.Action != "" {
		if _, ok := gated.DefaultPolicy().Allowed(in.Action); !ok {
			return apperr.Validation("unknown action %q", in.Action)
		}
	}
	start, err := parseTime("startTime", in.StartTime)
	if err != nil {
		return err
	}
	end, err := parseTime("endTime", in.EndTime)
	if err != nil {
		return err
	}
	if start != nil && end != nil && end.Before(*start) {
		return apperr.Validation("endTime must not be before startTime")
	}
	return nil
}

func (in *AuditTrailInput) params() hipaa.AuditSearchParams {
	p := pagination.New(in.Limit, in.Offset)
	start, _ := parseTime("startTime", in.StartTime)
	end, _ := parseTime("endTime", in.EndTime)
	return hipaa.AuditSearchParams{
		UserID:    in.UserID,
		Action:    in.Action,
		Success:   in.Success,
		StartTime: start,
		EndTime:   end,
		Limit:     p.Limit,
		Offset:    p.Offset,
	}
}

func parseTime(field, v string) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return nil, apperr.Validation("%s must be an RFC 3339 timestamp", field)
	}
	return &t, nil
}

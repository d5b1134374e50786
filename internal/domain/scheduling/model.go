package scheduling

import (
	"time"

	"github.com/medassist/gateway/internal/platform/gated"
	"github.com/medassist/gateway/pkg/apperr"
)

const (
	AppointmentTable = "appointments"
	PatientTable     = "patients"
)

// Appointment statuses that occupy a doctor's slot.
const (
	StatusScheduled = "scheduled"
	StatusConfirmed = "confirmed"
)

const (
	dateLayout             = "2006-01-02"
	timeLayout             = "15:04"
	defaultType            = "consultation"
	defaultDurationMinutes = 30
)

// Appointment is one appointments row.
type Appointment struct {
	ID                  string     `json:"id,omitempty"`
	PatientID           string     `json:"patient_id"`
	DoctorID            string     `json:"doctor_id"`
	HospitalID          string     `json:"hospital_id"`
	AppointmentDate     string     `json:"appointment_date"`
	AppointmentTime     string     `json:"appointment_time"`
	AppointmentDatetime string     `json:"appointment_datetime"`
	DurationMinutes     int        `json:"duration_minutes"`
	Status              string     `json:"status"`
	AppointmentType     string     `json:"appointment_type"`
	ChiefComplaint      *string    `json:"chief_complaint"`
	CreatedAt           *time.Time `json:"created_at,omitempty"`
}

// BookInput is the body of POST /appointments.
type BookInput struct {
	HospitalID      string `json:"hospitalId"`
	DoctorID        string `json:"doctorId"`
	AppointmentDate string `json:"appointmentDate"`
	AppointmentTime string `json:"appointmentTime"`
	AppointmentType string `json:"appointmentType"`
	ChiefComplaint  string `json:"chiefComplaint"`
}

func (in *BookInput) Validate() error {
	if err := gated.RequireUUID("hospitalId", in.HospitalID); err != nil {
		return err
	}
	if err := gated.RequireUUID("doctorId", in.DoctorID); err != nil {
		return err
	}
	if _, err := in.start(); err != nil {
		return err
	}
	return nil
}

// start parses the requested slot as a local wall-clock time.
func (in *BookInput) start() (time.Time, error) {
	if in.AppointmentDate == "" || in.AppointmentTime == "" {
		return time.Time{}, apperr.Validation("appointmentDate and appointmentTime are required")
	}
	d, err := time.Parse(dateLayout, in.AppointmentDate)
	if err != nil {
		return time.Time{}, apperr.Validation("appointmentDate must be YYYY-MM-DD")
	}
	t, err := time.Parse(timeLayout, in.AppointmentTime)
	if err != nil {
		return time.Time{}, apperr.Validation("appointmentTime must be HH:MM")
	}
	return d.Add(time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute), nil
}

// Datetime renders the slot the way appointment_datetime stores it.
func (in *BookInput) Datetime() string {
	return in.AppointmentDate + "T" + in.AppointmentTime + ":00"
}

type AppointmentResponse struct {
	Appointment *Appointment `json:"appointment"`
}

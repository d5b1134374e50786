package scheduling

import (
	"context"
	"errors"
	"time"

	"github.com/medassist/gateway/internal/platform/gated"
	"github.com/medassist/gateway/internal/platform/middleware"
	"github.com/medassist/gateway/pkg/apperr"
)

type Service struct {
	patients     PatientRepository
	doctors      DoctorRepository
	appointments AppointmentRepository
	now          func() time.Time
}

func NewService(patients PatientRepository, doctors DoctorRepository, appointments AppointmentRepository) *Service {
	return &Service{
		patients:     patients,
		doctors:      doctors,
		appointments: appointments,
		now:          time.Now,
	}
}

// ExecuteBook books an appointment for the calling patient with a doctor
// at the given hospital.
func (s *Service) ExecuteBook(ctx context.Context, actor *gated.Actor, in *BookInput) (*gated.Result, error) {
	res := &gated.Result{TargetTable: AppointmentTable}

	start, err := in.start()
	if err != nil {
		return res, err
	}
	// Slots are wall-clock times; compare against the same clock.
	now := s.now()
	if start.Before(time.Date(now.Year(), now.Month(), now.Day(), now.Hour(), now.Minute(), 0, 0, time.UTC)) {
		return res, apperr.Validation("appointment must be in the future")
	}

	patientID, err := s.patients.IDForUser(ctx, actor.Identity.ID)
	if errors.Is(err, ErrPatientNotFound) {
		return res, apperr.Wrap(apperr.KindNotFound, err, "no patient record is linked to this account")
	}
	if err != nil {
		return res, apperr.Downstream(err, "patient lookup failed")
	}

	if err := s.doctors.Check(ctx, in.DoctorID, in.HospitalID); err != nil {
		if errors.Is(err, ErrDoctorNotFound) {
			return res, apperr.Wrap(apperr.KindNotFound, err, "doctor not found at this hospital")
		}
		return res, apperr.Downstream(err, "doctor lookup failed")
	}

	datetime := in.Datetime()
	taken, err := s.appointments.SlotTaken(ctx, in.DoctorID, datetime)
	if err != nil {
		return res, apperr.Downstream(err, "appointment lookup failed")
	}
	if taken {
		return res, apperr.Conflict("the doctor already has an appointment at %s %s", in.AppointmentDate, in.AppointmentTime)
	}

	apptType := middleware.SanitizeString(in.AppointmentType)
	if apptType == "" {
		apptType = defaultType
	}
	a := &Appointment{
		PatientID:           patientID,
		DoctorID:            in.DoctorID,
		HospitalID:          in.HospitalID,
		AppointmentDate:     in.AppointmentDate,
		AppointmentTime:     in.AppointmentTime,
		AppointmentDatetime: datetime,
		DurationMinutes:     defaultDurationMinutes,
		Status:              StatusScheduled,
		AppointmentType:     apptType,
	}
	if cc := middleware.SanitizeString(in.ChiefComplaint); cc != "" {
		a.ChiefComplaint = &cc
	}
	if err := s.appointments.Create(ctx, a); err != nil {
		return res, apperr.Downstream(err, "appointment could not be saved")
	}

	res.TargetID = a.ID
	res.Description = "Appointment booked for " + datetime
	res.Data = AppointmentResponse{Appointment: a}
	return res, nil
}

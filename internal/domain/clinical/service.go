package clinical

import (
	"context"
	"time"

	"github.com/medassist/gateway/internal/platform/gated"
	"github.com/medassist/gateway/internal/platform/middleware"
	"github.com/medassist/gateway/pkg/apperr"
)

type Service struct {
	records MedicalRecordRepository
	now     func() time.Time
}

func NewService(records MedicalRecordRepository) *Service {
	return &Service{records: records, now: func() time.Time { return time.Now().UTC() }}
}

// ExecuteCreate records a visit by the calling doctor. The record is
// attached to the doctor's hospital when the profile has one.
func (s *Service) ExecuteCreate(ctx context.Context, actor *gated.Actor, in *CreateInput) (*gated.Result, error) {
	res := &gated.Result{TargetTable: MedicalRecordTable}

	r := &MedicalRecord{
		PatientID:      in.PatientID,
		DoctorID:       actor.Identity.ID,
		HospitalID:     actor.Profile.HospitalID,
		VisitDate:      s.now(),
		ChiefComplaint: text(in.ChiefComplaint),
		Diagnosis:      text(in.Diagnosis),
		TreatmentPlan:  text(in.TreatmentPlan),
		Notes:          text(in.Notes),
		VitalSigns:     in.VitalSigns,
		FollowUpDate:   text(in.FollowUpDate),
		Status:         statusActive,
	}
	if err := s.records.Create(ctx, r); err != nil {
		return res, apperr.Downstream(err, "medical record could not be saved")
	}

	res.TargetID = r.ID
	res.Description = "Medical record created"
	res.Data = RecordResponse{MedicalRecord: r}
	return res, nil
}

// text sanitizes free text and maps empty input to NULL.
func text(s string) *string {
	s = middleware.SanitizeString(s)
	if s == "" {
		return nil
	}
	return &s
}

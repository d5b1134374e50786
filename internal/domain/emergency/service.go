package emergency

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/medassist/gateway/internal/platform/gated"
	"github.com/medassist/gateway/internal/platform/middleware"
	"github.com/medassist/gateway/pkg/apperr"
)

type Service struct {
	patients PatientRepository
	logs     AccessLogRepository
	now      func() time.Time
}

func NewService(patients PatientRepository, logs AccessLogRepository) *Service {
	return &Service{
		patients: patients,
		logs:     logs,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// ExecuteAccess looks a patient up by health id, records the access and
// returns the patient's critical data.
func (s *Service) ExecuteAccess(ctx context.Context, actor *gated.Actor, in *AccessInput) (*gated.Result, error) {
	res := &gated.Result{TargetTable: PatientTable}

	p, err := s.patients.GetByHealthID(ctx, in.PatientHealthID)
	if errors.Is(err, ErrPatientNotFound) {
		return res, apperr.NotFound("patient not found")
	}
	if err != nil {
		return res, apperr.Downstream(err, "patient lookup failed")
	}
	res.TargetID = p.ID

	critical := p.CriticalData()
	emergencyType := middleware.SanitizeString(in.EmergencyType)
	log := &AccessLog{
		AmbulanceStaffID:     actor.Identity.ID,
		PatientID:            p.ID,
		Purpose:              middleware.SanitizeString(in.Purpose),
		EmergencyType:        emergencyType,
		CriticalDataAccessed: critical,
		LocationCoordinates:  in.LocationCoordinates,
		AccessedAt:           s.now(),
	}
	if err := s.logs.Create(ctx, log); err != nil {
		return res, apperr.Downstream(err, "emergency access could not be recorded")
	}

	res.Data = AccessResponse{Patient: critical, AccessGranted: true}
	res.Description = fmt.Sprintf("Emergency access by ambulance staff for %s", emergencyType)
	return res, nil
}

package identity

import (
	"context"
	"errors"
	"time"

	"github.com/medassist/gateway/internal/platform/gated"
	"github.com/medassist/gateway/pkg/apperr"
)

type Service struct {
	patients PatientRepository
	now      func() time.Time
}

func NewService(patients PatientRepository) *Service {
	return &Service{patients: patients, now: time.Now}
}

// ExecuteUpdateProfile updates the contact and medical-history fields of
// the caller's own patient record. The write only lands if the record is
// still at the version the caller read.
func (s *Service) ExecuteUpdateProfile(ctx context.Context, actor *gated.Actor, in *ProfileInput) (*gated.Result, error) {
	res := &gated.Result{TargetTable: PatientTable}

	current, err := s.patients.GetByUserID(ctx, actor.Identity.ID)
	if errors.Is(err, ErrPatientNotFound) {
		return res, apperr.Wrap(apperr.KindNotFound, err, "no patient record is linked to this account")
	}
	if err != nil {
		return res, apperr.Downstream(err, "patient lookup failed")
	}
	res.TargetID = current.ID

	if current.Version != in.ExpectedVersion {
		return res, apperr.Wrap(apperr.KindConflict, ErrVersionConflict, "profile was changed since it was loaded; reload and retry")
	}

	updated, err := s.patients.UpdateProfile(ctx, current.ID, in.ExpectedVersion, in.patch(), s.now().UTC())
	if errors.Is(err, ErrVersionConflict) {
		return res, apperr.Wrap(apperr.KindConflict, err, "profile was changed since it was loaded; reload and retry")
	}
	if err != nil {
		return res, apperr.Downstream(err, "profile could not be saved")
	}

	res.Description = "Patient profile updated"
	res.Data = ProfileResponse{Patient: updated}
	return res, nil
}

package medication

import (
	"context"
	"errors"
	"time"

	"github.com/medassist/gateway/internal/platform/gated"
	"github.com/medassist/gateway/internal/platform/middleware"
	"github.com/medassist/gateway/internal/platform/objectstore"
	"github.com/medassist/gateway/pkg/apperr"
)

type Service struct {
	uploader      Uploader
	prescriptions PrescriptionRepository
	now           func() time.Time
}

func NewService(uploader Uploader, prescriptions PrescriptionRepository) *Service {
	return &Service{
		uploader:      uploader,
		prescriptions: prescriptions,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// ExecuteUpload stores a prescription image and records an active
// prescription for it. The caller is always the prescribing doctor.
func (s *Service) ExecuteUpload(ctx context.Context, actor *gated.Actor, in *UploadInput) (*gated.Result, error) {
	res := &gated.Result{TargetTable: PrescriptionTable}
	if err := checkDoctor(actor, in.DoctorID); err != nil {
		return res, err
	}

	obj, err := s.uploader.Upload(ctx, objectstore.BucketPrescriptions, in.FileName, in.ImageData)
	if err != nil {
		if objectstore.IsInputError(err) {
			return res, apperr.Wrap(apperr.KindValidationFailed, err, err.Error())
		}
		return res, apperr.Downstream(err, "prescription image upload failed")
	}

	text := middleware.SanitizeString(in.PrescriptionText)
	if text == "" {
		text = pendingTextEntry
	}
	p := &Prescription{
		PatientID:        in.PatientID,
		DoctorID:         actor.Identity.ID,
		MedicalRecordID:  emptyToNil(in.MedicalRecordID),
		PrescriptionText: text,
		ImageURL:         &obj.PublicURL,
		DateIssued:       s.now(),
		Status:           StatusActive,
	}
	if err := s.prescriptions.Create(ctx, p); err != nil {
		return res, apperr.Downstream(err, "prescription could not be saved")
	}

	res.TargetID = p.ID
	res.Description = descriptionUpload
	res.Data = UploadResponse{PublicURL: obj.PublicURL, Prescription: p}
	return res, nil
}

// ExecuteCreate records a prescription written by the calling doctor.
func (s *Service) ExecuteCreate(ctx context.Context, actor *gated.Actor, in *CreateInput) (*gated.Result, error) {
	res := &gated.Result{TargetTable: PrescriptionTable}

	p := &Prescription{
		PatientID:        in.PatientID,
		DoctorID:         actor.Identity.ID,
		MedicalRecordID:  emptyToNil(in.MedicalRecordID),
		PrescriptionText: middleware.SanitizeString(in.PrescriptionText),
		ValidUntil:       emptyToNil(in.ValidUntil),
		DateIssued:       s.now(),
		Status:           StatusActive,
		Notes:            sanitized(in.Notes),
	}
	if err := s.prescriptions.Create(ctx, p); err != nil {
		return res, apperr.Downstream(err, "prescription could not be saved")
	}

	res.TargetID = p.ID
	res.Description = descriptionCreate
	res.Data = PrescriptionResponse{Prescription: p}
	return res, nil
}

// ExecuteDispense moves an active prescription to dispensed. The update
// only applies if the row still has the version that was read, so two
// pharmacists racing on the same prescription get one success and one
// Conflict.
func (s *Service) ExecuteDispense(ctx context.Context, actor *gated.Actor, in *DispenseInput) (*gated.Result, error) {
	res := &gated.Result{TargetTable: PrescriptionTable, TargetID: in.PrescriptionID}

	p, err := s.prescriptions.GetByID(ctx, in.PrescriptionID)
	if errors.Is(err, ErrPrescriptionNotFound) {
		return res, apperr.NotFound("prescription not found")
	}
	if err != nil {
		return res, apperr.Downstream(err, "prescription lookup failed")
	}

	now := s.now()
	switch {
	case p.Status == StatusDispensed:
		return res, apperr.Conflict("prescription has already been dispensed")
	case p.Status != StatusActive:
		return res, apperr.Conflict("prescription is %s and cannot be dispensed", p.Status)
	case p.Expired(now):
		return res, apperr.Conflict("prescription expired on %s", dateOnly(*p.ValidUntil))
	}

	updated, err := s.prescriptions.MarkDispensed(ctx, p.ID, p.Version, actor.Identity.ID, now)
	if errors.Is(err, ErrVersionConflict) {
		return res, apperr.Wrap(apperr.KindConflict, err, "prescription was modified by another request")
	}
	if err != nil {
		return res, apperr.Downstream(err, "prescription could not be dispensed")
	}

	res.Description = descriptionDispense
	res.Data = PrescriptionResponse{Prescription: updated}
	return res, nil
}

// checkDoctor rejects a doctorId naming someone other than the caller.
func checkDoctor(actor *gated.Actor, doctorID string) error {
	if doctorID != "" && doctorID != actor.Identity.ID {
		return apperr.Validation("doctorId must be the authenticated doctor")
	}
	return nil
}

func emptyToNil(v *string) *string {
	if v == nil || *v == "" {
		return nil
	}
	return v
}

func sanitized(v *string) *string {
	if v == nil {
		return nil
	}
	s := middleware.SanitizeString(*v)
	if s == "" {
		return nil
	}
	return &s
}

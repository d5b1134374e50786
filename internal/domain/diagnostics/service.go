package diagnostics

import (
	"context"
	"time"

	"github.com/medassist/gateway/internal/platform/gated"
	"github.com/medassist/gateway/internal/platform/middleware"
	"github.com/medassist/gateway/internal/platform/objectstore"
	"github.com/medassist/gateway/pkg/apperr"
)

type Service struct {
	uploader Uploader
	reports  LabReportRepository
	now      func() time.Time
}

func NewService(uploader Uploader, reports LabReportRepository) *Service {
	return &Service{
		uploader: uploader,
		reports:  reports,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// ExecuteUpload stores the report file in the lab-reports bucket and
// records a completed lab report pointing at it. A failed insert leaves
// the uploaded object in place.
func (s *Service) ExecuteUpload(ctx context.Context, actor *gated.Actor, in *UploadInput) (*gated.Result, error) {
	res := &gated.Result{TargetTable: LabReportTable}

	obj, err := s.uploader.Upload(ctx, objectstore.BucketLabReports, in.FileName, in.FileData)
	if err != nil {
		if objectstore.IsInputError(err) {
			return res, apperr.Wrap(apperr.KindValidationFailed, err, err.Error())
		}
		return res, apperr.Downstream(err, "lab report upload failed")
	}

	report := &LabReport{
		PatientID:        in.PatientID,
		TestName:         middleware.SanitizeString(in.TestName),
		TestType:         orDefault(middleware.SanitizeString(in.TestType), defaultTestType),
		TestDate:         s.now(),
		ReportURL:        obj.PublicURL,
		ResultSummary:    middleware.SanitizeString(in.ResultSummary),
		UploadedByUserID: actor.Identity.ID,
		HospitalID:       emptyToNil(in.HospitalID),
		LabName:          orDefault(middleware.SanitizeString(in.LabName), defaultLabName),
		Status:           statusCompleted,
	}
	if err := s.reports.Create(ctx, report); err != nil {
		return res, apperr.Downstream(err, "lab report could not be saved")
	}

	res.TargetID = report.ID
	res.Description = "Lab report uploaded for test: " + report.TestName
	res.Data = UploadResponse{PublicURL: obj.PublicURL, LabReport: report}
	return res, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func emptyToNil(v *string) *string {
	if v == nil || *v == "" {
		return nil
	}
	return v
}

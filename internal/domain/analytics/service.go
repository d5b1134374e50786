package analytics

import (
	"context"
	"time"

	"github.com/medassist/gateway/internal/platform/gated"
	"github.com/medassist/gateway/pkg/apperr"
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: func() time.Time { return time.Now().UTC() }}
}

// ExecuteReport builds one aggregate report. It only reads.
func (s *Service) ExecuteReport(ctx context.Context, _ *gated.Actor, in *ReportInput) (*gated.Result, error) {
	res := &gated.Result{}
	f, err := in.filter()
	if err != nil {
		return res, err
	}

	var agg any
	switch in.ReportType {
	case ReportPatientDemographics:
		var rows []PatientRow
		if rows, err = s.repo.Patients(ctx, f); err == nil {
			agg = PatientDemographicsOf(rows)
		}
	case ReportAppointmentsStatistics:
		var rows []AppointmentRow
		if rows, err = s.repo.Appointments(ctx, f); err == nil {
			agg = AppointmentsStatisticsOf(rows)
		}
	case ReportPrescriptionAnalytics:
		var rows []PrescriptionRow
		if rows, err = s.repo.Prescriptions(ctx, f); err == nil {
			agg = PrescriptionAnalyticsOf(rows)
		}
	case ReportHospitalCapacity:
		var rows []HospitalRow
		if rows, err = s.repo.Hospitals(ctx, f); err == nil {
			agg = HospitalCapacityOf(rows)
		}
	default:
		return res, apperr.Validation("invalid report type %q", in.ReportType)
	}
	if err != nil {
		return res, apperr.Downstream(err, "analytics data could not be read")
	}

	res.Description = "Generated " + in.ReportType + " analytics report"
	res.Data = Report{ReportType: in.ReportType, GeneratedAt: s.now(), Analytics: agg}
	return res, nil
}

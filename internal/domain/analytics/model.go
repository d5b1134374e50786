package analytics

import (
	"time"

	"github.com/medassist/gateway/pkg/apperr"
)

// Report types.
const (
	ReportPatientDemographics    = "patient_demographics"
	ReportAppointmentsStatistics = "appointments_statistics"
	ReportPrescriptionAnalytics  = "prescription_analytics"
	ReportHospitalCapacity       = "hospital_capacity"
)

var reportTypes = map[string]bool{
	ReportPatientDemographics:    true,
	ReportAppointmentsStatistics: true,
	ReportPrescriptionAnalytics:  true,
	ReportHospitalCapacity:       true,
}

const dateLayout = "2006-01-02"

// unknownKey buckets rows whose grouping column is empty.
const unknownKey = "unknown"

// ReportInput is the body of POST /analytics. Dates are YYYY-MM-DD and
// inclusive; Region matches the state column.
type ReportInput struct {
	ReportType string `json:"reportType"`
	StartDate  string `json:"startDate"`
	EndDate    string `json:"endDate"`
	Region     string `json:"region"`
}

func (in *ReportInput) Validate() error {
	if in.ReportType == "" {
		return apperr.Validation("reportType is required")
	}
	if !reportTypes[in.ReportType] {
		return apperr.Validation("invalid report type %q", in.ReportType)
	}
	f, err := in.filter()
	if err != nil {
		return err
	}
	if f.Start != nil && f.End != nil && f.End.Before(*f.Start) {
		return apperr.Validation("endDate is before startDate")
	}
	return nil
}

// Filter narrows the rows a report aggregates.
type Filter struct {
	Start  *time.Time
	End    *time.Time
	Region string
}

func (in *ReportInput) filter() (Filter, error) {
	f := Filter{Region: in.Region}
	if in.StartDate != "" {
		t, err := time.Parse(dateLayout, in.StartDate)
		if err != nil {
			return f, apperr.Validation("startDate must be YYYY-MM-DD")
		}
		f.Start = &t
	}
	if in.EndDate != "" {
		t, err := time.Parse(dateLayout, in.EndDate)
		if err != nil {
			return f, apperr.Validation("endDate must be YYYY-MM-DD")
		}
		f.End = &t
	}
	return f, nil
}

// Rows read for each report. Only non-identifying columns are selected.

type PatientRow struct {
	Gender    *string `json:"gender"`
	BloodType *string `json:"blood_type"`
	City      *string `json:"city"`
	State     *string `json:"state"`
}

type AppointmentRow struct {
	Status          string  `json:"status"`
	AppointmentType *string `json:"appointment_type"`
	AppointmentDate string  `json:"appointment_date"`
}

type PrescriptionRow struct {
	Status     string `json:"status"`
	DateIssued string `json:"date_issued"`
}

type HospitalRow struct {
	Name              string  `json:"name"`
	City              *string `json:"city"`
	State             *string `json:"state"`
	TotalBeds         *int    `json:"total_beds"`
	AvailableBeds     *int    `json:"available_beds"`
	EmergencyServices bool    `json:"emergency_services"`
}

// Aggregates.

type PatientDemographics struct {
	TotalPatients         int            `json:"total_patients"`
	GenderDistribution    map[string]int `json:"gender_distribution"`
	BloodTypeDistribution map[string]int `json:"blood_type_distribution"`
	RegionalDistribution  map[string]int `json:"regional_distribution"`
}

type AppointmentsStatistics struct {
	TotalAppointments  int            `json:"total_appointments"`
	StatusDistribution map[string]int `json:"status_distribution"`
	TypeDistribution   map[string]int `json:"type_distribution"`
}

type PrescriptionAnalytics struct {
	TotalPrescriptions int            `json:"total_prescriptions"`
	StatusDistribution map[string]int `json:"status_distribution"`
}

type HospitalCapacity struct {
	TotalHospitals         int            `json:"total_hospitals"`
	TotalBeds              int            `json:"total_beds"`
	AvailableBeds          int            `json:"available_beds"`
	EmergencyServicesCount int            `json:"emergency_services_count"`
	RegionalDistribution   map[string]int `json:"regional_distribution"`
}

// Report is the data payload of a generated report.
type Report struct {
	ReportType  string    `json:"report_type"`
	GeneratedAt time.Time `json:"generated_at"`
	Analytics   any       `json:"analytics"`
}

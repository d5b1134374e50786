package diagnostics

import (
	"time"

	"github.com/medassist/gateway/internal/platform/gated"
	"github.com/medassist/gateway/pkg/apperr"
)

const LabReportTable = "lab_reports"

const (
	defaultTestType = "General"
	defaultLabName  = "Hospital Laboratory"
	statusCompleted = "completed"
)

// LabReport is one lab_reports row.
type LabReport struct {
	ID               string     `json:"id,omitempty"`
	PatientID        string     `json:"patient_id"`
	TestName         string     `json:"test_name"`
	TestType         string     `json:"test_type"`
	TestDate         time.Time  `json:"test_date"`
	ReportURL        string     `json:"report_url"`
	ResultSummary    string     `json:"result_summary"`
	UploadedByUserID string     `json:"uploaded_by_user_id"`
	HospitalID       *string    `json:"hospital_id"`
	LabName          string     `json:"lab_name"`
	Status           string     `json:"status"`
	CreatedAt        *time.Time `json:"created_at,omitempty"`
}

// UploadInput is the body of POST /lab-reports/upload. FileData is a
// base64 data URL.
type UploadInput struct {
	FileData      string  `json:"fileData"`
	FileName      string  `json:"fileName"`
	PatientID     string  `json:"patientId"`
	TestName      string  `json:"testName"`
	TestType      string  `json:"testType"`
	ResultSummary string  `json:"resultSummary"`
	HospitalID    *string `json:"hospitalId"`
	LabName       string  `json:"labName"`
}

func (in *UploadInput) Validate() error {
	if in.FileData == "" || in.FileName == "" || in.PatientID == "" || in.TestName == "" {
		return apperr.Validation("fileData, fileName, patientId and testName are required")
	}
	if err := gated.RequireUUID("patientId", in.PatientID); err != nil {
		return err
	}
	return gated.OptionalUUID("hospitalId", in.HospitalID)
}

type UploadResponse struct {
	PublicURL string     `json:"publicUrl"`
	LabReport *LabReport `json:"labReport"`
}

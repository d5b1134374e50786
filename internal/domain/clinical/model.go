package clinical

import (
	"time"

	"github.com/medassist/gateway/internal/platform/gated"
	"github.com/medassist/gateway/pkg/apperr"
)

const MedicalRecordTable = "medical_records"

const statusActive = "active"

const dateLayout = "2006-01-02"

// VitalSigns is stored as-is in medical_records.vital_signs.
type VitalSigns struct {
	BloodPressure   string `json:"bloodPressure,omitempty"`
	HeartRate       string `json:"heartRate,omitempty"`
	Temperature     string `json:"temperature,omitempty"`
	RespiratoryRate string `json:"respiratoryRate,omitempty"`
}

// MedicalRecord is one medical_records row.
type MedicalRecord struct {
	ID             string      `json:"id,omitempty"`
	PatientID      string      `json:"patient_id"`
	DoctorID       string      `json:"doctor_id"`
	HospitalID     *string     `json:"hospital_id"`
	VisitDate      time.Time   `json:"visit_date"`
	ChiefComplaint *string     `json:"chief_complaint"`
	Diagnosis      *string     `json:"diagnosis"`
	TreatmentPlan  *string     `json:"treatment_plan"`
	Notes          *string     `json:"notes"`
	VitalSigns     *VitalSigns `json:"vital_signs"`
	FollowUpDate   *string     `json:"follow_up_date"`
	Status         string      `json:"status"`
	CreatedAt      *time.Time  `json:"created_at,omitempty"`
}

// CreateInput is the body of POST /medical-records.
type CreateInput struct {
	PatientID      string      `json:"patientId"`
	ChiefComplaint string      `json:"chiefComplaint"`
	Diagnosis      string      `json:"diagnosis"`
	TreatmentPlan  string      `json:"treatmentPlan"`
	Notes          string      `json:"notes"`
	VitalSigns     *VitalSigns `json:"vitalSigns"`
	FollowUpDate   string      `json:"followUpDate"`
}

func (in *CreateInput) Validate() error {
	if err := gated.RequireUUID("patientId", in.PatientID); err != nil {
		return err
	}
	if in.ChiefComplaint == "" && in.Diagnosis == "" {
		return apperr.Validation("chiefComplaint or diagnosis is required")
	}
	if in.FollowUpDate != "" {
		if _, err := time.Parse(dateLayout, in.FollowUpDate); err != nil {
			return apperr.Validation("followUpDate must be YYYY-MM-DD")
		}
	}
	return nil
}

type RecordResponse struct {
	MedicalRecord *MedicalRecord `json:"medicalRecord"`
}

package medication

import (
	"time"

	"github.com/medassist/gateway/internal/platform/gated"
	"github.com/medassist/gateway/pkg/apperr"
)

const PrescriptionTable = "prescriptions"

// Prescription statuses.
const (
	StatusActive    = "active"
	StatusDispensed = "dispensed"
	StatusExpired   = "expired"
	StatusCancelled = "cancelled"
)

const (
	dateLayout          = "2006-01-02"
	pendingTextEntry    = "Prescription uploaded - Text entry required"
	descriptionCreate   = "Prescription created"
	descriptionUpload   = "Prescription image uploaded"
	descriptionDispense = "Prescription dispensed"
)

// Prescription is one prescriptions row. Version is bumped on every
// status change and guards concurrent updates.
type Prescription struct {
	ID                  string     `json:"id,omitempty"`
	PatientID           string     `json:"patient_id"`
	DoctorID            string     `json:"doctor_id"`
	MedicalRecordID     *string    `json:"medical_record_id"`
	PrescriptionText    string     `json:"prescription_text"`
	ImageURL            *string    `json:"image_url"`
	DateIssued          time.Time  `json:"date_issued"`
	ValidUntil          *string    `json:"valid_until"`
	Status              string     `json:"status"`
	PharmacyDispensedID *string    `json:"pharmacy_dispensed_id"`
	DispensedAt         *time.Time `json:"dispensed_at"`
	Notes               *string    `json:"notes"`
	Version             int        `json:"version"`
	CreatedAt           *time.Time `json:"created_at,omitempty"`
}

// Expired reports whether the prescription's validity ended before today.
func (p *Prescription) Expired(today time.Time) bool {
	if p.ValidUntil == nil || *p.ValidUntil == "" {
		return false
	}
	until, err := time.Parse(dateLayout, dateOnly(*p.ValidUntil))
	if err != nil {
		return false
	}
	return until.Before(today.Truncate(24 * time.Hour))
}

func dateOnly(s string) string {
	if len(s) > len(dateLayout) {
		return s[:len(dateLayout)]
	}
	return s
}

// UploadInput is the body of POST /prescriptions/upload. ImageData is a
// base64 data URL.
type UploadInput struct {
	ImageData        string  `json:"imageData"`
	FileName         string  `json:"fileName"`
	PatientID        string  `json:"patientId"`
	DoctorID         string  `json:"doctorId"`
	MedicalRecordID  *string `json:"medicalRecordId"`
	PrescriptionText string  `json:"prescriptionText"`
}

func (in *UploadInput) Validate() error {
	if in.ImageData == "" || in.FileName == "" || in.PatientID == "" {
		return apperr.Validation("imageData, fileName and patientId are required")
	}
	if err := gated.RequireUUID("patientId", in.PatientID); err != nil {
		return err
	}
	return gated.OptionalUUID("medicalRecordId", in.MedicalRecordID)
}

// UploadResponse keeps the ocrText field the portal reads; text
// recognition is not performed so it is always null.
type UploadResponse struct {
	PublicURL    string        `json:"publicUrl"`
	OCRText      *string       `json:"ocrText"`
	Prescription *Prescription `json:"prescription"`
}

// CreateInput is the body of POST /prescriptions.
type CreateInput struct {
	PatientID        string  `json:"patientId"`
	PrescriptionText string  `json:"prescriptionText"`
	ValidUntil       *string `json:"validUntil"`
	Notes            *string `json:"notes"`
	MedicalRecordID  *string `json:"medicalRecordId"`
}

func (in *CreateInput) Validate() error {
	if in.PatientID == "" || in.PrescriptionText == "" {
		return apperr.Validation("patientId and prescriptionText are required")
	}
	if err := gated.RequireUUID("patientId", in.PatientID); err != nil {
		return err
	}
	if err := gated.OptionalUUID("medicalRecordId", in.MedicalRecordID); err != nil {
		return err
	}
	if in.ValidUntil != nil && *in.ValidUntil != "" {
		if _, err := time.Parse(dateLayout, *in.ValidUntil); err != nil {
			return apperr.Validation("validUntil must be YYYY-MM-DD")
		}
	}
	return nil
}

// DispenseInput is the body of POST /prescriptions/dispense.
type DispenseInput struct {
	PrescriptionID string `json:"prescriptionId"`
}

func (in *DispenseInput) Validate() error {
	return gated.RequireUUID("prescriptionId", in.PrescriptionID)
}

type PrescriptionResponse struct {
	Prescription *Prescription `json:"prescription"`
}

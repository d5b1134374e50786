package emergency

import (
	"time"

	"github.com/medassist/gateway/pkg/apperr"
)

const (
	PatientTable = "patients"
	AccessTable  = "emergency_access"
)

// Patient is the subset of a patients row read during emergency access.
type Patient struct {
	ID                     string  `json:"id"`
	HealthID               string  `json:"health_id"`
	FullName               string  `json:"full_name"`
	BloodType              *string `json:"blood_type"`
	Allergies              *string `json:"allergies"`
	ChronicConditions      *string `json:"chronic_conditions"`
	EmergencyContactName   *string `json:"emergency_contact_name"`
	EmergencyContactNumber *string `json:"emergency_contact_number"`
}

// CriticalData is what ambulance staff get to see about a patient.
type CriticalData struct {
	FullName               string  `json:"full_name"`
	BloodType              *string `json:"blood_type"`
	Allergies              *string `json:"allergies"`
	ChronicConditions      *string `json:"chronic_conditions"`
	EmergencyContactName   *string `json:"emergency_contact_name"`
	EmergencyContactNumber *string `json:"emergency_contact_number"`
}

func (p *Patient) CriticalData() CriticalData {
	return CriticalData{
		FullName:               p.FullName,
		BloodType:              p.BloodType,
		Allergies:              p.Allergies,
		ChronicConditions:      p.ChronicConditions,
		EmergencyContactName:   p.EmergencyContactName,
		EmergencyContactNumber: p.EmergencyContactNumber,
	}
}

// AccessLog is one emergency_access row.
type AccessLog struct {
	ID                   string       `json:"id,omitempty"`
	AmbulanceStaffID     string       `json:"ambulance_staff_id"`
	PatientID            string       `json:"patient_id"`
	Purpose              string       `json:"purpose"`
	EmergencyType        string       `json:"emergency_type"`
	CriticalDataAccessed CriticalData `json:"critical_data_accessed"`
	LocationCoordinates  *string      `json:"location_coordinates"`
	AccessedAt           time.Time    `json:"accessed_at"`
}

// AccessInput is the body of POST /emergency-access.
type AccessInput struct {
	PatientHealthID     string  `json:"patientHealthId"`
	Purpose             string  `json:"purpose"`
	EmergencyType       string  `json:"emergencyType"`
	LocationCoordinates *string `json:"locationCoordinates"`
}

func (in *AccessInput) Validate() error {
	if in.PatientHealthID == "" || in.Purpose == "" || in.EmergencyType == "" {
		return apperr.Validation("patientHealthId, purpose and emergencyType are required")
	}
	return nil
}

// AccessResponse is the data payload returned to the caller.
type AccessResponse struct {
	Patient       CriticalData `json:"patient"`
	AccessGranted bool         `json:"access_granted"`
}

package clinical

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/medassist/gateway/internal/platform/auth"
	"github.com/medassist/gateway/internal/platform/gated"
	"github.com/medassist/gateway/pkg/apperr"
)

const testPatientID = "5f0c7a52-3d8e-4c55-9b7e-0c1f8f2f6a10"

type mockMedicalRecordRepo struct {
	records []*MedicalRecord
	err     error
}

func (m *mockMedicalRecordRepo) Create(_ context.Context, r *MedicalRecord) error {
	if m.err != nil {
		return m.err
	}
	r.ID = "mr-1"
	m.records = append(m.records, r)
	return nil
}

func newTestService() (*Service, *mockMedicalRecordRepo) {
	repo := &mockMedicalRecordRepo{}
	svc := NewService(repo)
	svc.now = func() time.Time { return time.Date(2025, 5, 2, 11, 0, 0, 0, time.UTC) }
	return svc, repo
}

func doctor(hospitalID *string) *gated.Actor {
	return &gated.Actor{
		Identity: auth.Identity{ID: "user-doc"},
		Profile:  gated.Profile{UserID: "user-doc", Role: auth.RoleDoctor, HospitalID: hospitalID},
	}
}

func TestService_ExecuteCreate(t *testing.T) {
	svc, repo := newTestService()
	hospital := "3c2b1a09-8f7e-4d6c-9b5a-4e3d2c1b0a98"
	in := &CreateInput{
		PatientID:      testPatientID,
		ChiefComplaint: "fever for 3 days",
		Diagnosis:      "viral fever",
		VitalSigns:     &VitalSigns{Temperature: "101.2F", HeartRate: "96"},
	}

	res, err := svc.ExecuteCreate(context.Background(), doctor(&hospital), in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	r := repo.records[0]
	if r.DoctorID != "user-doc" || r.HospitalID == nil || *r.HospitalID != hospital {
		t.Errorf("unexpected record ownership %+v", r)
	}
	if r.TreatmentPlan != nil || r.Notes != nil {
		t.Error("empty free text should be stored as null")
	}
	if !r.VisitDate.Equal(time.Date(2025, 5, 2, 11, 0, 0, 0, time.UTC)) || r.Status != "active" {
		t.Errorf("unexpected record %+v", r)
	}
	if res.TargetID != "mr-1" || res.TargetTable != "medical_records" {
		t.Errorf("unexpected result %+v", res)
	}
}

func TestService_ExecuteCreate_StoreDown(t *testing.T) {
	svc, repo := newTestService()
	repo.err = errors.New("timeout")

	_, err := svc.ExecuteCreate(context.Background(), doctor(nil), &CreateInput{PatientID: testPatientID, Diagnosis: "x"})
	if !apperr.IsKind(err, apperr.KindDownstreamFailed) {
		t.Fatalf("expected DownstreamFailed, got %v", err)
	}
}

func TestCreateInput_Validate(t *testing.T) {
	tests := []struct {
		name string
		in   CreateInput
		ok   bool
	}{
		{"complaint only", CreateInput{PatientID: testPatientID, ChiefComplaint: "cough"}, true},
		{"diagnosis only", CreateInput{PatientID: testPatientID, Diagnosis: "asthma"}, true},
		{"no content", CreateInput{PatientID: testPatientID}, false},
		{"no patient", CreateInput{Diagnosis: "asthma"}, false},
		{"bad follow up", CreateInput{PatientID: testPatientID, Diagnosis: "asthma", FollowUpDate: "next week"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.in.Validate(); tt.ok != (err == nil) {
				t.Errorf("Validate() = %v, want ok=%v", err, tt.ok)
			}
		})
	}
}

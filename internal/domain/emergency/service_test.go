package emergency

import (
	"context"
	"errors"
	"testing"

	"github.com/medassist/gateway/internal/platform/auth"
	"github.com/medassist/gateway/internal/platform/gated"
	"github.com/medassist/gateway/pkg/apperr"
)

// -- Mock Repositories --

type mockPatientRepo struct {
	patients map[string]*Patient
	err      error
}

func newMockPatientRepo() *mockPatientRepo {
	return &mockPatientRepo{patients: make(map[string]*Patient)}
}

func (m *mockPatientRepo) GetByHealthID(_ context.Context, healthID string) (*Patient, error) {
	if m.err != nil {
		return nil, m.err
	}
	p, ok := m.patients[healthID]
	if !ok {
		return nil, ErrPatientNotFound
	}
	return p, nil
}

type mockAccessLogRepo struct {
	logs []*AccessLog
	err  error
}

func (m *mockAccessLogRepo) Create(_ context.Context, l *AccessLog) error {
	if m.err != nil {
		return m.err
	}
	l.ID = "log-1"
	m.logs = append(m.logs, l)
	return nil
}

func strPtr(s string) *string { return &s }

func newTestService() (*Service, *mockPatientRepo, *mockAccessLogRepo) {
	patients := newMockPatientRepo()
	patients.patients["HID-1"] = &Patient{
		ID:                     "pat-1",
		HealthID:               "HID-1",
		FullName:               "Asha Rao",
		BloodType:              strPtr("O+"),
		Allergies:              strPtr("penicillin"),
		EmergencyContactName:   strPtr("Ravi Rao"),
		EmergencyContactNumber: strPtr("+91-555-0100"),
	}
	logs := &mockAccessLogRepo{}
	return NewService(patients, logs), patients, logs
}

func testActor() *gated.Actor {
	return &gated.Actor{
		Identity: auth.Identity{ID: "user-amb"},
		Profile:  gated.Profile{UserID: "user-amb", Role: auth.RoleAmbulance},
	}
}

func TestService_ExecuteAccess(t *testing.T) {
	svc, _, logs := newTestService()
	in := &AccessInput{
		PatientHealthID:     "HID-1",
		Purpose:             "cardiac arrest on site",
		EmergencyType:       "cardiac",
		LocationCoordinates: strPtr("12.97,77.59"),
	}

	res, err := svc.ExecuteAccess(context.Background(), testActor(), in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.TargetTable != "patients" || res.TargetID != "pat-1" {
		t.Errorf("unexpected target %s/%s", res.TargetTable, res.TargetID)
	}
	if res.Description != "Emergency access by ambulance staff for cardiac" {
		t.Errorf("unexpected description %q", res.Description)
	}
	data, ok := res.Data.(AccessResponse)
	if !ok {
		t.Fatalf("unexpected data type %T", res.Data)
	}
	if !data.AccessGranted || data.Patient.FullName != "Asha Rao" || *data.Patient.BloodType != "O+" {
		t.Errorf("unexpected payload %+v", data)
	}

	if len(logs.logs) != 1 {
		t.Fatalf("expected 1 access log, got %d", len(logs.logs))
	}
	l := logs.logs[0]
	if l.AmbulanceStaffID != "user-amb" || l.PatientID != "pat-1" || l.EmergencyType != "cardiac" {
		t.Errorf("unexpected access log %+v", l)
	}
	if l.AccessedAt.IsZero() {
		t.Error("expected accessed_at to be set")
	}
}

func TestService_ExecuteAccess_PatientNotFound(t *testing.T) {
	svc, _, logs := newTestService()
	in := &AccessInput{PatientHealthID: "HID-404", Purpose: "p", EmergencyType: "trauma"}

	res, err := svc.ExecuteAccess(context.Background(), testActor(), in)
	if !apperr.IsKind(err, apperr.KindNotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
	if res == nil || res.TargetTable != "patients" {
		t.Errorf("expected target table on failure result, got %+v", res)
	}
	if len(logs.logs) != 0 {
		t.Error("expected no access log for unknown patient")
	}
}

func TestService_ExecuteAccess_LookupFailure(t *testing.T) {
	svc, patients, _ := newTestService()
	patients.err = errors.New("connection reset")
	in := &AccessInput{PatientHealthID: "HID-1", Purpose: "p", EmergencyType: "trauma"}

	_, err := svc.ExecuteAccess(context.Background(), testActor(), in)
	if !apperr.IsKind(err, apperr.KindDownstreamFailed) {
		t.Fatalf("expected DownstreamFailed, got %v", err)
	}
}

func TestService_ExecuteAccess_LogFailure(t *testing.T) {
	svc, _, logs := newTestService()
	logs.err = errors.New("insert failed")
	in := &AccessInput{PatientHealthID: "HID-1", Purpose: "p", EmergencyType: "trauma"}

	res, err := svc.ExecuteAccess(context.Background(), testActor(), in)
	if !apperr.IsKind(err, apperr.KindDownstreamFailed) {
		t.Fatalf("expected DownstreamFailed, got %v", err)
	}
	if res.Data != nil {
		t.Error("expected no data when the access log fails")
	}
}

func TestAccessInput_Validate(t *testing.T) {
	tests := []struct {
		name string
		in   AccessInput
		ok   bool
	}{
		{"complete", AccessInput{PatientHealthID: "H", Purpose: "p", EmergencyType: "e"}, true},
		{"missing health id", AccessInput{Purpose: "p", EmergencyType: "e"}, false},
		{"missing purpose", AccessInput{PatientHealthID: "H", EmergencyType: "e"}, false},
		{"missing type", AccessInput{PatientHealthID: "H", Purpose: "p"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.in.Validate()
			if tt.ok && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tt.ok && !apperr.IsKind(err, apperr.KindValidationFailed) {
				t.Errorf("expected ValidationFailed, got %v", err)
			}
		})
	}
}

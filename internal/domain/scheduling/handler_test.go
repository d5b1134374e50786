package scheduling

import (
	"net/http"
	"testing"
	"time"

	"github.com/medassist/gateway/internal/platform/auth"
	"github.com/medassist/gateway/internal/platform/gated"
	"github.com/medassist/gateway/internal/platform/gated/gatedtest"
)

func newTestHandler(t *testing.T) *gatedtest.Harness {
	h := gatedtest.New(t)
	hospital := testHospitalID
	h.AddProfile(gated.Profile{ID: "prof-doc", UserID: testDoctorID, Role: auth.RoleDoctor, HospitalID: &hospital, Verified: true})
	h.Seed(PatientTable, map[string]any{"id": "pat-1", "user_id": "user-pat", "health_id": "HID-1", "full_name": "Meera"})

	svc := NewService(NewPatientRepoStore(h.Store), NewDoctorRepoStore(h.Store), NewAppointmentRepoStore(h.Store))
	svc.now = func() time.Time { return time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC) }
	NewHandler(svc).RegisterRoutes(h.Group, h.Orchestrator)
	return h
}

const bookingBody = `{"hospitalId":"` + testHospitalID + `","doctorId":"` + testDoctorID +
	`","appointmentDate":"2025-06-03","appointmentTime":"10:30","chiefComplaint":"knee pain"}`

func TestHandler_BookAppointment(t *testing.T) {
	h := newTestHandler(t)
	token := h.AddUser("user-pat", auth.RolePatient)

	rec := h.Post("/api/v1/appointments", token, bookingBody)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var data AppointmentResponse
	h.Data(rec, &data)
	if data.Appointment.PatientID != "pat-1" || data.Appointment.ID == "" {
		t.Errorf("unexpected appointment %+v", data.Appointment)
	}

	rec = h.Post("/api/v1/appointments", token, bookingBody)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for a taken slot, got %d", rec.Code)
	}

	entries := h.AuditEntries()
	if len(entries) != 2 || !entries[0].Success || entries[1].Success {
		t.Errorf("unexpected audit entries %+v", entries)
	}
}

func TestHandler_BookAppointment_DoctorDenied(t *testing.T) {
	h := newTestHandler(t)
	token := h.AddUser("user-doc2", auth.RoleDoctor)

	rec := h.Post("/api/v1/appointments", token, bookingBody)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

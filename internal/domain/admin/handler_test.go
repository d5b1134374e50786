package admin

import (
	"net/http"
	"testing"

	"github.com/medassist/gateway/internal/platform/auth"
	"github.com/medassist/gateway/internal/platform/gated"
	"github.com/medassist/gateway/internal/platform/gated/gatedtest"
	"github.com/medassist/gateway/internal/platform/hipaa"
)

func newTestHandler(t *testing.T) *gatedtest.Harness {
	h := gatedtest.New(t)
	hospital, other := hospitalA, "hosp-b"
	h.AddProfile(gated.Profile{ID: "p-doc", UserID: "user-doc", Role: auth.RoleDoctor, FullName: "Dr Rao", HospitalID: &hospital, Verified: true})
	h.AddProfile(gated.Profile{ID: "p-far", UserID: "user-far", Role: auth.RoleDoctor, FullName: "Dr Sen", HospitalID: &other, Verified: true})
	h.Seed(AppointmentTable,
		map[string]any{"id": "a1", "hospital_id": hospitalA, "doctor_id": "user-doc", "patient_id": "pat-1", "appointment_datetime": "2025-06-03T10:30:00", "status": "scheduled"},
		map[string]any{"id": "a2", "hospital_id": hospitalA, "doctor_id": "user-doc", "patient_id": "pat-2", "appointment_datetime": "2025-06-04T10:30:00", "status": "scheduled"},
		map[string]any{"id": "a3", "hospital_id": hospitalA, "doctor_id": "user-doc", "patient_id": "pat-3", "appointment_datetime": "2025-06-05T10:30:00", "status": "confirmed"},
		map[string]any{"id": "a4", "hospital_id": "hosp-b", "doctor_id": "user-far", "patient_id": "pat-4", "appointment_datetime": "2025-06-05T10:30:00", "status": "scheduled"},
	)
	svc := NewService(NewStaffRepoStore(h.Store), NewAppointmentRepoStore(h.Store), h.Audit)
	NewHandler(svc).RegisterRoutes(h.Group, h.Orchestrator)
	return h
}

func addAdmin(h *gatedtest.Harness) string {
	hospital := hospitalA
	return h.AddProfile(gated.Profile{ID: "p-admin", UserID: "user-admin", Role: auth.RoleHospitalAdmin, FullName: "Admin", HospitalID: &hospital, Verified: true})
}

func TestHandler_HospitalOverview(t *testing.T) {
	h := newTestHandler(t)
	token := addAdmin(h)

	rec := h.Post("/api/v1/hospital/overview", token, `{"limit":2}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var data struct {
		HospitalID   string        `json:"hospital_id"`
		Staff        []StaffMember `json:"staff"`
		Appointments struct {
			Data    []Appointment `json:"data"`
			Total   int           `json:"total"`
			HasMore bool          `json:"has_more"`
		} `json:"appointments"`
	}
	h.Data(rec, &data)
	if len(data.Staff) != 2 {
		t.Errorf("expected admin and doctor, got %+v", data.Staff)
	}
	if data.Appointments.Total != 3 || len(data.Appointments.Data) != 2 || !data.Appointments.HasMore {
		t.Errorf("unexpected appointments page %+v", data.Appointments)
	}
	if data.Appointments.Data[0].ID != "a3" {
		t.Errorf("expected newest first, got %q", data.Appointments.Data[0].ID)
	}
}

func TestHandler_HospitalOverview_MinistryDenied(t *testing.T) {
	h := newTestHandler(t)
	token := h.AddUser("user-gov", auth.RoleHealthMinistry)

	rec := h.Post("/api/v1/hospital/overview", token, `{}`)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestHandler_AuditTrail(t *testing.T) {
	h := newTestHandler(t)
	admin := addAdmin(h)
	gov := h.AddUser("user-gov", auth.RoleHealthMinistry)

	if rec := h.Post("/api/v1/hospital/overview", admin, `{}`); rec.Code != http.StatusOK {
		t.Fatalf("overview: %d", rec.Code)
	}

	rec := h.Post("/api/v1/audit-trail", gov, `{"action":"VIEW_HOSPITAL_OVERVIEW"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var page struct {
		Data  []hipaa.AuditEntry `json:"data"`
		Total int                `json:"total"`
	}
	h.Data(rec, &page)
	if page.Total != 1 || page.Data[0].UserID != "user-admin" {
		t.Errorf("unexpected page %+v", page)
	}

	// The read itself is audited.
	entries := h.AuditEntries()
	if len(entries) != 2 || entries[1].Action != gated.ActionViewAuditTrail {
		t.Errorf("unexpected audit entries %+v", entries)
	}
}

func TestHandler_AuditTrail_HospitalAdminScope(t *testing.T) {
	h := newTestHandler(t)
	admin := addAdmin(h)

	rec := h.Post("/api/v1/audit-trail", admin, `{"userId":"user-doc"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = h.Post("/api/v1/audit-trail", admin, `{"userId":"user-far"}`)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	entries := h.AuditEntries()
	if len(entries) != 2 || !entries[0].Success || entries[1].Success {
		t.Errorf("unexpected audit entries %+v", entries)
	}

	rec = h.Post("/api/v1/audit-trail", admin, `{}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

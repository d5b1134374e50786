package medication

import (
	"net/http"
	"testing"

	"github.com/medassist/gateway/internal/platform/auth"
	"github.com/medassist/gateway/internal/platform/gated/gatedtest"
	"github.com/medassist/gateway/internal/platform/objectstore"
)

func newTestHandler(t *testing.T) (*gatedtest.Harness, *objectstore.InMemoryStore) {
	h := gatedtest.New(t)
	objects := objectstore.NewInMemoryStore("http://backend.test")
	svc := NewService(objectstore.NewUploader(objects, 0), NewPrescriptionRepoStore(h.Store))
	NewHandler(svc).RegisterRoutes(h.Group, h.Orchestrator)
	return h, objects
}

func seedPrescription(h *gatedtest.Harness) {
	h.Seed(PrescriptionTable, map[string]any{
		"id":                testPrescriptionID,
		"patient_id":        testPatientID,
		"doctor_id":         "user-doc",
		"prescription_text": "Metformin 500mg BID",
		"status":            "active",
		"version":           1,
	})
}

const dispenseBody = `{"prescriptionId":"` + testPrescriptionID + `"}`

func TestHandler_DispenseTwice(t *testing.T) {
	h, _ := newTestHandler(t)
	seedPrescription(h)
	token := h.AddUser("user-pharm", auth.RolePharmacy)

	rec := h.Post("/api/v1/prescriptions/dispense", token, dispenseBody)
	if rec.Code != http.StatusOK {
		t.Fatalf("first dispense: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var data PrescriptionResponse
	h.Data(rec, &data)
	if data.Prescription.Status != "dispensed" || data.Prescription.Version != 2 {
		t.Errorf("unexpected prescription %+v", data.Prescription)
	}

	rec = h.Post("/api/v1/prescriptions/dispense", token, dispenseBody)
	if rec.Code != http.StatusConflict {
		t.Fatalf("second dispense: expected 409, got %d", rec.Code)
	}
	if code := h.ErrorCode(rec); code != "Conflict" {
		t.Errorf("expected Conflict code, got %s", code)
	}

	rows := h.Store.Rows(PrescriptionTable)
	if rows[0]["pharmacy_dispensed_id"] != "user-pharm" {
		t.Errorf("unexpected row %+v", rows[0])
	}

	entries := h.AuditEntries()
	if len(entries) != 2 {
		t.Fatalf("expected 2 audit entries, got %d", len(entries))
	}
	if !entries[0].Success || entries[1].Success {
		t.Errorf("expected success then failure, got %v then %v", entries[0].Success, entries[1].Success)
	}
	if entries[1].RecordID != testPrescriptionID || entries[1].Action != "DISPENSE_PRESCRIPTION" {
		t.Errorf("unexpected failure entry %+v", entries[1])
	}
}

func TestHandler_DispenseDeniedForDoctor(t *testing.T) {
	h, _ := newTestHandler(t)
	seedPrescription(h)
	token := h.AddUser("user-doc", auth.RoleDoctor)

	rec := h.Post("/api/v1/prescriptions/dispense", token, dispenseBody)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	if h.Store.Rows(PrescriptionTable)[0]["status"] != "active" {
		t.Error("denied dispense must not change the prescription")
	}
}

func TestHandler_CreatePrescription(t *testing.T) {
	h, _ := newTestHandler(t)
	token := h.AddUser("user-doc", auth.RoleDoctor)

	rec := h.Post("/api/v1/prescriptions", token,
		`{"patientId":"`+testPatientID+`","prescriptionText":"Paracetamol 650mg SOS","validUntil":"2099-01-01"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var data PrescriptionResponse
	h.Data(rec, &data)
	if data.Prescription.ID == "" || data.Prescription.DoctorID != "user-doc" || data.Prescription.Version != 1 {
		t.Errorf("unexpected prescription %+v", data.Prescription)
	}
	entries := h.AuditEntries()
	if len(entries) != 1 || entries[0].RecordID != data.Prescription.ID {
		t.Errorf("unexpected audit entries %+v", entries)
	}
}

func TestHandler_UploadPrescription(t *testing.T) {
	h, objects := newTestHandler(t)
	token := h.AddUser("user-doc", auth.RoleDoctor)

	rec := h.Post("/api/v1/prescriptions/upload", token,
		`{"imageData":"data:image/png;base64,iVBORw0KGgo=","fileName":"rx.png","patientId":"`+testPatientID+`","doctorId":"user-doc"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if objects.Len() != 1 {
		t.Errorf("expected 1 stored image, got %d", objects.Len())
	}
	var data UploadResponse
	h.Data(rec, &data)
	if data.Prescription == nil || data.Prescription.ImageURL == nil || *data.Prescription.ImageURL != data.PublicURL {
		t.Errorf("unexpected payload %+v", data)
	}
}

func TestHandler_CreatePrescription_InvalidPatient(t *testing.T) {
	h, _ := newTestHandler(t)
	token := h.AddUser("user-doc", auth.RoleDoctor)

	rec := h.Post("/api/v1/prescriptions", token, `{"patientId":"P-1","prescriptionText":"x"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

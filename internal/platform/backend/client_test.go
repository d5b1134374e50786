package backend

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestClient_NewRequest_SetsServiceHeaders(t *testing.T) {
	c := New("https://project.example.co/", "svc-key", time.Second)
	req, err := c.NewRequest(context.Background(), http.MethodGet, "/rest/v1/patients", nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.URL.String() != "https://project.example.co/rest/v1/patients" {
		t.Errorf("unexpected url %s", req.URL.String())
	}
	if req.Header.Get("apikey") != "svc-key" {
		t.Errorf("expected apikey header, got %q", req.Header.Get("apikey"))
	}
	if req.Header.Get("Authorization") != "Bearer svc-key" {
		t.Errorf("expected service bearer, got %q", req.Header.Get("Authorization"))
	}
}

func TestClient_Do_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"message":"duplicate key"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "k", time.Second)
	req, _ := c.NewRequest(context.Background(), http.MethodPost, "/rest/v1/x", nil, nil)
	_, err := c.Do(req)

	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected *StatusError, got %v", err)
	}
	if se.StatusCode != http.StatusConflict {
		t.Errorf("expected 409, got %d", se.StatusCode)
	}
	if se.Body != `{"message":"duplicate key"}` {
		t.Errorf("unexpected body %q", se.Body)
	}
}

func TestClient_DoJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"abc"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "k", time.Second)
	req, _ := c.NewRequest(context.Background(), http.MethodGet, "/auth/v1/user", nil, nil)
	var out struct {
		ID string `json:"id"`
	}
	if _, err := c.DoJSON(req, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.ID != "abc" {
		t.Errorf("expected abc, got %s", out.ID)
	}
}

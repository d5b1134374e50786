// Package gatedtest wires an in-memory orchestrator for handler tests of
// the domain packages.
package gatedtest

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/medassist/gateway/internal/platform/auth"
	"github.com/medassist/gateway/internal/platform/gated"
	"github.com/medassist/gateway/internal/platform/hipaa"
	"github.com/medassist/gateway/internal/platform/rowstore"
	"github.com/medassist/gateway/pkg/apperr"
)

// StaticVerifier maps bearer tokens to subject ids.
type StaticVerifier map[string]string

func (v StaticVerifier) Verify(_ context.Context, token string) (*auth.Identity, error) {
	sub, ok := v[token]
	if !ok {
		return nil, apperr.Unauthenticated(apperr.ReasonInvalidToken, "invalid token")
	}
	return &auth.Identity{ID: sub, Email: sub + "@example.org"}, nil
}

// Harness runs operations against a MemoryStore shared by profiles, domain
// tables and audit_logs.
type Harness struct {
	t            *testing.T
	Echo         *echo.Echo
	Group        *echo.Group
	Store        *rowstore.MemoryStore
	Orchestrator *gated.Orchestrator
	Audit        *hipaa.AuditLogger
	Logs         *bytes.Buffer
	tokens       StaticVerifier
}

func New(t *testing.T) *Harness {
	t.Helper()
	store := rowstore.NewMemoryStore()
	logs := &bytes.Buffer{}
	logger := zerolog.New(logs)
	tokens := StaticVerifier{}
	audit := hipaa.NewAuditLogger(store, nil, logger, nil)

	o := gated.NewOrchestrator(
		tokens,
		gated.NewProfileResolver(store),
		gated.NewGate(gated.DefaultPolicy()),
		audit,
		logger,
		nil,
	)
	e := echo.New()
	return &Harness{
		t:            t,
		Echo:         e,
		Group:        e.Group("/api/v1"),
		Store:        store,
		Orchestrator: o,
		Audit:        audit,
		Logs:         logs,
		tokens:       tokens,
	}
}

// AddUser seeds a profile with the given role and returns a bearer token
// for it.
func (h *Harness) AddUser(userID string, role auth.Role) string {
	return h.AddProfile(gated.Profile{
		ID:       "profile-" + userID,
		UserID:   userID,
		Email:    userID + "@example.org",
		FullName: userID,
		Role:     role,
		Verified: true,
	})
}

// AddProfile seeds p and returns a bearer token for p.UserID.
func (h *Harness) AddProfile(p gated.Profile) string {
	h.t.Helper()
	if err := h.Store.Seed(gated.ProfileTable, p); err != nil {
		h.t.Fatalf("seed profile: %v", err)
	}
	token := "token-" + p.UserID
	h.tokens[token] = p.UserID
	return token
}

// Seed inserts fixture rows into table.
func (h *Harness) Seed(table string, rows ...any) {
	h.t.Helper()
	if err := h.Store.Seed(table, rows...); err != nil {
		h.t.Fatalf("seed %s: %v", table, err)
	}
}

// Post sends body to path with the bearer token.
func (h *Harness) Post(path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.Echo.ServeHTTP(rec, req)
	return rec
}

// Data decodes the {"data": ...} payload of rec into dest.
func (h *Harness) Data(rec *httptest.ResponseRecorder, dest any) {
	h.t.Helper()
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		h.t.Fatalf("decode response: %v (body %s)", err, rec.Body.String())
	}
	if err := json.Unmarshal(env.Data, dest); err != nil {
		h.t.Fatalf("decode data: %v (body %s)", err, rec.Body.String())
	}
}

// ErrorCode returns error.code from an error envelope.
func (h *Harness) ErrorCode(rec *httptest.ResponseRecorder) string {
	h.t.Helper()
	var env apperr.Envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		h.t.Fatalf("decode error envelope: %v (body %s)", err, rec.Body.String())
	}
	return env.Error.Code
}

// AuditEntries returns every audit_logs row in insertion order.
func (h *Harness) AuditEntries() []hipaa.AuditEntry {
	h.t.Helper()
	var entries []hipaa.AuditEntry
	if _, err := h.Store.Select(context.Background(), hipaa.AuditTable, rowstore.Query{}, &entries); err != nil {
		h.t.Fatalf("read audit entries: %v", err)
	}
	return entries
}

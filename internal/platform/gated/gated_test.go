package gated

import (
	"context"
	"errors"
	"sync"

	"github.com/medassist/gateway/internal/platform/auth"
	"github.com/medassist/gateway/internal/platform/hipaa"
	"github.com/medassist/gateway/pkg/apperr"
)

type fakeVerifier struct {
	mu     sync.Mutex
	calls  int
	tokens map[string]string // token -> subject
	err    error
}

func (v *fakeVerifier) Verify(_ context.Context, token string) (*auth.Identity, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.calls++
	if v.err != nil {
		return nil, v.err
	}
	sub, ok := v.tokens[token]
	if !ok {
		return nil, apperr.Unauthenticated(apperr.ReasonInvalidToken, "invalid token")
	}
	return &auth.Identity{ID: sub, Email: sub + "@example.org"}, nil
}

type fakeResolver struct {
	mu       sync.Mutex
	calls    int
	profiles map[string]*Profile
	err      error
}

func (r *fakeResolver) Resolve(_ context.Context, subjectID string) (*Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	p, ok := r.profiles[subjectID]
	if !ok {
		return nil, ErrProfileNotFound
	}
	return p, nil
}

type fakeAuditor struct {
	mu      sync.Mutex
	entries []*hipaa.AuditEntry
	err     error
}

func (a *fakeAuditor) Append(_ context.Context, e *hipaa.AuditEntry) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return a.err
	}
	a.entries = append(a.entries, e)
	return nil
}

func (a *fakeAuditor) all() []*hipaa.AuditEntry {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]*hipaa.AuditEntry(nil), a.entries...)
}

var errBoom = errors.New("boom")

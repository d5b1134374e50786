package gated

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medassist/gateway/internal/platform/auth"
	"github.com/medassist/gateway/internal/platform/rowstore"
)

type failingStore struct{ rowstore.Store }

func (failingStore) Select(context.Context, string, rowstore.Query, any) (int, error) {
	return 0, errors.New("503 service unavailable")
}

func TestProfileResolver_Resolve(t *testing.T) {
	store := rowstore.NewMemoryStore()
	require.NoError(t, store.Seed(ProfileTable, map[string]any{
		"id": "p1", "user_id": "user-1", "role": "pharmacy", "full_name": "Ama Mensah", "verified": true,
	}))
	r := NewProfileResolver(store)

	p, err := r.Resolve(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, auth.RolePharmacy, p.Role)
	assert.Equal(t, "Ama Mensah", p.FullName)
	assert.True(t, p.Verified)

	_, err = r.Resolve(context.Background(), "user-2")
	assert.ErrorIs(t, err, ErrProfileNotFound)
}

func TestProfileResolver_LookupFailed(t *testing.T) {
	r := NewProfileResolver(failingStore{})
	_, err := r.Resolve(context.Background(), "user-1")
	assert.ErrorIs(t, err, ErrLookupFailed)
}

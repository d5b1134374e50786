package gated

import (
	"context"
	"errors"
	"fmt"

	"github.com/medassist/gateway/internal/platform/auth"
	"github.com/medassist/gateway/internal/platform/rowstore"
)

// ProfileTable is the row-store table holding user profiles.
const ProfileTable = "user_profiles"

var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrLookupFailed    = errors.New("profile lookup failed")
)

// Profile is the role-bearing user_profiles row.
type Profile struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	Email         string    `json:"email"`
	FullName      string    `json:"full_name"`
	Role          auth.Role `json:"role"`
	ContactNumber *string   `json:"contact_number,omitempty"`
	HospitalID    *string   `json:"hospital_id,omitempty"`
	LicenseNumber *string   `json:"license_number,omitempty"`
	Verified      bool      `json:"verified"`
}

// Resolver finds the profile for an authenticated subject.
type Resolver interface {
	Resolve(ctx context.Context, subjectID string) (*Profile, error)
}

// ProfileResolver reads user_profiles through the row-store.
type ProfileResolver struct {
	store rowstore.Store
}

func NewProfileResolver(store rowstore.Store) *ProfileResolver {
	return &ProfileResolver{store: store}
}

func (r *ProfileResolver) Resolve(ctx context.Context, subjectID string) (*Profile, error) {
	var p Profile
	err := rowstore.SelectOne(ctx, r.store, ProfileTable, rowstore.Query{
		Filters: []rowstore.Filter{rowstore.Eq("user_id", subjectID)},
	}, &p)
	if errors.Is(err, rowstore.ErrNoRows) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLookupFailed, err)
	}
	return &p, nil
}

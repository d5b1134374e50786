package auth

import (
	"fmt"
	"strings"
)

// Role is the portal role stored on a user profile.
type Role string

const (
	RoleDoctor         Role = "doctor"
	RolePatient        Role = "patient"
	RoleLabAttendant   Role = "lab_attendant"
	RolePharmacy       Role = "pharmacy"
	RoleAmbulance      Role = "ambulance"
	RoleHospitalAdmin  Role = "hospital_admin"
	RoleHealthMinistry Role = "health_ministry"
)

// AllRoles lists the fixed role enumeration.
var AllRoles = []Role{
	RoleDoctor,
	RolePatient,
	RoleLabAttendant,
	RolePharmacy,
	RoleAmbulance,
	RoleHospitalAdmin,
	RoleHealthMinistry,
}

// Valid reports whether r is part of the enumeration.
func (r Role) Valid() bool {
	for _, known := range AllRoles {
		if r == known {
			return true
		}
	}
	return false
}

// ParseRole converts s to a Role, rejecting values outside the enumeration.
func ParseRole(s string) (Role, error) {
	r := Role(strings.TrimSpace(s))
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// RoleSet is an allow-list of roles.
type RoleSet map[Role]struct{}

// NewRoleSet builds a RoleSet from roles.
func NewRoleSet(roles ...Role) RoleSet {
	s := make(RoleSet, len(roles))
	for _, r := range roles {
		s[r] = struct{}{}
	}
	return s
}

// Has reports whether r is in the set. An empty role is never allowed.
func (s RoleSet) Has(r Role) bool {
	if r == "" {
		return false
	}
	_, ok := s[r]
	return ok
}

// Roles returns the members in enumeration order.
func (s RoleSet) Roles() []Role {
	out := make([]Role, 0, len(s))
	for _, r := range AllRoles {
		if _, ok := s[r]; ok {
			out = append(out, r)
		}
	}
	return out
}

func (s RoleSet) String() string {
	roles := s.Roles()
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = string(r)
	}
	return strings.Join(names, " or ")
}

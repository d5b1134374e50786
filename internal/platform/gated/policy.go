package gated

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/viper"

	"github.com/medassist/gateway/internal/platform/auth"
)

// Action names. They are recorded verbatim in audit_logs.action.
const (
	ActionEmergencyAccess      = "EMERGENCY_ACCESS"
	ActionUploadLabReport      = "UPLOAD_LAB_REPORT"
	ActionGenerateAnalytics    = "GENERATE_ANALYTICS"
	ActionUploadPrescription   = "UPLOAD_PRESCRIPTION"
	ActionCreatePrescription   = "CREATE_PRESCRIPTION"
	ActionDispensePrescription = "DISPENSE_PRESCRIPTION"
	ActionCreateMedicalRecord  = "CREATE_MEDICAL_RECORD"
	ActionBookAppointment      = "BOOK_APPOINTMENT"
	ActionUpdatePatientProfile = "UPDATE_PATIENT_PROFILE"
	ActionViewHospitalOverview = "VIEW_HOSPITAL_OVERVIEW"
	ActionViewAuditTrail       = "VIEW_AUDIT_TRAIL"
)

// Policy maps each action to the roles allowed to perform it. It is built
// once at start-up and read-only afterwards.
type Policy struct {
	rules map[string]auth.RoleSet
}

// DefaultPolicy returns the built-in allow-lists.
func DefaultPolicy() *Policy {
	return &Policy{rules: map[string]auth.RoleSet{
		ActionEmergencyAccess:      auth.NewRoleSet(auth.RoleAmbulance),
		ActionUploadLabReport:      auth.NewRoleSet(auth.RoleLabAttendant),
		ActionGenerateAnalytics:    auth.NewRoleSet(auth.RoleHealthMinistry),
		ActionUploadPrescription:   auth.NewRoleSet(auth.RoleDoctor),
		ActionCreatePrescription:   auth.NewRoleSet(auth.RoleDoctor),
		ActionDispensePrescription: auth.NewRoleSet(auth.RolePharmacy),
		ActionCreateMedicalRecord:  auth.NewRoleSet(auth.RoleDoctor),
		ActionBookAppointment:      auth.NewRoleSet(auth.RolePatient),
		ActionUpdatePatientProfile: auth.NewRoleSet(auth.RolePatient),
		ActionViewHospitalOverview: auth.NewRoleSet(auth.RoleHospitalAdmin),
		ActionViewAuditTrail:       auth.NewRoleSet(auth.RoleHealthMinistry, auth.RoleHospitalAdmin),
	}}
}

// LoadPolicy returns the default policy with the allow-lists found in the
// YAML or JSON file at path applied on top:
//
//	operations:
//	  EMERGENCY_ACCESS: [ambulance, doctor]
//
// Unknown actions and roles are rejected. An empty path returns the
// defaults.
func LoadPolicy(path string) (*Policy, error) {
	p := DefaultPolicy()
	if path == "" {
		return p, nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read policy file %s: %w", path, err)
	}
	// viper lower-cases keys; actions are matched case-insensitively.
	for key, roles := range v.GetStringMapStringSlice("operations") {
		if err := p.Override(strings.ToUpper(key), roles); err != nil {
			return nil, fmt.Errorf("policy file %s: %w", path, err)
		}
	}
	return p, nil
}

// Override replaces the allow-list for a known action.
func (p *Policy) Override(action string, roles []string) error {
	if _, ok := p.rules[action]; !ok {
		return fmt.Errorf("unknown action %q", action)
	}
	if len(roles) == 0 {
		return fmt.Errorf("action %s: empty role list", action)
	}
	set := make(auth.RoleSet, len(roles))
	for _, name := range roles {
		r, err := auth.ParseRole(name)
		if err != nil {
			return fmt.Errorf("action %s: %w", action, err)
		}
		set[r] = struct{}{}
	}
	p.rules[action] = set
	return nil
}

// Allowed returns the allow-list for action.
func (p *Policy) Allowed(action string) (auth.RoleSet, bool) {
	set, ok := p.rules[action]
	return set, ok
}

// Actions returns every action in lexical order.
func (p *Policy) Actions() []string {
	out := make([]string, 0, len(p.rules))
	for a := range p.rules {
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}

package gated

import (
	"github.com/medassist/gateway/pkg/apperr"
)

// deniedMessage is shared by every authorization failure so callers cannot
// tell a missing profile from a wrong role.
const deniedMessage = "caller is not permitted to perform this operation"

// Gate checks a resolved profile against the policy.
type Gate struct {
	policy *Policy
}

func NewGate(policy *Policy) *Gate {
	return &Gate{policy: policy}
}

// Authorize fails closed: a nil profile, an action missing from the policy
// or a role outside the allow-list all yield Unauthorized.
func (g *Gate) Authorize(action string, profile *Profile) error {
	if profile == nil {
		return apperr.Unauthorized(deniedMessage)
	}
	allowed, ok := g.policy.Allowed(action)
	if !ok || !allowed.Has(profile.Role) {
		return apperr.Unauthorized(deniedMessage)
	}
	return nil
}

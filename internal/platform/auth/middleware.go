package auth

import (
	"context"
	"strings"

	"github.com/medassist/gateway/pkg/apperr"
)

// Identity is the authenticated subject returned by a Verifier. It is
// issued by the identity provider and not owned by this service.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
}

// Verifier exchanges a bearer token for an Identity. Implementations must
// return an *apperr.Error of kind Unauthenticated when the token is
// rejected, and DownstreamFailed when the provider cannot be reached.
type Verifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}

// BearerToken extracts the token from an Authorization header value.
// No network call is made here, so a missing header never reaches the
// identity provider.
func BearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", apperr.Unauthenticated(apperr.ReasonMissingHeader, "missing authorization header")
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", apperr.Unauthenticated(apperr.ReasonMalformedHeader, "invalid authorization format")
	}
	return strings.TrimSpace(parts[1]), nil
}

package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/medassist/gateway/internal/platform/backend"
	"github.com/medassist/gateway/pkg/apperr"
)

const introspectPath = "/auth/v1/user"

// IntrospectionVerifier validates tokens by asking the identity provider
// who the bearer is. The user's token replaces the service bearer on the
// request; the apikey header stays the service key.
type IntrospectionVerifier struct {
	client *backend.Client
}

func NewIntrospectionVerifier(client *backend.Client) *IntrospectionVerifier {
	return &IntrospectionVerifier{client: client}
}

func (v *IntrospectionVerifier) Verify(ctx context.Context, token string) (*Identity, error) {
	req, err := v.client.NewRequest(ctx, http.MethodGet, introspectPath, nil, nil)
	if err != nil {
		return nil, apperr.Downstream(err, "identity provider unavailable")
	}
	req.Header.Set("Authorization", "Bearer "+token)

	var ident Identity
	if _, err := v.client.DoJSON(req, &ident); err != nil {
		var se *backend.StatusError
		if errors.As(err, &se) && se.StatusCode < http.StatusInternalServerError {
			return nil, &apperr.Error{
				Kind:    apperr.KindUnauthenticated,
				Reason:  apperr.ReasonInvalidToken,
				Message: "invalid token",
				Err:     errors.Join(ErrInvalidToken, err),
			}
		}
		return nil, apperr.Downstream(err, "identity provider unavailable")
	}
	if ident.ID == "" {
		return nil, &apperr.Error{
			Kind:    apperr.KindUnauthenticated,
			Reason:  apperr.ReasonInvalidToken,
			Message: "invalid token",
			Err:     ErrInvalidToken,
		}
	}
	return &ident, nil
}

package auth

import (
	"context"
	"errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/medassist/gateway/pkg/apperr"
)

// ErrInvalidToken is the cause attached to token verification failures.
var ErrInvalidToken = errors.New("invalid token")

// Claims is the subset of the identity provider's access token we read.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}

type JWTConfig struct {
	Issuer   string
	Audience string
	// SigningKey is the provider's shared HMAC secret.
	SigningKey []byte
}

// JWTVerifier validates HS256 access tokens locally with the provider's
// shared secret instead of a network round trip.
type JWTVerifier struct {
	cfg JWTConfig
}

func NewJWTVerifier(cfg JWTConfig) (*JWTVerifier, error) {
	if len(cfg.SigningKey) == 0 {
		return nil, errors.New("jwt verifier requires a signing key")
	}
	return &JWTVerifier{cfg: cfg}, nil
}

func (v *JWTVerifier) Verify(_ context.Context, token string) (*Identity, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithExpirationRequired(),
	}
	if v.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.cfg.Issuer))
	}
	if v.cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(v.cfg.Audience))
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return v.cfg.SigningKey, nil
	}, opts...)
	if err == nil && !parsed.Valid {
		err = ErrInvalidToken
	}
	if err != nil {
		return nil, &apperr.Error{
			Kind:    apperr.KindUnauthenticated,
			Reason:  apperr.ReasonInvalidToken,
			Message: "invalid token",
			Err:     errors.Join(ErrInvalidToken, err),
		}
	}
	if claims.Subject == "" {
		return nil, &apperr.Error{
			Kind:    apperr.KindUnauthenticated,
			Reason:  apperr.ReasonInvalidToken,
			Message: "token has no subject",
			Err:     ErrInvalidToken,
		}
	}
	return &Identity{ID: claims.Subject, Email: claims.Email}, nil
}

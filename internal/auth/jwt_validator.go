package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

// ErrInvalidToken is returned for tokens that fail signature or claim checks.
var ErrInvalidToken = errors.New("auth: invalid token")

// TokenValidator checks the registered claims of a parsed token.
type TokenValidator struct {
	Issuer    string
	Audience  string
	ClockSkew time.Duration
	Algorithm jwa.SignatureAlgorithm
}

// Validate checks issuer, audience, time bounds and the signing algorithm.
func (v TokenValidator) Validate(tok jwt.Token, algorithm jwa.SignatureAlgorithm, now time.Time) error {
	if tok == nil {
		return errors.New("auth: token is nil")
	}
	if algorithm == "" {
		return errors.New("auth: token missing algorithm")
	}
	if v.Algorithm != "" && algorithm != v.Algorithm {
		return fmt.Errorf("auth: unexpected token algorithm %s", algorithm)
	}

	opts := []jwt.ValidateOption{
		jwt.WithClock(jwt.ClockFunc(func() time.Time { return now })),
	}
	if v.ClockSkew > 0 {
		opts = append(opts, jwt.WithAcceptableSkew(v.ClockSkew))
	}
	if v.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.Issuer))
	}
	if v.Audience != "" {
		opts = append(opts, jwt.WithAudience(v.Audience))
	}
	return jwt.Validate(tok, opts...)
}

// Claims is what the API needs from an access token.
type Claims struct {
	Subject string
	Roles   []string
}

// Verifier checks HS256 access tokens issued by the storefront.
type Verifier struct {
	Secret    []byte
	Validator TokenValidator
	Now       func() time.Time
}

// NewVerifier builds an HS256 verifier for secret.
func NewVerifier(secret, issuer, audience string) *Verifier {
	return &Verifier{
		Secret: []byte(secret),
		Validator: TokenValidator{
			Issuer:    issuer,
			Audience:  audience,
			ClockSkew: 30 * time.Second,
			Algorithm: jwa.HS256,
		},
	}
}

// Verify parses raw, checks its signature and claims, and extracts the
// subject and roles.
func (v *Verifier) Verify(raw string) (Claims, error) {
	if v == nil || len(v.Secret) == 0 {
		return Claims{}, errors.New("auth: verifier not configured")
	}
	tok, err := jwt.Parse([]byte(raw), jwt.WithKey(jwa.HS256, v.Secret), jwt.WithValidate(false))
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	now := time.Now()
	if v.Now != nil {
		now = v.Now()
	}
	if err := v.Validator.Validate(tok, jwa.HS256, now); err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	sub := strings.TrimSpace(tok.Subject())
	if sub == "" {
		return Claims{}, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return Claims{Subject: sub, Roles: rolesOf(tok)}, nil
}

func rolesOf(tok jwt.Token) []string {
	var roles []string
	if v, ok := tok.Get("roles"); ok {
		switch list := v.(type) {
		case []string:
			roles = append(roles, list...)
		case []any:
			for _, item := range list {
				if s, ok := item.(string); ok {
					roles = append(roles, s)
				}
			}
		}
	}
	if v, ok := tok.Get("role"); ok {
		if s, ok := v.(string); ok && s != "" {
			roles = append(roles, s)
		}
	}
	return roles
}

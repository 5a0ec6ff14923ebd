package auth

import (
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/stretchr/testify/require"
)

func TestTokenValidator(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	validator := TokenValidator{Issuer: "campaignbay", Audience: "storefront", ClockSkew: time.Second, Algorithm: jwa.HS256}

	build := func(issuer string, nbf, exp time.Time) jwt.Token {
		tok, err := jwt.NewBuilder().
			Issuer(issuer).
			Audience([]string{"storefront"}).
			Subject("u-1").
			IssuedAt(now).
			NotBefore(nbf).
			Expiration(exp).
			Build()
		require.NoError(t, err)
		return tok
	}

	cases := []struct {
		name    string
		tok     jwt.Token
		alg     jwa.SignatureAlgorithm
		wantErr bool
	}{
		{"valid", build("campaignbay", now, now.Add(time.Minute)), jwa.HS256, false},
		{"issuer mismatch", build("other", now, now.Add(time.Minute)), jwa.HS256, true},
		{"expired", build("campaignbay", now.Add(-2*time.Hour), now.Add(-time.Minute)), jwa.HS256, true},
		{"not yet valid", build("campaignbay", now.Add(5*time.Minute), now.Add(10*time.Minute)), jwa.HS256, true},
		{"algorithm mismatch", build("campaignbay", now, now.Add(time.Minute)), jwa.RS256, true},
		{"missing algorithm", build("campaignbay", now, now.Add(time.Minute)), "", true},
		{"nil token", nil, jwa.HS256, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := validator.Validate(tc.tok, tc.alg, now)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
		})
	}
}

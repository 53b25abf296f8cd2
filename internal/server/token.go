package server

import (
	"fmt"
	"time"

	"lostlink/pkg/types"

	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwt"
)

// signAccessToken issues an HS256 access token for the user.
func (s *Service) signAccessToken(user *types.User, now time.Time) (string, error) {
	token, err := jwt.NewBuilder().
		Issuer(s.config.TokenIssuer).
		Subject(user.ID).
		IssuedAt(now).
		Expiration(now.Add(time.Duration(s.config.TokenTTLMin) * time.Minute)).
		Claim("email", user.Email).
		Claim("name", user.Name).
		Claim("role", string(user.Role)).
		Build()
	if err != nil {
		return "", fmt.Errorf("failed to build access token: %w", err)
	}

	signed, err := jwt.Sign(token, jwt.WithKey(jwa.HS256(), s.signingKey))
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}

	return string(signed), nil
}

func parseAccessToken(signingKey, raw []byte) (jwt.Token, error) {
	return jwt.Parse(
		raw,
		jwt.WithKey(jwa.HS256(), signingKey),
		jwt.WithValidate(true),
	)
}

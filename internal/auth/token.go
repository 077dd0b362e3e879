package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ranjeet229/KnowledgeScout/internal/kerr"
)

// Claims is the bearer token payload: user id and username.
type Claims struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// signToken issues an HS256 token for the user.
func (s *Service) signToken(u *User) (string, error) {
	now := time.Now()
	claims := Claims{
		ID:       u.ID,
		Username: u.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", kerr.Wrap(kerr.CodeInternal, "sign token", err)
	}
	return signed, nil
}

// Verify parses a bearer token and returns its claims.
// Any parse or validation failure yields an error; callers decide
// whether that means rejection or anonymous access.
func (s *Service) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, kerr.Wrap(kerr.CodeInvalidCredentials, "invalid token", err)
	}
	return claims, nil
}

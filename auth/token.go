// Package auth validates the identity tokens presented by clients in the
// WebSocket handshake. Tokens are issued by the diary API at login; this
// service only verifies them. Connections without a valid token are
// admitted as anonymous guests, matching the app's anonymous chat mode.
package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	apperrors "moodmatch/errors"
)

// IdentityClaims is the subset of the diary API's token payload this
// service cares about.
type IdentityClaims struct {
	UserID   string `json:"user_id"`
	Nickname string `json:"nickname"`
	jwt.RegisteredClaims
}

type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) Verifier {
	return Verifier{secret: []byte(secret)}
}

// Verify parses and validates the signature and expiration of a token.
func (v Verifier) Verify(tokenString string) (*IdentityClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &IdentityClaims{}, func(token *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*IdentityClaims)
	if !ok || !token.Valid {
		return nil, apperrors.ErrInvalidToken
	}
	return claims, nil
}

// Issue creates a signed token for a user. The server itself only needs
// this for the load tester and tests; production tokens come from the
// diary API with the same secret.
func (v Verifier) Issue(userID, nickname string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &IdentityClaims{
		UserID:   userID,
		Nickname: nickname,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "moodmatch",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(v.secret)
}

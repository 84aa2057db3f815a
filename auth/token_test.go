package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestVerifier_IssueAndVerify(t *testing.T) {
	req := require.New(t)
	verifier := NewVerifier("unit-test-secret")

	// Given a token issued for a known user
	token, err := verifier.Issue("user-42", "Mellow", time.Minute)
	req.NoError(err)

	// When the token is verified
	claims, err := verifier.Verify(token)

	// Then the identity is recovered
	req.NoError(err)
	req.Equal("user-42", claims.UserID)
	req.Equal("Mellow", claims.Nickname)
}

func TestVerifier_RejectsExpiredToken(t *testing.T) {
	req := require.New(t)
	verifier := NewVerifier("unit-test-secret")

	token, err := verifier.Issue("user-42", "Mellow", -time.Minute)
	req.NoError(err)

	_, err = verifier.Verify(token)
	req.Error(err)
}

func TestVerifier_RejectsForeignSecret(t *testing.T) {
	req := require.New(t)
	token, err := NewVerifier("secret-a").Issue("user-42", "Mellow", time.Minute)
	req.NoError(err)

	_, err = NewVerifier("secret-b").Verify(token)
	req.Error(err)
}

// Package pkce generates the Proof Key for Code Exchange parameters used by
// the interactive authorization-code flow.
package pkce

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"golang.org/x/oauth2"
)

const (
	// VerifierLength is the number of characters in a code verifier.
	// RFC 7636 allows 43-128; the authority expects the maximum.
	VerifierLength = 128

	// StateLength is the number of characters in the CSRF state nonce.
	StateLength = 32

	// MethodS256 is the only challenge method sent to the authority.
	MethodS256 = "S256"

	// alphabet is the RFC 7636 unreserved character set.
	alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-._~"
)

// Pair holds a freshly generated verifier and its S256 challenge.
type Pair struct {
	Verifier  string
	Challenge string
	Method    string
}

// NewPair generates a verifier and derives its challenge.
func NewPair() (*Pair, error) {
	verifier, err := GenerateVerifier()
	if err != nil {
		return nil, err
	}
	return &Pair{
		Verifier:  verifier,
		Challenge: DeriveChallenge(verifier),
		Method:    MethodS256,
	}, nil
}

// GenerateVerifier returns a 128 character verifier drawn uniformly from the
// unreserved alphabet. A new verifier must be generated for every attempt.
func GenerateVerifier() (string, error) {
	v, err := randomString(VerifierLength)
	if err != nil {
		return "", fmt.Errorf("failed to generate PKCE verifier: %w", err)
	}
	return v, nil
}

// DeriveChallenge returns base64url(sha256(verifier)) without padding.
// The result is always 43 characters.
func DeriveChallenge(verifier string) string {
	return oauth2.S256ChallengeFromVerifier(verifier)
}

// GenerateState returns a 32 character nonce for the authorization request's
// state parameter.
func GenerateState() (string, error) {
	s, err := randomString(StateLength)
	if err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}
	return s, nil
}

// randomString draws n characters from alphabet using crypto/rand.
// rand.Int rejects out-of-range samples, so every character is equally likely.
func randomString(n int) (string, error) {
	max := big.NewInt(int64(len(alphabet)))
	out := make([]byte, n)
	for i := range out {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = alphabet[idx.Int64()]
	}
	return string(out), nil
}

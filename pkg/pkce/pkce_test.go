package pkce

import (
	"crypto/sha256"
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateVerifier(t *testing.T) {
	verifier, err := GenerateVerifier()
	require.NoError(t, err)

	assert.Len(t, verifier, VerifierLength)
	for _, r := range verifier {
		assert.True(t, strings.ContainsRune(alphabet, r), "unexpected character %q", r)
	}
}

func TestGenerateVerifier_Uniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		v, err := GenerateVerifier()
		require.NoError(t, err)
		require.False(t, seen[v], "generated duplicate verifier")
		seen[v] = true
	}
}

func TestDeriveChallenge(t *testing.T) {
	verifier, err := GenerateVerifier()
	require.NoError(t, err)

	challenge := DeriveChallenge(verifier)

	hash := sha256.Sum256([]byte(verifier))
	assert.Equal(t, base64.RawURLEncoding.EncodeToString(hash[:]), challenge)
	assert.Len(t, challenge, 43)
	assert.NotContains(t, challenge, "=")
	assert.NotContains(t, challenge, "+")
	assert.NotContains(t, challenge, "/")

	// deterministic
	assert.Equal(t, challenge, DeriveChallenge(verifier))
}

func TestDeriveChallenge_KnownVector(t *testing.T) {
	// RFC 7636 appendix B
	verifier := "dBjftJeZ4CVP-mB92K27uhbUJU1p1r_wW1gFWFOEjXk"
	assert.Equal(t, "E9Melhoa2OwvFrEMTJguCHaoeK1t8URWbuGJSstw-cM", DeriveChallenge(verifier))
}

func TestGenerateState(t *testing.T) {
	state, err := GenerateState()
	require.NoError(t, err)
	assert.Len(t, state, StateLength)

	other, err := GenerateState()
	require.NoError(t, err)
	assert.NotEqual(t, state, other)
}

func TestNewPair(t *testing.T) {
	pair, err := NewPair()
	require.NoError(t, err)

	assert.Equal(t, MethodS256, pair.Method)
	assert.Equal(t, DeriveChallenge(pair.Verifier), pair.Challenge)
}

package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// RefreshWindow is how long before expiry a token is considered due for refresh.
const RefreshWindow = 5 * time.Minute

// ErrInvalidExpiry is returned when a token pair carries a non-positive lifetime.
var ErrInvalidExpiry = errors.New("token expires_in must be positive")

// TokenPair is an access/refresh token pair issued by the authority.
// A TokenPair is treated as immutable: a refresh produces a new value
// instead of modifying the existing one.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	TokenType    string

	// IssuedAt is the authority's issue time (created_at), not the time the
	// client received the response.
	IssuedAt time.Time

	// ExpiresIn is the access token lifetime in seconds.
	ExpiresIn int
}

// NewTokenPair builds a TokenPair and validates its lifetime.
// IssuedAt is truncated to whole seconds, matching the wire precision.
func NewTokenPair(accessToken, refreshToken, tokenType string, issuedAt time.Time, expiresIn int) (TokenPair, error) {
	tp := TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    tokenType,
		IssuedAt:     time.Unix(issuedAt.Unix(), 0).UTC(),
		ExpiresIn:    expiresIn,
	}
	if err := tp.Validate(); err != nil {
		return TokenPair{}, err
	}
	return tp, nil
}

// Validate checks the invariants of a token pair.
func (t TokenPair) Validate() error {
	if t.AccessToken == "" {
		return errors.New("access token is empty")
	}
	if t.ExpiresIn <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidExpiry, t.ExpiresIn)
	}
	return nil
}

// ExpiresAt returns IssuedAt + ExpiresIn.
func (t TokenPair) ExpiresAt() time.Time {
	return t.IssuedAt.Add(time.Duration(t.ExpiresIn) * time.Second)
}

// IsExpired reports whether the access token is no longer valid at now.
func (t TokenPair) IsExpired(now time.Time) bool {
	return !now.Before(t.ExpiresAt())
}

// NeedsRefresh reports whether now is within RefreshWindow of expiry.
func (t TokenPair) NeedsRefresh(now time.Time) bool {
	return !now.Before(t.ExpiresAt().Add(-RefreshWindow))
}

// BearerHeader returns the Authorization header value for this token.
func (t TokenPair) BearerHeader() string {
	return "Bearer " + t.AccessToken
}

// String redacts the token material so a TokenPair can be logged safely.
func (t TokenPair) String() string {
	return fmt.Sprintf("TokenPair{type=%s, issued_at=%s, expires_in=%d, access=[REDACTED]}",
		t.TokenType, t.IssuedAt.Format(time.RFC3339), t.ExpiresIn)
}

// GoString implements fmt.GoStringer so %#v does not leak tokens either.
func (t TokenPair) GoString() string {
	return "auth." + t.String()
}

// tokenPairJSON is the persisted and wire form of a token pair.
type tokenPairJSON struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	CreatedAt    int64  `json:"created_at"`
}

// MarshalJSON encodes the token pair using the authority's field names,
// with created_at as unix seconds.
func (t TokenPair) MarshalJSON() ([]byte, error) {
	return json.Marshal(tokenPairJSON{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		TokenType:    t.TokenType,
		ExpiresIn:    t.ExpiresIn,
		CreatedAt:    t.IssuedAt.Unix(),
	})
}

// UnmarshalJSON decodes the form written by MarshalJSON.
func (t *TokenPair) UnmarshalJSON(data []byte) error {
	var raw tokenPairJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*t = TokenPair{
		AccessToken:  raw.AccessToken,
		RefreshToken: raw.RefreshToken,
		TokenType:    raw.TokenType,
		IssuedAt:     time.Unix(raw.CreatedAt, 0).UTC(),
		ExpiresIn:    raw.ExpiresIn,
	}
	return nil
}

package auth

import "time"

// StatusResponse is the structured view of the session shown by
// `maybe auth status --json` and the status table.
type StatusResponse struct {
	State         string     `json:"state"`
	Authenticated bool       `json:"authenticated"`
	User          string     `json:"user,omitempty"`
	Email         string     `json:"email,omitempty"`
	TokenType     string     `json:"token_type,omitempty"`
	IssuedAt      *time.Time `json:"issued_at,omitempty"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
	NeedsRefresh  bool       `json:"needs_refresh"`
	HasRefresh    bool       `json:"has_refresh_token"`
	Storage       string     `json:"storage"`
}

// NewStatusResponse builds a StatusResponse from a session snapshot.
func NewStatusResponse(s Session, now time.Time, storage string) StatusResponse {
	resp := StatusResponse{
		State:         s.State.String(),
		Authenticated: s.State == StateAuthenticated,
		Storage:       storage,
	}
	if s.User != nil {
		resp.User = s.User.DisplayName()
		resp.Email = s.User.Email
	}
	if s.Tokens != nil {
		issued := s.Tokens.IssuedAt
		expires := s.Tokens.ExpiresAt()
		resp.TokenType = s.Tokens.TokenType
		resp.IssuedAt = &issued
		resp.ExpiresAt = &expires
		resp.NeedsRefresh = s.Tokens.NeedsRefresh(now)
		resp.HasRefresh = s.Tokens.RefreshToken != ""
	}
	return resp
}

package authflow

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"maybe/pkg/apierror"
	"maybe/pkg/auth"
	"maybe/pkg/logging"
)

// SignupParams are the account fields sent on signup.
type SignupParams struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

type loginRequest struct {
	Email    string          `json:"email"`
	Password string          `json:"password"`
	Device   auth.DeviceInfo `json:"device"`
	OTPCode  string          `json:"otp_code,omitempty"`
}

type signupUser struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type signupRequest struct {
	User   signupUser      `json:"user"`
	Device auth.DeviceInfo `json:"device"`
}

type refreshRequest struct {
	RefreshToken string          `json:"refresh_token"`
	Device       auth.DeviceInfo `json:"device"`
}

// tokenResponse is the body of a successful /auth/* call.
type tokenResponse struct {
	AccessToken  string            `json:"access_token"`
	RefreshToken string            `json:"refresh_token"`
	TokenType    string            `json:"token_type"`
	ExpiresIn    int               `json:"expires_in"`
	CreatedAt    int64             `json:"created_at"`
	User         *auth.UserProfile `json:"user,omitempty"`
}

// PasswordLogin exchanges email and password for a token pair. otp is the
// one-time code and may be empty on the first attempt.
func (o *Orchestrator) PasswordLogin(ctx context.Context, email, password string, device auth.DeviceInfo, otp string) auth.AuthResult {
	return o.credentialGrant(ctx, "/auth/login", loginRequest{
		Email:    email,
		Password: password,
		Device:   device,
		OTPCode:  otp,
	})
}

// Signup creates an account and signs in to it.
func (o *Orchestrator) Signup(ctx context.Context, params SignupParams, device auth.DeviceInfo) auth.AuthResult {
	return o.credentialGrant(ctx, "/auth/signup", signupRequest{
		User: signupUser{
			Email:     params.Email,
			Password:  params.Password,
			FirstName: params.FirstName,
			LastName:  params.LastName,
		},
		Device: device,
	})
}

func (o *Orchestrator) credentialGrant(ctx context.Context, path string, body interface{}) auth.AuthResult {
	status, respBody, err := o.postJSON(ctx, path, body)
	if err != nil {
		return auth.Failure(err)
	}

	if apiErr := apierror.Classify(status, respBody); apiErr != nil {
		if errors.Is(apiErr, apierror.ErrMfaRequired) {
			logging.Info("AuthFlow", "Authority requested a one-time code")
			return auth.MfaRequired()
		}
		return auth.Failure(apiErr)
	}

	resp, err := o.decodeTokenResponse(respBody)
	if err != nil {
		return auth.Failure(err)
	}
	if resp.User == nil {
		return auth.Failure(apierror.New(apierror.KindInvalidResponse, "response is missing the user"))
	}

	tp, err := o.tokenPair(resp)
	if err != nil {
		return auth.Failure(err)
	}
	return auth.Success(tp, *resp.User)
}

// Refresh exchanges refreshToken for a new pair. Any non-success answer
// is returned as an error; the caller decides what a failed refresh means.
// When the authority does not rotate the refresh token the old one is kept.
func (o *Orchestrator) Refresh(ctx context.Context, refreshToken string, device auth.DeviceInfo) (*auth.TokenPair, error) {
	if refreshToken == "" {
		return nil, apierror.New(apierror.KindTokenExpired, "no refresh token")
	}

	status, respBody, err := o.postJSON(ctx, "/auth/refresh", refreshRequest{RefreshToken: refreshToken, Device: device})
	if err != nil {
		return nil, err
	}
	if apiErr := apierror.Classify(status, respBody); apiErr != nil {
		return nil, apiErr
	}

	resp, err := o.decodeTokenResponse(respBody)
	if err != nil {
		return nil, err
	}
	if resp.RefreshToken == "" {
		resp.RefreshToken = refreshToken
	}
	tp, err := o.tokenPair(resp)
	if err != nil {
		return nil, err
	}
	return &tp, nil
}

// Revoke asks the authority to invalidate accessToken. Failures are logged
// and otherwise ignored.
func (o *Orchestrator) Revoke(ctx context.Context, accessToken string) {
	if accessToken == "" || o.cfg.RevokeEndpoint == "" {
		return
	}

	form := url.Values{
		"token":     {accessToken},
		"client_id": {o.cfg.ClientID},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.cfg.RevokeEndpoint, strings.NewReader(form.Encode()))
	if err != nil {
		logging.Warn("AuthFlow", "Failed to build revoke request: %v", err)
		return
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := o.cfg.HTTPClient.Do(req)
	if err != nil {
		logging.Warn("AuthFlow", "Token revocation failed: %v", err)
		return
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		logging.Warn("AuthFlow", "Token revocation returned HTTP %d", resp.StatusCode)
		return
	}
	logging.Debug("AuthFlow", "Access token revoked")
}

func (o *Orchestrator) postJSON(ctx context.Context, path string, body interface{}) (int, []byte, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to encode request: %w", err)
	}

	endpoint := strings.TrimRight(o.cfg.APIBaseURL, "/") + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return 0, nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := o.cfg.HTTPClient.Do(req)
	if err != nil {
		return 0, nil, apierror.NetworkError(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, apierror.NetworkError(err)
	}
	logging.Debug("AuthFlow", "POST %s -> %d (%s)", path, resp.StatusCode, time.Since(start).Round(time.Millisecond))
	return resp.StatusCode, respBody, nil
}

func (o *Orchestrator) decodeTokenResponse(body []byte) (*tokenResponse, error) {
	var resp tokenResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, apierror.Wrap(apierror.KindInvalidResponse, err)
	}
	return &resp, nil
}

func (o *Orchestrator) tokenPair(resp *tokenResponse) (auth.TokenPair, error) {
	issuedAt := o.cfg.Now()
	if resp.CreatedAt > 0 {
		issuedAt = time.Unix(resp.CreatedAt, 0)
	}
	tp, err := auth.NewTokenPair(resp.AccessToken, resp.RefreshToken, resp.TokenType, issuedAt, resp.ExpiresIn)
	if err != nil {
		return auth.TokenPair{}, apierror.Wrap(apierror.KindInvalidResponse, err)
	}
	return tp, nil
}

package authflow

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/oauth2"

	"maybe/pkg/apierror"
	"maybe/pkg/auth"
	"maybe/pkg/logging"
	"maybe/pkg/pkce"
)

// ErrFlowInProgress is returned when an interactive login is started
// while another is still waiting for the user.
var ErrFlowInProgress = errors.New("an interactive login is already in progress")

// errFlowCancelled is the cancellation cause set by CancelInteractive.
var errFlowCancelled = errors.New("interactive login cancelled")

// Orchestrator runs the client side of every authentication grant.
type Orchestrator struct {
	cfg Config

	mu      sync.Mutex
	pending context.CancelCauseFunc
}

// New creates an Orchestrator.
func New(cfg Config) (*Orchestrator, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid auth flow configuration: %w", err)
	}
	cfg.setDefaults()
	return &Orchestrator{cfg: cfg}, nil
}

// BeginInteractiveLogin runs one authorization-code + PKCE attempt and
// returns the issued token pair. A fresh verifier and state are generated
// for every attempt.
func (o *Orchestrator) BeginInteractiveLogin(ctx context.Context, scopes []string) (*auth.TokenPair, error) {
	if o.cfg.UserAgent == nil {
		return nil, errors.New("no user agent configured for interactive login")
	}

	flowCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	o.mu.Lock()
	if o.pending != nil {
		o.mu.Unlock()
		return nil, ErrFlowInProgress
	}
	o.pending = cancel
	o.mu.Unlock()

	defer func() {
		o.mu.Lock()
		o.pending = nil
		o.mu.Unlock()
	}()

	flowCtx, cancelTimeout := context.WithTimeout(flowCtx, o.cfg.CallbackTimeout)
	defer cancelTimeout()

	pair, err := pkce.NewPair()
	if err != nil {
		return nil, fmt.Errorf("failed to generate PKCE: %w", err)
	}
	state, err := pkce.GenerateState()
	if err != nil {
		return nil, fmt.Errorf("failed to generate state: %w", err)
	}

	conf := o.oauthConfig(scopes)
	authURL := conf.AuthCodeURL(state, oauth2.S256ChallengeOption(pair.Verifier))

	logging.Info("AuthFlow", "Starting interactive login (scopes: %v)", conf.Scopes)

	redirect, err := o.cfg.UserAgent.Authorize(flowCtx, authURL)
	if err != nil {
		return nil, o.userAgentError(flowCtx, err)
	}

	code, err := parseCallback(redirect, state)
	if err != nil {
		logging.Warn("AuthFlow", "Rejected authorization callback: %v", err)
		return nil, err
	}

	tokens, err := o.exchange(flowCtx, conf, code, pair.Verifier)
	if err != nil {
		logging.Warn("AuthFlow", "Token exchange failed: %v", err)
		return nil, err
	}

	logging.Info("AuthFlow", "Interactive login successful")
	return tokens, nil
}

// CancelInteractive aborts the pending interactive login, if any. The
// waiting caller receives a UserCancelled error.
func (o *Orchestrator) CancelInteractive() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.pending == nil {
		return false
	}
	o.pending(errFlowCancelled)
	return true
}

// InteractivePending reports whether an interactive login is waiting.
func (o *Orchestrator) InteractivePending() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.pending != nil
}

func (o *Orchestrator) oauthConfig(scopes []string) *oauth2.Config {
	if len(scopes) == 0 {
		scopes = o.cfg.Scopes
	}
	return &oauth2.Config{
		ClientID:    o.cfg.ClientID,
		RedirectURL: o.cfg.RedirectURI,
		Scopes:      scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:   o.cfg.AuthorizationEndpoint,
			TokenURL:  o.cfg.TokenEndpoint,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}

func (o *Orchestrator) userAgentError(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, ErrUserCancelled):
		return apierror.UserCancelled(err)
	case errors.Is(context.Cause(ctx), errFlowCancelled):
		return apierror.UserCancelled(errFlowCancelled)
	case errors.Is(err, context.DeadlineExceeded):
		return apierror.UserCancelled(fmt.Errorf("no response within %s", o.cfg.CallbackTimeout))
	case errors.Is(err, context.Canceled):
		return apierror.UserCancelled(err)
	default:
		return fmt.Errorf("user agent failed: %w", err)
	}
}

// parseCallback extracts the authorization code from the redirect and
// checks that state round-tripped unchanged.
func parseCallback(redirect *url.URL, expectedState string) (string, error) {
	if redirect == nil {
		return "", apierror.InvalidCallback("empty redirect")
	}
	q := redirect.Query()

	if e := q.Get("error"); e != "" {
		if e == "access_denied" {
			return "", apierror.UserCancelled(errors.New("authorization denied by user"))
		}
		msg := e
		if desc := q.Get("error_description"); desc != "" {
			msg = e + ": " + desc
		}
		return "", apierror.ServerError(0, msg)
	}

	code := q.Get("code")
	if code == "" {
		return "", apierror.InvalidCallback("missing authorization code")
	}

	if q.Get("state") != expectedState {
		logging.Warn("AuthFlow", "OAuth state mismatch (expected %d chars, got %d)", len(expectedState), len(q.Get("state")))
		return "", apierror.InvalidCallback("state mismatch")
	}
	return code, nil
}

func (o *Orchestrator) exchange(ctx context.Context, conf *oauth2.Config, code, verifier string) (*auth.TokenPair, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, o.cfg.HTTPClient)

	tok, err := conf.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, exchangeError(err)
	}
	return o.tokenPairFromOAuth2(tok)
}

func exchangeError(err error) error {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) {
		status := 0
		if re.Response != nil {
			status = re.Response.StatusCode
		}
		msg := re.ErrorCode
		if msg == "" {
			msg = gjson.GetBytes(re.Body, "error").String()
		}
		if msg == "" {
			msg = fmt.Sprintf("HTTP %d", status)
		}
		return apierror.ServerError(status, msg)
	}
	var ue *url.Error
	if errors.As(err, &ue) {
		return apierror.NetworkError(err)
	}
	return apierror.Wrap(apierror.KindInvalidResponse, err)
}

func (o *Orchestrator) tokenPairFromOAuth2(tok *oauth2.Token) (*auth.TokenPair, error) {
	expiresIn, ok := extraInt(tok.Extra("expires_in"))
	if !ok && !tok.Expiry.IsZero() {
		expiresIn = int64(time.Until(tok.Expiry).Round(time.Second) / time.Second)
	}

	issuedAt := o.cfg.Now()
	if created, ok := extraInt(tok.Extra("created_at")); ok && created > 0 {
		issuedAt = time.Unix(created, 0)
	}

	tp, err := auth.NewTokenPair(tok.AccessToken, tok.RefreshToken, tok.TokenType, issuedAt, int(expiresIn))
	if err != nil {
		return nil, apierror.Wrap(apierror.KindInvalidResponse, err)
	}
	return &tp, nil
}

// extraInt reads a numeric token response field regardless of how the
// decoder represented it.
func extraInt(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case float64:
		return int64(n), true
	case int64:
		return n, true
	case int:
		return int64(n), true
	case string:
		if i, err := strconv.ParseInt(n, 10, 64); err == nil {
			return i, true
		}
	}
	return 0, false
}

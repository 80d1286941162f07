package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"maybe/internal/authflow"
	"maybe/internal/credstore"
	"maybe/pkg/apierror"
	"maybe/pkg/auth"
	"maybe/pkg/logging"
)

// DefaultRefreshTimeout bounds background refreshes and revokes.
const DefaultRefreshTimeout = 15 * time.Second

// subscriberBuffer is the channel capacity of each Subscribe channel.
const subscriberBuffer = 8

// refreshKey is the single-flight key shared by every refresh.
const refreshKey = "refresh"

// Flow is the part of the auth flow orchestrator the manager drives.
type Flow interface {
	BeginInteractiveLogin(ctx context.Context, scopes []string) (*auth.TokenPair, error)
	CancelInteractive() bool
	PasswordLogin(ctx context.Context, email, password string, device auth.DeviceInfo, otp string) auth.AuthResult
	Signup(ctx context.Context, params authflow.SignupParams, device auth.DeviceInfo) auth.AuthResult
	Refresh(ctx context.Context, refreshToken string, device auth.DeviceInfo) (*auth.TokenPair, error)
	Revoke(ctx context.Context, accessToken string)
}

// DeviceSource supplies the device description sent with every grant.
type DeviceSource interface {
	Info() (auth.DeviceInfo, error)
}

// Config configures a Manager.
type Config struct {
	Flow   Flow
	Vault  *credstore.Vault
	Device DeviceSource

	// Now defaults to time.Now.
	Now func() time.Time

	// RefreshTimeout bounds background refreshes and revokes. Defaults to
	// DefaultRefreshTimeout.
	RefreshTimeout time.Duration
}

// Manager is the single source of truth for the session.
type Manager struct {
	cfg Config

	// persistMu serializes vault writes with the transition they belong to,
	// so a refresh cannot persist tokens after a logout cleared them.
	persistMu sync.Mutex

	mu      sync.RWMutex
	state   auth.SessionState
	tokens  *auth.TokenPair
	user    *auth.UserProfile
	lastErr error

	refreshGroup singleflight.Group

	subsMu sync.Mutex
	subs   []chan auth.SessionState
	closed bool

	bgCtx    context.Context
	bgCancel context.CancelFunc
	wg       sync.WaitGroup
}

// NewManager creates a Manager in the Unauthenticated state. Call
// Bootstrap before use and Shutdown when done.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.Flow == nil {
		return nil, errors.New("session: flow is required")
	}
	if cfg.Vault == nil {
		return nil, errors.New("session: vault is required")
	}
	if cfg.Device == nil {
		return nil, errors.New("session: device source is required")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.RefreshTimeout <= 0 {
		cfg.RefreshTimeout = DefaultRefreshTimeout
	}

	bgCtx, bgCancel := context.WithCancel(context.Background())
	return &Manager{
		cfg:      cfg,
		state:    auth.StateUnauthenticated,
		bgCtx:    bgCtx,
		bgCancel: bgCancel,
	}, nil
}

// Bootstrap loads the persisted session. An expired token pair is
// discarded and the vault cleared. A token close to expiry is refreshed in
// the background; Bootstrap does not wait for it.
func (m *Manager) Bootstrap(ctx context.Context) error {
	if ran, err := m.cfg.Vault.ClearLegacy(); err != nil {
		logging.Warn("Session", "Legacy credential cleanup failed: %v", err)
	} else if ran {
		logging.Info("Session", "Removed credentials left by an earlier release")
	}

	m.persistMu.Lock()
	defer m.persistMu.Unlock()

	tokens := m.cfg.Vault.LoadTokens()
	user := m.cfg.Vault.LoadUser()
	now := m.cfg.Now()

	switch {
	case tokens == nil:
		logging.Debug("Session", "No stored session")
		m.setState(auth.StateUnauthenticated, nil, nil, nil)
		return nil

	case tokens.IsExpired(now):
		logging.Info("Session", "Stored session expired at %s, clearing it", tokens.ExpiresAt().Format(time.RFC3339))
		m.setState(auth.StateUnauthenticated, nil, nil, nil)
		if err := m.cfg.Vault.Clear(); err != nil {
			logging.Warn("Session", "Failed to clear expired session: %v", err)
		}
		return nil
	}

	m.setState(auth.StateAuthenticated, tokens, user, nil)
	logging.Info("Session", "Restored session (expires %s)", tokens.ExpiresAt().Format(time.RFC3339))

	if tokens.NeedsRefresh(now) {
		m.goBackground(func() {
			if _, err := m.refresh(m.bgCtx, false); err != nil {
				logging.Warn("Session", "Background refresh failed: %v", err)
			}
		})
	}
	return nil
}

// Shutdown cancels background refreshes, waits for background work to
// finish and closes every Subscribe channel.
func (m *Manager) Shutdown() {
	m.bgCancel()
	m.wg.Wait()

	m.subsMu.Lock()
	defer m.subsMu.Unlock()
	if m.closed {
		return
	}
	m.closed = true
	for _, ch := range m.subs {
		close(ch)
	}
	m.subs = nil
}

// Login signs in with email and password. otp carries the one-time code
// after the authority asked for one. An MFA challenge is reported as the
// MfaPending state with a nil error.
func (m *Manager) Login(ctx context.Context, email, password, otp string) (auth.SessionState, error) {
	device, err := m.cfg.Device.Info()
	if err != nil {
		return m.fail(fmt.Errorf("failed to describe device: %w", err), otp)
	}
	return m.handleResult(m.cfg.Flow.PasswordLogin(ctx, email, password, device, otp), otp)
}

// Signup creates an account and signs in to it.
func (m *Manager) Signup(ctx context.Context, params authflow.SignupParams) (auth.SessionState, error) {
	device, err := m.cfg.Device.Info()
	if err != nil {
		return m.fail(fmt.Errorf("failed to describe device: %w", err), "")
	}
	return m.handleResult(m.cfg.Flow.Signup(ctx, params, device), "")
}

// LoginInteractive runs the browser-based PKCE login. The token response
// carries no profile, so a previously stored profile is kept.
func (m *Manager) LoginInteractive(ctx context.Context, scopes []string) error {
	tokens, err := m.cfg.Flow.BeginInteractiveLogin(ctx, scopes)
	if err != nil {
		if errors.Is(err, authflow.ErrFlowInProgress) {
			return err
		}
		_, err = m.fail(err, "")
		return err
	}

	user := m.User()
	if user == nil {
		user = m.cfg.Vault.LoadUser()
	}
	m.establish(*tokens, user, false)
	return nil
}

// EnsureFreshToken returns a usable access token, refreshing first when it
// is close to expiry. Concurrent callers share one refresh. A failed
// refresh logs the session out and returns a TokenExpired error.
func (m *Manager) EnsureFreshToken(ctx context.Context) (string, error) {
	m.mu.RLock()
	state, tokens := m.state, m.tokens
	m.mu.RUnlock()

	if state != auth.StateAuthenticated || tokens == nil {
		return "", apierror.NotAuthenticated()
	}
	if !tokens.NeedsRefresh(m.cfg.Now()) {
		return tokens.AccessToken, nil
	}

	fresh, err := m.refresh(ctx, false)
	if err != nil {
		return "", err
	}
	return fresh.AccessToken, nil
}

// ForceRefresh refreshes the token pair regardless of its expiry.
func (m *Manager) ForceRefresh(ctx context.Context) (*auth.TokenPair, error) {
	return m.refresh(ctx, true)
}

// Logout cancels any pending interactive login, clears the vault, drops
// the in-memory session and revokes the access token in the background.
func (m *Manager) Logout(ctx context.Context) error {
	if m.cfg.Flow.CancelInteractive() {
		logging.Debug("Session", "Cancelled pending interactive login")
	}
	return m.logout(nil)
}

// CurrentAccessToken returns the held access token without refreshing.
func (m *Manager) CurrentAccessToken() (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.state != auth.StateAuthenticated || m.tokens == nil {
		return "", false
	}
	return m.tokens.AccessToken, true
}

// Snapshot returns a copy of the current session.
func (m *Manager) Snapshot() auth.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := auth.Session{State: m.state}
	if m.tokens != nil {
		t := *m.tokens
		s.Tokens = &t
	}
	if m.user != nil {
		u := *m.user
		s.User = &u
	}
	return s
}

// State returns the current session state.
func (m *Manager) State() auth.SessionState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// User returns a copy of the signed-in user, or nil.
func (m *Manager) User() *auth.UserProfile {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.user == nil {
		return nil
	}
	u := *m.user
	return &u
}

// LastError returns the error of the last failed operation. It is nil
// after a success, an MFA challenge or a logout.
func (m *Manager) LastError() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastErr
}

// Subscribe returns a channel receiving every state transition. Sends
// never block: a subscriber that falls behind misses transitions. The
// channel is closed by Shutdown.
func (m *Manager) Subscribe() <-chan auth.SessionState {
	ch := make(chan auth.SessionState, subscriberBuffer)

	m.subsMu.Lock()
	defer m.subsMu.Unlock()
	if m.closed {
		close(ch)
		return ch
	}
	m.subs = append(m.subs, ch)
	return ch
}

// Reload re-reads the vault after another process changed it. It only
// updates memory: nothing is revoked or cleared.
func (m *Manager) Reload() {
	m.persistMu.Lock()
	defer m.persistMu.Unlock()

	tokens := m.cfg.Vault.LoadTokens()
	switch {
	case tokens != nil && !tokens.IsExpired(m.cfg.Now()):
		m.setState(auth.StateAuthenticated, tokens, m.cfg.Vault.LoadUser(), nil)
		logging.Debug("Session", "Reloaded session from storage")
	case m.State() == auth.StateAuthenticated:
		m.setState(auth.StateUnauthenticated, nil, nil, nil)
		logging.Info("Session", "Session was removed by another process")
	}
}

// handleResult applies a login or signup result to the state machine.
func (m *Manager) handleResult(res auth.AuthResult, otp string) (auth.SessionState, error) {
	switch res.Outcome {
	case auth.OutcomeSuccess:
		user := res.User
		m.establish(res.Tokens, &user, true)
		logging.Info("Session", "Signed in as %s", user.Email)
		return auth.StateAuthenticated, nil

	case auth.OutcomeMfaRequired:
		// The code step replaces any session held so far, on disk too.
		if _, err := m.dropSession(auth.StateMfaPending, nil, nil); err != nil {
			logging.Warn("Session", "Failed to clear stored session: %v", err)
		}
		return auth.StateMfaPending, nil

	default:
		err := res.Err
		if err == nil {
			err = apierror.New(apierror.KindUnknown, "login failed")
		}
		return m.fail(err, otp)
	}
}

// fail records err and applies the failure transition. A failed code
// entry keeps MfaPending so the user can retry the code; an existing
// session is left untouched by a failed sign-in attempt.
func (m *Manager) fail(err error, otp string) (auth.SessionState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	next := auth.StateUnauthenticated
	switch {
	case m.state == auth.StateAuthenticated:
		next = auth.StateAuthenticated
	case m.state == auth.StateMfaPending && otp != "" &&
		(errors.Is(err, apierror.ErrInvalidCredentials) || errors.Is(err, apierror.ErrMfaRequired)):
		next = auth.StateMfaPending
	}

	logging.Warn("Session", "Sign-in failed: %v", err)
	if next == auth.StateAuthenticated {
		m.lastErr = err
	} else {
		m.setStateLocked(next, nil, nil, err)
	}
	return next, err
}

// establish persists tokens (and user when saveUser is set) and enters
// the Authenticated state. A persistence failure keeps the in-memory
// session; the next process start will be signed out.
func (m *Manager) establish(tokens auth.TokenPair, user *auth.UserProfile, saveUser bool) {
	m.persistMu.Lock()
	defer m.persistMu.Unlock()

	if err := m.cfg.Vault.SaveTokens(tokens); err != nil {
		logging.Error("Session", err, "Failed to persist tokens; session will not survive a restart")
	}
	if saveUser && user != nil {
		if err := m.cfg.Vault.SaveUser(*user); err != nil {
			logging.Warn("Session", "Failed to persist user profile: %v", err)
		}
	}
	m.setState(auth.StateAuthenticated, &tokens, user, nil)
}

// refresh runs a single-flight refresh. The shared work runs on the
// manager's background context so one caller giving up does not cancel
// it for the others.
func (m *Manager) refresh(ctx context.Context, force bool) (*auth.TokenPair, error) {
	ch := m.refreshGroup.DoChan(refreshKey, func() (interface{}, error) {
		rctx, cancel := context.WithTimeout(m.bgCtx, m.cfg.RefreshTimeout)
		defer cancel()
		return m.doRefresh(rctx, force)
	})

	select {
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		return r.Val.(*auth.TokenPair), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// doRefresh refreshes the pair held when it starts. A result arriving
// after the session changed (logout, another sign-in, Reload) is dropped
// and the current session is left alone.
func (m *Manager) doRefresh(ctx context.Context, force bool) (*auth.TokenPair, error) {
	m.mu.RLock()
	state, current := m.state, m.tokens
	m.mu.RUnlock()

	if state != auth.StateAuthenticated || current == nil {
		return nil, apierror.NotAuthenticated()
	}
	if !force && !current.NeedsRefresh(m.cfg.Now()) {
		return current, nil
	}
	if current.RefreshToken == "" {
		return m.expire(current, apierror.TokenExpired(errors.New("no refresh token")))
	}

	device, err := m.cfg.Device.Info()
	if err != nil {
		logging.Warn("Session", "Cannot describe device for refresh, signing out: %v", err)
		return m.expire(current, apierror.TokenExpired(fmt.Errorf("failed to describe device: %w", err)))
	}

	logging.Debug("Session", "Refreshing access token")
	next, err := m.cfg.Flow.Refresh(ctx, current.RefreshToken, device)
	if err != nil {
		if m.bgCtx.Err() != nil {
			return nil, err
		}
		logging.Warn("Session", "Refresh failed, signing out: %v", err)
		return m.expire(current, apierror.TokenExpired(err))
	}

	m.persistMu.Lock()
	defer m.persistMu.Unlock()

	m.mu.RLock()
	held := m.tokens
	m.mu.RUnlock()
	if held != current {
		logging.Debug("Session", "Session changed during refresh, discarding refreshed tokens")
		return m.currentTokens()
	}

	if err := m.cfg.Vault.SaveTokens(*next); err != nil {
		logging.Error("Session", err, "Failed to persist refreshed tokens")
	}
	m.mu.Lock()
	m.tokens = next
	m.lastErr = nil
	m.mu.Unlock()

	logging.Info("Session", "Access token refreshed (expires %s)", next.ExpiresAt().Format(time.RFC3339))
	return next, nil
}

// expire signs out because the refresh of started failed. When the session
// no longer holds started it is kept and its tokens are returned instead.
func (m *Manager) expire(started *auth.TokenPair, reason error) (*auth.TokenPair, error) {
	dropped, err := m.dropSession(auth.StateUnauthenticated, started, reason)
	if !dropped {
		logging.Debug("Session", "Session changed during refresh, not signing out")
		return m.currentTokens()
	}
	if err != nil {
		logging.Warn("Session", "Failed to clear stored session: %v", err)
	}
	logging.Info("Session", "Signed out")
	return nil, reason
}

// currentTokens returns the held token pair, or a NotAuthenticated error.
func (m *Manager) currentTokens() (*auth.TokenPair, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.state != auth.StateAuthenticated || m.tokens == nil {
		return nil, apierror.NotAuthenticated()
	}
	return m.tokens, nil
}

// logout clears the session and revokes the old access token in the
// background. reason is recorded as LastError; nil for a user logout.
func (m *Manager) logout(reason error) error {
	_, err := m.dropSession(auth.StateUnauthenticated, nil, reason)
	if err != nil {
		logging.Warn("Session", "Failed to clear stored session: %v", err)
	}
	logging.Info("Session", "Signed out")
	return err
}

// dropSession clears the vault and the in-memory session, enters state and
// revokes the dropped access token in the background. With started set,
// nothing happens unless started is still the held pair; the result
// reports whether the session was dropped.
func (m *Manager) dropSession(state auth.SessionState, started *auth.TokenPair, reason error) (bool, error) {
	m.persistMu.Lock()
	m.mu.Lock()
	old := m.tokens
	if started != nil && old != started {
		m.mu.Unlock()
		m.persistMu.Unlock()
		return false, nil
	}
	m.setStateLocked(state, nil, nil, reason)
	m.mu.Unlock()
	err := m.cfg.Vault.Clear()
	m.persistMu.Unlock()

	if old != nil {
		token := old.AccessToken
		m.goBackground(func() {
			// Revoke outlives Shutdown's cancel; it is bounded by its own timeout.
			ctx, cancel := context.WithTimeout(context.Background(), m.cfg.RefreshTimeout)
			defer cancel()
			m.cfg.Flow.Revoke(ctx, token)
		})
	}
	return true, err
}

func (m *Manager) setState(state auth.SessionState, tokens *auth.TokenPair, user *auth.UserProfile, lastErr error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setStateLocked(state, tokens, user, lastErr)
}

// setStateLocked requires m.mu to be held.
func (m *Manager) setStateLocked(state auth.SessionState, tokens *auth.TokenPair, user *auth.UserProfile, lastErr error) {
	prev := m.state
	m.state = state
	m.tokens = tokens
	m.user = user
	m.lastErr = lastErr
	if prev != state {
		m.notify(state)
	}
}

func (m *Manager) notify(state auth.SessionState) {
	m.subsMu.Lock()
	defer m.subsMu.Unlock()
	for _, ch := range m.subs {
		select {
		case ch <- state:
		default:
		}
	}
}

func (m *Manager) goBackground(fn func()) {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		fn()
	}()
}

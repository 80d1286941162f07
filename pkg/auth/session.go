package auth

// SessionState is the authentication state of the current process.
type SessionState int

const (
	// StateUnauthenticated means no usable credentials are held.
	StateUnauthenticated SessionState = iota

	// StateAuthenticated means a token pair (and usually a profile) is held.
	StateAuthenticated

	// StateMfaPending means the authority asked for a one-time code and the
	// next login must carry it.
	StateMfaPending
)

// String returns the string representation of the session state.
func (s SessionState) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthenticated:
		return "authenticated"
	case StateMfaPending:
		return "mfa_pending"
	default:
		return "unknown"
	}
}

// Session is a point-in-time snapshot of the session manager.
// Tokens and User are nil unless State is StateAuthenticated.
type Session struct {
	State  SessionState
	Tokens *TokenPair
	User   *UserProfile
}

// Outcome distinguishes the three results of a password-grant exchange.
type Outcome int

const (
	OutcomeFailure Outcome = iota
	OutcomeSuccess
	OutcomeMfaRequired
)

// String returns the string representation of the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeMfaRequired:
		return "mfa_required"
	default:
		return "failure"
	}
}

// AuthResult is the result of a login or signup exchange.
type AuthResult struct {
	Outcome Outcome
	Tokens  TokenPair
	User    UserProfile

	// Err is set when Outcome is OutcomeFailure.
	Err error
}

// Success builds a successful AuthResult.
func Success(tokens TokenPair, user UserProfile) AuthResult {
	return AuthResult{Outcome: OutcomeSuccess, Tokens: tokens, User: user}
}

// MfaRequired builds an AuthResult asking for a one-time code.
func MfaRequired() AuthResult {
	return AuthResult{Outcome: OutcomeMfaRequired}
}

// Failure builds a failed AuthResult carrying the reason.
func Failure(err error) AuthResult {
	return AuthResult{Outcome: OutcomeFailure, Err: err}
}

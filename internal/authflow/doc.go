// Package authflow talks to the Maybe authority to obtain and maintain
// token pairs.
//
// Orchestrator covers every grant the client uses:
//
//   - BeginInteractiveLogin runs OAuth2 Authorization Code with PKCE (S256).
//     The authorization URL is handed to a UserAgent, which returns the
//     redirect URL the authority sent the user back to. BrowserUserAgent
//     opens the system browser and receives the redirect on a loopback
//     CallbackServer.
//   - PasswordLogin and Signup use the JSON /auth endpoints and may answer
//     with an MFA challenge.
//   - Refresh exchanges a refresh token for a new pair.
//   - Revoke invalidates an access token. It never fails the caller.
//
// Only one interactive login may be pending at a time. A second call fails
// with ErrFlowInProgress; CancelInteractive aborts the pending one.
//
// The Orchestrator holds no session state. Persisting tokens and session
// transitions are the session manager's job.
package authflow

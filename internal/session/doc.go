// Package session owns the authentication state of the process.
//
// A Manager is created once, bootstrapped from the credential vault, and
// passed to everything that needs a token. It drives the auth flow
// orchestrator for password, signup and interactive logins, keeps the
// token fresh with single-flight refreshes, and persists every change.
//
// State machine:
//
//	Unauthenticated --login/signup success--> Authenticated
//	Unauthenticated --login asks for MFA----> MfaPending
//	MfaPending      --login with otp--------> Authenticated | MfaPending | Unauthenticated
//	Authenticated   --refresh failure-------> Unauthenticated
//	Authenticated   --logout----------------> Unauthenticated
//
// The manager mutex is only held for in-memory transitions, never across
// a network call.
package session

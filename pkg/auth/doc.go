// Package auth provides the value types shared by the authentication core:
// token pairs, user profiles, device metadata, session state and the result
// of a password-grant exchange.
//
// These types carry no behaviour beyond derived expiry checks and JSON
// encoding, so they can be used by the session manager, the request gate,
// and the CLI without import cycles.
package auth

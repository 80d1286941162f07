// Package validation holds client-side checks run before contacting the
// authority.
package validation

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 8

// passwordSpecialChars is the set of characters that satisfy the special
// character rule.
const passwordSpecialChars = "!@#$%^&*(),.?\":{}|<>"

// Password failure messages, shown to the user verbatim.
const (
	MsgPasswordTooShort  = "Password must be at least 8 characters"
	MsgPasswordUppercase = "Password must contain at least one uppercase letter"
	MsgPasswordLowercase = "Password must contain at least one lowercase letter"
	MsgPasswordNumber    = "Password must contain at least one number"
	MsgPasswordSpecial   = "Password must contain at least one special character"
)

// ValidatePassword returns every rule the password breaks, in a fixed
// order. An empty result means the password is acceptable.
func ValidatePassword(password string) []string {
	var problems []string

	if utf8.RuneCountInString(password) < MinPasswordLength {
		problems = append(problems, MsgPasswordTooShort)
	}
	if !strings.ContainsFunc(password, unicode.IsUpper) {
		problems = append(problems, MsgPasswordUppercase)
	}
	if !strings.ContainsFunc(password, unicode.IsLower) {
		problems = append(problems, MsgPasswordLowercase)
	}
	if !strings.ContainsFunc(password, unicode.IsDigit) {
		problems = append(problems, MsgPasswordNumber)
	}
	if !strings.ContainsAny(password, passwordSpecialChars) {
		problems = append(problems, MsgPasswordSpecial)
	}

	return problems
}

// ValidateEmail performs the minimal shape check used before signup.
func ValidateEmail(email string) bool {
	at := strings.LastIndex(email, "@")
	return at > 0 && at < len(email)-1 && !strings.ContainsAny(email, " \t\n")
}

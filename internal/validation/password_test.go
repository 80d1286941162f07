package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		want     []string
	}{
		{name: "valid", password: "Sup3r$ecret", want: nil},
		{name: "empty", password: "", want: []string{
			MsgPasswordTooShort, MsgPasswordUppercase, MsgPasswordLowercase, MsgPasswordNumber, MsgPasswordSpecial,
		}},
		{name: "too short", password: "Ab1!", want: []string{MsgPasswordTooShort}},
		{name: "no uppercase", password: "abcdef1!", want: []string{MsgPasswordUppercase}},
		{name: "no lowercase", password: "ABCDEF1!", want: []string{MsgPasswordLowercase}},
		{name: "no digit", password: "Abcdefg!", want: []string{MsgPasswordNumber}},
		{name: "no special", password: "Abcdefg1", want: []string{MsgPasswordSpecial}},
		{name: "underscore is not special", password: "Abcdefg1_", want: []string{MsgPasswordSpecial}},
		{name: "multibyte counts runes", password: "Äbcdef1!", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidatePassword(tt.password))
		})
	}
}

func TestValidateEmail(t *testing.T) {
	assert.True(t, ValidateEmail("ada@example.com"))
	assert.False(t, ValidateEmail("ada"))
	assert.False(t, ValidateEmail("@example.com"))
	assert.False(t, ValidateEmail("ada@"))
	assert.False(t, ValidateEmail("ada @example.com"))
}

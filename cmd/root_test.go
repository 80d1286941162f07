package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"maybe/pkg/apierror"
)

func TestSetVersion(t *testing.T) {
	SetVersion("1.2.3-test")
	assert.Equal(t, "1.2.3-test", GetVersion())
}

func TestRootCommand(t *testing.T) {
	assert.Equal(t, "maybe", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
	assert.True(t, rootCmd.SilenceUsage)
	assert.True(t, rootCmd.SilenceErrors)
}

func TestSubcommands(t *testing.T) {
	found := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		found[c.Name()] = true
	}
	for _, name := range []string{"version", "auth", "accounts"} {
		assert.True(t, found[name], "expected subcommand %s", name)
	}

	authSubs := map[string]bool{}
	for _, c := range authCmd.Commands() {
		authSubs[c.Name()] = true
	}
	for _, name := range []string{"login", "signup", "logout", "status", "refresh"} {
		assert.True(t, authSubs[name], "expected auth subcommand %s", name)
	}
}

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitCodeSuccess},
		{"generic", errors.New("boom"), ExitCodeError},
		{"not authenticated", classify(apierror.NotAuthenticated()), ExitCodeAuthRequired},
		{"token expired", classify(fmt.Errorf("list: %w", apierror.TokenExpired(nil))), ExitCodeAuthRequired},
		{"invalid credentials", classify(apierror.New(apierror.KindInvalidCredentials, "")), ExitCodeAuthFailed},
		{"invalid callback", classify(apierror.InvalidCallback("state mismatch")), ExitCodeAuthFailed},
		{"cancelled", classify(apierror.UserCancelled(nil)), ExitCodeAuthFailed},
		{"server error during login", &AuthFailedError{Reason: apierror.ServerError(500, "")}, ExitCodeAuthFailed},
		{"server error elsewhere", classify(apierror.ServerError(500, "")), ExitCodeError},
		{"rate limited", classify(apierror.New(apierror.KindRateLimited, "")), ExitCodeError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, getExitCode(tt.err))
		})
	}
}

func TestErrorMessage(t *testing.T) {
	assert.Equal(t, "Rate limit exceeded. Please try again later.",
		errorMessage(fmt.Errorf("failed to list accounts: %w", apierror.New(apierror.KindRateLimited, ""))))
	assert.Equal(t, "plain", errorMessage(errors.New("plain")))
	assert.Contains(t, errorMessage(classify(apierror.NotAuthenticated())), "maybe auth login")
	assert.Contains(t, errorMessage(&AuthFailedError{Reason: apierror.New(apierror.KindInvalidCredentials, "")}), "Invalid email or password")
}

func TestVersionTemplate(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	t.Cleanup(func() { rootCmd.SetOut(nil) })
	SetVersion("1.0.0")

	code := run([]string{"--version"})
	assert.Equal(t, ExitCodeSuccess, code)
	assert.Equal(t, "maybe version 1.0.0\n", out.String())
}

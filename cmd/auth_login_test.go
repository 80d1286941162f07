package cmd

import (
	"bufio"
	"strings"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"maybe/internal/authflow"
	"maybe/pkg/apierror"
)

// RFC 6238 test secret ("12345678901234567890" in base32).
const testTOTPSecret = "GEZDGNBVGY3TQOJQGEZDGNBVGY3TQOJQ"

func TestOTPFromSecret(t *testing.T) {
	at := time.Unix(59, 0)

	code, err := otpFromSecret(strings.ToLower(testTOTPSecret), at)
	require.NoError(t, err)
	assert.Len(t, code, 6)

	ok, err := totp.ValidateCustom(code, testTOTPSecret, at, totp.ValidateOpts{Period: 30, Digits: 6})
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestOTPFromSecret_Invalid(t *testing.T) {
	_, err := otpFromSecret("not base32!", time.Now())
	assert.ErrorContains(t, err, "--otp-secret")
}

func TestReadPassword_FromReader(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.SetIn(strings.NewReader("Secret1!\r\n"))

	pw, err := readPassword(cmd, bufio.NewReader(cmd.InOrStdin()), true)
	require.NoError(t, err)
	assert.Equal(t, "Secret1!", pw)
}

func TestReadPassword_Empty(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.SetIn(strings.NewReader(""))

	_, err := readPassword(cmd, bufio.NewReader(cmd.InOrStdin()), true)
	assert.Error(t, err)
}

func TestLoginError(t *testing.T) {
	var failed *AuthFailedError

	assert.ErrorAs(t, loginError(apierror.New(apierror.KindInvalidCredentials, "")), &failed)
	assert.ErrorAs(t, loginError(apierror.ServerError(500, "")), &failed)

	assert.NotErrorAs(t, loginError(apierror.NetworkError(nil)), &failed)
	assert.NotErrorAs(t, loginError(authflow.ErrFlowInProgress), &failed)
}

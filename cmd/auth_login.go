package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/pquerna/otp/totp"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"maybe/internal/authflow"
	"maybe/pkg/apierror"
	"maybe/pkg/auth"
)

// Login-specific flags
var (
	loginEmail         string
	loginPasswordStdin bool
	loginOTP           string
	loginOTPSecret     string
	loginBrowser       bool
	loginScopes        []string
)

// authLoginCmd represents the auth login command
var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in to Maybe",
	Long: `Sign in to Maybe.

Without --email the browser is opened for an OAuth sign-in. With --email
you sign in with your password; it is read from the terminal, or from
standard input with --password-stdin.

If the account uses two-factor authentication you are asked for the code.
Pass it up front with --otp, or let maybe compute it from the TOTP secret
with --otp-secret for unattended use.

Examples:
  maybe auth login
  maybe auth login --scope read --scope write
  maybe auth login --email me@example.com
  echo "$PASSWORD" | maybe auth login --email me@example.com --password-stdin --otp 123456`,
	RunE: runAuthLogin,
}

func init() {
	authLoginCmd.Flags().StringVar(&loginEmail, "email", "", "Sign in with email and password")
	authLoginCmd.Flags().BoolVar(&loginPasswordStdin, "password-stdin", false, "Read the password from standard input")
	authLoginCmd.Flags().StringVar(&loginOTP, "otp", "", "Two-factor code")
	authLoginCmd.Flags().StringVar(&loginOTPSecret, "otp-secret", "", "TOTP secret used to compute the two-factor code")
	authLoginCmd.Flags().BoolVar(&loginBrowser, "browser", false, "Sign in through the browser (default without --email)")
	authLoginCmd.Flags().StringSliceVar(&loginScopes, "scope", nil, "OAuth scope to request (repeatable)")
}

func runAuthLogin(cmd *cobra.Command, args []string) error {
	if loginBrowser && loginEmail != "" {
		return errors.New("--browser and --email cannot be combined")
	}
	if loginEmail == "" {
		return loginWithBrowser(cmd)
	}
	return loginWithPassword(cmd)
}

func loginWithBrowser(cmd *cobra.Command) error {
	var s *spinner.Spinner
	if !quiet {
		s = spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(cmd.ErrOrStderr()))
		s.Suffix = " Waiting for sign-in in your browser..."
	}

	ua := &authflow.BrowserUserAgent{
		Port: callbackPort(loadedConfig),
		Out:  cmd.ErrOrStderr(),
		OnWaiting: func() {
			if s != nil {
				s.Start()
			}
		},
	}
	rt, err := newSessionRuntime(cmd.Context(), ua)
	if err != nil {
		return err
	}
	defer rt.Close()

	err = rt.manager.LoginInteractive(cmd.Context(), loginScopes)
	if s != nil {
		s.Stop()
	}
	if err != nil {
		return loginError(err)
	}

	printSignedIn(cmd, rt.manager.User())
	return nil
}

func loginWithPassword(cmd *cobra.Command) error {
	rt, err := newSessionRuntime(cmd.Context(), nil)
	if err != nil {
		return err
	}
	defer rt.Close()

	in := bufio.NewReader(cmd.InOrStdin())
	password, err := readPassword(cmd, in, loginPasswordStdin)
	if err != nil {
		return err
	}

	code := loginOTP
	if code == "" && loginOTPSecret != "" {
		if code, err = otpFromSecret(loginOTPSecret, time.Now()); err != nil {
			return err
		}
	}

	state, err := rt.manager.Login(cmd.Context(), loginEmail, password, code)
	if state == auth.StateMfaPending && err == nil && code == "" {
		if code, err = promptOTP(cmd, in); err != nil {
			return err
		}
		state, err = rt.manager.Login(cmd.Context(), loginEmail, password, code)
	}
	if err != nil {
		return loginError(err)
	}
	if state != auth.StateAuthenticated {
		return &AuthFailedError{Reason: apierror.New(apierror.KindMfaRequired, "")}
	}

	printSignedIn(cmd, rt.manager.User())
	return nil
}

// loginError marks err as a failed sign-in unless it is transient, in
// which case retrying the same command may succeed.
func loginError(err error) error {
	if errors.Is(err, authflow.ErrFlowInProgress) || apierror.IsRetryable(err) {
		return err
	}
	return &AuthFailedError{Reason: err}
}

// readPassword reads the password from in when fromStdin is set or stdin
// is not a terminal, and prompts without echo otherwise.
func readPassword(cmd *cobra.Command, in *bufio.Reader, fromStdin bool) (string, error) {
	fd := int(os.Stdin.Fd())
	if !fromStdin && cmd.InOrStdin() == os.Stdin && term.IsTerminal(fd) {
		fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
		raw, err := term.ReadPassword(fd)
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return string(raw), nil
	}

	line, err := in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return "", errors.New("no password provided")
	}
	return password, nil
}

// promptOTP asks for the two-factor code on a terminal. Without one the
// code has to come from --otp or --otp-secret.
func promptOTP(cmd *cobra.Command, in *bufio.Reader) (string, error) {
	if cmd.InOrStdin() != os.Stdin || !term.IsTerminal(int(os.Stdin.Fd())) {
		return "", &AuthFailedError{Reason: apierror.New(apierror.KindMfaRequired, "pass --otp or --otp-secret")}
	}
	fmt.Fprint(cmd.ErrOrStderr(), "Two-factor code: ")
	line, err := in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read code: %w", err)
	}
	code := strings.TrimSpace(line)
	if code == "" {
		return "", &AuthFailedError{Reason: apierror.New(apierror.KindMfaRequired, "")}
	}
	return code, nil
}

// otpFromSecret computes the current TOTP code for a base32 secret.
func otpFromSecret(secret string, now time.Time) (string, error) {
	normalized := strings.ToUpper(strings.ReplaceAll(secret, " ", ""))
	code, err := totp.GenerateCode(normalized, now)
	if err != nil {
		return "", fmt.Errorf("invalid --otp-secret: %w", err)
	}
	return code, nil
}

func printSignedIn(cmd *cobra.Command, user *auth.UserProfile) {
	if user == nil {
		authPrintln(cmd, text.FgGreen.Sprint("Signed in."))
		return
	}
	authPrint(cmd, "%s as %s\n", text.FgGreen.Sprint("Signed in"), user.DisplayName())
}

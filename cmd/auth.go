package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"maybe/pkg/apierror"
)

// authCmd represents the auth command group
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage your Maybe session",
	Long: `Manage the Maybe session used by the other commands.

Examples:
  maybe auth login                       # Sign in through the browser
  maybe auth login --email me@example.com --password-stdin
  maybe auth signup --email me@example.com --first-name Ada --last-name Lovelace
  maybe auth status                      # Show the current session
  maybe auth refresh                     # Force a token refresh
  maybe auth logout                      # Sign out and revoke the token`,
}

// authLogoutCmd represents the auth logout command
var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and clear stored credentials",
	Long: `Sign out of Maybe.

This removes the stored tokens and profile and revokes the access token
with the server. Revocation is best effort: the local session is cleared
even when the server cannot be reached.`,
	RunE: runAuthLogout,
}

// authRefreshCmd represents the auth refresh command
var authRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Force a token refresh",
	Long: `Exchange the stored refresh token for a new token pair.

Tokens are refreshed automatically before they expire; use this command
if you suspect the current token was invalidated. A rejected refresh
signs you out.`,
	RunE: runAuthRefresh,
}

// authPrint prints output only if the --quiet flag is not set.
// Use this for progress messages and non-essential output.
func authPrint(cmd *cobra.Command, format string, args ...interface{}) {
	if !quiet {
		fmt.Fprintf(cmd.OutOrStdout(), format, args...)
	}
}

// authPrintln prints a line only if the --quiet flag is not set.
func authPrintln(cmd *cobra.Command, a ...interface{}) {
	if !quiet {
		fmt.Fprintln(cmd.OutOrStdout(), a...)
	}
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(authLoginCmd)
	authCmd.AddCommand(authSignupCmd)
	authCmd.AddCommand(authLogoutCmd)
	authCmd.AddCommand(authStatusCmd)
	authCmd.AddCommand(authRefreshCmd)
}

func runAuthLogout(cmd *cobra.Command, args []string) error {
	rt, err := newSessionRuntime(cmd.Context(), nil)
	if err != nil {
		return err
	}
	defer rt.Close()

	_, signedIn := rt.manager.CurrentAccessToken()
	if err := rt.manager.Logout(cmd.Context()); err != nil {
		return fmt.Errorf("failed to clear stored credentials: %w", err)
	}
	if signedIn {
		authPrintln(cmd, "Signed out.")
	} else {
		authPrintln(cmd, "Not signed in.")
	}
	return nil
}

func runAuthRefresh(cmd *cobra.Command, args []string) error {
	rt, err := newSessionRuntime(cmd.Context(), nil)
	if err != nil {
		return err
	}
	defer rt.Close()

	if _, ok := rt.manager.CurrentAccessToken(); !ok {
		return &AuthRequiredError{Reason: apierror.NotAuthenticated()}
	}

	tokens, err := rt.manager.ForceRefresh(cmd.Context())
	if err != nil {
		return err
	}
	authPrint(cmd, "Token refreshed. Expires %s.\n", formatExpiry(tokens.ExpiresAt()))
	return nil
}

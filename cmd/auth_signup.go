package cmd

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"maybe/internal/authflow"
	"maybe/internal/validation"
)

// Signup-specific flags
var (
	signupEmail         string
	signupFirstName     string
	signupLastName      string
	signupPasswordStdin bool
)

// authSignupCmd represents the auth signup command
var authSignupCmd = &cobra.Command{
	Use:   "signup",
	Short: "Create a Maybe account and sign in",
	Long: `Create a Maybe account and sign in to it.

The password is read from the terminal, or from standard input with
--password-stdin. It must be at least 8 characters long and contain an
uppercase letter, a lowercase letter, a number and a special character.

Examples:
  maybe auth signup --email ada@example.com --first-name Ada --last-name Lovelace`,
	RunE: runAuthSignup,
}

func init() {
	authSignupCmd.Flags().StringVar(&signupEmail, "email", "", "Email address (required)")
	authSignupCmd.Flags().StringVar(&signupFirstName, "first-name", "", "First name (required)")
	authSignupCmd.Flags().StringVar(&signupLastName, "last-name", "", "Last name (required)")
	authSignupCmd.Flags().BoolVar(&signupPasswordStdin, "password-stdin", false, "Read the password from standard input")
	_ = authSignupCmd.MarkFlagRequired("email")
	_ = authSignupCmd.MarkFlagRequired("first-name")
	_ = authSignupCmd.MarkFlagRequired("last-name")
}

func runAuthSignup(cmd *cobra.Command, args []string) error {
	if !validation.ValidateEmail(signupEmail) {
		return fmt.Errorf("%q is not a valid email address", signupEmail)
	}

	rt, err := newSessionRuntime(cmd.Context(), nil)
	if err != nil {
		return err
	}
	defer rt.Close()

	password, err := readPassword(cmd, bufio.NewReader(cmd.InOrStdin()), signupPasswordStdin)
	if err != nil {
		return err
	}
	if problems := validation.ValidatePassword(password); len(problems) > 0 {
		return fmt.Errorf("password does not meet the requirements:\n  %s", strings.Join(problems, "\n  "))
	}

	_, err = rt.manager.Signup(cmd.Context(), authflow.SignupParams{
		Email:     signupEmail,
		Password:  password,
		FirstName: strings.TrimSpace(signupFirstName),
		LastName:  strings.TrimSpace(signupLastName),
	})
	if err != nil {
		return fmt.Errorf("signup failed: %w", err)
	}

	printSignedIn(cmd, rt.manager.User())
	return nil
}

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"maybe/internal/config"
	"maybe/pkg/logging"
)

// Exit codes for CLI commands.
const (
	// ExitCodeSuccess indicates successful execution.
	ExitCodeSuccess = 0
	// ExitCodeError indicates a general error (command failed, invalid arguments).
	ExitCodeError = 1
	// ExitCodeAuthRequired indicates a session is required but not available.
	ExitCodeAuthRequired = 2
	// ExitCodeAuthFailed indicates a sign-in attempt failed.
	ExitCodeAuthFailed = 3
)

// Global flags
var (
	configPath string
	logLevel   string
	quiet      bool
	ephemeral  bool
)

// loadedConfig is populated before any subcommand runs.
var (
	loadedConfig    config.MaybeConfig
	loadedConfigErr error
)

// rootCmd represents the base command for the maybe application.
var rootCmd = &cobra.Command{
	Use:   "maybe",
	Short: "Command-line client for Maybe personal finance",
	Long: `maybe signs you in to your Maybe account and talks to the Maybe API
from the terminal.

Sessions are kept in the OS keychain and refreshed automatically, so
commands like "maybe accounts list" work until you sign out.`,
	// SilenceUsage prevents Cobra from printing the usage message on errors that are handled by the application.
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initLogging(cmd)
	},
}

// SetVersion sets the version for the root command.
// This function is typically called from the main package to inject the application version at build time.
func SetVersion(v string) {
	rootCmd.Version = v
}

// GetVersion returns the current version of the application.
func GetVersion() string {
	return rootCmd.Version
}

// Execute is the main entry point for the CLI application.
// This function is called by main.main().
func Execute() {
	os.Exit(run(os.Args[1:]))
}

// run executes the root command with args and returns the exit code.
func run(args []string) int {
	rootCmd.SetVersionTemplate(`{{printf "maybe version %s\n" .Version}}`)
	rootCmd.SetArgs(args)

	// Ctrl-C cancels the running command, e.g. a pending browser login.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	defer func() { _ = logging.Close() }()
	if err == nil {
		return ExitCodeSuccess
	}
	err = classify(err)
	fmt.Fprintf(rootCmd.ErrOrStderr(), "Error: %s\n", errorMessage(err))
	return getExitCode(err)
}

// getExitCode determines the appropriate exit code based on the error type.
// This provides semantic exit codes for scripting and automation.
func getExitCode(err error) int {
	if err == nil {
		return ExitCodeSuccess
	}

	var authRequired *AuthRequiredError
	if errors.As(err, &authRequired) {
		return ExitCodeAuthRequired
	}

	var authFailed *AuthFailedError
	if errors.As(err, &authFailed) {
		return ExitCodeAuthFailed
	}

	return ExitCodeError
}

// initLogging loads the configuration and configures the logger from it
// and the flags. A broken config file is reported by the commands that need
// it, not here.
func initLogging(cmd *cobra.Command) error {
	loadedConfig, loadedConfigErr = config.LoadConfig(configPath)

	level := logLevel
	var file string
	if loadedConfigErr == nil {
		if level == "" {
			level = loadedConfig.Logging.Level
		}
		file = loadedConfig.Logging.File
	}
	if level == "" {
		level = "warn"
	}

	parsed := logging.ParseLevel(level)
	if file != "" {
		return logging.InitForFile(parsed, logging.FileOptions{Path: file}, nil)
	}
	logging.InitForCLI(parsed, cmd.ErrOrStderr())
	return nil
}

func init() {
	rootCmd.AddCommand(newVersionCmd())

	rootCmd.PersistentFlags().StringVar(&configPath, "config-path", config.GetDefaultConfigPathOrPanic(), "Configuration directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn or error (env: MAYBE_LOG_LEVEL)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress non-essential output")
	rootCmd.PersistentFlags().BoolVar(&ephemeral, "ephemeral", false, "Keep credentials in memory only; nothing is read from or written to disk")
}

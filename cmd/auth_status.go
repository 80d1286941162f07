package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"maybe/internal/credstore"
	"maybe/pkg/auth"
)

// Status-specific flags
var (
	statusJSON  bool
	statusWatch bool
)

// authStatusCmd represents the auth status command
var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current session",
	Long: `Show who is signed in, when the access token expires and where the
credentials are stored.

With --watch the status is printed again whenever another maybe process
signs in or out, until interrupted.

Examples:
  maybe auth status
  maybe auth status --json
  maybe auth status --watch`,
	RunE: runAuthStatus,
}

func init() {
	authStatusCmd.Flags().BoolVar(&statusJSON, "json", false, "Print the status as JSON")
	authStatusCmd.Flags().BoolVar(&statusWatch, "watch", false, "Print the status again when the session changes")
}

func runAuthStatus(cmd *cobra.Command, args []string) error {
	rt, err := newSessionRuntime(cmd.Context(), nil)
	if err != nil {
		return err
	}
	defer rt.Close()

	show := func() error {
		status := auth.NewStatusResponse(rt.manager.Snapshot(), now(), rt.storage)
		if statusJSON {
			return printStatusJSON(cmd.OutOrStdout(), status)
		}
		printStatusTable(cmd.OutOrStdout(), status)
		return nil
	}
	if err := show(); err != nil {
		return err
	}
	if !statusWatch {
		return nil
	}
	return watchStatus(cmd.Context(), rt, show)
}

// watchStatus reloads the session whenever the profile or credentials
// store changes and prints it again. It returns when ctx is done.
func watchStatus(ctx context.Context, rt *sessionRuntime, show func() error) error {
	if ephemeral {
		return errors.New("--watch needs on-disk storage and cannot be combined with --ephemeral")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	changes := make(chan struct{}, 1)
	notify := func() {
		select {
		case changes <- struct{}{}:
		default:
		}
	}
	for _, name := range []string{"profile", "credentials"} {
		dir := filepath.Join(rt.cfg.Storage.Dir, name)
		if err := credstore.Watch(ctx, dir, credstore.DefaultWatchDebounce, notify); err != nil {
			return err
		}
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-changes:
			rt.manager.Reload()
			if err := show(); err != nil {
				return err
			}
		}
	}
}

func printStatusJSON(w io.Writer, status auth.StatusResponse) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(status)
}

func printStatusTable(w io.Writer, status auth.StatusResponse) {
	t := newTable()
	t.SetOutputMirror(w)
	t.SetTitle("Maybe session")

	state := text.FgYellow.Sprint("Not signed in")
	switch status.State {
	case auth.StateAuthenticated.String():
		state = text.FgGreen.Sprint("Signed in")
	case auth.StateMfaPending.String():
		state = text.FgYellow.Sprint("Waiting for two-factor code")
	}
	t.AppendRow([]interface{}{"Status", state})

	if status.User != "" {
		user := status.User
		if status.Email != "" && status.Email != user {
			user = fmt.Sprintf("%s <%s>", user, status.Email)
		}
		t.AppendRow([]interface{}{"User", user})
	}
	if status.ExpiresAt != nil {
		expiry := formatExpiry(*status.ExpiresAt)
		if status.NeedsRefresh {
			expiry += " (refresh due)"
		}
		t.AppendRow([]interface{}{"Expires", expiry})
	}
	if status.Authenticated {
		refresh := text.FgGreen.Sprint("Available")
		if !status.HasRefresh {
			refresh = text.FgYellow.Sprint("Not available")
		}
		t.AppendRow([]interface{}{"Refresh", refresh})
	}
	t.AppendRow([]interface{}{"Storage", status.Storage})
	t.Render()

	if !status.Authenticated {
		fmt.Fprintln(w, "Run: maybe auth login")
	}
}

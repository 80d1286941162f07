package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"maybe/internal/api"
	textutil "maybe/pkg/strings"
)

// Accounts-specific flags
var (
	accountsPage    int
	accountsPerPage int
	accountsJSON    bool
)

// accountsCmd represents the accounts command group
var accountsCmd = &cobra.Command{
	Use:   "accounts",
	Short: "Work with your financial accounts",
}

// accountsListCmd represents the accounts list command
var accountsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List your accounts",
	Long: `List the accounts of the signed-in user, one page at a time.

Examples:
  maybe accounts list
  maybe accounts list --page 2 --per-page 50
  maybe accounts list --json`,
	RunE: runAccountsList,
}

func init() {
	rootCmd.AddCommand(accountsCmd)
	accountsCmd.AddCommand(accountsListCmd)

	accountsListCmd.Flags().IntVar(&accountsPage, "page", 1, "Page to fetch")
	accountsListCmd.Flags().IntVar(&accountsPerPage, "per-page", 25, "Accounts per page")
	accountsListCmd.Flags().BoolVar(&accountsJSON, "json", false, "Print the raw page as JSON")
}

func runAccountsList(cmd *cobra.Command, args []string) error {
	if accountsPage < 1 || accountsPerPage < 1 {
		return fmt.Errorf("--page and --per-page must be positive")
	}

	rt, err := newSessionRuntime(cmd.Context(), nil)
	if err != nil {
		return err
	}
	defer rt.Close()

	client, err := rt.apiClient()
	if err != nil {
		return err
	}
	page, err := client.ListAccounts(cmd.Context(), accountsPage, accountsPerPage)
	if err != nil {
		return err
	}

	if accountsJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(page)
	}
	printAccounts(cmd.OutOrStdout(), page)
	return nil
}

func printAccounts(w io.Writer, page *api.AccountsPage) {
	if len(page.Accounts) == 0 {
		fmt.Fprintf(w, "%s %s\n", text.FgYellow.Sprint("!"), text.FgYellow.Sprint("No accounts found"))
		return
	}

	t := newTable()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{
		text.FgHiCyan.Sprint("NAME"),
		text.FgHiCyan.Sprint("TYPE"),
		text.FgHiCyan.Sprint("INSTITUTION"),
		text.FgHiCyan.Sprint("BALANCE"),
		text.FgHiCyan.Sprint("LAST SYNCED"),
	})
	t.SetColumnConfigs([]table.ColumnConfig{{Number: 4, Align: text.AlignRight}})

	for _, a := range page.Accounts {
		balance := a.Balance
		if a.Classification == "liability" {
			balance = text.FgRed.Sprint(balance)
		}
		synced := "never"
		if ts := a.LastSynced(); !ts.IsZero() {
			synced = formatDuration(now().Sub(ts)) + " ago"
		}
		t.AppendRow(table.Row{
			textutil.Truncate(a.Name, textutil.CellMaxLen),
			a.AccountType,
			textutil.Truncate(a.Institution, textutil.CellMaxLen),
			balance,
			synced,
		})
	}
	p := page.Pagination
	t.AppendFooter(table.Row{fmt.Sprintf("Page %d of %d", p.Page, max(p.TotalPages, 1)), "", "", fmt.Sprintf("%d accounts", p.TotalCount), ""})
	t.Render()
}

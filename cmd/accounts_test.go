package cmd

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"maybe/internal/api"
)

func TestPrintAccounts(t *testing.T) {
	fixed := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	setNow(t, fixed)
	synced := float64(fixed.Add(-3 * time.Hour).Unix())

	page := &api.AccountsPage{
		Accounts: []api.Account{
			{ID: "a1", Name: "Checking", Balance: "$550,000.00", Classification: "asset", AccountType: "Depository", Institution: "Chase", LastSyncedAt: &synced},
			{ID: "a2", Name: "Visa", Balance: "-$1,234.50", Classification: "liability", AccountType: "CreditCard"},
		},
		Pagination: api.Pagination{Page: 1, PerPage: 25, TotalCount: 2, TotalPages: 1},
	}

	var out bytes.Buffer
	printAccounts(&out, page)

	s := out.String()
	assert.Contains(t, s, "Checking")
	assert.Contains(t, s, "Chase")
	assert.Contains(t, s, "$550,000.00")
	assert.Contains(t, s, "3 hours ago")
	assert.Contains(t, s, "Visa")
	assert.Contains(t, s, "never")
}

func TestPrintAccounts_Empty(t *testing.T) {
	var out bytes.Buffer
	printAccounts(&out, &api.AccountsPage{})
	assert.Contains(t, out.String(), "No accounts found")
}

package api

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Account is one financial account of the signed-in user.
type Account struct {
	ID   string `json:"id"`
	Name string `json:"name"`

	// Balance is formatted by the server, e.g. "$550,000.00".
	Balance        string `json:"balance"`
	Currency       string `json:"currency"`
	Classification string `json:"classification"`
	AccountType    string `json:"account_type"`
	Institution    string `json:"institution,omitempty"`

	// LastSyncedAt is a Unix timestamp in seconds.
	LastSyncedAt *float64 `json:"last_synced_at,omitempty"`
}

// BalanceValue parses Balance, ignoring currency symbols and grouping
// separators. Unparseable balances yield 0.
func (a Account) BalanceValue() float64 {
	cleaned := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			return r
		}
		return -1
	}, a.Balance)
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	return v
}

// LastSynced returns LastSyncedAt as a time, or the zero time.
func (a Account) LastSynced() time.Time {
	if a.LastSyncedAt == nil {
		return time.Time{}
	}
	sec, frac := math.Modf(*a.LastSyncedAt)
	return time.Unix(int64(sec), int64(frac*1e9)).UTC()
}

// Pagination describes the page returned by a list endpoint.
type Pagination struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	TotalCount int `json:"total_count"`
	TotalPages int `json:"total_pages"`
}

// AccountsPage is the response of GET /accounts.
type AccountsPage struct {
	Accounts   []Account  `json:"accounts"`
	Pagination Pagination `json:"pagination"`
}

// ListAccounts returns one page of accounts. Non-positive page or perPage
// are omitted so the server defaults apply.
func (c *Client) ListAccounts(ctx context.Context, page, perPage int) (*AccountsPage, error) {
	q := url.Values{}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if perPage > 0 {
		q.Set("per_page", strconv.Itoa(perPage))
	}
	path := "accounts"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var out AccountsPage
	if err := c.Do(ctx, http.MethodGet, path, nil, true, &out); err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	return &out, nil
}

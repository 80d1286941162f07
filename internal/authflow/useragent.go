package authflow

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"

	"maybe/pkg/logging"
)

// ErrUserCancelled is returned by a UserAgent when the user dismissed the
// authorization page.
var ErrUserCancelled = errors.New("user cancelled authorization")

// UserAgent presents the authorization URL to the user and returns the
// redirect URL the authority sent them back to.
type UserAgent interface {
	Authorize(ctx context.Context, authURL string) (*url.URL, error)
}

// FuncUserAgent adapts a function to the UserAgent interface.
type FuncUserAgent func(ctx context.Context, authURL string) (*url.URL, error)

// Authorize calls f.
func (f FuncUserAgent) Authorize(ctx context.Context, authURL string) (*url.URL, error) {
	return f(ctx, authURL)
}

// BrowserUserAgent opens the system browser and waits for the redirect on
// a loopback CallbackServer.
type BrowserUserAgent struct {
	// Port is the loopback port the redirect URI points at.
	Port int

	// Out receives the authorization URL when the browser cannot be opened.
	Out io.Writer

	// OpenBrowser defaults to OpenBrowser.
	OpenBrowser func(string) error

	// OnWaiting is called once the browser was asked to open.
	OnWaiting func()
}

// Authorize starts the callback server, opens authURL, and waits for the
// redirect or ctx.
func (b *BrowserUserAgent) Authorize(ctx context.Context, authURL string) (*url.URL, error) {
	server := NewCallbackServer(b.Port)
	if _, err := server.Start(ctx); err != nil {
		return nil, err
	}
	defer server.Stop()

	open := b.OpenBrowser
	if open == nil {
		open = OpenBrowser
	}
	if err := open(authURL); err != nil {
		logging.Warn("AuthFlow", "Could not open browser: %v", err)
		if b.Out != nil {
			fmt.Fprintf(b.Out, "Open this URL in your browser to continue:\n\n  %s\n\n", authURL)
		}
	}
	if b.OnWaiting != nil {
		b.OnWaiting()
	}

	result, err := server.WaitForCallback(ctx)
	if err != nil {
		return nil, err
	}
	return result.RedirectURL, nil
}

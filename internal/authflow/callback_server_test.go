package authflow

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startTestCallbackServer(t *testing.T) (*CallbackServer, string) {
	t.Helper()
	server := NewCallbackServer(-1)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	redirectURI, err := server.Start(ctx)
	require.NoError(t, err)
	t.Cleanup(server.Stop)
	return server, redirectURI
}

func TestCallbackServer_Success(t *testing.T) {
	server, redirectURI := startTestCallbackServer(t)
	assert.Equal(t, fmt.Sprintf("http://localhost:%d/callback", server.Port()), redirectURI)

	go func() {
		resp, err := http.Get(redirectURI + "?code=test-code&state=test-state")
		if err != nil {
			return
		}
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		assert.Contains(t, string(body), "signed in")
		assert.Equal(t, "no-store", resp.Header.Get("Cache-Control"))
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	result, err := server.WaitForCallback(ctx)
	require.NoError(t, err)

	assert.Equal(t, "test-code", result.Code)
	assert.Equal(t, "test-state", result.State)
	assert.False(t, result.IsError())
	assert.Equal(t, "test-code", result.RedirectURL.Query().Get("code"))
}

func TestCallbackServer_Error(t *testing.T) {
	server, redirectURI := startTestCallbackServer(t)

	go func() {
		resp, err := http.Get(redirectURI + "?error=access_denied&error_description=" + url.QueryEscape("<b>no</b>"))
		if err != nil {
			return
		}
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		assert.NotContains(t, string(body), "<b>no</b>", "description must be escaped")
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	result, err := server.WaitForCallback(ctx)
	require.NoError(t, err)
	assert.True(t, result.IsError())
	assert.Equal(t, "access_denied", result.Error)
}

func TestCallbackServer_OnlyFirstCallbackCounts(t *testing.T) {
	server, redirectURI := startTestCallbackServer(t)

	resp, err := http.Get(redirectURI + "?code=first&state=s")
	require.NoError(t, err)
	resp.Body.Close()

	resp, err = http.Get(redirectURI + "?code=second&state=s")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	result, err := server.WaitForCallback(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "first", result.Code)
}

func TestCallbackServer_WaitTimesOut(t *testing.T) {
	server, _ := startTestCallbackServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := server.WaitForCallback(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestCallbackServer_StopIsIdempotent(t *testing.T) {
	server, _ := startTestCallbackServer(t)
	server.Stop()
	server.Stop()
}

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())
	return port
}

func TestBrowserUserAgent(t *testing.T) {
	port := freePort(t)
	var opened string
	ua := &BrowserUserAgent{
		Port: port,
		OpenBrowser: func(u string) error {
			opened = u
			// Play the authority: send the browser back to the loopback redirect.
			go func() {
				resp, err := http.Get(fmt.Sprintf("http://127.0.0.1:%d/callback?code=c1&state=s1", port))
				if err == nil {
					resp.Body.Close()
				}
			}()
			return nil
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	redirect, err := ua.Authorize(ctx, "https://auth.example.com/oauth/authorize?x=1")
	require.NoError(t, err)

	assert.Equal(t, "https://auth.example.com/oauth/authorize?x=1", opened)
	assert.Equal(t, "c1", redirect.Query().Get("code"))
	assert.Equal(t, "s1", redirect.Query().Get("state"))
}

func TestBrowserUserAgent_Timeout(t *testing.T) {
	ua := &BrowserUserAgent{Port: -1, OpenBrowser: func(string) error { return nil }}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := ua.Authorize(ctx, "https://auth.example.com/oauth/authorize")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestBrowserUserAgent_PrintsURLWhenBrowserFails(t *testing.T) {
	var out strings.Builder
	waited := false
	ua := &BrowserUserAgent{
		Port:        -1,
		Out:         &out,
		OpenBrowser: func(string) error { return errors.New("no display") },
		OnWaiting:   func() { waited = true },
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, _ = ua.Authorize(ctx, "https://auth.example.com/oauth/authorize")

	assert.Contains(t, out.String(), "https://auth.example.com/oauth/authorize")
	assert.True(t, waited)
}

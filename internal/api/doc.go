// Package api is the authenticated request gate in front of the maybe REST
// API.
//
// Every call that needs a bearer token goes through Client.Call, which asks
// the session for a fresh access token before dispatching. A call made
// without a usable session fails with apierror.ErrNotAuthenticated and never
// reaches the network. The gate dispatches each request exactly once; retry
// decisions belong to the caller (see apierror.IsRetryable).
//
// Non-2xx responses are translated by apierror.Classify, so callers only see
// *apierror.Error values.
//
//	client, err := api.NewClient(api.Config{
//		BaseURL: cfg.ResolvedAPIBaseURL(),
//		Tokens:  manager,
//	})
//	page, err := client.ListAccounts(ctx, 1, 25)
package api

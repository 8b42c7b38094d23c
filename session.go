package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/tonimelisma/webstore-go/internal/config"
	"github.com/tonimelisma/webstore-go/internal/credfile"
	"github.com/tonimelisma/webstore-go/internal/history"
	"github.com/tonimelisma/webstore-go/internal/store"
)

// errNotLoggedIn is returned when no credentials are available from either
// the credentials file or the environment.
var errNotLoggedIn = errors.New("not logged in: run 'webstore-go login' first or set " +
	config.EnvClientID + ", " + config.EnvClientSecret + " and " + config.EnvRefreshToken)

// errNoItem is returned by item commands when no item ID was configured.
var errNoItem = errors.New("no item selected: pass --item, set " + config.EnvItem + ", or set item_id in the config file")

// storeSession bundles the API client and poller for one command run.
type storeSession struct {
	Client *store.Client
	Poller *store.Poller
	Creds  store.Credentials
}

// newHTTPClient builds the shared HTTP client. connect_timeout bounds dialing
// and the TLS handshake; data_timeout bounds the wait for response headers.
// Every request, including the OAuth token refresh, carries the configured
// user agent.
func newHTTPClient(cfg *config.Resolved) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone() //nolint:forcetypeassert // stdlib guarantees the type
	transport.DialContext = (&net.Dialer{Timeout: cfg.ConnectTimeout}).DialContext
	transport.TLSHandshakeTimeout = cfg.ConnectTimeout
	transport.ResponseHeaderTimeout = cfg.DataTimeout

	return &http.Client{Transport: &userAgentTransport{base: transport, userAgent: cfg.UserAgent}}
}

// userAgentTransport stamps User-Agent on requests that don't set one.
type userAgentTransport struct {
	base      http.RoundTripper
	userAgent string
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.userAgent == "" || req.Header.Get("User-Agent") != "" {
		return t.base.RoundTrip(req)
	}

	// RoundTrippers must not mutate the caller's request.
	req = req.Clone(req.Context())
	req.Header.Set("User-Agent", t.userAgent)

	return t.base.RoundTrip(req)
}

// loadCredentials reads the credentials file and overlays any credential
// environment variables and the resolved publisher ID.
func loadCredentials(cc *CLIContext) (store.Credentials, error) {
	saved, err := credfile.Load(cc.Cfg.CredentialsFile)
	if err != nil {
		return store.Credentials{}, err
	}

	if saved == nil && !cc.Env.HasCredentials() {
		return store.Credentials{}, errNotLoggedIn
	}

	var creds store.Credentials
	if saved != nil {
		creds = *saved
	}

	if cc.Env.ClientID != "" {
		creds.ClientID = cc.Env.ClientID
	}

	if cc.Env.ClientSecret != "" {
		creds.ClientSecret = cc.Env.ClientSecret
	}

	if cc.Env.RefreshToken != "" {
		creds.RefreshToken = cc.Env.RefreshToken
	}

	if cc.Cfg.PublisherID != "" {
		creds.PublisherID = cc.Cfg.PublisherID
	}

	if err := creds.Validate(); err != nil {
		return store.Credentials{}, fmt.Errorf("incomplete credentials: %w", err)
	}

	return creds, nil
}

// newStoreSession wires credentials, the token provider, and the API client.
func newStoreSession(cc *CLIContext) (*storeSession, error) {
	creds, err := loadCredentials(cc)
	if err != nil {
		return nil, err
	}

	cc.Logger.Debug("store session", "credentials", creds)

	httpClient := newHTTPClient(cc.Cfg)
	tokens := store.NewTokenProvider(creds, cc.Cfg.TokenURL, httpClient, cc.Logger)
	client := store.NewClient(cc.Cfg.APIBaseURL, creds.PublisherID, httpClient, tokens, cc.Logger, cc.Cfg.UserAgent)

	return &storeSession{
		Client: client,
		Poller: store.NewPoller(client, cc.Logger),
		Creds:  creds,
	}, nil
}

// requireItem returns the selected item ID.
func requireItem(cc *CLIContext) (string, error) {
	if cc.Cfg.ItemID == "" {
		return "", errNoItem
	}

	return cc.Cfg.ItemID, nil
}

// recordOperation journals one operation outcome. Journal problems are
// logged and never fail the command.
func recordOperation(ctx context.Context, cc *CLIContext, op, itemID, outcome, detail string) {
	if !cc.Cfg.History || cc.Cfg.HistoryFile == "" {
		return
	}

	// The outcome must be written even if the command context was canceled.
	ctx = context.WithoutCancel(ctx)

	j, err := history.Open(ctx, cc.Cfg.HistoryFile, cc.Logger)
	if err != nil {
		cc.Logger.Warn("history journal unavailable", "error", err)
		return
	}
	defer j.Close()

	if _, err := j.Record(ctx, history.Entry{
		ItemID:    itemID,
		Operation: op,
		Outcome:   outcome,
		Detail:    detail,
	}); err != nil {
		cc.Logger.Warn("failed to record operation", "operation", op, "error", err)
	}
}

// outcomeOf returns the journal outcome for a failed call.
func outcomeOf(err error) string {
	var timeoutErr *store.TimeoutError
	if errors.As(err, &timeoutErr) {
		return "timeout"
	}

	if errors.Is(err, errInterrupted) {
		return "interrupted"
	}

	return history.OutcomeError
}

package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"
	"golang.org/x/sync/singleflight"
)

// DefaultTokenURL is the OAuth2 token endpoint for store credentials.
var DefaultTokenURL = endpoints.Google.TokenURL

// tokenExpiryMargin is subtracted from a token's expiry when deciding
// whether it is still usable, so a request never starts with a token that
// expires in flight.
const tokenExpiryMargin = 60 * time.Second

// refreshTimeout bounds one refresh-token grant. The grant runs detached
// from any single caller's context.
const refreshTimeout = 60 * time.Second

// refreshKey is the single singleflight key; there is one token per provider.
const refreshKey = "refresh"

// Credentials identify the publisher account. They are supplied once at
// construction and never change for the lifetime of a client.
type Credentials struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
	PublisherID  string
}

// Validate reports every missing field at once.
func (c Credentials) Validate() error {
	var errs []error

	if c.ClientID == "" {
		errs = append(errs, &ValidationError{Field: "client ID", Reason: "must not be empty"})
	}

	if c.ClientSecret == "" {
		errs = append(errs, &ValidationError{Field: "client secret", Reason: "must not be empty"})
	}

	if c.RefreshToken == "" {
		errs = append(errs, &ValidationError{Field: "refresh token", Reason: "must not be empty"})
	}

	if c.PublisherID == "" {
		errs = append(errs, &ValidationError{Field: "publisher ID", Reason: "must not be empty"})
	}

	return errors.Join(errs...)
}

// LogValue keeps secrets out of logs: only the publisher and a short
// client ID suffix are emitted.
func (c Credentials) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("publisher_id", c.PublisherID),
		slog.String("client_id", redact(c.ClientID)),
	)
}

func redact(s string) string {
	const visible = 6
	if len(s) <= visible {
		return strings.Repeat("*", len(s))
	}

	return "..." + s[len(s)-visible:]
}

// AccessToken is a bearer token and the instant it stops being valid.
type AccessToken struct {
	Token     string
	ExpiresAt time.Time
}

// validAt reports whether the token can still be used at now.
func (t AccessToken) validAt(now time.Time) bool {
	return t.Token != "" && now.Before(t.ExpiresAt.Add(-tokenExpiryMargin))
}

// TokenProvider owns one access token and refreshes it lazily with the
// OAuth2 refresh-token grant. It is safe for concurrent use: at most one
// refresh is in flight and concurrent callers share its result.
type TokenProvider struct {
	cfg        *oauth2.Config
	creds      Credentials
	httpClient *http.Client
	clock      clockwork.Clock
	logger     *slog.Logger

	mu      sync.Mutex
	current AccessToken

	group singleflight.Group
}

// NewTokenProvider creates a provider for creds against tokenURL.
// An empty tokenURL uses DefaultTokenURL.
func NewTokenProvider(creds Credentials, tokenURL string, httpClient *http.Client, logger *slog.Logger) *TokenProvider {
	if logger == nil {
		logger = slog.Default()
	}

	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	if tokenURL == "" {
		tokenURL = DefaultTokenURL
	}

	return &TokenProvider{
		cfg: &oauth2.Config{
			ClientID:     creds.ClientID,
			ClientSecret: creds.ClientSecret,
			Endpoint: oauth2.Endpoint{
				TokenURL:  tokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		creds:      creds,
		httpClient: httpClient,
		clock:      clockwork.NewRealClock(),
		logger:     logger,
	}
}

// Token returns a usable access token, refreshing it first if the cached
// one is missing or within tokenExpiryMargin of expiry. No retry is done.
// Canceling ctx abandons the wait for this caller only; a refresh other
// callers have joined runs to completion, bounded by refreshTimeout.
func (p *TokenProvider) Token(ctx context.Context) (AccessToken, error) {
	if tok, ok := p.cached(); ok {
		return tok, nil
	}

	if err := ctx.Err(); err != nil {
		return AccessToken{}, err
	}

	refreshCtx := context.WithoutCancel(ctx)

	ch := p.group.DoChan(refreshKey, func() (any, error) {
		// Another caller may have refreshed between our check and DoChan.
		if tok, ok := p.cached(); ok {
			return tok, nil
		}

		rctx, cancel := context.WithTimeout(refreshCtx, refreshTimeout)
		defer cancel()

		return p.refresh(rctx)
	})

	var res singleflight.Result

	select {
	case res = <-ch:
	case <-ctx.Done():
		p.logger.Debug("stopped waiting for token refresh", slog.String("error", ctx.Err().Error()))
		return AccessToken{}, ctx.Err()
	}

	if res.Err != nil {
		return AccessToken{}, res.Err
	}

	if res.Shared {
		p.logger.Debug("joined in-flight token refresh")
	}

	tok, ok := res.Val.(AccessToken)
	if !ok {
		return AccessToken{}, &AuthError{Err: fmt.Errorf("unexpected refresh result %T", res.Val)}
	}

	return tok, nil
}

func (p *TokenProvider) cached() (AccessToken, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.current.validAt(p.clock.Now()) {
		return p.current, true
	}

	return AccessToken{}, false
}

// refresh performs the refresh-token grant and replaces the cached token.
// On failure the previous cached value is left untouched.
func (p *TokenProvider) refresh(ctx context.Context) (AccessToken, error) {
	p.logger.Info("refreshing access token", slog.Any("credentials", p.creds))

	if p.creds.RefreshToken == "" {
		return AccessToken{}, &AuthError{Err: errors.New("refresh token is not set")}
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
	requestedAt := p.clock.Now()

	// A fresh source per refresh: the seed token carries only the refresh
	// token, so the oauth2 library always performs the grant.
	src := p.cfg.TokenSource(ctx, &oauth2.Token{RefreshToken: p.creds.RefreshToken})

	raw, err := src.Token()
	if err != nil {
		p.logger.Warn("token refresh failed", slog.String("error", err.Error()))
		return AccessToken{}, &AuthError{Err: err}
	}

	tok, err := accessTokenFrom(raw, requestedAt)
	if err != nil {
		p.logger.Warn("token endpoint returned a malformed token", slog.String("error", err.Error()))
		return AccessToken{}, &AuthError{Err: err}
	}

	p.mu.Lock()
	p.current = tok
	p.mu.Unlock()

	p.logger.Info("access token refreshed", slog.Time("expires_at", tok.ExpiresAt))

	return tok, nil
}

// accessTokenFrom converts an oauth2 token, computing the expiry from
// expires_in relative to when the request was issued.
func accessTokenFrom(raw *oauth2.Token, requestedAt time.Time) (AccessToken, error) {
	if raw.AccessToken == "" {
		return AccessToken{}, errors.New("response missing access_token")
	}

	var expiresAt time.Time

	switch {
	case raw.ExpiresIn > 0:
		expiresAt = requestedAt.Add(time.Duration(raw.ExpiresIn) * time.Second)
	case !raw.Expiry.IsZero():
		expiresAt = raw.Expiry
	default:
		return AccessToken{}, errors.New("response missing expires_in")
	}

	return AccessToken{Token: raw.AccessToken, ExpiresAt: expiresAt}, nil
}

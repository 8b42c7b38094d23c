package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// DefaultBaseURL is the production API host.
const DefaultBaseURL = "https://chromewebstore.googleapis.com"

// DefaultUserAgent is sent when the caller does not supply one.
const DefaultUserAgent = "webstore-go/dev"

// emptyJSON is returned for successful responses with no body.
var emptyJSON = json.RawMessage(`{}`)

// TokenSource provides bearer tokens. Defined at the consumer per Go
// convention; *TokenProvider is the real implementation.
type TokenSource interface {
	Token(ctx context.Context) (AccessToken, error)
}

// Client is an HTTP client for the store publishing API. Each operation is
// one authenticated request; failures are classified but never retried.
type Client struct {
	baseURL     string
	publisherID string
	httpClient  *http.Client
	token       TokenSource
	logger      *slog.Logger
	userAgent   string
}

// NewClient creates a store API client scoped to one publisher.
// baseURL is typically DefaultBaseURL.
func NewClient(
	baseURL, publisherID string, httpClient *http.Client, token TokenSource, logger *slog.Logger, userAgent string,
) *Client {
	if logger == nil {
		logger = slog.Default()
	}

	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	return &Client{
		baseURL:     baseURL,
		publisherID: publisherID,
		httpClient:  httpClient,
		token:       token,
		logger:      logger,
		userAgent:   userAgent,
	}
}

// Do executes one authenticated request against the API. path is appended
// to the base URL. A nil body sends no payload and no Content-Type.
// On 2xx it returns the JSON body, or {} if the body is empty. Any other
// status becomes an *HTTPError carrying the response text.
func (c *Client) Do(
	ctx context.Context, method, path, contentType string, body []byte,
) (json.RawMessage, error) {
	tok, err := c.token.Token(ctx)
	if err != nil {
		return nil, err
	}

	var reader io.Reader = http.NoBody
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("store: creating request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+tok.Token)
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	if body != nil && contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	start := time.Now()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("store: request canceled: %w", ctx.Err())
		}

		c.logger.Error("request failed",
			slog.String("method", method),
			slog.String("path", path),
			slog.String("error", err.Error()),
		)

		return nil, fmt.Errorf("store: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, readErr := io.ReadAll(resp.Body)

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		if readErr != nil {
			respBody = []byte("(failed to read response body)")
		}

		c.logger.Warn("request returned error status",
			slog.String("method", method),
			slog.String("path", path),
			slog.Int("status", resp.StatusCode),
		)

		return nil, &HTTPError{
			StatusCode: resp.StatusCode,
			Body:       string(respBody),
			Err:        classifyStatus(resp.StatusCode),
		}
	}

	if readErr != nil {
		return nil, fmt.Errorf("store: reading %s %s response: %w", method, path, readErr)
	}

	c.logger.Debug("request succeeded",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", time.Since(start)),
	)

	if len(bytes.TrimSpace(respBody)) == 0 {
		return emptyJSON, nil
	}

	if !json.Valid(respBody) {
		return nil, fmt.Errorf("store: %s %s: response is not valid JSON", method, path)
	}

	return json.RawMessage(respBody), nil
}

// doJSON marshals in (if non-nil), issues the request and decodes the
// response into out (if non-nil).
func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	var body []byte

	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("store: encoding request body: %w", err)
		}

		body = b
	}

	raw, err := c.Do(ctx, method, path, "application/json", body)
	if err != nil {
		return err
	}

	if out == nil {
		return nil
	}

	if err := decodeRaw(raw, out); err != nil {
		return fmt.Errorf("store: decoding %s response: %w", path, err)
	}

	return nil
}

func decodeRaw(raw json.RawMessage, out any) error {
	return json.Unmarshal(raw, out)
}

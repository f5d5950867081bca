// file: internal/obot/client.go

// Package obot is a small client for the Obot endpoints the credential
// helper talks to.
package obot

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	json "github.com/goccy/go-json"
	"golang.org/x/oauth2"

	"obot-cred/internal/logger"
	"obot-cred/internal/metrics"
)

// Endpoint labels used in logs and metrics
const (
	endpointAuthProviders  = "auth-providers"
	endpointTokenRequest   = "token-request"
	endpointTokenRequestID = "token-request-status"
	endpointTokens         = "tokens"
)

// AuthProvider is an identity source the server can authenticate against
type AuthProvider struct {
	ID         string `json:"id"`
	Namespace  string `json:"namespace"`
	Name       string `json:"name"`
	Configured bool   `json:"configured"`
}

type authProviderList struct {
	Items []AuthProvider `json:"items"`
}

// TokenRequest registers one pending interactive authorization
type TokenRequest struct {
	ID                string `json:"id"`
	ProviderNamespace string `json:"providerNamespace"`
	ProviderName      string `json:"providerName"`
}

type tokenRequestResponse struct {
	TokenPath string `json:"token-path"`
}

// TokenStatus is the body returned by both the token-request poll and the
// refresh endpoint. Token is nil or empty until the token exists.
type TokenStatus struct {
	Token     *string `json:"token"`
	ExpiresAt string  `json:"expiresAt"`
}

// AccessToken returns the token, or "" when none was issued yet
func (s TokenStatus) AccessToken() string {
	if s.Token == nil {
		return ""
	}
	return *s.Token
}

// Ready reports whether the server issued a token
func (s TokenStatus) Ready() bool {
	return s.AccessToken() != ""
}

// StatusError is returned for any non-200 response. Body is the raw
// response body so it can be shown to the user unchanged.
type StatusError struct {
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s request failed with status %d: %s", e.Endpoint, e.StatusCode, e.Body)
}

// Client talks to a single Obot server
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *logger.Logger
	metrics    *metrics.Metrics
}

// NewClient creates a client for baseURL. A nil httpClient gets one without
// a timeout; metrics may be nil.
func NewClient(baseURL string, httpClient *http.Client, log *logger.Logger, m *metrics.Metrics) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     log,
		metrics:    m,
	}
}

// BaseURL returns the server URL this client targets
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ListAuthProviders returns every provider the server knows about,
// configured or not.
func (c *Client) ListAuthProviders(ctx context.Context) ([]AuthProvider, error) {
	var list authProviderList
	if err := c.do(ctx, c.httpClient, endpointAuthProviders, http.MethodGet, "/api/auth-providers", nil, &list); err != nil {
		return nil, err
	}
	return list.Items, nil
}

// CreateTokenRequest registers req and returns the URL the user must visit
func (c *Client) CreateTokenRequest(ctx context.Context, req TokenRequest) (string, error) {
	var resp tokenRequestResponse
	if err := c.do(ctx, c.httpClient, endpointTokenRequest, http.MethodPost, "/api/token-request", req, &resp); err != nil {
		return "", err
	}
	if resp.TokenPath == "" {
		return "", fmt.Errorf("token request %s: response has no token-path", req.ID)
	}
	return resp.TokenPath, nil
}

// GetTokenRequest fetches the current state of a token request
func (c *Client) GetTokenRequest(ctx context.Context, id string) (TokenStatus, error) {
	var status TokenStatus
	path := "/api/token-request/" + url.PathEscape(id)
	if err := c.do(ctx, c.httpClient, endpointTokenRequestID, http.MethodGet, path, nil, &status); err != nil {
		return TokenStatus{}, err
	}
	return status, nil
}

// RefreshToken exchanges refreshToken for a new token. The refresh token
// itself is the bearer credential for this call.
func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (TokenStatus, error) {
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: refreshToken, TokenType: "Bearer"})
	authClient := oauth2.NewClient(context.WithValue(ctx, oauth2.HTTPClient, c.httpClient), src)
	authClient.Timeout = c.httpClient.Timeout

	var status TokenStatus
	if err := c.do(ctx, authClient, endpointTokens, http.MethodPost, "/api/tokens", nil, &status); err != nil {
		return TokenStatus{}, err
	}
	return status, nil
}

// do performs one request and decodes a 200 response into out
func (c *Client) do(ctx context.Context, client *http.Client, endpoint, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode %s request: %w", endpoint, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		c.observe(endpoint, 0, start)
		return fmt.Errorf("%s request failed: %w", endpoint, err)
	}
	defer resp.Body.Close()
	c.observe(endpoint, resp.StatusCode, start)

	c.logger.Debug("obot api response",
		"endpoint", endpoint,
		"method", method,
		"status", resp.StatusCode,
		"duration", time.Since(start))

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return &StatusError{
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Body:       string(bodyBytes),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to parse %s response: %w", endpoint, err)
	}
	return nil
}

func (c *Client) observe(endpoint string, status int, start time.Time) {
	if c.metrics == nil {
		return
	}
	c.metrics.IncHTTPOutboundRequestsTotal(endpoint, status)
	c.metrics.ObserveHTTPOutboundDuration(endpoint, time.Since(start).Seconds())
}

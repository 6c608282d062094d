// Package lwa talks to the Login with Amazon token endpoint.
package lwa

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/guillermop/sellerauth/internal/apperrors"
	"github.com/guillermop/sellerauth/internal/logger"
)

const (
	// DefaultTokenURL is the production LWA token endpoint
	DefaultTokenURL = "https://api.amazon.com/auth/o2/token"

	defaultTimeout = 10 * time.Second
)

// TokenError is returned when the token endpoint did not yield a usable token
// Response carries the provider's body verbatim so callers can surface it
type TokenError struct {
	StatusCode int
	Response   json.RawMessage

	Err error
}

func (e *TokenError) Error() string {
	return fmt.Sprintf("status: %d, response: %s, error: %v", e.StatusCode, e.Response, e.Err)
}

func (e *TokenError) Unwrap() error {
	return e.Err
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
}

type Config struct {
	// Token endpoint, DefaultTokenURL if not set
	// Tests point it at a stub server
	TokenURL string

	// LWA application credentials
	ClientID     string
	ClientSecret string

	// HTTP timeout, 10s if not set
	Timeout time.Duration
}

// Client performs the form encoded token grants
// Exactly one attempt per call, no retries
type Client struct {
	tokenURL     string
	clientID     string
	clientSecret string

	client *http.Client
	logger logger.Logger
}

func NewClient(cfg Config, l logger.Logger) *Client {
	if cfg.TokenURL == "" {
		cfg.TokenURL = DefaultTokenURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	if l == nil {
		l = logger.NewNoOpLogger()
	}

	return &Client{
		tokenURL:     cfg.TokenURL,
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		client:       &http.Client{Timeout: cfg.Timeout},
		logger:       l,
	}
}

// ExchangeCode trades an authorization code for the long lived refresh token
// A 200 without refresh_token is a failure too, nothing may be stored then
func (c *Client) ExchangeCode(ctx context.Context, code string, redirectURI string) (string, error) {
	form := url.Values{
		"grant_type":    {"authorization_code"},
		"code":          {code},
		"redirect_uri":  {redirectURI},
		"client_id":     {c.clientID},
		"client_secret": {c.clientSecret},
	}

	token, raw, err := c.postForm(ctx, form)
	if err != nil {
		return "", err
	}

	if token.RefreshToken == "" {
		c.logger.Warn("Token endpoint answered 200 without refresh_token")
		return "", &TokenError{StatusCode: http.StatusOK, Response: raw, Err: apperrors.ErrNoRefreshToken}
	}

	c.logger.Debug("Authorization code exchanged")
	return token.RefreshToken, nil
}

// RefreshAccessToken trades a stored refresh token for a short lived access token
// Pure read-through to the provider, nothing is persisted
func (c *Client) RefreshAccessToken(ctx context.Context, refreshToken string) (string, error) {
	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
		"client_id":     {c.clientID},
		"client_secret": {c.clientSecret},
	}

	token, raw, err := c.postForm(ctx, form)
	if err != nil {
		return "", err
	}

	if token.AccessToken == "" {
		c.logger.Warn("Token endpoint answered 200 without access_token")
		return "", &TokenError{StatusCode: http.StatusOK, Response: raw, Err: fmt.Errorf("token response contains no access token")}
	}

	return token.AccessToken, nil
}

func (c *Client) postForm(ctx context.Context, form url.Values) (tokenResponse, json.RawMessage, error) {
	var token tokenResponse

	ctx, cancel := context.WithTimeout(ctx, c.client.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return token, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		return token, nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close() // nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return token, nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("Token endpoint request failed", "status_code", resp.StatusCode, "grant_type", form.Get("grant_type"))
		return token, nil, &TokenError{
			StatusCode: resp.StatusCode,
			Response:   body,
			Err:        fmt.Errorf("unexpected status code %d", resp.StatusCode),
		}
	}

	if err := json.Unmarshal(body, &token); err != nil {
		c.logger.Warn("Failed to decode token response", "error", err)
		return token, nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return token, body, nil
}

package gs1

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// DefaultBaseURL is the GS1 Sweden API management gateway.
const DefaultBaseURL = "https://validoopwe-apimanagement.azure-api.net"

// ErrNotFound is returned when the trade item API has no item for a GTIN.
var ErrNotFound = errors.New("gs1: trade item not found")

// =============================================================================
// Client: GS1 API base client
// Token management and HTTP plumbing shared by the trade item calls
// =============================================================================

// Config holds the credentials issued through MyGS1.
type Config struct {
	BaseURL         string
	ClientID        string
	ClientSecret    string
	SubscriptionKey string
	Username        string
	Password        string
	GLN             string // subscriber GLN for subscriptions
	Timeout         time.Duration
}

// Complete reports whether every credential is set.
func (c Config) Complete() bool {
	return c.ClientID != "" && c.ClientSecret != "" && c.SubscriptionKey != "" &&
		c.Username != "" && c.Password != ""
}

// Client talks to the GS1 trade item API.
type Client struct {
	cfg         Config
	tokenCache  string
	tokenExpire time.Time
	mu          sync.RWMutex
	httpClient  *http.Client
}

// NewClient creates a client. Empty BaseURL falls back to DefaultBaseURL.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// AccessToken returns a cached password-grant token, refreshing it 60 seconds
// before it expires.
func (c *Client) AccessToken(ctx context.Context) (string, error) {
	c.mu.RLock()
	if c.tokenCache != "" && time.Now().Before(c.tokenExpire) {
		token := c.tokenCache
		c.mu.RUnlock()
		return token, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	// another goroutine may have refreshed it
	if c.tokenCache != "" && time.Now().Before(c.tokenExpire) {
		return c.tokenCache, nil
	}

	form := url.Values{}
	form.Set("grant_type", "password")
	form.Set("client_id", c.cfg.ClientID)
	form.Set("client_secret", c.cfg.ClientSecret)
	form.Set("username", c.cfg.Username)
	form.Set("password", c.cfg.Password)
	form.Set("scope", "api offline_access")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/connect/token",
		strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Ocp-Apim-Subscription-Key", c.cfg.SubscriptionKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request gs1 token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("gs1 auth failed [%d]: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var result struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if result.AccessToken == "" {
		return "", errors.New("gs1 auth returned no access token")
	}

	c.tokenCache = result.AccessToken
	c.tokenExpire = time.Now().Add(time.Duration(result.ExpiresIn-60) * time.Second)

	return result.AccessToken, nil
}

// doRequest sends an authorised request and decodes a JSON response into result.
// A 404 maps to ErrNotFound.
func (c *Client) doRequest(ctx context.Context, method, path string, body, result interface{}) error {
	token, err := c.AccessToken(ctx)
	if err != nil {
		return fmt.Errorf("get access token: %w", err)
	}

	var bodyReader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Ocp-Apim-Subscription-Key", c.cfg.SubscriptionKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("gs1 api error [%d]: %s (path=%s)", resp.StatusCode, strings.TrimSpace(string(respBody)), path)
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("decode response body: %w", err)
		}
	}
	return nil
}

// Ping checks that the credentials are accepted.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.AccessToken(ctx)
	return err
}

package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// Account is the identity service's view of one user account.
type Account struct {
	ID            string         `json:"id"`
	Email         string         `json:"email"`
	EmailVerified bool           `json:"email_verified"`
	Disabled      bool           `json:"disabled"`
	CustomClaims  map[string]any `json:"custom_claims"`
}

// Client calls the identity service's account-management API. The service
// itself is opaque; this client only knows its REST surface.
type Client struct {
	endpoint string
	apiKey   string
	http     *http.Client
}

func NewClient(creds *Credentials, httpClient *http.Client) *Client {
	return &Client{
		endpoint: creds.Endpoint,
		apiKey:   creds.APIKey,
		http:     httpClient,
	}
}

// CreateAccount creates a new account and returns it with its assigned id.
func (c *Client) CreateAccount(ctx context.Context, email, password string) (*Account, error) {
	body := map[string]string{"email": email, "password": password}
	var account Account
	if err := c.do(ctx, http.MethodPost, "/v1/accounts", body, &account); err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}
	return &account, nil
}

// GetAccount fetches one account by id.
func (c *Client) GetAccount(ctx context.Context, id string) (*Account, error) {
	var account Account
	if err := c.do(ctx, http.MethodGet, "/v1/accounts/"+id, nil, &account); err != nil {
		return nil, fmt.Errorf("failed to fetch account %s: %w", id, err)
	}
	return &account, nil
}

// SetAdminClaim sets the admin custom claim on an account.
func (c *Client) SetAdminClaim(ctx context.Context, id string) error {
	body := map[string]any{"custom_claims": map[string]any{"admin": true}}
	if err := c.do(ctx, http.MethodPatch, "/v1/accounts/"+id+"/claims", body, nil); err != nil {
		return fmt.Errorf("failed to set admin claim on %s: %w", id, err)
	}
	return nil
}

// UpdatePassword replaces the account's password.
func (c *Client) UpdatePassword(ctx context.Context, id, password string) error {
	body := map[string]string{"password": password}
	if err := c.do(ctx, http.MethodPatch, "/v1/accounts/"+id+"/password", body, nil); err != nil {
		return fmt.Errorf("failed to update password for %s: %w", id, err)
	}
	return nil
}

type apiError struct {
	Error string `json:"error"`
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr apiError
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("identity service: %s", apiErr.Error)
		}
		return fmt.Errorf("identity service: status %d", resp.StatusCode)
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

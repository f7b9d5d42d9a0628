package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const apiBase = "/api/v1"

// Client talks to the account daemon's JSON API
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a client for the daemon at baseURL. The token is only
// sent when set; the admin routes need it.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Error is a failure reported by the daemon in its {"error": {...}} body
type Error struct {
	Status  int
	Code    string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s (%s)", e.Message, e.Code)
}

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// decodeError turns a non-2xx response into an *Error. Bodies that are not
// the daemon's error shape, e.g. from a proxy, keep the raw text.
func decodeError(status int, body []byte) error {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil && eb.Error.Code != "" {
		return &Error{Status: status, Code: eb.Error.Code, Message: eb.Error.Message}
	}
	return &Error{
		Status:  status,
		Code:    http.StatusText(status),
		Message: strings.TrimSpace(string(body)),
	}
}

func accountPath(name, action string) string {
	return apiBase + "/accounts/" + url.PathEscape(name) + action
}

// do sends one request. A nil result discards the response body.
func (c *Client) do(ctx context.Context, method, path string, body, result any) error {
	var payload io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		payload = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, payload)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return decodeError(resp.StatusCode, data)
	}

	if result == nil || resp.StatusCode == http.StatusNoContent || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, result); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Health fetches the daemon's health summary
func (c *Client) Health(ctx context.Context) (HealthResult, error) {
	var h HealthResult
	err := c.do(ctx, http.MethodGet, apiBase+"/health", nil, &h)
	return h, err
}

// ListAccounts returns every live index entry
func (c *Client) ListAccounts(ctx context.Context) (AccountList, error) {
	var l AccountList
	err := c.do(ctx, http.MethodGet, apiBase+"/accounts", nil, &l)
	return l, err
}

// GetAccount fetches one account's record
func (c *Client) GetAccount(ctx context.Context, name string) (Account, error) {
	var a Account
	err := c.do(ctx, http.MethodGet, accountPath(name, ""), nil, &a)
	return a, err
}

// Register creates an account
func (c *Client) Register(ctx context.Context, name, password, email string) (Account, error) {
	req := map[string]string{"name": name, "password": password}
	if email != "" {
		req["email"] = email
	}
	var a Account
	err := c.do(ctx, http.MethodPost, apiBase+"/accounts", req, &a)
	return a, err
}

// Login checks a password and records the login
func (c *Client) Login(ctx context.Context, name, password string) (LoginResult, error) {
	var r LoginResult
	err := c.do(ctx, http.MethodPost, accountPath(name, "/login"), map[string]string{"password": password}, &r)
	return r, err
}

// DeleteSelf flags an account for removal at the next sweep
func (c *Client) DeleteSelf(ctx context.Context, name, password string) error {
	return c.do(ctx, http.MethodPost, accountPath(name, "/delete"), map[string]string{"password": password}, nil)
}

// Purge removes an account and its files immediately (admin)
func (c *Client) Purge(ctx context.Context, name string) error {
	return c.do(ctx, http.MethodDelete, accountPath(name, ""), nil, nil)
}

// SetProtected sets or clears an account's cleanup exemption (admin)
func (c *Client) SetProtected(ctx context.Context, name string, protected bool) (Account, error) {
	var a Account
	err := c.do(ctx, http.MethodPut, accountPath(name, "/protect"), map[string]bool{"protected": protected}, &a)
	return a, err
}

// Sweep runs a cleanup pass now (admin)
func (c *Client) Sweep(ctx context.Context) (CleanupResult, error) {
	var r CleanupResult
	err := c.do(ctx, http.MethodPost, apiBase+"/cleanup", nil, &r)
	return r, err
}

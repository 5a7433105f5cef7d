// Package client is a thin HTTP client for the casegate server API. It backs
// the casegate CLI; the web frontend talks to the server directly.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// authHeader must match the header the server's middleware checks.
const authHeader = "X-Casegate-Key"

// APIError is a non-2xx server response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned status %d", e.Status)
	}
	return fmt.Sprintf("server returned status %d: %s", e.Status, e.Message)
}

type Client struct {
	baseURL string
	key     string
	httpc   *http.Client
}

// New creates a client for the server at baseURL, authenticating every
// request with the shared gateway key.
func New(baseURL, key string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		key:     key,
		httpc:   &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return nil, err
	}
	req.Header.Set(authHeader, c.key)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			Error string `json:"error"`
		}
		json.Unmarshal(data, &e)
		return nil, &APIError{Status: resp.StatusCode, Message: e.Error}
	}
	return data, nil
}

// GetSecret fetches a provisioned secret value by allow-listed name.
func (c *Client) GetSecret(ctx context.Context, name string) (string, error) {
	data, err := c.do(ctx, http.MethodGet, "/v1/secrets/"+name, nil)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// VerifyPassword checks a candidate access password.
func (c *Client) VerifyPassword(ctx context.Context, password string) (bool, error) {
	body, err := json.Marshal(map[string]string{"password": password})
	if err != nil {
		return false, err
	}
	data, err := c.do(ctx, http.MethodPost, "/v1/secrets/verify-auth-password", body)
	if err != nil {
		return false, err
	}
	var out struct {
		OK bool `json:"ok"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return false, fmt.Errorf("decode response: %w", err)
	}
	return out.OK, nil
}

// GetProfile fetches a profile as raw JSON.
func (c *Client) GetProfile(ctx context.Context, uid string) (json.RawMessage, error) {
	return c.do(ctx, http.MethodGet, "/v1/profiles/"+uid, nil)
}

// PutProfile merges the given partial profile JSON and returns the stored
// record.
func (c *Client) PutProfile(ctx context.Context, uid string, update []byte) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPut, "/v1/profiles/"+uid, update)
}

// DeleteProfile removes a profile. Absent uids still succeed.
func (c *Client) DeleteProfile(ctx context.Context, uid string) error {
	_, err := c.do(ctx, http.MethodDelete, "/v1/profiles/"+uid, nil)
	return err
}

// GetDocument reads a document object; paths nothing has written read as [].
func (c *Client) GetDocument(ctx context.Context, path string) ([]byte, error) {
	return c.do(ctx, http.MethodGet, "/v1/documents/"+strings.TrimLeft(path, "/"), nil)
}

// PutDocument replaces a document object with the given JSON.
func (c *Client) PutDocument(ctx context.Context, path string, data []byte) error {
	_, err := c.do(ctx, http.MethodPut, "/v1/documents/"+strings.TrimLeft(path, "/"), data)
	return err
}

// DeleteDocument removes a document object.
func (c *Client) DeleteDocument(ctx context.Context, path string) error {
	_, err := c.do(ctx, http.MethodDelete, "/v1/documents/"+strings.TrimLeft(path, "/"), nil)
	return err
}

// SignMedia returns a time-limited signed serving URL for a media path.
func (c *Client) SignMedia(ctx context.Context, path string) (string, error) {
	data, err := c.do(ctx, http.MethodGet, "/v1/media/sign/"+strings.TrimLeft(path, "/"), nil)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

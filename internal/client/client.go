// Package client is the HTTP transport of the auth service used by the dispatcher.
//
// Each method maps to one request kind. Non-2xx replies come back as *APIError
// carrying the server's message; failures to reach the server match
// ErrTransportUnavailable.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	accountDomain "github.com/allisson/credentials/internal/account/domain"
	"github.com/allisson/credentials/internal/account/http/dto"
)

// DefaultTimeout bounds one round trip when no HTTP client is supplied.
const DefaultTimeout = 30 * time.Second

// maxErrorBody caps how much of an unexpected error body is kept.
const maxErrorBody = 4 << 10

// Client calls the auth service.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures the client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient = &http.Client{Timeout: timeout}
	}
}

// New creates a client for the server at baseURL, e.g. "http://localhost:8080".
func New(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("server URL is required")
	}

	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// GetKey fetches the server public key.
func (c *Client) GetKey(ctx context.Context) (*dto.KeyAnnouncement, error) {
	var announcement dto.KeyAnnouncement
	if err := c.do(ctx, accountDomain.GetKey, nil, &announcement); err != nil {
		return nil, err
	}
	return &announcement, nil
}

// Heartbeat probes server liveness.
func (c *Client) Heartbeat(ctx context.Context) error {
	return c.do(ctx, accountDomain.Heartbeat, nil, nil)
}

// CreateUser submits an encrypted registration.
func (c *Client) CreateUser(ctx context.Context, req *dto.RegistrationRequest) (*dto.GenericReply, error) {
	var reply dto.GenericReply
	if err := c.do(ctx, accountDomain.CreateUser, req, &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}

// Login submits an encrypted login attempt and returns the sealed profile.
func (c *Client) Login(ctx context.Context, req *dto.LoginRequest) (*dto.ProfileResponse, error) {
	var profile dto.ProfileResponse
	if err := c.do(ctx, accountDomain.Login, req, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (c *Client) do(ctx context.Context, kind accountDomain.RequestKind, body, result interface{}) error {
	method, path, ok := dto.Endpoint(kind)
	if !ok {
		return fmt.Errorf("no endpoint for request kind %s", kind)
	}
	url := c.baseURL + path

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &NetworkError{Err: err, Method: method, URL: url}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return parseErrorResponse(resp)
	}

	if result == nil || method == http.MethodHead {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func parseErrorResponse(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	apiErr := &APIError{
		StatusCode: resp.StatusCode,
		RequestID:  resp.Header.Get("X-Request-Id"),
	}

	var reply dto.GenericReply
	if err := json.Unmarshal(body, &reply); err == nil && reply.Message != "" {
		apiErr.Code = reply.Error
		apiErr.Message = reply.Message
		return apiErr
	}

	apiErr.Message = strings.TrimSpace(string(body))
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}

// Package api is the typed HTTP client for the game backend's REST API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const apiPrefix = "/api/v1"

// TokenSource yields the current bearer credential for a request.
type TokenSource func(ctx context.Context) (string, error)

// Client calls the game backend. Bearer attachment is an explicit policy: the
// backend also identifies players by provider uid in the path, so callers
// decide whether requests carry the Authorization header.
type Client struct {
	baseURL      string
	http         *http.Client
	token        TokenSource
	attachBearer bool
	maxRetries   uint64
	claimTimeout time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithTokenSource sets the bearer credential source and enables attachment.
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) {
		c.token = ts
		c.attachBearer = ts != nil
	}
}

// WithBearerAttachment overrides whether requests carry the bearer token.
func WithBearerAttachment(attach bool) Option {
	return func(c *Client) { c.attachBearer = attach }
}

// WithMaxRetries sets how many times read requests are retried.
func WithMaxRetries(n uint64) Option {
	return func(c *Client) { c.maxRetries = n }
}

// WithClaimTimeout bounds each claim request. A hung claim would otherwise
// keep its task excluded from retry forever.
func WithClaimTimeout(d time.Duration) Option {
	return func(c *Client) { c.claimTimeout = d }
}

// New creates a backend client for the given base URL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		http:         &http.Client{Timeout: 30 * time.Second},
		maxRetries:   2,
		claimTimeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var buf io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		buf = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+apiPrefix+path, buf)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	if c.attachBearer && c.token != nil {
		tok, err := c.token(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to obtain bearer token: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	return req, nil
}

// do executes the request once and decodes the response into out.
// Returns the response header for callers that need it (server time).
func (c *Client) do(req *http.Request, out any) (http.Header, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, decodeError(resp.StatusCode, body)
	}

	// Task-creation validation failures arrive with both code and message in
	// the body; distinguish on field presence, not HTTP status.
	if taskErr := probeTaskError(body); taskErr != nil {
		return nil, taskErr
	}

	if out != nil && len(body) > 0 {
		if err := json.Unmarshal(body, out); err != nil {
			return nil, fmt.Errorf("failed to decode response body: %w", err)
		}
	}
	return resp.Header, nil
}

// get executes a GET with bounded retry on transport errors and 5xx responses.
func (c *Client) get(ctx context.Context, path string, out any) (http.Header, error) {
	op := func() (http.Header, error) {
		req, err := c.newRequest(ctx, http.MethodGet, path, nil)
		if err != nil {
			return nil, backoff.Permanent(err)
		}
		header, err := c.do(req, out)
		if err != nil {
			if apiErr, ok := err.(*APIError); ok && apiErr.StatusCode < 500 {
				return nil, backoff.Permanent(err)
			}
			if _, ok := err.(*TaskError); ok {
				return nil, backoff.Permanent(err)
			}
			return nil, err
		}
		return header, nil
	}

	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), c.maxRetries), ctx)
	return backoff.RetryWithData(op, b)
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	req, err := c.newRequest(ctx, http.MethodPost, path, body)
	if err != nil {
		return err
	}
	_, err = c.do(req, out)
	return err
}

func (c *Client) put(ctx context.Context, path string, body, out any) error {
	req, err := c.newRequest(ctx, http.MethodPut, path, body)
	if err != nil {
		return err
	}
	_, err = c.do(req, out)
	return err
}

type errorBody struct {
	Code    *int    `json:"code"`
	Message *string `json:"message"`
}

// decodeError classifies an error response. A body carrying both code and
// message is a domain task error whatever the HTTP status; anything else is a
// transport-level APIError.
func decodeError(status int, body []byte) error {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil && eb.Code != nil && eb.Message != nil {
		return &TaskError{Code: TaskErrorCode(*eb.Code), Message: *eb.Message}
	}

	apiErr := &APIError{StatusCode: status}
	if eb.Code != nil {
		apiErr.Code = *eb.Code
	}
	if eb.Message != nil {
		apiErr.Message = *eb.Message
	}
	return apiErr
}

func probeTaskError(body []byte) *TaskError {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil {
		return nil
	}
	if eb.Code == nil || eb.Message == nil {
		return nil
	}
	return &TaskError{Code: TaskErrorCode(*eb.Code), Message: *eb.Message}
}

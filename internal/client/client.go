// Package client talks to the saphira API. Every response is decoded into
// the transport DTOs and then validated into domain values; a payload that
// does not fit is reported as ErrDecode rather than passed on.
package client

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

	"go.uber.org/zap"

	"github.com/sickboy81/saphira/internal/filters"
	"github.com/sickboy81/saphira/internal/infra/httpclient"
)

var (
	ErrDecode      = errors.New("invalid api response")
	ErrUnavailable = errors.New("backend unavailable")
)

const maxResponseBytes = 8 << 20

// APIError is a non-2xx response.
type APIError struct {
	Status        int
	Code          string
	Message       string
	Field         string
	Redirect      string
	RetryAfterSec int64
}

func (e *APIError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s (%d): %s: %s", e.Code, e.Status, e.Field, e.Message)
	}
	return fmt.Sprintf("%s (%d): %s", e.Code, e.Status, e.Message)
}

// IsStatus reports whether err is an APIError with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

type Options struct {
	BaseURL  string
	Timeout  time.Duration
	RetryMax int
	Logger   *zap.Logger
	// Bounds shapes the listing query string. Zero means filters.DefaultBounds.
	Bounds filters.Bounds
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	bounds     filters.Bounds

	mu          sync.RWMutex
	accessToken string
}

func New(opts Options) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("api base url is required")
	}
	if _, err := url.ParseRequestURI(base); err != nil {
		return nil, fmt.Errorf("parse api base url: %w", err)
	}

	bounds := opts.Bounds
	if bounds == (filters.Bounds{}) {
		bounds = filters.DefaultBounds()
	}

	return &Client{
		baseURL:    base,
		httpClient: httpclient.New(opts.Timeout, opts.RetryMax, opts.Logger),
		bounds:     bounds,
	}, nil
}

func (c *Client) SetAccessToken(token string) {
	c.mu.Lock()
	c.accessToken = token
	c.mu.Unlock()
}

func (c *Client) token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.accessToken
}

func (c *Client) get(ctx context.Context, endpoint string, out any) error {
	return c.do(ctx, http.MethodGet, endpoint, c.token(), nil, out)
}

func (c *Client) post(ctx context.Context, endpoint string, body, out any) error {
	return c.do(ctx, http.MethodPost, endpoint, c.token(), body, out)
}

func (c *Client) put(ctx context.Context, endpoint string, body, out any) error {
	return c.do(ctx, http.MethodPut, endpoint, c.token(), body, out)
}

func (c *Client) do(ctx context.Context, method, endpoint, token string, body, out any) error {
	var reader io.Reader
	contentType := ""
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
		contentType = "application/json"
	}
	return c.send(ctx, method, endpoint, token, contentType, reader, out)
}

func (c *Client) send(ctx context.Context, method, endpoint, token, contentType string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrUnavailable, method, endpoint, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp.StatusCode, raw)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrDecode, method, endpoint, err)
	}
	return nil
}

func decodeAPIError(status int, raw []byte) error {
	var payload struct {
		Code          string `json:"code"`
		Message       string `json:"message"`
		Field         string `json:"field"`
		Redirect      string `json:"redirect"`
		RetryAfterSec int64  `json:"retry_after_sec"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil || payload.Code == "" {
		payload.Code = "HTTP_ERROR"
		payload.Message = http.StatusText(status)
	}
	return &APIError{
		Status:        status,
		Code:          payload.Code,
		Message:       payload.Message,
		Field:         payload.Field,
		Redirect:      payload.Redirect,
		RetryAfterSec: payload.RetryAfterSec,
	}
}

package apiclient

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

	gonanoid "github.com/matoous/go-nanoid/v2"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/maheshrc27/postflow-sync/pkg/utils"
)

type Options struct {
	BaseURL      string
	SessionToken string
	Timeout      time.Duration
	// Transport replaces the default round tripper; tests route it into a fake backend.
	Transport http.RoundTripper
}

type Client struct {
	baseURL string
	http    *http.Client
	expiry  time.Time
	logger  *zap.Logger
	now     func() time.Time
}

func New(opts Options, logger *zap.Logger) *Client {
	base := &http.Client{Transport: opts.Transport}
	if base.Transport == nil {
		base.Transport = http.DefaultTransport
	}

	httpClient := base
	var expiry time.Time
	if opts.SessionToken != "" {
		expiry = utils.SessionExpiry(opts.SessionToken)
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, base)
		httpClient = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
			AccessToken: opts.SessionToken,
			TokenType:   "Bearer",
		}))
	}
	httpClient.Timeout = opts.Timeout

	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		http:    httpClient,
		expiry:  expiry,
		logger:  logger,
		now:     time.Now,
	}
}

// BaseURL is the backend origin without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Fetch performs a GET on path and returns the raw JSON body.
func (c *Client) Fetch(ctx context.Context, path string) ([]byte, error) {
	return c.do(ctx, http.MethodGet, path, nil)
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	raw, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	return decode(raw, out)
}

func (c *Client) sendJSON(ctx context.Context, method, path string, in, out any) error {
	raw, err := c.do(ctx, method, path, in)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return decode(raw, out)
}

func (c *Client) do(ctx context.Context, method, path string, in any) ([]byte, error) {
	if !c.expiry.IsZero() && c.now().After(c.expiry) {
		return nil, fmt.Errorf("%s %s: %w", method, path, ErrUnauthenticated)
	}

	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if id, err := gonanoid.New(); err == nil {
		req.Header.Set("X-Request-ID", id)
	}

	start := c.now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("Request failed", zap.String("method", method), zap.String("path", path), zap.Error(err))
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	c.logger.Debug("Request completed",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", c.now().Sub(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newAPIError(method, path, resp.StatusCode, raw)
	}

	return raw, nil
}

func newAPIError(method, path string, status int, raw []byte) *APIError {
	apiErr := &APIError{Method: method, Path: path, Status: status, Body: raw}

	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err == nil {
		apiErr.Message = body.Message
		if apiErr.Message == "" {
			apiErr.Message = body.Error
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(status)
	}
	return apiErr
}

func decode(raw []byte, out any) error {
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// AsAPIError unwraps err into an *APIError when the backend answered.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

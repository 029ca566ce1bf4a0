package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	MethodGet    = http.MethodGet
	MethodPost   = http.MethodPost
	MethodDelete = http.MethodDelete

	DefaultTimeout  = 5 * time.Minute
	RequestIDHeader = "X-Request-ID"
)

// ClientOption configures Client.
type ClientOption func(*Client)

// RequestOptions holds HTTP request parameters.
type RequestOptions struct {
	Method      string
	URL         string
	Headers     map[string]string
	QueryParams map[string][]string
	Body        interface{}
}

// Client talks to the analysis backend. Every call is bounded by the
// configured timeout; there is no retry.
type Client struct {
	baseURL string
	timeout time.Duration
	headers map[string]string
	client  *http.Client
}

// Download is a binary response body plus the file name the server suggested.
type Download struct {
	Filename    string
	ContentType string
	Data        []byte
}

// NewClient creates a new HTTP client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		timeout: DefaultTimeout,
		headers: map[string]string{"Accept": "application/json"},
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.client == nil {
		c.client = &http.Client{}
	}
	return c
}

// BaseURL returns the prefix every endpoint is resolved against.
func (c *Client) BaseURL() string { return c.baseURL }

// Timeout returns the per-request deadline.
func (c *Client) Timeout() time.Duration { return c.timeout }

// Send issues method on endpoint with an optional JSON body and decodes the
// JSON answer into dest. Failures are always *AppError.
func (c *Client) Send(ctx context.Context, method, endpoint string, body, dest interface{}) error {
	ctx, cancel, budget := c.withTimeout(ctx)
	defer cancel()

	resp, err := c.SendRequest(ctx, &RequestOptions{
		Method: method,
		URL:    c.ResolveURL(endpoint),
		Body:   body,
	})
	if err != nil {
		return c.transportError(ctx, err, budget)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return ResponseError(resp)
	}

	if dest == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	switch v := dest.(type) {
	case *[]byte:
		b, err := io.ReadAll(resp.Body)
		if err != nil {
			return c.transportError(ctx, err, budget)
		}
		*v = b
	default:
		if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
			if ctx.Err() != nil {
				return c.transportError(ctx, err, budget)
			}
			return NewAPIError(resp.StatusCode, "Invalid response from server").WithError(err)
		}
	}
	return nil
}

// Download posts body to endpoint and returns the raw response, typically a file.
func (c *Client) Download(ctx context.Context, endpoint string, body interface{}) (*Download, error) {
	ctx, cancel, budget := c.withTimeout(ctx)
	defer cancel()

	resp, err := c.SendRequest(ctx, &RequestOptions{
		Method:  MethodPost,
		URL:     c.ResolveURL(endpoint),
		Headers: map[string]string{"Accept": "*/*"},
		Body:    body,
	})
	if err != nil {
		return nil, c.transportError(ctx, err, budget)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, ResponseError(resp)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.transportError(ctx, err, budget)
	}

	return &Download{
		Filename:    FilenameFromDisposition(resp.Header.Get("Content-Disposition")),
		ContentType: resp.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

// SendRequest sends an HTTP request and returns response.
func (c *Client) SendRequest(ctx context.Context, opts *RequestOptions) (*http.Response, error) {
	req, err := c.buildRequest(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	return resp, nil
}

// ResolveURL joins endpoint onto the base URL. Absolute URLs pass through.
func (c *Client) ResolveURL(endpoint string) string {
	if strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://") {
		return endpoint
	}
	if c.baseURL == "" {
		return endpoint
	}
	return strings.TrimRight(c.baseURL, "/") + "/" + strings.TrimLeft(endpoint, "/")
}

// withTimeout applies the client timeout and returns the budget that will
// actually bound the request: the caller's deadline when it comes first.
func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc, time.Duration) {
	budget := c.timeout
	if d, ok := ctx.Deadline(); ok {
		if left := time.Until(d); budget <= 0 || left < budget {
			budget = roundBudget(left)
		}
	}
	if c.timeout <= 0 {
		ctx, cancel := context.WithCancel(ctx)
		return ctx, cancel, budget
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	return ctx, cancel, budget
}

func roundBudget(d time.Duration) time.Duration {
	switch {
	case d <= 0:
		return 0
	case d < time.Second:
		return d.Round(time.Millisecond)
	}
	return d.Round(time.Second)
}

func (c *Client) transportError(ctx context.Context, err error, budget time.Duration) *AppError {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return NewTimeoutError(budget).WithError(err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return NewTimeoutError(budget).WithError(err)
	}

	// Report the innermost transport message, not our own wrapping.
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		return NewNetworkError(urlErr.Err).WithError(err)
	}
	return NewNetworkError(err).WithError(err)
}

// ResponseError builds the APIError for a non-2xx response. It prefers the
// "error" then "message" field of a JSON body and otherwise falls back to
// "HTTP <status>: <status text>".
func ResponseError(resp *http.Response) *AppError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	var payload struct {
		Error   interface{} `json:"error"`
		Message string      `json:"message"`
		Details interface{} `json:"details"`
	}
	if len(body) > 0 && json.Unmarshal(body, &payload) == nil {
		msg := ""
		if s, ok := payload.Error.(string); ok {
			msg = s
		}
		if msg == "" {
			msg = payload.Message
		}
		if strings.TrimSpace(msg) != "" {
			e := NewAPIError(resp.StatusCode, msg)
			if payload.Details != nil {
				e.WithParam("details", payload.Details)
			}
			return e
		}
	}

	return NewAPIError(resp.StatusCode, fmt.Sprintf("HTTP %d: %s", resp.StatusCode, statusText(resp)))
}

func statusText(resp *http.Response) string {
	text := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if text == "" {
		text = http.StatusText(resp.StatusCode)
	}
	return text
}

// FilenameFromDisposition extracts filename from a Content-Disposition header value.
func FilenameFromDisposition(header string) string {
	if header == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(header)
	if err != nil {
		return ""
	}
	return params["filename"]
}

func (c *Client) buildRequest(ctx context.Context, opts *RequestOptions) (*http.Request, error) {
	body, err := c.createRequestBody(opts)
	if err != nil {
		return nil, fmt.Errorf("create body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, opts.Method, opts.URL, body)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}

	c.addQueryParams(req, opts.QueryParams)
	c.addHeaders(req, opts.Headers)

	return req, nil
}

func (c *Client) createRequestBody(opts *RequestOptions) (io.Reader, error) {
	if opts.Body == nil {
		return nil, nil
	}

	switch v := opts.Body.(type) {
	case []byte:
		return bytes.NewReader(v), nil
	case io.Reader:
		return v, nil
	case string:
		return strings.NewReader(v), nil
	default:
		jsonBody, err := json.Marshal(opts.Body)
		if err != nil {
			return nil, fmt.Errorf("marshal json: %w", err)
		}
		return bytes.NewReader(jsonBody), nil
	}
}

func (c *Client) addQueryParams(req *http.Request, params map[string][]string) {
	if len(params) > 0 {
		q := req.URL.Query()
		for key, values := range params {
			for _, value := range values {
				q.Add(key, value)
			}
		}
		req.URL.RawQuery = q.Encode()
	}
}

func (c *Client) addHeaders(req *http.Request, headers map[string]string) {
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	req.Header.Set("Content-Type", "application/json")
	if req.Header.Get(RequestIDHeader) == "" {
		req.Header.Set(RequestIDHeader, uuid.NewString())
	}
}

// WithTimeout sets the per-request deadline. Zero disables it.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithBaseURL sets the prefix endpoints are resolved against.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithHeader adds a header sent on every request.
func WithHeader(key, value string) ClientOption {
	return func(c *Client) {
		c.headers[key] = value
	}
}

// WithHTTPClient replaces the underlying transport client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.client = hc
	}
}

package httpclient

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/kbukum/executionbackup/resilience"
)

// Client is a configurable HTTP client with built-in auth and resilience.
type Client struct {
	httpClient *http.Client
	config     Config
	cb         *resilience.CircuitBreaker
}

// New creates a new HTTP client with the given configuration.
func New(cfg Config) (*Client, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Client{
		httpClient: &http.Client{
			Transport: http.DefaultTransport.(*http.Transport).Clone(),
			Timeout:   cfg.Timeout,
		},
		config: cfg,
	}

	if cfg.CircuitBreaker != nil {
		c.cb = resilience.NewCircuitBreaker(*cfg.CircuitBreaker)
	}

	return c, nil
}

// Do executes an HTTP request and returns the complete response.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	if c.config.Retry != nil {
		return resilience.Retry(ctx, *c.config.Retry, func() (*Response, error) {
			return c.doOnce(ctx, req, c.httpClient)
		})
	}
	return c.doOnce(ctx, req, c.httpClient)
}

// DoNoTimeout executes an HTTP request without the client-level timeout.
// Used for routed JSON-RPC calls where the consensus client enforces its
// own deadline; cancellation still flows through ctx.
func (c *Client) DoNoTimeout(ctx context.Context, req Request) (*Response, error) {
	untimed := &http.Client{Transport: c.httpClient.Transport}
	return c.doOnce(ctx, req, untimed)
}

// Unwrap returns the underlying *http.Client for advanced use cases.
func (c *Client) Unwrap() *http.Client {
	return c.httpClient
}

// doOnce executes a single HTTP request through the circuit breaker.
func (c *Client) doOnce(ctx context.Context, req Request, hc *http.Client) (*Response, error) {
	if c.cb == nil {
		return c.executeRequest(ctx, req, hc)
	}

	var resp *Response
	err := c.cb.Execute(func() error {
		var execErr error
		resp, execErr = c.executeRequest(ctx, req, hc)
		return execErr
	})
	return resp, err
}

// executeRequest builds and sends the HTTP request.
func (c *Client) executeRequest(ctx context.Context, req Request, hc *http.Client) (*Response, error) {
	httpReq, err := c.buildRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	resp, err := hc.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, NewTimeoutError(err)
		}
		return nil, NewConnectionError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, NewConnectionError(err)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Headers:    FlattenHeaders(resp.Header),
		Body:       body,
	}, nil
}

// buildRequest constructs an *http.Request from the client config and request.
func (c *Client) buildRequest(ctx context.Context, req Request) (*http.Request, error) {
	url := req.Path
	if c.config.BaseURL != "" && !strings.HasPrefix(req.Path, "http://") && !strings.HasPrefix(req.Path, "https://") {
		url = strings.TrimRight(c.config.BaseURL, "/") + "/" + strings.TrimLeft(req.Path, "/")
	}

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, url, body)
	if err != nil {
		return nil, NewValidationError("create request: " + err.Error())
	}

	// Default headers, then request headers over them.
	merged := make(map[string]string, len(c.config.Headers)+len(req.Headers))
	for k, v := range c.config.Headers {
		merged[k] = v
	}
	for k, v := range req.Headers {
		merged[k] = v
	}
	httpReq.Header = ExpandHeaders(merged)

	// Nodes must not compress; the proxy inspects and rewrites bodies.
	httpReq.Header.Set("Accept-Encoding", "identity")

	// Request-level auth overrides client-level.
	auth := c.config.Auth
	if req.Auth != nil {
		auth = req.Auth
	}
	auth.apply(httpReq)

	return httpReq, nil
}

// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package client provides a typed client for the random value API.
package client

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

	"github.com/z5labs/rng/distribution"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

type options struct {
	name    string
	timeout time.Duration
	rt      http.RoundTripper
	logger  *zap.Logger

	co *circuitOptions
	ro *retryOptions
}

// Option configures a [Client].
type Option func(*options)

// Name names the client in its logs and its circuit breaker.
func Name(s string) Option {
	return func(o *options) {
		o.name = s
	}
}

// Timeout bounds every request, retries included.
func Timeout(d time.Duration) Option {
	return func(o *options) {
		o.timeout = d
	}
}

// RoundTripper sets the base transport. Default: [http.DefaultTransport].
func RoundTripper(rt http.RoundTripper) Option {
	return func(o *options) {
		o.rt = rt
	}
}

// Logger sets the logger for retries and circuit state changes.
func Logger(log *zap.Logger) Option {
	return func(o *options) {
		o.logger = log
	}
}

// Client calls the random value API.
type Client struct {
	baseUrl *url.URL
	hc      *http.Client
}

// InvalidBaseUrlError occurs when the base url given to [New] is not absolute.
type InvalidBaseUrlError struct {
	Url   string
	Cause error
}

// Error implements the [error] interface.
func (e InvalidBaseUrlError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("base url must be absolute: %q", e.Url)
	}
	return fmt.Sprintf("invalid base url %q: %s", e.Url, e.Cause)
}

// Unwrap implements the implicit interface for usage with errors.Is and errors.As.
func (e InvalidBaseUrlError) Unwrap() error {
	return e.Cause
}

// New initializes a [Client] for the API served at baseUrl, e.g. http://localhost:8080.
func New(baseUrl string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseUrl)
	if err != nil {
		return nil, InvalidBaseUrlError{Url: baseUrl, Cause: err}
	}
	if !u.IsAbs() || u.Host == "" {
		return nil, InvalidBaseUrlError{Url: baseUrl}
	}

	o := &options{
		rt:     http.DefaultTransport,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}

	log := o.logger
	if o.name != "" {
		log = log.Named(o.name)
	}

	var rt http.RoundTripper = otelhttp.NewTransport(o.rt)
	if o.co != nil {
		rt = newCircuitRoundTripper(rt, o.name, log, o.co)
	}

	hc := &http.Client{
		Timeout:   o.timeout,
		Transport: rt,
	}
	if o.ro != nil {
		hc = newRetryClient(hc, log, o.ro)
	}

	c := &Client{
		baseUrl: u,
		hc:      hc,
	}
	return c, nil
}

// StatusError is returned for any response which is not a 200.
type StatusError struct {
	StatusCode int
	Body       string
}

// Error implements the [error] interface.
func (e StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected response: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("unexpected response: %d %s: %s", e.StatusCode, http.StatusText(e.StatusCode), e.Body)
}

// DecodeResponseError occurs when a 200 response body is not the expected JSON.
type DecodeResponseError struct {
	Cause error
}

// Error implements the [error] interface.
func (e DecodeResponseError) Error() string {
	return fmt.Sprintf("failed to decode response: %s", e.Cause)
}

// Unwrap implements the implicit interface for usage with errors.Is and errors.As.
func (e DecodeResponseError) Unwrap() error {
	return e.Cause
}

// Greeting returns the banner served by GET /random.
func (c *Client) Greeting(ctx context.Context) (string, error) {
	b, err := c.do(ctx, http.MethodGet, "/random", nil)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Sample requests a single value drawn from the distribution described by req.
func (c *Client) Sample(ctx context.Context, req distribution.Request) (float64, error) {
	body, err := distribution.Encode(req)
	if err != nil {
		return 0, err
	}

	b, err := c.do(ctx, http.MethodPost, "/random", body)
	if err != nil {
		return 0, err
	}

	var resp struct {
		Value *float64 `json:"value"`
	}
	err = json.Unmarshal(b, &resp)
	if err != nil {
		return 0, DecodeResponseError{Cause: err}
	}
	if resp.Value == nil {
		return 0, DecodeResponseError{Cause: distribution.MissingFieldError{Field: "value"}}
	}
	return *resp.Value, nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	u := c.baseUrl.JoinPath(path)

	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), r)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, StatusError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(b)),
		}
	}
	return b, nil
}

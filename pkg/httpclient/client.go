package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/rmacdonaldsmith/railconsole/pkg/notify"
)

// Observer receives the outcome of every request, e.g. for metrics.
type Observer interface {
	ObserveRequest(method, outcome string, duration time.Duration)
}

// Request outcomes reported to an Observer
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeNetwork  = "network_error"
	OutcomeHTTP     = "http_error"
	OutcomeEnvelope = "envelope_error"
	OutcomeDecode   = "decode_error"
)

// Client sends requests through the pipeline: interceptor, transport, then
// normalizer or error extractor.
type Client struct {
	config     Config
	httpClient *http.Client
	baseURL    *url.URL
	notifier   notify.Dispatcher
	hooks      []RequestHook
	logger     *slog.Logger
	observer   Observer

	mu    sync.RWMutex
	token string

	interceptor *RequestInterceptor
	normalizer  *ResponseNormalizer
	extractor   *ErrorExtractor
}

// Option configures a Client.
type Option func(*Client)

// WithDispatcher sets where notifications are shown.
func WithDispatcher(d notify.Dispatcher) Option {
	return func(c *Client) { c.notifier = d }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRequestHook adds a hook run on every built request, in registration order.
func WithRequestHook(hook RequestHook) Option {
	return func(c *Client) { c.hooks = append(c.hooks, hook) }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithObserver sets the request observer.
func WithObserver(o Observer) Option {
	return func(c *Client) { c.observer = o }
}

// NewClient creates a new console API client
func NewClient(config Config, opts ...Option) (*Client, error) {
	config.SetDefaults()

	// Validate required config
	if config.BaseURL == "" {
		return nil, fmt.Errorf("BaseURL is required")
	}

	// Parse base URL
	baseURL, err := url.Parse(config.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid BaseURL: %w", err)
	}
	if baseURL.Scheme == "" || baseURL.Host == "" {
		return nil, fmt.Errorf("invalid BaseURL: %q is not an absolute URL", config.BaseURL)
	}

	client := &Client{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		baseURL:    baseURL,
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.logger == nil {
		client.logger = slog.New(slog.DiscardHandler)
	}
	client.build()

	return client, nil
}

func (c *Client) build() {
	c.notifier = notify.OrDiscard(c.notifier)

	hooks := append([]RequestHook{c.authorize}, c.hooks...)
	c.interceptor = NewRequestInterceptor(c.baseURL, c.config.Headers, hooks, c.notifier,
		c.config.LoadingMessage, c.config.LoadingDuration)
	c.normalizer = NewResponseNormalizer(c.notifier, c.config.SuccessCode, *c.config.NotifyOnSuccess,
		c.config.SuccessMessage, c.config.SuccessDuration)
	c.extractor = NewErrorExtractor(c.notifier, c.config.DefaultErrorMessage, c.config.ErrorDuration)
}

// Notifying returns a copy of the client that shows notifications on d.
// The copy shares the transport and starts with the current token.
func (c *Client) Notifying(d notify.Dispatcher) *Client {
	clone := &Client{
		config:     c.config,
		httpClient: c.httpClient,
		baseURL:    c.baseURL,
		notifier:   d,
		hooks:      c.hooks,
		logger:     c.logger,
		observer:   c.observer,
		token:      c.GetToken(),
	}
	clone.build()
	return clone
}

// BaseURL returns the base address every request targets.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// IsAuthenticated returns whether the client has a token
func (c *Client) IsAuthenticated() bool {
	return c.GetToken() != ""
}

// GetToken returns the current authentication token
func (c *Client) GetToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// SetToken sets the token sent as a bearer credential. Empty clears it.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

func (c *Client) authorize(req *http.Request) error {
	if token := c.GetToken(); token != "" && req.Header.Get("Authorization") == "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return nil
}

// Do sends req through the pipeline and returns the normalized payload.
// Every failure after validation is a *RequestError whose notifications have
// already been dispatched.
func (c *Client) Do(ctx context.Context, req *Request) (Body, error) {
	start := time.Now()

	httpReq, err := c.interceptor.Intercept(ctx, req)
	if err != nil {
		method := ""
		if req != nil {
			method = req.Method
		}
		c.observe(method, OutcomeRejected, start)
		return nil, err
	}
	method, target := httpReq.Method, httpReq.URL.String()

	c.logger.Debug("sending request", "method", method, "url", target)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, c.fail(method, target, nil, err, OutcomeNetwork, start)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.fail(method, target, nil, fmt.Errorf("failed to read response body: %w", err), OutcomeNetwork, start)
	}

	res := &Response{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Header:     resp.Header,
		Body:       classifyBody(resp.Header, data, req.ResponseType),
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, c.fail(method, target, res, ErrHTTPStatus, OutcomeHTTP, start)
	}
	if bin, ok := res.Body.(BinaryBody); ok && req.ResponseType == ResponseJSON {
		cause := fmt.Errorf("%w: expected JSON, got %q", ErrDecode, bin.ContentType)
		return nil, c.fail(method, target, res, cause, OutcomeDecode, start)
	}

	body, err := c.normalizer.Normalize(res, req.NotifyOnSuccess)
	switch {
	case errors.Is(err, ErrEnvelopeCode):
		return nil, c.fail(method, target, res, err, OutcomeEnvelope, start)
	case err != nil:
		return nil, c.fail(method, target, res, err, OutcomeDecode, start)
	}

	c.logger.Debug("request succeeded", "method", method, "url", target, "status", resp.StatusCode)
	c.observe(method, OutcomeSuccess, start)
	return body, nil
}

func (c *Client) fail(method, target string, res *Response, cause error, outcome string, start time.Time) error {
	reqErr := c.extractor.Extract(method, target, res, cause)
	c.logger.Warn("request failed",
		"method", method,
		"url", target,
		"status", reqErr.StatusCode,
		"message", reqErr.Detail.Message,
		"field_errors", len(reqErr.Detail.FieldErrors),
		"error", cause)
	c.observe(method, outcome, start)
	return reqErr
}

func (c *Client) observe(method, outcome string, start time.Time) {
	if c.observer != nil {
		c.observer.ObserveRequest(method, outcome, time.Since(start))
	}
}

// newRequest builds a request expecting a JSON payload.
func newRequest(method, path string, opts []RequestOption) *Request {
	req := &Request{Method: method, Path: path, ResponseType: ResponseJSON}
	for _, opt := range opts {
		opt(req)
	}
	return req
}

// decodeInto stores a normalized payload in out. out may be nil, or a
// *BinaryBody to receive a binary payload.
func decodeInto(body Body, out any) error {
	if out == nil {
		return nil
	}
	switch b := body.(type) {
	case JSONBody:
		return b.Decode(out)
	case BinaryBody:
		if dst, ok := out.(*BinaryBody); ok {
			*dst = b
			return nil
		}
		return fmt.Errorf("unexpected binary response (%s)", b.ContentType)
	default:
		return nil
	}
}

// GetJSON sends a GET request and decodes the payload into out
func (c *Client) GetJSON(ctx context.Context, path string, query url.Values, out any, opts ...RequestOption) error {
	req := newRequest(http.MethodGet, path, opts)
	req.Query = query
	body, err := c.Do(ctx, req)
	if err != nil {
		return err
	}
	return decodeInto(body, out)
}

// PostJSON sends in as a JSON body and decodes the payload into out
func (c *Client) PostJSON(ctx context.Context, path string, in, out any, opts ...RequestOption) error {
	req := newRequest(http.MethodPost, path, opts)
	req.Body = in
	body, err := c.Do(ctx, req)
	if err != nil {
		return err
	}
	return decodeInto(body, out)
}

// PutJSON sends in as a JSON body with PUT and decodes the payload into out
func (c *Client) PutJSON(ctx context.Context, path string, in, out any, opts ...RequestOption) error {
	req := newRequest(http.MethodPut, path, opts)
	req.Body = in
	body, err := c.Do(ctx, req)
	if err != nil {
		return err
	}
	return decodeInto(body, out)
}

// Delete sends a DELETE request and decodes the payload into out
func (c *Client) Delete(ctx context.Context, path string, out any, opts ...RequestOption) error {
	body, err := c.Do(ctx, newRequest(http.MethodDelete, path, opts))
	if err != nil {
		return err
	}
	return decodeInto(body, out)
}

// Download fetches a file. The response is treated as binary whatever its
// content type, so error bodies arrive binary too and are decoded by the
// error extractor.
func (c *Client) Download(ctx context.Context, path string, query url.Values, opts ...RequestOption) (*BinaryBody, error) {
	req := newRequest(http.MethodGet, path, opts)
	req.Query = query
	req.ResponseType = ResponseBinary

	body, err := c.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	bin, ok := body.(BinaryBody)
	if !ok {
		return nil, fmt.Errorf("unexpected JSON response for download")
	}
	return &bin, nil
}

// Upload posts a multipart form and decodes the payload into out
func (c *Client) Upload(ctx context.Context, path string, form *MultipartForm, out any, opts ...RequestOption) error {
	req := newRequest(http.MethodPost, path, opts)
	req.Form = form
	body, err := c.Do(ctx, req)
	if err != nil {
		return err
	}
	return decodeInto(body, out)
}

// Login authenticates with the backend and stores the returned token
func (c *Client) Login(ctx context.Context, username, password string) (*LoginResponse, error) {
	var resp LoginResponse
	err := c.PostJSON(ctx, "/auth/login", LoginRequest{Username: username, Password: password}, &resp)
	if err != nil {
		return nil, fmt.Errorf("authentication failed: %w", err)
	}

	c.SetToken(resp.Token)
	return &resp, nil
}

// Logout forgets the token. The backend keeps no session to end.
func (c *Client) Logout() {
	c.SetToken("")
}

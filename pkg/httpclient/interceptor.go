package httpclient

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

	"github.com/rmacdonaldsmith/railconsole/pkg/notify"
)

// RequestHook runs on every outgoing request after it has been built and
// before it is sent. Returning an error rejects the request.
type RequestHook func(*http.Request) error

// RequestInterceptor turns a Request into an *http.Request against the base
// address and announces it with a transient loading notification.
type RequestInterceptor struct {
	baseURL         *url.URL
	headers         http.Header
	hooks           []RequestHook
	notifier        notify.Dispatcher
	loadingMessage  string
	loadingDuration time.Duration
}

// NewRequestInterceptor creates an interceptor for the given base address.
func NewRequestInterceptor(baseURL *url.URL, headers map[string]string, hooks []RequestHook, notifier notify.Dispatcher, message string, duration time.Duration) *RequestInterceptor {
	h := make(http.Header, len(headers))
	for k, v := range headers {
		h.Set(k, v)
	}
	return &RequestInterceptor{
		baseURL:         baseURL,
		headers:         h,
		hooks:           hooks,
		notifier:        notify.OrDiscard(notifier),
		loadingMessage:  message,
		loadingDuration: duration,
	}
}

// Intercept validates and builds the outgoing request. Any failure is
// reported as ErrInvalidRequest before a notification is shown or anything
// is sent.
func (ri *RequestInterceptor) Intercept(ctx context.Context, req *Request) (*http.Request, error) {
	if req == nil {
		return nil, fmt.Errorf("%w: nil request", ErrInvalidRequest)
	}
	if req.Method == "" {
		return nil, fmt.Errorf("%w: method is required", ErrInvalidRequest)
	}
	if req.Body != nil && req.Form != nil {
		return nil, fmt.Errorf("%w: body and multipart form are mutually exclusive", ErrInvalidRequest)
	}

	target, err := ri.resolve(req.Path, req.Query)
	if err != nil {
		return nil, err
	}

	var (
		bodyReader  io.Reader
		contentType string
	)
	switch {
	case req.Form != nil:
		bodyReader, contentType, err = req.Form.encode()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
	case req.Body != nil:
		jsonBody, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to marshal request body: %v", ErrInvalidRequest, err)
		}
		bodyReader = bytes.NewReader(jsonBody)
		contentType = "application/json"
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target.String(), bodyReader)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", ErrInvalidRequest, err)
	}

	httpReq.Header.Set("Accept", "application/json, text/plain, */*")
	httpReq.Header.Set("User-Agent", defaultUserAgent)
	for k, v := range ri.headers {
		httpReq.Header[k] = append([]string(nil), v...)
	}
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	for k, v := range req.Header {
		httpReq.Header[http.CanonicalHeaderKey(k)] = append([]string(nil), v...)
	}

	for _, hook := range ri.hooks {
		if err := hook(httpReq); err != nil {
			return nil, fmt.Errorf("%w: request hook: %v", ErrInvalidRequest, err)
		}
	}

	if !req.SuppressLoadingIndicator {
		ri.notifier.Dispatch(notify.New(notify.LevelInfo, ri.loadingMessage, "", ri.loadingDuration))
	}

	return httpReq, nil
}

// resolve joins a relative request path onto the base address.
func (ri *RequestInterceptor) resolve(p string, query url.Values) (*url.URL, error) {
	rel, err := url.Parse(p)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed path %q: %v", ErrInvalidRequest, p, err)
	}
	if rel.IsAbs() || rel.Host != "" {
		return nil, fmt.Errorf("%w: path %q must be relative to the base address", ErrInvalidRequest, p)
	}

	u := *ri.baseURL
	u.Path = strings.TrimRight(ri.baseURL.Path, "/") + "/" + strings.TrimLeft(rel.Path, "/")
	u.RawPath = ""

	values := rel.Query()
	for k, vs := range query {
		for _, v := range vs {
			values.Add(k, v)
		}
	}
	u.RawQuery = values.Encode()
	u.Fragment = ""

	return &u, nil
}

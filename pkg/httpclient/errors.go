package httpclient

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidRequest is returned when a request is rejected before transmission
	ErrInvalidRequest = errors.New("invalid request")
	// ErrHTTPStatus marks a response with a non-success HTTP status
	ErrHTTPStatus = errors.New("unsuccessful HTTP status")
	// ErrEnvelopeCode marks a 2xx response whose envelope code is not the success code
	ErrEnvelopeCode = errors.New("unsuccessful envelope code")
	// ErrDecode marks a body that could not be decoded
	ErrDecode = errors.New("failed to decode response body")
)

// RequestError is returned for every failed request after its detail has been
// extracted and its notifications dispatched.
type RequestError struct {
	Method     string
	URL        string
	StatusCode int    // 0 when no response was received
	Status     string // e.g. "400 Bad Request"
	Detail     NormalizedError
	Body       Body // nil when no response was received

	// Err is the cause: a transport error, ErrHTTPStatus, ErrEnvelopeCode or ErrDecode
	Err error

	// DecodeErr is set when the error detail could not be decoded from the body
	DecodeErr error
}

func (e *RequestError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("request failed: %s %s: %v", e.Method, e.URL, e.Err)
	}
	if e.Detail.Message != "" {
		return fmt.Sprintf("API error (%d): %s", e.StatusCode, e.Detail.Message)
	}
	return fmt.Sprintf("API error (%d): %s", e.StatusCode, e.Status)
}

// Unwrap returns the cause for errors.Is/As support.
func (e *RequestError) Unwrap() error {
	return e.Err
}

// AsRequestError extracts a *RequestError from err's chain.
func AsRequestError(err error) (*RequestError, bool) {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr, true
	}
	return nil, false
}

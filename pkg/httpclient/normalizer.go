package httpclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rmacdonaldsmith/railconsole/pkg/notify"
)

// Response is a received response with its body already classified.
type Response struct {
	StatusCode int
	Status     string
	Header     http.Header
	Body       Body
}

// ResponseNormalizer unwraps successful responses to their payload.
type ResponseNormalizer struct {
	notifier        notify.Dispatcher
	successCode     int
	notifyOnSuccess bool
	message         string
	duration        time.Duration
}

// NewResponseNormalizer creates a normalizer that treats successCode as the
// envelope code of a semantically successful call.
func NewResponseNormalizer(notifier notify.Dispatcher, successCode int, notifyOnSuccess bool, message string, duration time.Duration) *ResponseNormalizer {
	return &ResponseNormalizer{
		notifier:        notify.OrDiscard(notifier),
		successCode:     successCode,
		notifyOnSuccess: notifyOnSuccess,
		message:         message,
		duration:        duration,
	}
}

// Normalize returns the payload of a 2xx response.
//
// Binary bodies pass through untouched and without notifications. A JSON
// envelope carrying the success code yields its data member; one carrying any
// other code fails with ErrEnvelopeCode. JSON bodies that are not envelopes
// are returned whole. override replaces the configured success-notification
// setting for this call when non-nil.
func (n *ResponseNormalizer) Normalize(res *Response, override *bool) (Body, error) {
	body, ok := res.Body.(JSONBody)
	if !ok {
		return res.Body, nil
	}

	trimmed := bytes.TrimSpace(body.Raw)
	if len(trimmed) == 0 {
		n.succeeded(override)
		return JSONBody{}, nil
	}
	if !json.Valid(trimmed) {
		return nil, fmt.Errorf("%w: invalid JSON", ErrDecode)
	}
	if trimmed[0] != '{' {
		n.succeeded(override)
		return body, nil
	}

	var env Envelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if env.Code == nil {
		n.succeeded(override)
		return body, nil
	}
	if *env.Code != n.successCode {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrEnvelopeCode, *env.Code, n.successCode)
	}

	n.succeeded(override)
	return JSONBody{Raw: env.Data}, nil
}

func (n *ResponseNormalizer) succeeded(override *bool) {
	enabled := n.notifyOnSuccess
	if override != nil {
		enabled = *override
	}
	if enabled {
		n.notifier.Dispatch(notify.New(notify.LevelSuccess, n.message, "", n.duration))
	}
}

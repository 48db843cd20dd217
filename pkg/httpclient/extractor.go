package httpclient

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/rmacdonaldsmith/railconsole/pkg/notify"
)

// ErrorExtractor turns a failed call into a *RequestError and reports each
// field error as its own error notification.
type ErrorExtractor struct {
	notifier       notify.Dispatcher
	defaultMessage string
	duration       time.Duration
}

// NewErrorExtractor creates an extractor. defaultMessage is used for binary
// error bodies that decode without a message.
func NewErrorExtractor(notifier notify.Dispatcher, defaultMessage string, duration time.Duration) *ErrorExtractor {
	return &ErrorExtractor{
		notifier:       notify.OrDiscard(notifier),
		defaultMessage: defaultMessage,
		duration:       duration,
	}
}

// Extract builds the error for a failed call. res is nil when no response
// was received. The result is never nil.
func (x *ErrorExtractor) Extract(method, url string, res *Response, cause error) *RequestError {
	reqErr := &RequestError{
		Method: method,
		URL:    url,
		Err:    cause,
	}
	if res == nil {
		if cause != nil {
			reqErr.Detail.Message = cause.Error()
		}
		return reqErr
	}

	reqErr.StatusCode = res.StatusCode
	reqErr.Status = res.Status
	reqErr.Body = res.Body

	detail, err := x.detail(res.Body)
	if err != nil {
		reqErr.DecodeErr = err
		detail = NormalizedError{Message: res.Status}
	}
	reqErr.Detail = detail

	x.dispatch(detail, res.Status)
	return reqErr
}

func (x *ErrorExtractor) detail(body Body) (NormalizedError, error) {
	switch b := body.(type) {
	case JSONBody:
		return decodeDetail(b.Raw)
	case BinaryBody:
		text, err := b.Text()
		if err != nil {
			return NormalizedError{}, err
		}
		detail, err := decodeDetail([]byte(text))
		if err != nil {
			return NormalizedError{}, err
		}
		if detail.Message == "" {
			detail.Message = x.defaultMessage
		}
		return detail, nil
	default:
		return NormalizedError{}, nil
	}
}

func decodeDetail(raw []byte) (NormalizedError, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return NormalizedError{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	fields, err := ParseFieldErrors(env.Data)
	if err != nil {
		return NormalizedError{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return NormalizedError{Message: env.Message, FieldErrors: fields}, nil
}

func (x *ErrorExtractor) dispatch(detail NormalizedError, status string) {
	if len(detail.FieldErrors) == 0 {
		return
	}
	title := detail.Message
	if title == "" {
		title = status
	}
	notes := make([]notify.Notification, 0, len(detail.FieldErrors))
	for _, fe := range detail.FieldErrors {
		notes = append(notes, notify.New(notify.LevelError, title, fe.Message, x.duration))
	}
	x.notifier.Dispatch(notes...)
}

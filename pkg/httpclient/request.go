package httpclient

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
)

// Request describes one call through the pipeline.
type Request struct {
	Method string
	// Path is relative to the client's base address and may carry a query string
	Path   string
	Query  url.Values
	Header http.Header

	// Body is JSON-encoded when non-nil. Mutually exclusive with Form.
	Body any
	// Form is sent as multipart/form-data when non-nil
	Form *MultipartForm

	ResponseType ResponseType

	// SuppressLoadingIndicator skips the "request in progress" notification.
	// It only affects the pipeline and is never transmitted.
	SuppressLoadingIndicator bool

	// NotifyOnSuccess overrides the client's success-notification setting
	NotifyOnSuccess *bool
}

// RequestOption customizes a Request built by the client helpers.
type RequestOption func(*Request)

// SuppressLoading skips the "request in progress" notification.
func SuppressLoading() RequestOption {
	return func(r *Request) { r.SuppressLoadingIndicator = true }
}

// Quiet skips both the loading and the success notifications, for polling
// and other calls fired purely for their side effects.
func Quiet() RequestOption {
	return func(r *Request) {
		r.SuppressLoadingIndicator = true
		r.NotifyOnSuccess = Bool(false)
	}
}

// WithHeader sets a request header.
func WithHeader(key, value string) RequestOption {
	return func(r *Request) {
		if r.Header == nil {
			r.Header = make(http.Header)
		}
		r.Header.Set(key, value)
	}
}

// AsBinary forces the binary response type.
func AsBinary() RequestOption {
	return func(r *Request) { r.ResponseType = ResponseBinary }
}

// FormField is a plain multipart field.
type FormField struct {
	Name  string
	Value string
}

// FormFile is a multipart file part.
type FormFile struct {
	Field    string
	Filename string
	Content  io.Reader
}

// MultipartForm is a multipart/form-data request body.
type MultipartForm struct {
	Fields []FormField
	Files  []FormFile
}

// AddField appends a plain field.
func (f *MultipartForm) AddField(name, value string) *MultipartForm {
	f.Fields = append(f.Fields, FormField{Name: name, Value: value})
	return f
}

// AddFile appends a file part.
func (f *MultipartForm) AddFile(field, filename string, content io.Reader) *MultipartForm {
	f.Files = append(f.Files, FormFile{Field: field, Filename: filename, Content: content})
	return f
}

func (f *MultipartForm) encode() (io.Reader, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	for _, field := range f.Fields {
		if err := mw.WriteField(field.Name, field.Value); err != nil {
			return nil, "", fmt.Errorf("failed to write form field %s: %w", field.Name, err)
		}
	}
	for _, file := range f.Files {
		if file.Content == nil {
			return nil, "", fmt.Errorf("form file %s has no content", file.Field)
		}
		part, err := mw.CreateFormFile(file.Field, file.Filename)
		if err != nil {
			return nil, "", fmt.Errorf("failed to create form file %s: %w", file.Field, err)
		}
		if _, err := io.Copy(part, file.Content); err != nil {
			return nil, "", fmt.Errorf("failed to read form file %s: %w", file.Filename, err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finish multipart body: %w", err)
	}

	return &buf, mw.FormDataContentType(), nil
}

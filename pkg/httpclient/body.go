package httpclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"golang.org/x/net/html/charset"
)

// ResponseType tells the transport how to classify a response body.
type ResponseType int

const (
	// ResponseAuto classifies the body by its Content-Type
	ResponseAuto ResponseType = iota
	// ResponseBinary treats every body as binary, error bodies included
	ResponseBinary
	// ResponseJSON expects a JSON payload. A body typed otherwise that
	// decodes to JSON text is JSON; any other body fails the request.
	ResponseJSON
)

// Body is a response body, decided once at the transport boundary.
// It is either JSONBody or BinaryBody.
type Body interface {
	isBody()
}

// JSONBody is a structured JSON body.
type JSONBody struct {
	Raw json.RawMessage
}

// BinaryBody is an opaque body such as a file download.
type BinaryBody struct {
	Data        []byte
	ContentType string
	Filename    string
}

func (JSONBody) isBody()   {}
func (BinaryBody) isBody() {}

// Decode unmarshals the JSON body into v.
func (b JSONBody) Decode(v any) error {
	if len(b.Raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(b.Raw, v); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// Text decodes the binary body to UTF-8 text, honoring the charset of its
// content type and falling back to content sniffing.
func (b BinaryBody) Text() (string, error) {
	r, err := charset.NewReader(bytes.NewReader(b.Data), b.ContentType)
	if err != nil {
		return "", fmt.Errorf("failed to decode binary body: %w", err)
	}
	text, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to decode binary body: %w", err)
	}
	return string(text), nil
}

// classifyBody decides the body variant for a received response. Unless a
// binary response was asked for, an empty body is an empty JSONBody.
func classifyBody(header http.Header, data []byte, rt ResponseType) Body {
	contentType := header.Get("Content-Type")
	if rt != ResponseBinary {
		if len(bytes.TrimSpace(data)) == 0 {
			return JSONBody{}
		}
		if isJSONMediaType(contentType) {
			return JSONBody{Raw: json.RawMessage(data)}
		}
	}

	bin := BinaryBody{
		Data:        data,
		ContentType: contentType,
		Filename:    filenameFrom(header.Get("Content-Disposition")),
	}
	if rt == ResponseJSON {
		if text, err := bin.Text(); err == nil && json.Valid([]byte(text)) {
			return JSONBody{Raw: json.RawMessage(text)}
		}
	}
	return bin
}

func isJSONMediaType(contentType string) bool {
	if contentType == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}

func filenameFrom(disposition string) string {
	if disposition == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(disposition)
	if err != nil {
		return ""
	}
	return params["filename"]
}

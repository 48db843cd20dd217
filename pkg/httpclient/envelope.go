package httpclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Envelope is the server response wrapper {code, message, data}.
// Code is nil when the body carried no code field.
type Envelope struct {
	Code    *int            `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// FieldError is one entry of a field-error map.
type FieldError struct {
	Key     string
	Message string
}

// FieldErrors is a field-error map that keeps the server's key order.
type FieldErrors []FieldError

// Get returns the message for key.
func (f FieldErrors) Get(key string) (string, bool) {
	for _, fe := range f {
		if fe.Key == key {
			return fe.Message, true
		}
	}
	return "", false
}

// Map returns the entries as a plain map.
func (f FieldErrors) Map() map[string]string {
	m := make(map[string]string, len(f))
	for _, fe := range f {
		m[fe.Key] = fe.Message
	}
	return m
}

// MarshalJSON encodes the entries as a JSON object in order.
func (f FieldErrors) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, fe := range f {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(fe.Key)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(fe.Message)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON accepts the shapes ParseFieldErrors accepts.
func (f *FieldErrors) UnmarshalJSON(data []byte) error {
	parsed, err := ParseFieldErrors(data)
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// ParseFieldErrors reads the data member of a failed envelope.
//
// An object yields one entry per member in document order; string values are
// used as-is and any other value is rendered as compact JSON. An array yields
// one entry per element keyed by its index. null, an absent value and scalars
// yield no entries.
func ParseFieldErrors(raw json.RawMessage) (FieldErrors, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("invalid field errors: %w", err)
	}
	delim, ok := tok.(json.Delim)
	if !ok {
		return nil, nil
	}

	var out FieldErrors
	switch delim {
	case '{':
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return nil, fmt.Errorf("invalid field errors: %w", err)
			}
			key, _ := keyTok.(string)
			msg, err := nextValueText(dec)
			if err != nil {
				return nil, err
			}
			out = append(out, FieldError{Key: key, Message: msg})
		}
	case '[':
		for i := 0; dec.More(); i++ {
			msg, err := nextValueText(dec)
			if err != nil {
				return nil, err
			}
			out = append(out, FieldError{Key: strconv.Itoa(i), Message: msg})
		}
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("invalid field errors: %w", err)
	}
	return out, nil
}

func nextValueText(dec *json.Decoder) (string, error) {
	var value json.RawMessage
	if err := dec.Decode(&value); err != nil {
		return "", fmt.Errorf("invalid field errors: %w", err)
	}
	var s string
	if err := json.Unmarshal(value, &s); err == nil {
		return s, nil
	}
	var compact bytes.Buffer
	if err := json.Compact(&compact, value); err != nil {
		return "", fmt.Errorf("invalid field errors: %w", err)
	}
	return compact.String(), nil
}

// NormalizedError is the presentation-ready detail of a failed request.
type NormalizedError struct {
	Message     string      `json:"message"`
	FieldErrors FieldErrors `json:"fieldErrors"`
}

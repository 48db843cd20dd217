package httpclient

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyBody(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		rt          ResponseType
		wantJSON    bool
	}{
		{"json", "application/json", ResponseAuto, true},
		{"json_with_charset", "application/json; charset=utf-8", ResponseAuto, true},
		{"problem_json", "application/problem+json", ResponseAuto, true},
		{"forced_binary", "application/json", ResponseBinary, false},
		{"octet_stream", "application/octet-stream", ResponseAuto, false},
		{"text", "text/plain", ResponseAuto, false},
		{"missing", "", ResponseAuto, false},
		{"text_expecting_json", "text/plain; charset=utf-8", ResponseJSON, true},
		{"missing_expecting_json", "", ResponseJSON, true},
		{"octet_stream_expecting_json", "application/octet-stream", ResponseJSON, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			header := http.Header{}
			if tt.contentType != "" {
				header.Set("Content-Type", tt.contentType)
			}
			body := classifyBody(header, []byte(`{}`), tt.rt)
			_, isJSON := body.(JSONBody)
			assert.Equal(t, tt.wantJSON, isJSON)
		})
	}
}

func TestClassifyBody_Content(t *testing.T) {
	t.Run("empty_body_is_empty_json", func(t *testing.T) {
		for _, rt := range []ResponseType{ResponseAuto, ResponseJSON} {
			body := classifyBody(http.Header{}, nil, rt)
			assert.Equal(t, JSONBody{}, body)
		}
	})

	t.Run("empty_body_stays_binary_when_forced", func(t *testing.T) {
		_, isBinary := classifyBody(http.Header{}, nil, ResponseBinary).(BinaryBody)
		assert.True(t, isBinary)
	})

	t.Run("text_that_is_not_json_stays_binary", func(t *testing.T) {
		header := http.Header{}
		header.Set("Content-Type", "text/html")
		bin, ok := classifyBody(header, []byte("<p>maintenance</p>"), ResponseJSON).(BinaryBody)
		require.True(t, ok)
		assert.Equal(t, "text/html", bin.ContentType)
	})

	t.Run("declared_charset_decoded_before_json", func(t *testing.T) {
		header := http.Header{}
		header.Set("Content-Type", "text/plain; charset=ISO-8859-1")
		body, ok := classifyBody(header, []byte("{\"name\":\"Bogie d\xe9port\xe9\"}"), ResponseJSON).(JSONBody)
		require.True(t, ok)
		assert.JSONEq(t, `{"name":"Bogie déporté"}`, string(body.Raw))
	})
}

func TestBinaryBody(t *testing.T) {
	t.Run("filename_from_disposition", func(t *testing.T) {
		header := http.Header{}
		header.Set("Content-Type", "application/pdf")
		header.Set("Content-Disposition", `attachment; filename="template-7.pdf"`)

		body := classifyBody(header, []byte("%PDF"), ResponseAuto)
		bin, ok := body.(BinaryBody)
		require.True(t, ok)
		assert.Equal(t, "template-7.pdf", bin.Filename)
		assert.Equal(t, "application/pdf", bin.ContentType)
	})

	t.Run("text_utf8_default", func(t *testing.T) {
		text, err := BinaryBody{Data: []byte(`{"message":"ok"}`)}.Text()
		require.NoError(t, err)
		assert.Equal(t, `{"message":"ok"}`, text)
	})

	t.Run("text_declared_charset", func(t *testing.T) {
		text, err := BinaryBody{Data: []byte("caf\xe9"), ContentType: "text/plain; charset=ISO-8859-1"}.Text()
		require.NoError(t, err)
		assert.Equal(t, "café", text)
	})
}

func TestJSONBody_Decode(t *testing.T) {
	var v struct {
		ID string `json:"id"`
	}
	require.NoError(t, JSONBody{Raw: []byte(`{"id":"c1"}`)}.Decode(&v))
	assert.Equal(t, "c1", v.ID)

	require.NoError(t, JSONBody{}.Decode(&v))
	assert.Error(t, JSONBody{Raw: []byte(`[`)}.Decode(&v))
}

package client

import (
	"encoding/json"
	"mime"
	"strings"
)

const contentTypeJSON = "application/json"

// isJSONContentType reports whether the content type declares a JSON
// body, tolerating parameters (charset) and +json suffixes.
func isJSONContentType(contentType string) bool {
	if contentType == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.TrimSpace(strings.ToLower(contentType))
	}
	return mediaType == contentTypeJSON || strings.HasSuffix(mediaType, "+json")
}

// Decode interprets the response body according to its Content-Type
// header: JSON bodies are unmarshalled into maps/slices/primitives, all
// other bodies are returned as a raw string. A JSON body that fails to
// parse returns the unmarshal error.
func (r *Response) Decode() (any, error) {
	if isJSONContentType(r.Headers.Get("Content-Type")) {
		if len(r.Body) == 0 {
			return nil, nil
		}
		var v any
		if err := json.Unmarshal(r.Body, &v); err != nil {
			return nil, err
		}
		return v, nil
	}
	return string(r.Body), nil
}

// JSON unmarshals the response body into v regardless of the declared
// content type.
func (r *Response) JSON(v any) error {
	return json.Unmarshal(r.Body, v)
}

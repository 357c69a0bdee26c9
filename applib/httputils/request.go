package httputils

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// MaxBodyBytes bounds the size of JSON request bodies.
const MaxBodyBytes = 1 << 16

// ReadBody reads a bounded request body.
func ReadBody(r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, MaxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read request body: %w", err)
	}
	if len(body) > MaxBodyBytes {
		return nil, fmt.Errorf("request body larger than %d bytes", MaxBodyBytes)
	}
	return body, nil
}

// DecodeJSON reads a bounded request body into v.
func DecodeJSON(r *http.Request, v any) error {
	body, err := ReadBody(r)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

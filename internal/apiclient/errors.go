package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// APIError is a non-2xx response from the backend.
type APIError struct {
	Method string
	Route  string
	Status int
	// Detail is the backend's `detail` message, or the best text found in the body.
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("apiclient: %s %s: status %d", e.Method, e.Route, e.Status)
	}
	return fmt.Sprintf("apiclient: %s %s: status %d: %s", e.Method, e.Route, e.Status, e.Detail)
}

// ErrorDetail returns the backend detail used for message matching.
func (e *APIError) ErrorDetail() string { return e.Detail }

// IsUnauthorized reports whether err is a 401 from the backend, meaning the
// held credential is no longer accepted.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

type errorBody struct {
	Detail  json.RawMessage `json:"detail"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
}

type validationItem struct {
	Msg string `json:"msg"`
}

func newAPIError(method, route string, status int, body []byte) *APIError {
	return &APIError{Method: method, Route: route, Status: status, Detail: extractDetail(body)}
}

// extractDetail reads `detail` as a string or a list of {msg} items, then
// falls back to `message`/`error`, then to the trimmed body.
func extractDetail(body []byte) string {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil {
		text := strings.TrimSpace(string(body))
		if len(text) > 300 {
			text = text[:300]
		}
		return text
	}
	if len(eb.Detail) > 0 {
		var s string
		if err := json.Unmarshal(eb.Detail, &s); err == nil {
			return s
		}
		var items []validationItem
		if err := json.Unmarshal(eb.Detail, &items); err == nil {
			msgs := make([]string, 0, len(items))
			for _, it := range items {
				if it.Msg != "" {
					msgs = append(msgs, it.Msg)
				}
			}
			return strings.Join(msgs, "; ")
		}
	}
	if eb.Message != "" {
		return eb.Message
	}
	return eb.Error
}

package httpx

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// HTTPError represents a non-2xx HTTP response returned by the remote service.
// JSON holds the decoded body when the server labelled it application/json.
type HTTPError struct {
	Method     string
	URL        string
	StatusCode int
	Body       []byte
	Header     http.Header
	JSON       any
}

func (e *HTTPError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if msg := e.message(); msg != "" {
		return fmt.Sprintf("http error: %s %s: status=%d: %s", e.Method, e.URL, e.StatusCode, msg)
	}
	return fmt.Sprintf("http error: %s %s: status=%d body=%s", e.Method, e.URL, e.StatusCode, string(e.Body))
}

// message extracts the API's {"error": ...} or {"message": ...} text, if any.
func (e *HTTPError) message() string {
	obj, ok := e.JSON.(map[string]any)
	if !ok {
		return ""
	}
	for _, key := range []string{"error", "message", "reason"} {
		if s, ok := obj[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// Retryable reports whether the status is usually transient. The client never
// retries on its own; this is a hint for callers.
func (e *HTTPError) Retryable() bool {
	if e == nil {
		return false
	}
	return e.StatusCode == http.StatusTooManyRequests ||
		e.StatusCode == http.StatusRequestTimeout ||
		(e.StatusCode >= 500 && e.StatusCode <= 599)
}

func decodeJSONBody(body []byte) any {
	if len(body) == 0 {
		return nil
	}
	var payload any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil
	}
	return payload
}

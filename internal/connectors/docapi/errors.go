package docapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/custodia-labs/docverify/internal/core/domain"
)

// maxMessageLen caps error messages taken from raw response bodies.
const maxMessageLen = 200

// APIError represents a non-2xx API response.
type APIError struct {
	StatusCode int
	Message    string
	URL        string

	// RetryAfter is the server's requested delay on 429 responses.
	RetryAfter time.Duration
}

func (e *APIError) Error() string {
	return fmt.Sprintf("docapi: API error %d: %s (URL: %s)", e.StatusCode, e.Message, e.URL)
}

// Unwrap maps the status code onto a domain error.
func (e *APIError) Unwrap() error {
	switch {
	case e.StatusCode == http.StatusUnauthorized:
		return domain.ErrUnauthorized
	case e.StatusCode == http.StatusNotFound:
		return domain.ErrNotFound
	case e.StatusCode == http.StatusBadRequest:
		return domain.ErrInvalidInput
	case e.StatusCode == http.StatusTooManyRequests, e.StatusCode >= 500:
		return domain.ErrTransient
	default:
		return nil
	}
}

// IsUnauthorized checks if the error indicates an authentication failure.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusUnauthorized
	}
	return false
}

// IsRateLimited checks if the error indicates rate limiting.
func IsRateLimited(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusTooManyRequests
	}
	return false
}

// errorMessage extracts a readable message from an error response body.
// The API uses {"error": ...}, {"message": ...}, {"detail": ...} and
// serializer error maps; anything else falls back to the raw body.
func errorMessage(statusCode int, body []byte) string {
	var payload map[string]json.RawMessage
	if json.Unmarshal(body, &payload) == nil {
		for _, key := range []string{"error", "message", "detail"} {
			var s string
			if json.Unmarshal(payload[key], &s) == nil && s != "" {
				return s
			}
		}
		if raw, ok := payload["errors"]; ok {
			return truncate(string(raw))
		}
	}

	if text := strings.TrimSpace(string(body)); text != "" {
		return truncate(text)
	}
	return http.StatusText(statusCode)
}

func truncate(s string) string {
	if len(s) <= maxMessageLen {
		return s
	}
	return s[:maxMessageLen] + "..."
}

package domain

import (
	"net/http"
	"net/url"
)

// APIRequest describes one outbound call to the verification API.
// It is opaque to the request pipeline apart from the authorization header,
// and is re-sent unchanged when a call is retried after a session renewal.
type APIRequest struct {
	// Method is the HTTP method.
	Method string
	// Path is relative to the API base URL, e.g. "/api/documents/".
	Path string
	// Query holds optional query parameters.
	Query url.Values
	// Body is the encoded request body, nil for none.
	Body []byte
	// ContentType is sent when Body is non-nil.
	ContentType string
	// Header holds extra request headers.
	Header http.Header
}

// APIResponse is a fully read API response.
type APIResponse struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

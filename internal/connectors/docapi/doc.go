// Package docapi is the HTTP connector for the document verification API.
//
// Client is the request pipeline every call goes through. It attaches the
// stored access credential, throttles outbound calls and, when the server
// answers 401, asks the session refresher for a new credential and replays
// the request once. AuthClient talks to the /api/auth/ endpoints and
// Documents wraps the /api/documents/ endpoints.
package docapi

// Package types holds the JSON envelopes every API response is wrapped in.
package types

// SuccessEnvelope wraps successful payloads under a single "data" key so
// clients can unmarshal without knowing the route.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// APIError is the public face of a failed request. Code matches the typed
// error code, Message is safe to show a user.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorEnvelope wraps an APIError under an "error" key.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

package types

// SuccessEnvelope wraps every 2xx payload so clients always unwrap "data".
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// APIError is the public shape of a failed request. Details carries
// field-level validation output and is omitted for opaque failures.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorEnvelope wraps an APIError under a stable "error" key.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

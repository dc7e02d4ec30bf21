package model

// CachedResponse is an HTTP response replayed for a repeated idempotency key.
type CachedResponse struct {
	StatusCode  int               `json:"status_code"`
	Headers     map[string]string `json:"headers"`
	Body        []byte            `json:"body"`
	RequestHash string            `json:"request_hash"`
}

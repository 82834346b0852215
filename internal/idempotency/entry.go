// Package idempotency stores responses keyed by the client's Idempotency-Key
// so that retried requests are answered without being re-executed.
package idempotency

import "time"

// Entry is a stored response. A zero StatusCode marks a reservation whose
// request is still being processed.
type Entry struct {
	Key          string    `json:"key"`
	Scope        string    `json:"scope"`
	RequestHash  string    `json:"request_hash"`
	StatusCode   int       `json:"status_code"`
	ResponseBody []byte    `json:"response_body"`
	CreatedAt    time.Time `json:"created_at"`
	ExpiresAt    time.Time `json:"expires_at"`
}

func (e *Entry) InProgress() bool {
	return e.StatusCode == 0
}

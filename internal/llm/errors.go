package llm

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/sashabaranov/go-openai"
)

// Error is the completion failure type. Transient errors (rate limits,
// server-side trouble) are retried by the policy; everything else,
// including schema validation failures, is fatal immediately.
type Error struct {
	Transient bool
	Attempts  int
	Err       error
}

func (e *Error) Error() string {
	state := "fatal"
	if e.Transient {
		state = "transient"
	}
	if e.Attempts > 0 {
		return fmt.Sprintf("completion %s after %d attempts: %v", state, e.Attempts, e.Err)
	}
	return fmt.Sprintf("completion %s: %v", state, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// IsTransient reports whether an error is worth retrying.
func IsTransient(err error) bool {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Transient
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusTooManyRequests ||
			apiErr.HTTPStatusCode >= http.StatusInternalServerError
	}
	return false
}

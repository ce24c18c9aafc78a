package adapter

import (
	"context"
	"errors"
	"net"
)

// Message represents a chat message sent to a completion backend.
type Message struct {
	Role    string `json:"role"` // "user", "assistant", "system"
	Content string `json:"content"`
}

// FinishReason as reported by the provider.
type FinishReason string

const (
	FinishStop   FinishReason = "stop"
	FinishLength FinishReason = "length"
	FinishOther  FinishReason = "other"
)

// Options tune a single completion call.
type Options struct {
	Temperature float64
	MaxTokens   int
	JSONMode    bool // request a JSON object response
}

// Completion is the provider's answer to a single call.
type Completion struct {
	Content      string
	FinishReason FinishReason
}

// CompletionAdapter is the port for LLM chat completion.
type CompletionAdapter interface {
	// Complete returns the assistant text for the given message list.
	Complete(ctx context.Context, model string, messages []Message, opts Options) (Completion, error)
}

// BackendError carries the HTTP-class status of a failed backend call so the
// router can decide whether to retry.
type BackendError struct {
	StatusCode int
	Err        error
}

func (e *BackendError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return "backend error"
}

func (e *BackendError) Unwrap() error { return e.Err }

// Retryable reports whether err is worth another attempt: timeouts and
// 429/5xx-class failures. Everything else is terminal for the call.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var be *BackendError
	if errors.As(err, &be) {
		switch be.StatusCode {
		case 429, 500, 502, 503, 504:
			return true
		}
	}
	return false
}

package amap

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Kind classifies a failed call to the Amap API.
type Kind string

const (
	// KindTransport covers DNS, connect, TLS and timeout failures.
	KindTransport Kind = "transport"
	// KindServer is an HTTP 5xx response.
	KindServer Kind = "server"
	// KindClient is an HTTP 4xx response.
	KindClient Kind = "client"
	// KindApplication is an HTTP 200 whose envelope status is not "1".
	KindApplication Kind = "application"
	// KindRateLimited is a local rate limiter rejection.
	KindRateLimited Kind = "rate_limited"
	// KindDecode is a 2xx response whose body could not be parsed.
	KindDecode Kind = "decode"
	// KindInvalidRequest is a request rejected before dispatch.
	KindInvalidRequest Kind = "invalid_request"
	// KindConfig is a configuration problem detected at construction time.
	KindConfig Kind = "config"
	// KindCanceled is a caller context cancellation or deadline.
	KindCanceled Kind = "canceled"
)

// Error is the typed failure surfaced by the client, the retry policy and
// the service layer.
type Error struct {
	Kind       Kind
	Op         Operation
	StatusCode int    // HTTP status, when one was received
	InfoCode   string // provider infocode for application failures
	Message    string
	RetryAfter time.Duration // rate limit hint
	Attempts   int           // attempts made before giving up
	Err        error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}

	prefix := "amap"
	if e.Op != "" {
		prefix = fmt.Sprintf("amap %s", e.Op)
	}

	switch {
	case e.Attempts > 1:
		return fmt.Sprintf("%s: %s after %d attempts: %s", prefix, e.Kind, e.Attempts, msg)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s: %s (%d): %s", prefix, e.Kind, e.StatusCode, msg)
	case e.InfoCode != "":
		return fmt.Sprintf("%s: %s (infocode %s): %s", prefix, e.Kind, e.InfoCode, msg)
	default:
		return fmt.Sprintf("%s: %s: %s", prefix, e.Kind, msg)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the Kind of err, or "" when err carries no *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return KindCanceled
	}
	return ""
}

// IsRetryable reports whether err is a transient failure worth retrying.
func IsRetryable(err error) bool {
	switch KindOf(err) {
	case KindTransport, KindServer:
		return true
	default:
		return false
	}
}

func invalidRequest(op Operation, format string, args ...any) *Error {
	return &Error{
		Kind:    KindInvalidRequest,
		Op:      op,
		Message: fmt.Sprintf(format, args...),
	}
}

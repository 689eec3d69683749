package transport

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a transport failure.
type Kind int

const (
	KindUnknown Kind = iota
	KindConnection
	KindTimeout
	KindHTTP
	KindDecode
)

func (k Kind) String() string {
	switch k {
	case KindConnection:
		return "connection failure"
	case KindTimeout:
		return "timeout"
	case KindHTTP:
		return "http error"
	case KindDecode:
		return "decode failure"
	default:
		return "unknown error"
	}
}

// ErrRequestTimeout is the cancellation cause of a call that exceeded its own timeout.
var ErrRequestTimeout = errors.New("request timeout")

// Error is returned for every failed call made through Client.
type Error struct {
	Kind   Kind
	Op     string // e.g. "POST http://localhost:11434/api/chat"
	Status int    // HTTP status for KindHTTP
	Body   string // leading part of the error response body for KindHTTP
	Err    error
}

func (e *Error) Error() string {
	if e.Kind == KindHTTP {
		msg := fmt.Sprintf("%s: http %d", e.Op, e.Status)
		if body := strings.TrimSpace(e.Body); body != "" {
			if len(body) > 200 {
				body = body[:200] + "..."
			}
			msg += ": " + body
		}
		return msg
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the failure class of err, or KindUnknown if err did not come from this package.
func KindOf(err error) Kind {
	var tErr *Error
	if errors.As(err, &tErr) {
		return tErr.Kind
	}
	return KindUnknown
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var tErr *Error
	if errors.As(err, &tErr) && tErr.Kind == KindHTTP {
		return tErr.Status
	}
	return 0
}

// IsRetryable reports whether another attempt may succeed:
// connection failures, timeouts and 5xx responses.
func IsRetryable(err error) bool {
	var tErr *Error
	if !errors.As(err, &tErr) {
		return false
	}
	switch tErr.Kind {
	case KindConnection, KindTimeout:
		return true
	case KindHTTP:
		return tErr.Status >= 500
	default:
		return false
	}
}

// UserMessage renders err for display to the end user.
func UserMessage(err error) string {
	var tErr *Error
	if !errors.As(err, &tErr) {
		return err.Error()
	}
	switch tErr.Kind {
	case KindConnection:
		return "cannot connect to the model service, make sure it is running"
	case KindTimeout:
		return "request timed out, check the model service status"
	case KindHTTP:
		return fmt.Sprintf("the model service returned HTTP %d", tErr.Status)
	case KindDecode:
		return "the model service sent a response that could not be read"
	default:
		return tErr.Error()
	}
}

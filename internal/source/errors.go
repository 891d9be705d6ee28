package source

import (
	"fmt"
	"net/http"
)

// Class buckets source failures the way callers branch on them: transient
// classes are retried with backoff, everything else propagates immediately.
type Class int

const (
	ClassUnknown Class = iota
	ClassRateLimited
	ClassServerError
	ClassGatewayTimeout
	ClassNotFound
	ClassForbidden
	ClassMalformed
)

func (c Class) String() string {
	switch c {
	case ClassRateLimited:
		return "rate_limited"
	case ClassServerError:
		return "server_error"
	case ClassGatewayTimeout:
		return "gateway_timeout"
	case ClassNotFound:
		return "not_found"
	case ClassForbidden:
		return "forbidden"
	case ClassMalformed:
		return "malformed"
	default:
		return "unknown"
	}
}

// Error is the typed failure every source call surfaces. Exhausted marks
// a transient error that survived all retry attempts.
type Error struct {
	Source    string
	Class     Class
	Status    int // HTTP status when known, 0 otherwise
	Msg       string
	Exhausted bool
	Err       error
}

func (e *Error) Error() string {
	if e.Exhausted {
		return fmt.Sprintf("%s: retries exhausted (%s): %s", e.Source, e.Class, e.Msg)
	}
	return fmt.Sprintf("%s: %s: %s", e.Source, e.Class, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Retryable reports whether the error class is on the transient allow-list.
func (e *Error) Retryable() bool {
	if e.Exhausted {
		return false
	}
	switch e.Class {
	case ClassRateLimited, ClassServerError, ClassGatewayTimeout:
		return true
	default:
		return false
	}
}

// Classify maps an HTTP status code to an error class.
func Classify(status int) Class {
	switch {
	case status == http.StatusTooManyRequests:
		return ClassRateLimited
	case status == http.StatusGatewayTimeout:
		return ClassGatewayTimeout
	case status >= 500:
		return ClassServerError
	case status == http.StatusNotFound || status == http.StatusGone:
		return ClassNotFound
	case status == http.StatusForbidden || status == http.StatusUnauthorized:
		return ClassForbidden
	default:
		return ClassUnknown
	}
}

func statusError(source string, status int, msg string) *Error {
	return &Error{Source: source, Class: Classify(status), Status: status, Msg: msg}
}

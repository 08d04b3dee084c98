package domain

import (
	"errors"
	"fmt"
	"strconv"
)

// Legacy two-character status tags.
const (
	StatusOK    = "OK"
	StatusError = "ER"
)

// Kind classifies a failed fetch.
type Kind int

const (
	KindNetwork Kind = iota + 1
	KindHTTPStatus
	KindCacheRead
	KindCacheWrite
	KindException
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindHTTPStatus:
		return "http_status"
	case KindCacheRead:
		return "cache_read"
	case KindCacheWrite:
		return "cache_write"
	case KindException:
		return "exception"
	default:
		return "unknown"
	}
}

// FetchError is the failure side of an Outcome. Message holds the exact text
// receivers see after the ER tag.
type FetchError struct {
	Kind    Kind
	Message string
}

func (e *FetchError) Error() string { return e.Message }

// NetworkError reports a transport failure.
func NetworkError(err error) *FetchError {
	return &FetchError{Kind: KindNetwork, Message: "Network error. " + detail(err)}
}

// HTTPStatusError reports a response whose status was not 200.
func HTTPStatusError(code int) *FetchError {
	return &FetchError{Kind: KindHTTPStatus, Message: "HTTP error status " + strconv.Itoa(code)}
}

// CacheReadError reports a failed cache lookup.
func CacheReadError(err error) *FetchError {
	return &FetchError{Kind: KindCacheRead, Message: "Cache read error. " + detail(err)}
}

// CacheWriteError reports a failed cache store.
func CacheWriteError(err error) *FetchError {
	return &FetchError{Kind: KindCacheWrite, Message: "Cache write error. " + detail(err)}
}

// Exception reports a decode failure or any other unexpected error.
func Exception(err error) *FetchError {
	return &FetchError{Kind: KindException, Message: "Exception. " + detail(err)}
}

func detail(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// Outcome is either a successful value or a *FetchError, never both.
type Outcome[T any] struct {
	value T
	err   *FetchError
}

// Success wraps a value.
func Success[T any](v T) Outcome[T] { return Outcome[T]{value: v} }

// Failure wraps an error.
func Failure[T any](err *FetchError) Outcome[T] {
	if err == nil {
		err = Exception(errors.New("unspecified failure"))
	}
	return Outcome[T]{err: err}
}

// OK reports whether the outcome is a success.
func (o Outcome[T]) OK() bool { return o.err == nil }

// Value returns the success value (zero on failure).
func (o Outcome[T]) Value() T { return o.value }

// Err returns the failure, or nil on success.
func (o Outcome[T]) Err() *FetchError { return o.err }

// Status returns the two-character tag.
func (o Outcome[T]) Status() string {
	if o.err != nil {
		return StatusError
	}
	return StatusOK
}

// Payload returns the text following the tag. Non-string success values have an empty payload.
func (o Outcome[T]) Payload() string {
	if o.err != nil {
		return o.err.Message
	}
	if s, ok := any(o.value).(string); ok {
		return s
	}
	return ""
}

// Encode renders the legacy single-string form: tag followed by payload.
func (o Outcome[T]) Encode() string {
	return o.Status() + o.Payload()
}

// Decode splits a legacy encoded string into its tag and payload.
func Decode(s string) (status, payload string, err error) {
	if len(s) < 2 {
		return "", "", fmt.Errorf("encoded outcome too short: %q", s)
	}
	status = s[:2]
	if status != StatusOK && status != StatusError {
		return "", "", fmt.Errorf("unknown status tag %q", status)
	}
	return status, s[2:], nil
}

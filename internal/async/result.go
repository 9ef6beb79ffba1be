// Package async holds the per-request fetch state shared by page handlers and
// the duplicate-submission gate.
package async

import (
	apperrors "github.com/target/userdeck/internal/errors"
)

// Status is the lifecycle of one remote fetch.
type Status int

const (
	StatusPending Status = iota
	StatusSucceeded
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusSucceeded:
		return "succeeded"
	case StatusFailed:
		return "failed"
	default:
		return "pending"
	}
}

// Result is the outcome of a fetch: pending, succeeded with Data, or failed with Err.
type Result[T any] struct {
	Status Status
	Data   T
	Err    error
}

// Pending returns a result that has not completed yet.
func Pending[T any]() Result[T] { return Result[T]{} }

// Succeed wraps data in a succeeded result.
func Succeed[T any](data T) Result[T] {
	return Result[T]{Status: StatusSucceeded, Data: data}
}

// Fail wraps err in a failed result.
func Fail[T any](err error) Result[T] {
	return Result[T]{Status: StatusFailed, Err: err}
}

// From converts a (value, error) pair into a result.
func From[T any](data T, err error) Result[T] {
	if err != nil {
		return Fail[T](err)
	}
	return Succeed(data)
}

func (r Result[T]) Loading() bool   { return r.Status == StatusPending }
func (r Result[T]) Succeeded() bool { return r.Status == StatusSucceeded }
func (r Result[T]) Failed() bool    { return r.Status == StatusFailed }

// Message is the user-facing error text for a failed result, or "".
func (r Result[T]) Message(fallback string) string {
	if !r.Failed() {
		return ""
	}
	return apperrors.UserMessage(r.Err, fallback)
}

// Retryable reports whether repeating the fetch may succeed.
func (r Result[T]) Retryable() bool {
	return r.Failed() && apperrors.IsNetwork(r.Err)
}

package domain

import "fmt"

// InvalidReferenceError indicates a malformed source reference. Surfaced as a
// client error at the transport boundary, never retried.
type InvalidReferenceError struct {
	Reference string
	Reason    string
}

func (e *InvalidReferenceError) Error() string {
	return fmt.Sprintf("invalid source reference %q: %s", e.Reference, e.Reason)
}

// NotFoundError indicates the upstream content is unavailable (no such video
// or no transcript published for it).
type NotFoundError struct {
	Key    SourceKey
	Reason string
}

func (e *NotFoundError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("not found: %s", e.Reason)
	}
	return fmt.Sprintf("source %s not found: %s", e.Key, e.Reason)
}

// AdapterError wraps a failure from one task's external call. Retries, if
// any, are the adapter's responsibility.
type AdapterError struct {
	Task TaskName
	Err  error
}

func (e *AdapterError) Error() string {
	return fmt.Sprintf("task %s failed: %v", e.Task, e.Err)
}

func (e *AdapterError) Unwrap() error { return e.Err }

// DuplicateUpdateError indicates a second state update for the same task
// within one run. This is an invariant violation, not an operational error.
type DuplicateUpdateError struct {
	Task TaskName
}

func (e *DuplicateUpdateError) Error() string {
	return fmt.Sprintf("duplicate state update for task %s", e.Task)
}

// PartialFailureError is the terminal state of a run in which exactly one
// leaf task failed while the other succeeded. The partial record is surfaced
// for inspection but never persisted.
type PartialFailureError struct {
	FailedTask TaskName
	Err        error
}

func (e *PartialFailureError) Error() string {
	return fmt.Sprintf("partial failure: task %s failed: %v", e.FailedTask, e.Err)
}

func (e *PartialFailureError) Unwrap() error { return e.Err }

// StreamError indicates a sink write failure while streaming. It terminates
// the stream but never crashes the process.
type StreamError struct {
	Err error
}

func (e *StreamError) Error() string {
	return fmt.Sprintf("stream write failed: %v", e.Err)
}

func (e *StreamError) Unwrap() error { return e.Err }

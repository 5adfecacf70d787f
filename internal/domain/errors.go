package domain

import "fmt"

// SourceErrorKind tells why a source contributed nothing (or less than everything).
type SourceErrorKind string

const (
	SourceUnavailable SourceErrorKind = "unavailable"
	SourceTimeout     SourceErrorKind = "timeout"
	SourceMalformed   SourceErrorKind = "malformed"
	SourcePanic       SourceErrorKind = "panic"
)

// SourceError is raised at an adapter boundary; it is logged and never aborts aggregation.
type SourceError struct {
	Kind   SourceErrorKind
	Source string
	Err    error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("source %s %s: %v", e.Source, e.Kind, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }

// NotFoundError reports an unknown submission id.
type NotFoundError struct {
	ID int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("submission %d not found", e.ID)
}

// PersistenceError wraps a failed store call. It is never retried automatically.
type PersistenceError struct {
	Op  string
	ID  int64
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s submission %d: %v", e.Op, e.ID, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// DispatchError reports a failed author notification, separately from persistence.
type DispatchError struct {
	Recipient string
	Err       error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("notify %s: %v", e.Recipient, e.Err)
}

func (e *DispatchError) Unwrap() error { return e.Err }

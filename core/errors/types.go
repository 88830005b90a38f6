// Package errors implements the error taxonomy shared by the observation engine.
//
// Every error surfaced by an extractor, decoder or model adapter carries a Kind.
// Callers branch on the kind with errors.Is against the kind sentinels or with KindOf.
package errors

import (
	"errors"
	"fmt"
)

// Kind classifies an error by the caller action it calls for.
type Kind int

const (
	// KindUnknown is reported for errors that were never classified.
	KindUnknown Kind = iota

	// KindInvalidSolverState indicates the solver has not produced the state an
	// extractor needs, e.g. no LP solved yet or no focus node.
	KindInvalidSolverState

	// KindCachePrecondition indicates the problem structure changed while static
	// features were cached.
	KindCachePrecondition

	// KindSerialization indicates a malformed buffer on decode.
	KindSerialization
)

var kindNames = map[Kind]string{
	KindUnknown:            "unknown",
	KindInvalidSolverState: "invalid_solver_state",
	KindCachePrecondition:  "cache_precondition",
	KindSerialization:      "serialization",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Error wraps an underlying error with its kind and the operation that failed.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Op, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("[%s] %v", e.Kind, e.Err)
	default:
		return fmt.Sprintf("[%s] %s", e.Kind, e.Op)
	}
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	var ke *Error
	if errors.As(target, &ke) {
		return e.Kind == ke.Kind
	}
	return false
}

// New creates an error of the given kind.
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Wrap classifies err under kind. A nil err yields nil, and an error that is
// already classified keeps its original kind.
func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	var ke *Error
	if errors.As(err, &ke) {
		return err
	}
	return New(kind, op, err)
}

// KindOf extracts the Kind from an error, defaulting to KindUnknown.
func KindOf(err error) Kind {
	var ke *Error
	if errors.As(err, &ke) {
		return ke.Kind
	}
	return KindUnknown
}

// Kind sentinels for errors.Is.
var (
	ErrInvalidSolverState = New(KindInvalidSolverState, "invalid solver state", nil)
	ErrCachePrecondition  = New(KindCachePrecondition, "cache precondition violated", nil)
	ErrSerialization      = New(KindSerialization, "serialization", nil)
)

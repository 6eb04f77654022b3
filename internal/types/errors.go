package types

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-stack/stack"
)

// ErrorKind tags the ErrorInfo variant
type ErrorKind uint8

const (
	KindSimple ErrorKind = iota
	KindAggregate
)

// ErrorInfo is a read-only view of an error as seen by the logging pipeline.
// Aggregates carry their causes in Errors, in original order.
type ErrorInfo struct {
	Kind    ErrorKind
	Message string
	Stack   string
	Errors  []*ErrorInfo
}

// NewError creates a simple error view
func NewError(message, stack string) *ErrorInfo {
	return &ErrorInfo{Kind: KindSimple, Message: message, Stack: stack}
}

// NewAggregateError creates an aggregate error view over the given causes
func NewAggregateError(message, stack string, causes ...*ErrorInfo) *ErrorInfo {
	return &ErrorInfo{Kind: KindAggregate, Message: message, Stack: stack, Errors: causes}
}

// IsAggregate reports whether the error wraps multiple causes
func (e *ErrorInfo) IsAggregate() bool {
	return e != nil && e.Kind == KindAggregate
}

// multiError matches errors.Join results and other multi-cause errors
type multiError interface {
	Unwrap() []error
}

// FromError converts a Go error into an ErrorInfo. This is the single place
// where the simple/aggregate decision is made.
func FromError(err error) *ErrorInfo {
	if err == nil {
		return nil
	}

	info := &ErrorInfo{Kind: KindSimple, Message: err.Error()}

	// Walk the single-unwrap chain only; errors.As would descend into the
	// causes of a multi-error and pick up a child's stack.
	for e := err; e != nil; e = errors.Unwrap(e) {
		if t, ok := e.(*Traced); ok && info.Stack == "" {
			info.Stack = t.Stack()
		}
		if m, ok := e.(multiError); ok {
			info.Kind = KindAggregate
			for _, cause := range m.Unwrap() {
				if cause == nil {
					continue
				}
				info.Errors = append(info.Errors, FromError(cause))
			}
			break
		}
	}

	return info
}

// Traced is an error annotated with the call stack captured by WithStack
type Traced struct {
	err    error
	frames stack.CallStack
}

// WithStack records the caller's stack on err. Returns nil for a nil error.
func WithStack(err error) error {
	if err == nil {
		return nil
	}
	return &Traced{
		err:    err,
		frames: stack.Trace().TrimBelow(stack.Caller(1)).TrimRuntime(),
	}
}

func (t *Traced) Error() string { return t.err.Error() }

func (t *Traced) Unwrap() error { return t.err }

// Stack renders the error head followed by one "    at" line per frame
func (t *Traced) Stack() string {
	var b strings.Builder
	b.WriteString(headLine(t.err))
	for _, c := range t.frames {
		fmt.Fprintf(&b, "\n    at %+n (%+v)", c, c)
	}
	return b.String()
}

// headLine is "Error: <msg>" or "AggregateError: <msg>", first message line only
func headLine(err error) string {
	kind := "Error"
	var m multiError
	if errors.As(err, &m) {
		kind = "AggregateError"
	}

	msg := err.Error()
	if i := strings.IndexByte(msg, '\n'); i >= 0 {
		msg = msg[:i]
	}
	if msg == "" {
		return kind
	}
	return kind + ": " + msg
}

package source

import "fmt"

// ParseError reports a surface syntax violation. Per spec §7 it is never
// retried and always carries the offending node's span plus a one-line
// reason.
type ParseError struct {
	Span   Span
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Span, e.Reason)
}

// NewParseError constructs a ParseError anchored at span.
func NewParseError(span Span, format string, args ...any) *ParseError {
	return &ParseError{Span: span, Reason: fmt.Sprintf(format, args...)}
}

// SchedulingError reports that a scheduling primitive's target could not be
// located, its structural precondition failed, or the rewrite it describes
// would violate IR well-formedness.
type SchedulingError struct {
	Span   Span
	Reason string
}

func (e *SchedulingError) Error() string {
	return fmt.Sprintf("%s: %s", e.Span, e.Reason)
}

// NewSchedulingError constructs a SchedulingError anchored at span. span may
// be source.Unknown when the primitive has no single originating location
// (e.g. "name not found anywhere in procedure").
func NewSchedulingError(span Span, format string, args ...any) *SchedulingError {
	return &SchedulingError{Span: span, Reason: fmt.Sprintf(format, args...)}
}

// ValidationError reports that an IR node was constructed with arguments
// violating its variant's invariants. These indicate compiler bugs: they are
// never expected to surface from well-formed scheduling primitives, and
// exist so that a broken invariant fails loudly and close to its source
// rather than producing a silently malformed tree.
type ValidationError struct {
	Span   Span
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: invalid IR: %s", e.Span, e.Reason)
}

// NewValidationError constructs a ValidationError anchored at span.
func NewValidationError(span Span, format string, args ...any) *ValidationError {
	return &ValidationError{Span: span, Reason: fmt.Sprintf(format, args...)}
}

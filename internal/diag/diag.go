// Package diag renders the compiler's three error categories
// (source.ParseError, source.SchedulingError, source.ValidationError) as a
// caret diagram: the offending line of source text followed by a row of
// carets under the violating span, the way printSyntaxError renders a
// source.SyntaxError in the teacher's pkg/cmd/util/schema_stack.go and
// pkg/cmd/zkc/util.go.
//
// This is the external surface an editor integration or REPL (out of core
// scope, but named by spec.md §6) would call after a Procedure operation
// returns an error.
package diag

import (
	"fmt"
	"os"
	"strings"

	"github.com/exo-lang/exo/internal/source"

	"golang.org/x/term"
)

// FromError extracts the span/reason pair carried by one of the three known
// error categories. ok is false for any other error, which the caller
// should fall back to printing with plain %v.
func FromError(err error) (span source.Span, reason string, ok bool) {
	switch e := err.(type) {
	case *source.ParseError:
		return e.Span, e.Reason, true
	case *source.SchedulingError:
		return e.Span, e.Reason, true
	case *source.ValidationError:
		return e.Span, fmt.Sprintf("invalid IR: %s", e.Reason), true
	default:
		return source.Span{}, "", false
	}
}

// Render formats a single caret diagram for span/reason against line, the
// physical source line span.Line names. Callers fetch line themselves via
// m.FindFirstEnclosingLine(span.Line), since only the caller knows which
// source.Map the span was recorded against.
func Render(span source.Span, reason string, line source.Line) string {
	text := line.String()
	width := terminalWidth()

	offset := span.Column - 1
	if offset < 0 {
		offset = 0
	}

	length := 1
	if span.EndLine == span.Line && span.EndColumn > span.Column {
		length = span.EndColumn - span.Column
	}

	// Truncate the printed line to the terminal width, clamping the caret
	// row so it never runs past what was actually printed. Diagnostics
	// truncate rather than reflow: reflowing at word boundaries would
	// desynchronize the caret row from the column it's meant to mark.
	if width > 0 && len(text) > width {
		text = text[:width]

		if offset >= width {
			offset = width - 1
		}

		if offset+length > width {
			length = width - offset
		}
	}

	var b strings.Builder

	fmt.Fprintf(&b, "%s: %s\n\n", span, reason)
	b.WriteString(text)
	b.WriteByte('\n')
	b.WriteString(strings.Repeat(" ", offset))
	b.WriteString(strings.Repeat("^", max(length, 1)))

	return b.String()
}

// RenderError is the one-call convenience most callers want: extract the
// span/reason from err, if it is one of the three known categories, and
// render it against m.
func RenderError[T comparable](err error, m *source.Map[T]) (string, bool) {
	span, reason, ok := FromError(err)
	if !ok {
		return "", false
	}

	line := m.FindFirstEnclosingLine(span.Line)

	return Render(span, reason, line), true
}

// terminalWidth reports stdout's column width, falling back to 80 when
// stdout isn't a terminal (piped output, tests, CI) — mirroring the
// teacher's termio.Terminal.GetSize, which wraps the same term.GetSize call,
// except degrading to a default here rather than panicking, since a
// diagnostic printer has no terminal session to assume is present.
func terminalWidth() int {
	fd := int(os.Stdout.Fd())

	if !term.IsTerminal(fd) {
		return 80
	}

	w, _, err := term.GetSize(fd)
	if err != nil {
		return 80
	}

	return w
}

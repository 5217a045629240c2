package diag

import (
	"strings"
	"testing"

	"github.com/exo-lang/exo/internal/source"
)

func TestRenderPlacesCaretUnderSpan(t *testing.T) {
	span := source.NewSpan("test.exo", 2, 8, 2, 11)
	line := source.NewMap[string]([]rune("proc foo\n  bar + 1\n")).FindFirstEnclosingLine(2)

	out := Render(span, "unresolved name", line)

	lines := strings.Split(out, "\n")
	if len(lines) < 4 {
		t.Fatalf("expected at least 4 lines, got %d: %q", len(lines), out)
	}

	if !strings.Contains(lines[0], "unresolved name") {
		t.Fatalf("expected header to carry the reason, got %q", lines[0])
	}

	caretLine := lines[len(lines)-1]
	if caretLine != strings.Repeat(" ", 7)+"^^^" {
		t.Fatalf("expected carets at column 8 spanning 3 columns, got %q", caretLine)
	}
}

func TestRenderTruncatesLongLinesAndClampsCaret(t *testing.T) {
	long := strings.Repeat("x", 200)
	span := source.NewSpan("test.exo", 1, 195, 1, 199)
	line := source.NewMap[string]([]rune(long)).FindFirstEnclosingLine(1)

	out := Render(span, "too long", line)

	lines := strings.Split(out, "\n")
	printedLine := lines[len(lines)-2]
	caretLine := lines[len(lines)-1]

	if len(printedLine) > 80 {
		t.Fatalf("expected printed line clamped to the 80-column fallback width, got length %d", len(printedLine))
	}

	if len(caretLine) > len(printedLine) {
		t.Fatalf("expected caret row never to run past the printed line, got %q against %q", caretLine, printedLine)
	}
}

func TestFromErrorRecognisesAllThreeCategories(t *testing.T) {
	cases := []error{
		source.NewParseError(source.Unknown, "bad token"),
		source.NewSchedulingError(source.Unknown, "target not found"),
		source.NewValidationError(source.Unknown, "dangling symbol"),
	}

	for _, err := range cases {
		if _, _, ok := FromError(err); !ok {
			t.Fatalf("expected FromError to recognise %T", err)
		}
	}

	if _, _, ok := FromError(nil); ok {
		t.Fatalf("expected FromError to reject a plain nil error")
	}
}

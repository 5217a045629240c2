package source

import "fmt"

// Line describes one physical line of a source file, used to render caret
// diagnostics for a ParseError/SchedulingError/ValidationError.
type Line struct {
	text   []rune
	start  int
	end    int
	number int
}

// String returns the textual content of the line.
func (l Line) String() string {
	return string(l.text[l.start:l.end])
}

// Number returns the 1-based line number.
func (l Line) Number() int {
	return l.number
}

// Map associates AST nodes of type T with the Span (line/column) of the
// original text they were parsed from. It exists so error reporting can
// recover "which line was this" for a node long after parsing, without
// threading a Span through every piece of code that merely forwards a node
// along.
//
// Unlike the teacher's sexp.SourceMap, the backing text is a single
// in-memory fragment held as runes (the host-AST ingestion point, §6),
// since the core never opens a file itself.
type Map[T comparable] struct {
	mapping map[T]Span
	text    []rune
}

// NewMap constructs an empty source map over the given backing text.
func NewMap[T comparable](text []rune) *Map[T] {
	return &Map[T]{mapping: make(map[T]Span), text: text}
}

// Put registers the span associated with a node. Panics if item is already
// registered, mirroring the teacher's "a node is recorded exactly once"
// invariant.
func (m *Map[T]) Put(item T, span Span) {
	if _, ok := m.mapping[item]; ok {
		panic(fmt.Sprintf("source map key already registered: %v", item))
	}

	m.mapping[item] = span
}

// Get returns the span registered for item, or ok=false if none was.
func (m *Map[T]) Get(item T) (Span, bool) {
	s, ok := m.mapping[item]
	return s, ok
}

// FindFirstEnclosingLine locates the first line enclosing the start of line
// number `lineNo` (1-based) within the map's backing text. If lineNo is
// beyond the bounds of the text, the final physical line is returned.
func (m *Map[T]) FindFirstEnclosingLine(lineNo int) Line {
	num := 1
	start := 0

	for i := 0; i < len(m.text); i++ {
		if num == lineNo {
			end := findEndOfLine(i, m.text)
			return Line{text: m.text, start: start, end: end, number: num}
		}

		if m.text[i] == '\n' {
			num++
			start = i + 1
		}
	}

	return Line{text: m.text, start: start, end: len(m.text), number: num}
}

func findEndOfLine(index int, text []rune) int {
	for i := index; i < len(text); i++ {
		if text[i] == '\n' {
			return i
		}
	}

	return len(text)
}

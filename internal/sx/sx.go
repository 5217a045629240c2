// Package sx models the host AST that the surface parser consumes.
//
// Exo's surface parser is specified (spec.md §4.1, §6) to lift an
// already-parsed host-language AST into UAST/PAST; the core never reads
// source text itself. In the original Python implementation, that host AST
// is the standard `ast` module's tree. Go has no equivalent reflective AST
// to borrow, so this package plays that role: an untyped, s-expression
// shaped tree (List of Atoms/Lists) is the host-AST wire format the core
// ingests. A thin front end (out of scope, §1) is responsible for producing
// one of these from whatever concrete host syntax a user writes in; this
// package and internal/parser only ever see the result.
package sx

// Node is either a List or an Atom.
type Node interface {
	IsList() bool
	String() string
}

// List is an ordered sequence of child nodes, e.g. a call, a statement
// block, or an argument list, depending on context.
type List struct {
	Elements []Node
}

// IsList implements Node.
func (*List) IsList() bool { return true }

// Len returns the number of elements in the list.
func (l *List) Len() int { return len(l.Elements) }

// String renders a debug form of the list.
func (l *List) String() string {
	s := "("

	for i, e := range l.Elements {
		if i != 0 {
			s += " "
		}

		s += e.String()
	}

	return s + ")"
}

// Head returns the leading atom's value if this list's first element is an
// Atom, and ok=false otherwise. Used throughout internal/parser to dispatch
// on a list's "keyword" (e.g. "for", "assert", "alloc").
func (l *List) Head() (string, bool) {
	if len(l.Elements) == 0 {
		return "", false
	}

	a, ok := l.Elements[0].(*Atom)
	if !ok {
		return "", false
	}

	return a.Value, true
}

// Kind classifies an Atom's lexical category, decided at host-AST
// construction time (the front end knows whether "3" is an int literal
// versus an identifier; the core never re-lexes a string).
type Kind int

// Atom kinds.
const (
	// KindIdent is a bare identifier, resolved against the active scope.
	KindIdent Kind = iota
	// KindInt is an integer literal.
	KindInt
	// KindFloat is a floating point literal.
	KindFloat
	// KindString is a string literal (e.g. a memory annotation name).
	KindString
	// KindHole is the pattern wildcard "_".
	KindHole
)

// Atom is a terminal host-AST node: an identifier, a literal, or a pattern
// hole.
type Atom struct {
	Kind  Kind
	Value string
}

// IsList implements Node.
func (*Atom) IsList() bool { return false }

// String renders the atom's textual value.
func (a *Atom) String() string { return a.Value }

// Ident constructs an identifier atom.
func Ident(name string) *Atom { return &Atom{Kind: KindIdent, Value: name} }

// Int constructs an integer literal atom.
func Int(text string) *Atom { return &Atom{Kind: KindInt, Value: text} }

// Float constructs a floating point literal atom.
func Float(text string) *Atom { return &Atom{Kind: KindFloat, Value: text} }

// Hole constructs the pattern wildcard atom "_".
func Hole() *Atom { return &Atom{Kind: KindHole, Value: "_"} }

// NewList constructs a List from the given elements.
func NewList(elements ...Node) *List {
	return &List{Elements: elements}
}

// MatchHead reports whether l has at least n elements and l's first m
// elements are identifier atoms equal to the given symbols, in order. Mirrors
// the teacher's List.MatchSymbols (pkg/sexp/sexp.go), used by the parser to
// dispatch on leading keywords without a full lookup table for short,
// fixed-shape lists like `(par lo hi)`.
func (l *List) MatchHead(n int, symbols ...string) bool {
	if len(l.Elements) < n || len(symbols) > n {
		return false
	}

	for i, want := range symbols {
		a, ok := l.Elements[i].(*Atom)
		if !ok || a.Value != want {
			return false
		}
	}

	return true
}

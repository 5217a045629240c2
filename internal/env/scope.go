// Package env implements the surface parser's name resolution (spec.md
// §4.1): a chained procedure-local scope with explicit push/pop discipline,
// backed by two further environments captured at decoration time (the
// defining host frame's locals, then its globals).
//
// Modelled on the teacher's LocalScope (pkg/corset/scope.go), but using
// explicit Push/Pop mutation rather than copy-on-nest, since spec.md §5
// specifies the parser scope as an "acquire/release idiom": every Push is
// matched by a Pop on every exit path, including when a panic or error
// unwinds through a scope.
package env

import (
	"github.com/exo-lang/exo/internal/sym"
)

// Binding is what a name in scope resolves to.
type Binding interface {
	isBinding()
}

// VarBinding is an ordinary variable (a loop iterator, a procedure
// argument, an Alloc).
type VarBinding struct {
	Sym sym.Symbol
}

func (VarBinding) isBinding() {}

// SizeBinding is a symbol occupying a shape position (a procedure size
// parameter) — distinguished from VarBinding so the parser can decide
// whether a read becomes an ASize or an AVar (spec.md §3).
type SizeBinding struct {
	Sym sym.Symbol
}

func (SizeBinding) isBinding() {}

// ConfigBinding marks a name as referring to a configuration object, so
// that `cfg.field = e` is recognised and produces WriteConfig rather than
// being treated as an ordinary assignment target (spec.md §4.1).
type ConfigBinding struct {
	Sym    sym.Symbol
	Fields map[string]bool
}

func (ConfigBinding) isBinding() {}

// LiteralInt is a host-captured integer constant: a bare name resolving to
// one becomes a literal at the use site, not a variable read (spec.md
// §4.1).
type LiteralInt struct {
	Value int64
}

func (LiteralInt) isBinding() {}

// LiteralFloat is a host-captured floating point constant.
type LiteralFloat struct {
	Value float64
}

func (LiteralFloat) isBinding() {}

// frame is one level of the procedure-local chained scope.
type frame struct {
	bindings map[string]Binding
}

// Scope is the mutable, chained procedure-local environment. The zero value
// is usable (starts with no frames pushed).
type Scope struct {
	frames []frame
}

// Push opens a new nested scope, e.g. on entering a loop body or branch arm.
func (s *Scope) Push() {
	s.frames = append(s.frames, frame{bindings: make(map[string]Binding)})
}

// Pop closes the most recently pushed scope. Panics if called with no scope
// open, which would indicate a push/pop discipline bug in the parser
// itself.
func (s *Scope) Pop() {
	if len(s.frames) == 0 {
		panic("env.Scope: Pop with no matching Push")
	}

	s.frames = s.frames[:len(s.frames)-1]
}

// Depth reports how many frames are currently open. Used by tests to assert
// the scope discipline invariant (spec.md §8 testable property 5): after
// parsing a procedure, the parser's scope chain is empty.
func (s *Scope) Depth() int {
	return len(s.frames)
}

// Declare binds name in the innermost open frame. Panics if called with no
// scope open.
func (s *Scope) Declare(name string, b Binding) {
	if len(s.frames) == 0 {
		panic("env.Scope: Declare with no open frame")
	}

	s.frames[len(s.frames)-1].bindings[name] = b
}

// Lookup walks outward from the innermost frame, returning the first match.
func (s *Scope) Lookup(name string) (Binding, bool) {
	for i := len(s.frames) - 1; i >= 0; i-- {
		if b, ok := s.frames[i].bindings[name]; ok {
			return b, true
		}
	}

	return nil, false
}

// WithScope pushes a new frame, invokes fn, and guarantees the frame is
// popped even if fn panics — the acquire/release idiom spec.md §5 calls
// for.
func (s *Scope) WithScope(fn func()) {
	s.Push()
	defer s.Pop()

	fn()
}

// Package meta implements the quote/unquote protocol (spec.md §4.2): the
// mechanism that lets a scheduling script splice host-computed IR into a
// procedure body (unquote) and lets code reached from an unquote callback
// re-enter the surface parser on a fresh fragment (quote), carrying the
// enclosing procedure's scope with it.
//
// Go has no runtime reflection over its own source the way the original
// implementation's host language does, so this package follows spec.md
// §9's design note verbatim: "the unquote protocol becomes an explicit
// builder object threaded through a small evaluator, and quote becomes a
// closure over that builder. The compiled two-layer nested host function is
// replaced by a straight application of the builder with an explicit
// captured-environment record." Concretely: a host "expression" is an
// ordinary Go closure (UnquoteFunc) registered under a mangled name; a
// nested quote is a parser fragment registered the same way by
// QuoteReplacer. Both resolve through the same Registry, and Builder
// implements internal/parser's Unquoter interface directly so a Parser
// constructed with a Builder as its Unquoter needs no other wiring.
package meta

import (
	"fmt"

	"github.com/exo-lang/exo/internal/env"
	"github.com/exo-lang/exo/internal/source"
	"github.com/exo-lang/exo/internal/uast"
)

// CapturedEnv models the "two-layer nested host function" the original
// implementation's unquote protocol compiles for every callback: an outer
// frame of captured locals, wrapping the defining scope's globals, with any
// name the defining scope never actually bound explicitly marked deleted
// so a reference to it fails at evaluation time rather than silently
// falling through to an enclosing frame (spec.md §4.2: "outer parameters
// are the captured locals ... with unbound locals explicitly deleted so
// references to them raise at execution time").
type CapturedEnv struct {
	Locals  map[string]env.Binding
	Globals map[string]env.Binding
	Deleted map[string]bool
}

// CaptureEnv snapshots locals and globals into a CapturedEnv, marking every
// name in unbound as deleted.
func CaptureEnv(locals, globals map[string]env.Binding, unbound []string) *CapturedEnv {
	deleted := make(map[string]bool, len(unbound))
	for _, n := range unbound {
		deleted[n] = true
	}

	return &CapturedEnv{Locals: locals, Globals: globals, Deleted: deleted}
}

// Lookup resolves name the way the compiled unquote closure would: locals
// first, then globals — but a name marked Deleted fails even if an
// identically-named global would otherwise be visible, matching the
// original's explicit-delete semantics rather than ordinary lexical
// fallback.
func (c *CapturedEnv) Lookup(name string) (env.Binding, bool) {
	if c.Deleted[name] {
		return nil, false
	}

	if b, ok := c.Locals[name]; ok {
		return b, true
	}

	if b, ok := c.Globals[name]; ok {
		return b, true
	}

	return nil, false
}

// mergedLocals flattens a CapturedEnv into a single locals map the way
// internal/parser.New expects it, for handing to a fresh Parser at quote
// re-entry: globals fill in behind locals, and a deleted name is omitted
// entirely so the parser's own Env.Resolve correctly fails to find it.
func (c *CapturedEnv) mergedLocals() map[string]env.Binding {
	out := make(map[string]env.Binding, len(c.Locals)+len(c.Globals))

	for k, v := range c.Globals {
		if c.Deleted[k] {
			continue
		}

		out[k] = v
	}

	for k, v := range c.Locals {
		if c.Deleted[k] {
			delete(out, k)
			continue
		}

		out[k] = v
	}

	return out
}

// TypeError reports that an unquote callback returned a value that is
// neither an integer, a float, nor IR — the typed error spec.md §4.2
// promises ("Expression unquote accepts integers, floats, or IR
// expressions; anything else fails with a typed error").
type TypeError struct {
	Name string
	Got  any
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("unquote %q returned %T, expected int64, float64, uast.Expr, or []uast.Stmt", e.Name, e.Got)
}

// CoerceExpr converts an UnquoteFunc's return value into a uast.Expr at
// span, per spec.md §4.2's closed set of acceptable expression-unquote
// results.
func CoerceExpr(name string, v any, span source.Span) (uast.Expr, error) {
	switch val := v.(type) {
	case int64:
		return uast.NewIntConst(val, span), nil
	case int:
		return uast.NewIntConst(int64(val), span), nil
	case float64:
		return uast.NewFloatConst(val, span), nil
	case uast.Expr:
		return val, nil
	default:
		return nil, &TypeError{Name: name, Got: v}
	}
}

// CoerceStmts converts an UnquoteFunc's return value into a []uast.Stmt for
// statement-level unquote.
func CoerceStmts(name string, v any) ([]uast.Stmt, error) {
	switch val := v.(type) {
	case []uast.Stmt:
		return val, nil
	case uast.Stmt:
		return []uast.Stmt{val}, nil
	default:
		return nil, &TypeError{Name: name, Got: v}
	}
}

package meta

import (
	"fmt"

	"github.com/exo-lang/exo/internal/parser"
	"github.com/exo-lang/exo/internal/source"
	"github.com/exo-lang/exo/internal/sx"
	"github.com/exo-lang/exo/internal/uast"
)

// Builder is the explicit IR-builder object spec.md §9's design note
// substitutes for re-entrant host-code execution: an UnquoteFunc receives
// one and calls back into it to realise any quote fragment nested inside
// it, rather than the original implementation's approach of literally
// re-entering the host interpreter.
//
// Builder implements internal/parser's Unquoter interface directly, so a
// Parser constructed with a Builder as its unquoter needs no other wiring:
// when the parser hits `(unquote NAME)` it calls back into the very
// Registry the Builder was handed at construction time.
type Builder struct {
	registry *Registry
	p        *parser.Parser
}

// NewBuilder constructs a Builder over registry. Call Attach once the owning
// Parser exists, closing the loop Parser<->Builder<->Registry requires:
// the Parser needs a Builder as its Unquoter at construction time, but the
// Builder needs the finished Parser to re-enter on a quote.
func NewBuilder(registry *Registry) *Builder {
	return &Builder{registry: registry}
}

// Attach records the Parser this Builder serves as Unquoter for, enabling
// quote re-entry. Must be called exactly once, before any EvalStmt/EvalExpr
// a quote construct would trigger.
func (b *Builder) Attach(p *parser.Parser) {
	b.p = p
}

// EvalExpr implements parser.Unquoter: resolves name in the Registry and
// realises it, coercing the result into a uast.Expr.
func (b *Builder) EvalExpr(name string) (uast.Expr, error) {
	e, ok := b.registry.lookup(name)
	if !ok {
		return nil, fmt.Errorf("meta: no unquote callback registered under %q", name)
	}

	if e.quote != nil {
		return b.evalQuoteExpr(name, e.quote)
	}

	v, err := e.fn(b)
	if err != nil {
		return nil, err
	}

	return CoerceExpr(name, v, source.Unknown)
}

// EvalStmt implements parser.Unquoter: resolves name in the Registry and
// realises it, coercing the result into a []uast.Stmt.
func (b *Builder) EvalStmt(name string) ([]uast.Stmt, error) {
	e, ok := b.registry.lookup(name)
	if !ok {
		return nil, fmt.Errorf("meta: no unquote callback registered under %q", name)
	}

	if e.quote != nil {
		return b.evalQuoteStmt(name, e.quote)
	}

	v, err := e.fn(b)
	if err != nil {
		return nil, err
	}

	return CoerceStmts(name, v)
}

// QuoteExpr re-enters the parser on fragment (an expression host-AST node),
// carrying the Parser's own environment — the explicit builder-threaded
// replacement for "re-parse this quote with the enclosing procedure's
// scope" (spec.md §4.2). UnquoteFunc bodies call this directly for
// expression-level quote, rather than going through the Registry/mangled-
// name indirection, since they already hold the fragment they want quoted.
func (b *Builder) QuoteExpr(fragment sx.Node) (uast.Expr, error) {
	if b.p == nil {
		return nil, fmt.Errorf("meta: Builder.QuoteExpr called before Attach")
	}

	return b.p.ParseExprFragment(fragment)
}

// QuoteStmts re-enters the parser on a statement-block fragment.
func (b *Builder) QuoteStmts(fragment []sx.Node) ([]uast.Stmt, error) {
	if b.p == nil {
		return nil, fmt.Errorf("meta: Builder.QuoteStmts called before Attach")
	}

	return b.p.ParseStmtFragment(fragment)
}

func (b *Builder) evalQuoteExpr(name string, qb *QuoteBlock) (uast.Expr, error) {
	if qb.Kind != KindExpr {
		return nil, fmt.Errorf("meta: %q is a statement quote used in expression position", name)
	}

	l, ok := qb.Fragment.(*sx.List)
	if !ok || l.Len() != 2 {
		return nil, fmt.Errorf("meta: malformed quote-expr fragment for %q", name)
	}

	return b.QuoteExpr(l.Elements[1])
}

func (b *Builder) evalQuoteStmt(name string, qb *QuoteBlock) ([]uast.Stmt, error) {
	if qb.Kind != KindStmt {
		return nil, fmt.Errorf("meta: %q is an expression quote used in statement position", name)
	}

	l, ok := qb.Fragment.(*sx.List)
	if !ok || l.Len() < 1 {
		return nil, fmt.Errorf("meta: malformed quote-block fragment for %q", name)
	}

	return b.QuoteStmts(l.Elements[1:])
}

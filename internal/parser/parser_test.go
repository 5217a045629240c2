package parser

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/exo-lang/exo/internal/env"
	"github.com/exo-lang/exo/internal/sx"
	"github.com/exo-lang/exo/internal/sym"
	"github.com/exo-lang/exo/internal/uast"
)

func ident(v string) *sx.Atom { return sx.Ident(v) }
func integer(v string) *sx.Atom {
	return &sx.Atom{Kind: sx.KindInt, Value: v}
}

func list(nodes ...sx.Node) *sx.List { return sx.NewList(nodes...) }

// build the host AST for:
//
//	def foo(n : size, x : f32[n]):
//	    for i in par(0, n):
//	        x[i] = 0.0
func simpleProcNode() *sx.List {
	args := list(
		ident("args"),
		list(ident("arg"), ident("n"), ident("size"), ident("")),
		list(ident("arg"), ident("x"), list(ident("tensor"), ident("f32"), ident("n")), ident("")),
	)

	assignStmt := list(
		ident("assign"),
		ident("x"),
		list(ident("i")),
		&sx.Atom{Kind: sx.KindFloat, Value: "0.0"},
	)

	forStmt := list(
		ident("for"),
		ident("i"),
		list(ident("par"), integer("0"), ident("n")),
		list(ident("body"), assignStmt),
	)

	body := list(ident("body"), forStmt)

	return list(ident("proc"), ident("foo"), args, body)
}

func TestParseProcSimple(t *testing.T) {
	sym.Reset()

	p := New("test.exo", map[string]env.Binding{}, nil, nil)

	proc, err := p.ParseProc(simpleProcNode())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if proc.Name != "foo" {
		t.Fatalf("expected name foo, got %q", proc.Name)
	}

	if len(proc.Args) != 2 {
		t.Fatalf("expected 2 args, got %d", len(proc.Args))
	}

	if len(proc.Body) != 1 {
		t.Fatalf("expected 1 top-level statement, got %d", len(proc.Body))
	}

	forStmt, ok := proc.Body[0].(*uast.For)
	if !ok {
		t.Fatalf("expected top-level For, got %T", proc.Body[0])
	}

	if _, ok := forStmt.Range.(*uast.ParRange); !ok {
		t.Fatalf("expected par range, got %T", forStmt.Range)
	}

	if len(forStmt.Body) != 1 {
		t.Fatalf("expected 1 statement in loop body, got %d", len(forStmt.Body))
	}

	if _, ok := forStmt.Body[0].(*uast.Assign); !ok {
		t.Fatalf("expected Assign in loop body, got %T", forStmt.Body[0])
	}

	if p.env.Chain.Depth() != 0 {
		t.Fatalf("expected scope chain empty after parsing, got depth %d", p.env.Chain.Depth())
	}
}

func TestParsePreludeAsserts(t *testing.T) {
	sym.Reset()

	p := New("test.exo", map[string]env.Binding{}, nil, nil)

	args := list(
		ident("args"),
		list(ident("arg"), ident("n"), ident("size"), ident("")),
	)

	assertStmt := list(ident("assert"), list(ident(">"), ident("n"), integer("0")))
	passStmt := list(ident("pass"))

	body := list(ident("body"), assertStmt, passStmt)
	node := list(ident("proc"), ident("bar"), args, body)

	proc, err := p.ParseProc(node)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(proc.Preds) != 1 {
		t.Fatalf("expected 1 predicate, got %d", len(proc.Preds))
	}

	if len(proc.Body) != 1 {
		t.Fatalf("expected 1 statement after prelude, got %d", len(proc.Body))
	}

	if _, ok := proc.Body[0].(*uast.Pass); !ok {
		t.Fatalf("expected Pass, got %T", proc.Body[0])
	}
}

func TestAssertAfterStatementsIsAnError(t *testing.T) {
	sym.Reset()

	p := New("test.exo", map[string]env.Binding{}, nil, nil)

	args := list(ident("args"))
	passStmt := list(ident("pass"))
	assertStmt := list(ident("assert"), &sx.Atom{Kind: sx.KindIdent, Value: "True"})

	body := list(ident("body"), passStmt, assertStmt)
	node := list(ident("proc"), ident("baz"), args, body)

	if _, err := p.ParseProc(node); err == nil {
		t.Fatalf("expected error for assert after the prelude")
	}
}

// roundTripProcNode builds the host AST for:
//
//	def foo(n : size, x : f32[n]):
//	    assert n > 0
//	    for i in par(0, n):
//	        x[i] = 1.5
//
// exercising, in one procedure, every shape Proc.Lisp has to get right for a
// round trip to survive: a size arg and a tensor arg (args/arg keywords,
// structured type rendering), a prelude predicate (folded back into the body
// as a leading assert), and a float constant (atom kind, not just text).
func roundTripProcNode() *sx.List {
	args := list(
		ident("args"),
		list(ident("arg"), ident("n"), ident("size"), ident("")),
		list(ident("arg"), ident("x"), list(ident("tensor"), ident("f32"), ident("n")), ident("")),
	)

	assertStmt := list(ident("assert"), list(ident(">"), ident("n"), integer("0")))

	assignStmt := list(
		ident("assign"),
		ident("x"),
		list(ident("i")),
		&sx.Atom{Kind: sx.KindFloat, Value: "1.5"},
	)

	forStmt := list(
		ident("for"),
		ident("i"),
		list(ident("par"), integer("0"), ident("n")),
		list(ident("body"), assignStmt),
	)

	body := list(ident("body"), assertStmt, forStmt)

	return list(ident("proc"), ident("foo"), args, body)
}

// TestProcLispRoundTrips checks spec.md §8's testable property 1: printing
// an IR procedure and re-parsing it yields an equal procedure, since the
// printer (Proc.Lisp) is deterministic. A fresh parse mints its own
// sym.Symbol identities, so the comparison here is "up to symbol identity"
// as the property states: re-rendering the reparsed procedure must produce
// the exact same sx tree as the first rendering, since Lisp only ever
// emits a symbol's hint, never its numeric identity.
func TestProcLispRoundTrips(t *testing.T) {
	sym.Reset()

	p1 := New("test.exo", map[string]env.Binding{}, nil, nil)
	proc1, err := p1.ParseProc(roundTripProcNode())
	if err != nil {
		t.Fatalf("unexpected error parsing original: %v", err)
	}

	rendered := proc1.Lisp()

	sym.Reset()

	p2 := New("test.exo", map[string]env.Binding{}, nil, nil)
	proc2, err := p2.ParseProc(rendered)
	if err != nil {
		t.Fatalf("unexpected error reparsing rendered form: %v", err)
	}

	if diff := cmp.Diff(rendered, proc2.Lisp()); diff != "" {
		t.Fatalf("round trip did not reproduce the same rendering (-first +second):\n%s", diff)
	}
}

package meta

import (
	"testing"

	"github.com/exo-lang/exo/internal/env"
	"github.com/exo-lang/exo/internal/parser"
	"github.com/exo-lang/exo/internal/source"
	"github.com/exo-lang/exo/internal/sx"
	"github.com/exo-lang/exo/internal/sym"
	"github.com/exo-lang/exo/internal/uast"
)

func TestMangleAvoidsScopeCollisions(t *testing.T) {
	scope := CaptureEnv(
		map[string]env.Binding{"quote__0": env.VarBinding{}},
		map[string]env.Binding{"quote__1": env.VarBinding{}},
		nil,
	)
	reg := NewRegistry(scope)

	name := reg.Mangle("quote")

	if name == "quote__0" || name == "quote__1" {
		t.Fatalf("expected a name avoiding captured scope collisions, got %q", name)
	}
}

func TestMangleIsDeterministicForSameScope(t *testing.T) {
	scope := CaptureEnv(nil, nil, nil)

	r1 := NewRegistry(scope)
	r2 := NewRegistry(scope)

	if r1.Mangle("quote") != r2.Mangle("quote") {
		t.Fatalf("expected identical mangled names from equivalent registries")
	}
}

func TestCapturedEnvDeletedNameIsUnbound(t *testing.T) {
	c := CaptureEnv(
		map[string]env.Binding{},
		map[string]env.Binding{"x": env.VarBinding{Sym: sym.New("x")}},
		[]string{"x"},
	)

	if _, ok := c.Lookup("x"); ok {
		t.Fatalf("expected deleted name to be unresolvable even though a global of the same name exists")
	}
}

func TestQuoteReplacerRewritesNestedQuoteExpr(t *testing.T) {
	sym.Reset()

	reg := NewRegistry(CaptureEnv(nil, nil, nil))
	qr := NewQuoteReplacer(reg)

	// (emit-call (quote-expr (int 3)))
	original := sx.NewList(
		sx.Ident("emit-call"),
		sx.NewList(sx.Ident("quote-expr"), &sx.Atom{Kind: sx.KindInt, Value: "3"}),
	)

	rewritten := qr.Replace(original)

	l, ok := rewritten.(*sx.List)
	if !ok || l.Len() != 2 {
		t.Fatalf("expected a 2-element list, got %v", rewritten)
	}

	inner, ok := l.Elements[1].(*sx.List)
	if !ok || !inner.MatchHead(1, "unquote") {
		t.Fatalf("expected nested quote-expr rewritten to (unquote NAME), got %v", l.Elements[1])
	}
}

func TestUnquoteStmtInjectsHostPass(t *testing.T) {
	sym.Reset()

	reg := NewRegistry(CaptureEnv(nil, nil, nil))
	name := reg.RegisterFunc("emit_stmt", func(b *Builder) (any, error) {
		return uast.NewPass(source.Unknown), nil
	})

	builder := NewBuilder(reg)

	// (proc foo (args) (body (unquote NAME)))
	node := sx.NewList(
		sx.Ident("proc"), sx.Ident("foo"),
		sx.NewList(sx.Ident("args")),
		sx.NewList(sx.Ident("body"), sx.NewList(sx.Ident("unquote"), sx.Ident(name))),
	)

	p := parser.New("test.exo", map[string]env.Binding{}, nil, builder)
	builder.Attach(p)

	proc, err := p.ParseProc(node)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(proc.Body) != 1 {
		t.Fatalf("expected a single injected statement, got %d", len(proc.Body))
	}

	if _, ok := proc.Body[0].(*uast.Pass); !ok {
		t.Fatalf("expected injected Pass, got %T", proc.Body[0])
	}
}

func TestUnquoteExprAcceptsInt(t *testing.T) {
	sym.Reset()

	reg := NewRegistry(CaptureEnv(nil, nil, nil))
	name := reg.RegisterFunc("host_const", func(b *Builder) (any, error) {
		return int64(7), nil
	})

	builder := NewBuilder(reg)

	assignStmt := sx.NewList(
		sx.Ident("assign"), sx.Ident("x"), sx.NewList(),
		sx.NewList(sx.Ident("unquote"), sx.Ident(name)),
	)

	node := sx.NewList(
		sx.Ident("proc"), sx.Ident("foo"),
		sx.NewList(
			sx.Ident("args"),
			sx.NewList(sx.Ident("arg"), sx.Ident("x"), sx.Ident("f32"), sx.Ident("")),
		),
		sx.NewList(sx.Ident("body"), assignStmt),
	)

	p := parser.New("test.exo", map[string]env.Binding{}, nil, builder)
	builder.Attach(p)

	proc, err := p.ParseProc(node)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	assign, ok := proc.Body[0].(*uast.Assign)
	if !ok {
		t.Fatalf("expected Assign, got %T", proc.Body[0])
	}

	c, ok := assign.Rhs.(*uast.Const)
	if !ok || c.Kind != uast.ConstInt || c.Int != 7 {
		t.Fatalf("expected injected int const 7, got %+v", assign.Rhs)
	}
}

func TestUnquoteExprRejectsUncoercibleValue(t *testing.T) {
	sym.Reset()

	reg := NewRegistry(CaptureEnv(nil, nil, nil))
	name := reg.RegisterFunc("bad", func(b *Builder) (any, error) {
		return "not an IR value", nil
	})

	builder := NewBuilder(reg)

	if _, err := builder.EvalExpr(name); err == nil {
		t.Fatalf("expected a TypeError for an unquote returning a bare string")
	} else if _, ok := err.(*TypeError); !ok {
		t.Fatalf("expected *TypeError, got %T", err)
	}
}

func TestQuoteReentryInsideUnquoteCallback(t *testing.T) {
	sym.Reset()

	reg := NewRegistry(CaptureEnv(nil, nil, nil))
	builder := NewBuilder(reg)

	// The unquote callback itself performs a nested quote of `n` (a
	// procedure argument), exercising Builder.QuoteExpr's re-entry into the
	// owning Parser with the procedure's own scope.
	name := reg.RegisterFunc("quote_n", func(b *Builder) (any, error) {
		return b.QuoteExpr(sx.Ident("n"))
	})

	node := sx.NewList(
		sx.Ident("proc"), sx.Ident("foo"),
		sx.NewList(
			sx.Ident("args"),
			sx.NewList(sx.Ident("arg"), sx.Ident("n"), sx.Ident("size"), sx.Ident("")),
			sx.NewList(sx.Ident("arg"), sx.Ident("x"), sx.Ident("f32"), sx.Ident("")),
		),
		sx.NewList(
			sx.Ident("body"),
			sx.NewList(
				sx.Ident("assign"), sx.Ident("x"), sx.NewList(),
				sx.NewList(sx.Ident("unquote"), sx.Ident(name)),
			),
		),
	)

	p := parser.New("test.exo", map[string]env.Binding{}, nil, builder)
	builder.Attach(p)

	proc, err := p.ParseProc(node)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	assign, ok := proc.Body[0].(*uast.Assign)
	if !ok {
		t.Fatalf("expected Assign, got %T", proc.Body[0])
	}

	read, ok := assign.Rhs.(*uast.Read)
	if !ok || read.Name != proc.Args[0].Sym {
		t.Fatalf("expected quote re-entry to resolve 'n' to the procedure's own symbol, got %+v", assign.Rhs)
	}
}

package parser

import (
	"github.com/exo-lang/exo/internal/env"
	"github.com/exo-lang/exo/internal/sx"
	"github.com/exo-lang/exo/internal/sym"
	"github.com/exo-lang/exo/internal/uast"
)

// parsePrelude splits a body list into its leading `(assert E)` statements
// (spec.md §4.1: "Leading assert statements form the procedure's
// precondition list; a non-assert after an assert terminates the prelude")
// and the remaining statement nodes.
func (p *Parser) parsePrelude(body []sx.Node) ([]uast.Expr, []sx.Node, error) {
	var preds []uast.Expr

	i := 0

	for ; i < len(body); i++ {
		l, ok := body[i].(*sx.List)
		if !ok {
			break
		}

		h, ok := l.Head()
		if !ok || h != "assert" {
			break
		}

		if l.Len() != 2 {
			return nil, nil, p.errorf(l, "assert takes exactly one expression")
		}

		e, err := p.parseExpr(l.Elements[1])
		if err != nil {
			return nil, nil, err
		}

		preds = append(preds, e)
	}

	return preds, body[i:], nil
}

func (p *Parser) parseStmts(nodes []sx.Node) ([]uast.Stmt, error) {
	out := make([]uast.Stmt, 0, len(nodes))

	for _, n := range nodes {
		stmts, err := p.parseStmt(n)
		if err != nil {
			return nil, err
		}

		out = append(out, stmts...)
	}

	return out, nil
}

// parseStmt returns a slice because a statement-level unquote may splice in
// zero or more statements at its site.
func (p *Parser) parseStmt(node sx.Node) ([]uast.Stmt, error) {
	l, ok := node.(*sx.List)
	if !ok {
		return nil, p.errorf(node, "expected a statement")
	}

	head, ok := l.Head()
	if !ok {
		return nil, p.errorf(node, "expected a statement keyword")
	}

	switch head {
	case "assert":
		return nil, p.errorf(node, "predicate assert should happen at the beginning of the procedure")
	case "assign", "reduce":
		return p.parseAssignLike(l, head == "reduce")
	case "let":
		return p.parseFreshAssign(l)
	case "alloc":
		return p.parseAlloc(l)
	case "if":
		return p.parseIf(l)
	case "for":
		return p.parseFor(l)
	case "pass":
		return []uast.Stmt{uast.NewPass(p.spanOf(node))}, nil
	case "call":
		return p.parseCall(l)
	case "write-config":
		return p.parseWriteConfig(l)
	case "unquote":
		return p.parseUnquoteStmt(l)
	default:
		return nil, p.errorf(node, "unrecognised statement %q", head)
	}
}

func (p *Parser) parseIdxList(node sx.Node) ([]uast.Expr, error) {
	l, ok := node.(*sx.List)
	if !ok {
		return nil, p.errorf(node, "expected an index list")
	}

	out := make([]uast.Expr, 0, len(l.Elements))

	for _, e := range l.Elements {
		ee, err := p.parseExpr(e)
		if err != nil {
			return nil, err
		}

		out = append(out, ee)
	}

	return out, nil
}

func (p *Parser) parseAssignLike(l *sx.List, isReduce bool) ([]uast.Stmt, error) {
	if l.Len() != 4 {
		return nil, p.errorf(l, "expected (%s NAME (idx...) RHS)", mustHead(l))
	}

	nameAtom, ok := l.Elements[1].(*sx.Atom)
	if !ok {
		return nil, p.errorf(l.Elements[1], "expected assignment target name")
	}

	b, ok := p.env.Resolve(nameAtom.Value)
	if !ok {
		return nil, p.errorf(l.Elements[1], "unresolved name %q", nameAtom.Value)
	}

	// WriteConfig is recognised here too: `(assign cfg.field ...)` never
	// arises in this grammar (configuration writes always use the
	// write-config keyword), so any ConfigBinding used as a plain
	// assignment target is an error.
	cfg, isConfig := b.(env.ConfigBinding)
	if isConfig {
		return nil, p.errorf(l.Elements[1], "%q is a configuration object; use write-config", cfg.Sym)
	}

	v, ok := b.(env.VarBinding)
	if !ok {
		return nil, p.errorf(l.Elements[1], "%q does not name an assignable variable", nameAtom.Value)
	}

	idx, err := p.parseIdxList(l.Elements[2])
	if err != nil {
		return nil, err
	}

	rhs, err := p.parseExpr(l.Elements[3])
	if err != nil {
		return nil, err
	}

	if isReduce {
		return []uast.Stmt{uast.NewReduce(v.Sym, idx, rhs, p.spanOf(l))}, nil
	}

	return []uast.Stmt{uast.NewAssign(v.Sym, idx, rhs, p.spanOf(l))}, nil
}

func (p *Parser) parseFreshAssign(l *sx.List) ([]uast.Stmt, error) {
	if l.Len() != 3 {
		return nil, p.errorf(l, "expected (let NAME RHS)")
	}

	nameAtom, ok := l.Elements[1].(*sx.Atom)
	if !ok {
		return nil, p.errorf(l.Elements[1], "expected a name")
	}

	rhs, err := p.parseExpr(l.Elements[2])
	if err != nil {
		return nil, err
	}

	s := sym.New(nameAtom.Value)
	p.env.Chain.Declare(nameAtom.Value, env.VarBinding{Sym: s})

	return []uast.Stmt{uast.NewFreshAssign(s, rhs, p.spanOf(l))}, nil
}

func (p *Parser) parseAlloc(l *sx.List) ([]uast.Stmt, error) {
	if l.Len() != 4 {
		return nil, p.errorf(l, "expected (alloc NAME TYPE MEM)")
	}

	nameAtom, ok := l.Elements[1].(*sx.Atom)
	if !ok {
		return nil, p.errorf(l.Elements[1], "expected a name")
	}

	typ, err := p.parseType(l.Elements[2])
	if err != nil {
		return nil, err
	}

	mem := ""
	if memAtom, ok := l.Elements[3].(*sx.Atom); ok {
		mem = memAtom.Value
	}

	s := sym.New(nameAtom.Value)
	p.env.Chain.Declare(nameAtom.Value, bindingForType(s, typ))

	return []uast.Stmt{uast.NewAlloc(s, typ, mem, p.spanOf(l))}, nil
}

func (p *Parser) parseIf(l *sx.List) ([]uast.Stmt, error) {
	if l.Len() != 3 && l.Len() != 4 {
		return nil, p.errorf(l, "expected (if COND (body...) [(orelse...)])")
	}

	cond, err := p.parseExpr(l.Elements[1])
	if err != nil {
		return nil, err
	}

	bodyList, ok := l.Elements[2].(*sx.List)
	if !ok {
		return nil, p.errorf(l.Elements[2], "expected (body STMT...)")
	}

	var body, orelse []uast.Stmt

	p.env.Chain.WithScope(func() {
		body, err = p.parseStmts(stripHead(bodyList))
	})

	if err != nil {
		return nil, err
	}

	if l.Len() == 4 {
		orelseList, ok := l.Elements[3].(*sx.List)
		if !ok {
			return nil, p.errorf(l.Elements[3], "expected (orelse STMT...)")
		}

		p.env.Chain.WithScope(func() {
			orelse, err = p.parseStmts(stripHead(orelseList))
		})

		if err != nil {
			return nil, err
		}
	}

	return []uast.Stmt{uast.NewIf(cond, body, orelse, p.spanOf(l))}, nil
}

func (p *Parser) parseFor(l *sx.List) ([]uast.Stmt, error) {
	if l.Len() != 4 {
		return nil, p.errorf(l, "expected (for NAME (par|seq LO HI) (body...))")
	}

	nameAtom, ok := l.Elements[1].(*sx.Atom)
	if !ok {
		return nil, p.errorf(l.Elements[1], "expected loop iterator name")
	}

	rangeList, ok := l.Elements[2].(*sx.List)
	if !ok || rangeList.Len() != 3 {
		return nil, p.errorf(l.Elements[2], "expected (par LO HI) or (seq LO HI)")
	}

	kind, ok := rangeList.Head()
	if !ok || (kind != "par" && kind != "seq") {
		return nil, p.errorf(l.Elements[2], "unrecognised loop range kind %q (only par(...) and seq(...) are accepted)", kind)
	}

	lo, err := p.parseExpr(rangeList.Elements[1])
	if err != nil {
		return nil, err
	}

	hi, err := p.parseExpr(rangeList.Elements[2])
	if err != nil {
		return nil, err
	}

	var rng uast.Range
	if kind == "par" {
		rng = &uast.ParRange{Lo: lo, Hi: hi}
	} else {
		rng = &uast.SeqRange{Lo: lo, Hi: hi}
	}

	bodyList, ok := l.Elements[3].(*sx.List)
	if !ok {
		return nil, p.errorf(l.Elements[3], "expected (body STMT...)")
	}

	var (
		body []uast.Stmt
		s    sym.Symbol
	)

	p.env.Chain.WithScope(func() {
		s = sym.New(nameAtom.Value)
		p.env.Chain.Declare(nameAtom.Value, env.VarBinding{Sym: s})
		body, err = p.parseStmts(stripHead(bodyList))
	})

	if err != nil {
		return nil, err
	}

	return []uast.Stmt{uast.NewFor(s, rng, body, p.spanOf(l))}, nil
}

func (p *Parser) parseCall(l *sx.List) ([]uast.Stmt, error) {
	if l.Len() < 2 {
		return nil, p.errorf(l, "expected (call CALLEE ARGS...)")
	}

	nameAtom, ok := l.Elements[1].(*sx.Atom)
	if !ok {
		return nil, p.errorf(l.Elements[1], "expected callee name")
	}

	b, ok := p.env.Resolve(nameAtom.Value)
	if !ok {
		return nil, p.errorf(l.Elements[1], "unresolved procedure name %q", nameAtom.Value)
	}

	v, ok := b.(env.VarBinding)
	if !ok {
		return nil, p.errorf(l.Elements[1], "%q does not name a callable procedure", nameAtom.Value)
	}

	args := make([]uast.Expr, 0, l.Len()-2)

	for _, a := range l.Elements[2:] {
		ae, err := p.parseExpr(a)
		if err != nil {
			return nil, err
		}

		args = append(args, ae)
	}

	return []uast.Stmt{uast.NewCall(v.Sym, args, p.spanOf(l))}, nil
}

func (p *Parser) parseWriteConfig(l *sx.List) ([]uast.Stmt, error) {
	if l.Len() != 4 {
		return nil, p.errorf(l, "expected (write-config CFG FIELD VALUE)")
	}

	cfgAtom, ok := l.Elements[1].(*sx.Atom)
	if !ok {
		return nil, p.errorf(l.Elements[1], "expected configuration name")
	}

	b, ok := p.env.Resolve(cfgAtom.Value)
	if !ok {
		return nil, p.errorf(l.Elements[1], "unresolved name %q", cfgAtom.Value)
	}

	cfg, ok := b.(env.ConfigBinding)
	if !ok {
		return nil, p.errorf(l.Elements[1], "%q is not a configuration object", cfgAtom.Value)
	}

	fieldAtom, ok := l.Elements[2].(*sx.Atom)
	if !ok {
		return nil, p.errorf(l.Elements[2], "expected a field name")
	}

	if !cfg.Fields[fieldAtom.Value] {
		return nil, p.errorf(l.Elements[2], "configuration %q has no field %q", cfgAtom.Value, fieldAtom.Value)
	}

	val, err := p.parseExpr(l.Elements[3])
	if err != nil {
		return nil, err
	}

	return []uast.Stmt{uast.NewWriteConfig(cfg.Sym, fieldAtom.Value, val, p.spanOf(l))}, nil
}

func (p *Parser) parseUnquoteStmt(l *sx.List) ([]uast.Stmt, error) {
	if l.Len() != 2 {
		return nil, p.errorf(l, "expected (unquote CALLBACK-NAME)")
	}

	nameAtom, ok := l.Elements[1].(*sx.Atom)
	if !ok {
		return nil, p.errorf(l.Elements[1], "expected a mangled callback name")
	}

	if p.unquoter == nil {
		return nil, p.errorf(l, "statement-level unquote used with no Unquoter configured")
	}

	return p.unquoter.EvalStmt(nameAtom.Value)
}

func mustHead(l *sx.List) string {
	h, _ := l.Head()
	return h
}

func stripHead(l *sx.List) []sx.Node {
	if len(l.Elements) == 0 {
		return nil
	}

	return l.Elements[1:]
}

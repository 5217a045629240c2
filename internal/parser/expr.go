package parser

import (
	"strconv"

	"github.com/exo-lang/exo/internal/env"
	"github.com/exo-lang/exo/internal/sx"
	"github.com/exo-lang/exo/internal/uast"
)

var binOps = map[string]uast.BinaryOp{
	"+":   uast.Add,
	"-":   uast.Sub,
	"*":   uast.Mul,
	"/":   uast.Div,
	"%":   uast.Mod,
	"<":   uast.Lt,
	">":   uast.Gt,
	"<=":  uast.Le,
	">=":  uast.Ge,
	"==":  uast.Eq,
	"and": uast.And,
	"or":  uast.Or,
}

func (p *Parser) parseExpr(node sx.Node) (uast.Expr, error) {
	switch n := node.(type) {
	case *sx.Atom:
		return p.parseAtomExpr(n, node)
	case *sx.List:
		return p.parseListExpr(n)
	default:
		return nil, p.errorf(node, "expected an expression")
	}
}

func (p *Parser) parseAtomExpr(n *sx.Atom, node sx.Node) (uast.Expr, error) {
	switch n.Kind {
	case sx.KindInt:
		v, err := strconv.ParseInt(n.Value, 10, 64)
		if err != nil {
			return nil, p.errorf(node, "invalid integer constant %q", n.Value)
		}

		return uast.NewIntConst(v, p.spanOf(node)), nil
	case sx.KindFloat:
		v, err := strconv.ParseFloat(n.Value, 64)
		if err != nil {
			return nil, p.errorf(node, "invalid float constant %q", n.Value)
		}

		return uast.NewFloatConst(v, p.spanOf(node)), nil
	case sx.KindIdent:
		if n.Value == "True" || n.Value == "False" {
			return uast.NewBoolConst(n.Value == "True", p.spanOf(node)), nil
		}

		b, ok := p.env.Resolve(n.Value)
		if !ok {
			return nil, p.errorf(node, "unresolved name %q", n.Value)
		}

		switch bb := b.(type) {
		case env.LiteralInt:
			return uast.NewIntConst(bb.Value, p.spanOf(node)), nil
		case env.LiteralFloat:
			return uast.NewFloatConst(bb.Value, p.spanOf(node)), nil
		case env.VarBinding:
			return uast.NewRead(bb.Sym, nil, p.spanOf(node)), nil
		case env.SizeBinding:
			return uast.NewRead(bb.Sym, nil, p.spanOf(node)), nil
		default:
			return nil, p.errorf(node, "name %q cannot be read as a value here", n.Value)
		}
	default:
		return nil, p.errorf(node, "unexpected atom in expression position")
	}
}

func (p *Parser) parseListExpr(l *sx.List) (uast.Expr, error) {
	if l.Len() == 0 {
		return nil, p.errorf(l, "expected a non-empty expression list")
	}

	head, ok := l.Head()
	if !ok {
		return nil, p.errorf(l, "expected a leading operator or keyword")
	}

	switch head {
	case "read":
		return p.parseReadExpr(l)
	case "window":
		return p.parseWindowExpr(l)
	case "neg":
		if l.Len() != 2 {
			return nil, p.errorf(l, "expected (neg E)")
		}

		e, err := p.parseExpr(l.Elements[1])
		if err != nil {
			return nil, err
		}

		return uast.NewUnary(uast.Neg, e, p.spanOf(l)), nil
	case "not":
		if l.Len() != 2 {
			return nil, p.errorf(l, "expected (not E)")
		}

		e, err := p.parseExpr(l.Elements[1])
		if err != nil {
			return nil, err
		}

		return uast.NewUnary(uast.Not, e, p.spanOf(l)), nil
	case "stride":
		return p.parseStrideExpr(l)
	case "read-config":
		return p.parseReadConfigExpr(l)
	case "select":
		if l.Len() != 3 {
			return nil, p.errorf(l, "expected (select COND BODY)")
		}

		cond, err := p.parseExpr(l.Elements[1])
		if err != nil {
			return nil, err
		}

		body, err := p.parseExpr(l.Elements[2])
		if err != nil {
			return nil, err
		}

		return uast.NewSelect(cond, body, p.spanOf(l)), nil
	case "unquote":
		return p.parseUnquoteExpr(l)
	default:
		if op, ok := binOps[head]; ok {
			if l.Len() != 3 {
				return nil, p.errorf(l, "expected (%s LHS RHS)", head)
			}

			lhs, err := p.parseExpr(l.Elements[1])
			if err != nil {
				return nil, err
			}

			rhs, err := p.parseExpr(l.Elements[2])
			if err != nil {
				return nil, err
			}

			return uast.NewBinary(op, lhs, rhs, p.spanOf(l)), nil
		}

		return p.parseBuiltinCall(l, head)
	}
}

func (p *Parser) parseReadExpr(l *sx.List) (uast.Expr, error) {
	if l.Len() != 3 {
		return nil, p.errorf(l, "expected (read NAME (idx...))")
	}

	nameAtom, ok := l.Elements[1].(*sx.Atom)
	if !ok {
		return nil, p.errorf(l.Elements[1], "expected a name")
	}

	b, ok := p.env.Resolve(nameAtom.Value)
	if !ok {
		return nil, p.errorf(l.Elements[1], "unresolved name %q", nameAtom.Value)
	}

	v, ok := b.(env.VarBinding)
	if !ok {
		return nil, p.errorf(l.Elements[1], "%q does not name a readable buffer", nameAtom.Value)
	}

	idx, err := p.parseIdxList(l.Elements[2])
	if err != nil {
		return nil, err
	}

	return uast.NewRead(v.Sym, idx, p.spanOf(l)), nil
}

func (p *Parser) parseWindowExpr(l *sx.List) (uast.Expr, error) {
	if l.Len() != 3 {
		return nil, p.errorf(l, "expected (window NAME (slice...))")
	}

	nameAtom, ok := l.Elements[1].(*sx.Atom)
	if !ok {
		return nil, p.errorf(l.Elements[1], "expected a name")
	}

	b, ok := p.env.Resolve(nameAtom.Value)
	if !ok {
		return nil, p.errorf(l.Elements[1], "unresolved name %q", nameAtom.Value)
	}

	v, ok := b.(env.VarBinding)
	if !ok {
		return nil, p.errorf(l.Elements[1], "%q does not name a windowable buffer", nameAtom.Value)
	}

	sliceList, ok := l.Elements[2].(*sx.List)
	if !ok {
		return nil, p.errorf(l.Elements[2], "expected a list of slice specs")
	}

	slices := make([]uast.WinSlice, 0, len(sliceList.Elements))

	for _, s := range sliceList.Elements {
		ws, err := p.parseWinSlice(s)
		if err != nil {
			return nil, err
		}

		slices = append(slices, ws)
	}

	return uast.NewWindow(v.Sym, slices, p.spanOf(l)), nil
}

func (p *Parser) parseWinSlice(node sx.Node) (uast.WinSlice, error) {
	l, ok := node.(*sx.List)
	if !ok {
		// A bare point index.
		e, err := p.parseExpr(node)
		if err != nil {
			return uast.WinSlice{}, err
		}

		return uast.WinSlice{Lo: e}, nil
	}

	if l.MatchHead(1, "pt") {
		if l.Len() != 2 {
			return uast.WinSlice{}, p.errorf(l, "expected (pt E)")
		}

		e, err := p.parseExpr(l.Elements[1])
		if err != nil {
			return uast.WinSlice{}, err
		}

		return uast.WinSlice{Lo: e}, nil
	}

	if l.Len() != 2 {
		return uast.WinSlice{}, p.errorf(l, "expected (LO HI) or (pt E)")
	}

	lo, err := p.parseExpr(l.Elements[0])
	if err != nil {
		return uast.WinSlice{}, err
	}

	hi, err := p.parseExpr(l.Elements[1])
	if err != nil {
		return uast.WinSlice{}, err
	}

	return uast.WinSlice{Lo: lo, Hi: hi}, nil
}

func (p *Parser) parseStrideExpr(l *sx.List) (uast.Expr, error) {
	if l.Len() != 3 {
		return nil, p.errorf(l, "expected (stride NAME DIM)")
	}

	nameAtom, ok := l.Elements[1].(*sx.Atom)
	if !ok {
		return nil, p.errorf(l.Elements[1], "expected a name")
	}

	b, ok := p.env.Resolve(nameAtom.Value)
	if !ok {
		return nil, p.errorf(l.Elements[1], "unresolved name %q", nameAtom.Value)
	}

	v, ok := b.(env.VarBinding)
	if !ok {
		return nil, p.errorf(l.Elements[1], "%q does not name a buffer", nameAtom.Value)
	}

	dimAtom, ok := l.Elements[2].(*sx.Atom)
	if !ok || dimAtom.Kind != sx.KindInt {
		return nil, p.errorf(l.Elements[2], "expected an integer dimension index")
	}

	dim, err := strconv.ParseInt(dimAtom.Value, 10, 64)
	if err != nil {
		return nil, p.errorf(l.Elements[2], "invalid integer %q", dimAtom.Value)
	}

	return uast.NewStrideExpr(v.Sym, dim, p.spanOf(l)), nil
}

func (p *Parser) parseReadConfigExpr(l *sx.List) (uast.Expr, error) {
	if l.Len() != 3 {
		return nil, p.errorf(l, "expected (read-config CFG FIELD)")
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

	return uast.NewReadConfig(cfg.Sym, fieldAtom.Value, p.spanOf(l)), nil
}

func (p *Parser) parseBuiltinCall(l *sx.List, head string) (uast.Expr, error) {
	b, ok := p.env.Resolve(head)
	if !ok {
		return nil, p.errorf(l, "unrecognised expression form %q", head)
	}

	bi, ok := b.(env.BuiltinBinding)
	if !ok {
		return nil, p.errorf(l, "%q is not callable in an expression position", head)
	}

	args := make([]uast.Expr, 0, l.Len()-1)

	for _, a := range l.Elements[1:] {
		ae, err := p.parseExpr(a)
		if err != nil {
			return nil, err
		}

		args = append(args, ae)
	}

	if bi.Arity >= 0 && len(args) != bi.Arity {
		return nil, p.errorf(l, "%q expects %d argument(s), got %d", head, bi.Arity, len(args))
	}

	return uast.NewBuiltIn(bi.Name, args, p.spanOf(l)), nil
}

func (p *Parser) parseUnquoteExpr(l *sx.List) (uast.Expr, error) {
	if l.Len() != 2 {
		return nil, p.errorf(l, "expected (unquote CALLBACK-NAME)")
	}

	nameAtom, ok := l.Elements[1].(*sx.Atom)
	if !ok {
		return nil, p.errorf(l.Elements[1], "expected a mangled callback name")
	}

	if p.unquoter == nil {
		return nil, p.errorf(l, "expression-level unquote used with no Unquoter configured")
	}

	return p.unquoter.EvalExpr(nameAtom.Value)
}

// Package parser lifts the sx host-AST representation of one decorated
// procedure into a uast.Proc (spec.md §4.1), resolving every name against
// the three overlapping environments of internal/env as it goes.
//
// The host-AST grammar this package accepts is deliberately explicit and
// keyword-headed (`(assign name (idx...) rhs)` rather than a bare
// `name[...] = rhs` token stream) since, per spec.md §6, the core never
// does its own lexing: whatever concrete surface syntax a user writes is
// the job of an out-of-scope front end that already produced this tree.
package parser

import (
	"fmt"
	"strconv"

	"github.com/exo-lang/exo/internal/env"
	"github.com/exo-lang/exo/internal/source"
	"github.com/exo-lang/exo/internal/sx"
	"github.com/exo-lang/exo/internal/sym"
	"github.com/exo-lang/exo/internal/types"
	"github.com/exo-lang/exo/internal/uast"

	log "github.com/sirupsen/logrus"
)

// Unquoter is the extension point through which a statement- or
// expression-level `unquote` construct is handed off to the meta-layer
// (internal/meta). The parser itself knows nothing about host code
// execution: it simply looks up the mangled callback name already present
// in the host AST (having been installed there by a QuoteReplacer pass
// before the tree reached us) and asks the Unquoter to run it.
type Unquoter interface {
	// EvalStmt runs the host callback registered under name and returns the
	// statements it produced.
	EvalStmt(name string) ([]uast.Stmt, error)
	// EvalExpr runs the host callback registered under name and returns the
	// expression it produced.
	EvalExpr(name string) (uast.Expr, error)
}

// Parser lifts one procedure's host AST into a uast.Proc.
type Parser struct {
	file     string
	spans    *source.Map[sx.Node]
	env      *env.Env
	unquoter Unquoter
}

// New constructs a Parser. locals is the defining host frame's captured
// local bindings (spec.md §4.1's second environment); spans may be nil if
// the caller has no span information to offer (synthesized trees).
func New(file string, locals map[string]env.Binding, spans *source.Map[sx.Node], unquoter Unquoter) *Parser {
	return &Parser{
		file:     file,
		spans:    spans,
		env:      env.NewEnv(locals),
		unquoter: unquoter,
	}
}

func (p *Parser) spanOf(n sx.Node) source.Span {
	if p.spans == nil {
		return source.Unknown
	}

	if s, ok := p.spans.Get(n); ok {
		return s
	}

	return source.Unknown
}

func (p *Parser) errorf(n sx.Node, format string, args ...any) error {
	return source.NewParseError(p.spanOf(n), format, args...)
}

// ParseProc parses a full procedure from its host AST list:
//
//	(proc NAME (args (arg NAME TYPE MEM) ...) (body STMT...))
func (p *Parser) ParseProc(node sx.Node) (*uast.Proc, error) {
	l, ok := node.(*sx.List)
	if !ok || l.Len() < 4 {
		return nil, p.errorf(node, "expected (proc NAME (args...) (body...))")
	}

	if h, ok := l.Head(); !ok || h != "proc" {
		return nil, p.errorf(node, "expected leading 'proc' keyword")
	}

	nameAtom, ok := l.Elements[1].(*sx.Atom)
	if !ok {
		return nil, p.errorf(l.Elements[1], "expected procedure name")
	}

	p.env.Chain.Push()
	defer p.env.Chain.Pop()

	args, err := p.parseArgs(l.Elements[2])
	if err != nil {
		return nil, err
	}

	bodyList, ok := l.Elements[len(l.Elements)-1].(*sx.List)
	if !ok {
		return nil, p.errorf(l.Elements[len(l.Elements)-1], "expected (body STMT...)")
	}

	if h, ok := bodyList.Head(); !ok || h != "body" {
		return nil, p.errorf(bodyList, "expected leading 'body' keyword")
	}

	preds, rest, err := p.parsePrelude(bodyList.Elements[1:])
	if err != nil {
		return nil, err
	}

	body, err := p.parseStmts(rest)
	if err != nil {
		return nil, err
	}

	log.Debugf("parsed procedure %q with %d argument(s) and %d statement(s)", nameAtom.Value, len(args), len(body))

	return &uast.Proc{
		Name:  nameAtom.Value,
		Args:  args,
		Preds: preds,
		Body:  body,
		Src:   p.spanOf(node),
	}, nil
}

func (p *Parser) parseArgs(node sx.Node) ([]uast.ArgDecl, error) {
	l, ok := node.(*sx.List)
	if !ok {
		return nil, p.errorf(node, "expected (args (arg NAME TYPE MEM)...)")
	}

	if h, ok := l.Head(); !ok || h != "args" {
		return nil, p.errorf(node, "expected leading 'args' keyword")
	}

	var out []uast.ArgDecl

	for _, e := range l.Elements[1:] {
		if h, ok := e.(*sx.List); ok && h.Len() == 0 {
			continue
		}

		al, ok := e.(*sx.List)
		if !ok || al.Len() != 4 {
			return nil, p.errorf(e, "expected (arg NAME TYPE MEM)")
		}

		if h, ok := al.Head(); !ok || h != "arg" {
			return nil, p.errorf(e, "expected leading 'arg' keyword")
		}

		nameAtom, ok := al.Elements[1].(*sx.Atom)
		if !ok {
			return nil, p.errorf(al.Elements[1], "expected argument name")
		}

		typ, err := p.parseType(al.Elements[2])
		if err != nil {
			return nil, err
		}

		mem := ""
		if memAtom, ok := al.Elements[3].(*sx.Atom); ok {
			mem = memAtom.Value
		}

		s := sym.New(nameAtom.Value)
		p.env.Chain.Declare(nameAtom.Value, bindingForType(s, typ))

		out = append(out, uast.ArgDecl{Name: p.spanOf(al.Elements[1]), Sym: s, Type: typ, Mem: mem})
	}

	return out, nil
}

// bindingForType decides whether a freshly-declared symbol should resolve
// bare uses of its name as a size (control-plane `size`/`index` argument
// position) or as an ordinary variable.
func bindingForType(s sym.Symbol, t types.Type) env.Binding {
	if sc, ok := t.(*types.Scalar); ok && (sc.Kind == types.Size || sc.Kind == types.Index) {
		return env.SizeBinding{Sym: s}
	}

	return env.VarBinding{Sym: s}
}

var scalarKeywords = map[string]types.Prim{
	"num":    types.Num,
	"f16":    types.F16,
	"f32":    types.F32,
	"f64":    types.F64,
	"i8":     types.I8,
	"i32":    types.I32,
	"u8":     types.U8,
	"u16":    types.U16,
	"size":   types.Size,
	"index":  types.Index,
	"bool":   types.Bool,
	"stride": types.Stride,
}

func (p *Parser) parseType(node sx.Node) (types.Type, error) {
	switch n := node.(type) {
	case *sx.Atom:
		k, ok := scalarKeywords[n.Value]
		if !ok {
			return nil, p.errorf(node, "unknown scalar type %q", n.Value)
		}

		return types.NewScalar(k), nil
	case *sx.List:
		head, ok := n.Head()
		if !ok || (head != "tensor" && head != "wtensor") {
			return nil, p.errorf(node, "expected a scalar type or (tensor ELEM DIM...)")
		}

		if n.Len() < 2 {
			return nil, p.errorf(node, "tensor type requires an element type")
		}

		elemType, err := p.parseType(n.Elements[1])
		if err != nil {
			return nil, err
		}

		elem, ok := elemType.(*types.Scalar)
		if !ok {
			return nil, p.errorf(n.Elements[1], "tensor element type must be scalar")
		}

		dims := make([]types.Affine, 0, n.Len()-2)

		for _, d := range n.Elements[2:] {
			a, err := p.parseShapeAffine(d)
			if err != nil {
				return nil, err
			}

			dims = append(dims, a)
		}

		return types.NewTensor(dims, head == "wtensor", elem), nil
	default:
		return nil, p.errorf(node, "expected a type")
	}
}

// parseShapeAffine parses an affine expression appearing in a tensor
// dimension position. Unlike a general expression, names here resolve
// directly to AVar/ASize (spec.md §3): shapes are always affine.
func (p *Parser) parseShapeAffine(node sx.Node) (types.Affine, error) {
	switch n := node.(type) {
	case *sx.Atom:
		switch n.Kind {
		case sx.KindInt:
			v, err := strconv.ParseInt(n.Value, 10, 64)
			if err != nil {
				return nil, p.errorf(node, "invalid integer constant %q", n.Value)
			}

			return &types.AConst{Value: v}, nil
		case sx.KindIdent:
			b, ok := p.env.Resolve(n.Value)
			if !ok {
				return nil, p.errorf(node, "unresolved name %q in shape position", n.Value)
			}

			switch bb := b.(type) {
			case env.LiteralInt:
				return &types.AConst{Value: bb.Value}, nil
			case env.SizeBinding:
				return &types.ASize{Name: bb.Sym}, nil
			case env.VarBinding:
				return &types.AVar{Name: bb.Sym}, nil
			default:
				return nil, p.errorf(node, "name %q cannot appear in a shape position", n.Value)
			}
		default:
			return nil, p.errorf(node, "expected an integer or name in shape position")
		}
	case *sx.List:
		head, ok := n.Head()
		if !ok || n.Len() != 3 {
			return nil, p.errorf(node, "expected (op lhs rhs) affine expression")
		}

		lhs, err := p.parseShapeAffine(n.Elements[1])
		if err != nil {
			return nil, err
		}

		rhs, err := p.parseShapeAffine(n.Elements[2])
		if err != nil {
			return nil, err
		}

		switch head {
		case "+":
			return &types.AAdd{Lhs: lhs, Rhs: rhs}, nil
		case "-":
			return &types.ASub{Lhs: lhs, Rhs: rhs}, nil
		case "*":
			if c, ok := lhs.(*types.AConst); ok {
				return &types.AScale{Coeff: c.Value, Expr: rhs}, nil
			}

			if c, ok := rhs.(*types.AConst); ok {
				return &types.AScale{Coeff: c.Value, Expr: lhs}, nil
			}

			return nil, p.errorf(node, "affine multiplication requires one constant operand (spec.md §3: no general multiplication)")
		case "/":
			c, ok := rhs.(*types.AConst)
			if !ok {
				return nil, p.errorf(node, "affine division requires a constant divisor")
			}

			return &types.AScaleDiv{Expr: lhs, Quotient: c.Value}, nil
		default:
			return nil, p.errorf(node, "unrecognised affine operator %q", head)
		}
	default:
		return nil, fmt.Errorf("unreachable sx node kind")
	}
}

// ParseExprFragment re-enters the expression parser on node using this
// Parser's current environment — the entry point the meta-layer's quote
// re-entry (internal/meta) uses to realise `quote(<expr>)` from inside a
// host unquote callback, carrying the enclosing procedure's scope exactly
// as spec.md §4.2 requires ("carrying the enclosing procedure scope so that
// identifiers resolve to the procedure's symbols").
func (p *Parser) ParseExprFragment(node sx.Node) (uast.Expr, error) {
	return p.parseExpr(node)
}

// ParseStmtFragment re-enters the statement parser on nodes in a freshly
// pushed scope (spec.md §5: "each level captures a fresh scope"), the entry
// point for `with quote:` block re-entry.
func (p *Parser) ParseStmtFragment(nodes []sx.Node) ([]uast.Stmt, error) {
	p.env.Chain.Push()
	defer p.env.Chain.Pop()

	return p.parseStmts(nodes)
}

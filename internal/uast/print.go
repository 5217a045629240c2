package uast

import (
	"fmt"

	"github.com/exo-lang/exo/internal/sx"
	"github.com/exo-lang/exo/internal/types"
)

// Lisp renders a procedure back into the sx host-AST form ParseProc accepts,
// deterministically, so that printing and re-parsing a procedure is testable
// for round-trip equality (spec.md §8, testable property 1). Preds are
// rendered as the body's leading `(assert E)` statements, the same form
// parsePrelude splits them back out of, rather than as a separate list, so
// re-parsing recovers them. Symbol identity is not preserved across a round
// trip (each symbol prints as its hint, which the re-parse then re-binds to
// a fresh sym.Symbol) — callers compare "up to symbol identity" as the
// property states, i.e. by structural shape, not by raw Symbol equality.
func (p *Proc) Lisp() sx.Node {
	args := make([]sx.Node, len(p.Args)+1)
	args[0] = sx.Ident("args")

	for i, a := range p.Args {
		mem := ""
		if a.Mem != "" {
			mem = a.Mem
		}

		args[i+1] = sx.NewList(sx.Ident("arg"), sx.Ident(a.Sym.Hint()), typeLisp(a.Type), sx.Ident(mem))
	}

	elems := make([]sx.Node, 0, len(p.Preds)+len(p.Body)+1)
	elems = append(elems, sx.Ident("body"))

	for _, e := range p.Preds {
		elems = append(elems, sx.NewList(sx.Ident("assert"), lispOf(e)))
	}

	for _, s := range p.Body {
		elems = append(elems, lispOf(s))
	}

	return sx.NewList(
		sx.Ident("proc"),
		sx.Ident(p.Name),
		sx.NewList(args...),
		sx.NewList(elems...),
	)
}

func stmtsLisp(keyword string, stmts []Stmt) sx.Node {
	elems := make([]sx.Node, len(stmts)+1)
	elems[0] = sx.Ident(keyword)

	for i, s := range stmts {
		elems[i+1] = lispOf(s)
	}

	return sx.NewList(elems...)
}

func lispOf(n any) sx.Node {
	type lisper interface{ Lisp() sx.Node }
	if l, ok := n.(lisper); ok {
		return l.Lisp()
	}

	panic(fmt.Sprintf("no Lisp() rendering for %T", n))
}

// Lisp implements the debug/round-trip rendering for each statement variant.

func (s *Assign) Lisp() sx.Node {
	return sx.NewList(sx.Ident("assign"), sx.Ident(s.Name.Hint()), idxLisp(s.Idx), lispOf(s.Rhs))
}

func (s *Reduce) Lisp() sx.Node {
	return sx.NewList(sx.Ident("reduce"), sx.Ident(s.Name.Hint()), idxLisp(s.Idx), lispOf(s.Rhs))
}

func (s *FreshAssign) Lisp() sx.Node {
	return sx.NewList(sx.Ident("let"), sx.Ident(s.Name.Hint()), lispOf(s.Rhs))
}

func (s *Alloc) Lisp() sx.Node {
	return sx.NewList(sx.Ident("alloc"), sx.Ident(s.Name.Hint()), typeLisp(s.Type), sx.Ident(s.Mem))
}

// typeLisp renders a type back into the (scalar) or (tensor|wtensor ELEM
// DIM...) form parseType accepts — Type.String() is a debug format only
// (it flattens a tensor's shape and "window"-ness into one string) and is
// not itself re-parseable.
func typeLisp(t types.Type) sx.Node {
	switch n := t.(type) {
	case *types.Scalar:
		return sx.Ident(n.Kind.String())
	case *types.Tensor:
		head := "tensor"
		if n.IsWindow {
			head = "wtensor"
		}

		elems := make([]sx.Node, 0, len(n.Dims)+2)
		elems = append(elems, sx.Ident(head), typeLisp(n.Elem))

		for _, d := range n.Dims {
			elems = append(elems, affineLisp(d))
		}

		return sx.NewList(elems...)
	default:
		panic(fmt.Sprintf("no Lisp() rendering for type %T", t))
	}
}

// affineLisp renders an affine shape expression back into the form
// parseShapeAffine accepts: a bare name/integer, or an (op lhs rhs) list.
func affineLisp(a types.Affine) sx.Node {
	switch n := a.(type) {
	case *types.AVar:
		return sx.Ident(n.Name.Hint())
	case *types.ASize:
		return sx.Ident(n.Name.Hint())
	case *types.AConst:
		return sx.Int(fmt.Sprintf("%d", n.Value))
	case *types.AScale:
		return sx.NewList(sx.Ident("*"), sx.Int(fmt.Sprintf("%d", n.Coeff)), affineLisp(n.Expr))
	case *types.AScaleDiv:
		return sx.NewList(sx.Ident("/"), affineLisp(n.Expr), sx.Int(fmt.Sprintf("%d", n.Quotient)))
	case *types.AAdd:
		return sx.NewList(sx.Ident("+"), affineLisp(n.Lhs), affineLisp(n.Rhs))
	case *types.ASub:
		return sx.NewList(sx.Ident("-"), affineLisp(n.Lhs), affineLisp(n.Rhs))
	default:
		panic(fmt.Sprintf("no Lisp() rendering for affine %T", a))
	}
}

func (s *If) Lisp() sx.Node {
	return sx.NewList(sx.Ident("if"), lispOf(s.Cond), stmtsLisp("body", s.Body), stmtsLisp("orelse", s.Orelse))
}

func (s *For) Lisp() sx.Node {
	kind := "seq"
	var lo, hi Expr

	switch r := s.Range.(type) {
	case *ParRange:
		kind = "par"
		lo, hi = r.Lo, r.Hi
	case *SeqRange:
		kind = "seq"
		lo, hi = r.Lo, r.Hi
	}

	return sx.NewList(
		sx.Ident("for"), sx.Ident(s.Iter.Hint()),
		sx.NewList(sx.Ident(kind), lispOf(lo), lispOf(hi)),
		stmtsLisp("body", s.Body),
	)
}

func (s *Pass) Lisp() sx.Node {
	return sx.NewList(sx.Ident("pass"))
}

func (s *Call) Lisp() sx.Node {
	elems := []sx.Node{sx.Ident("call"), sx.Ident(s.Callee.Hint())}
	for _, a := range s.Args {
		elems = append(elems, lispOf(a))
	}

	return sx.NewList(elems...)
}

func (s *WriteConfig) Lisp() sx.Node {
	return sx.NewList(sx.Ident("write-config"), sx.Ident(s.Cfg.Hint()), sx.Ident(s.Field), lispOf(s.Value))
}

func idxLisp(idx []Expr) sx.Node {
	elems := make([]sx.Node, len(idx))
	for i, e := range idx {
		elems[i] = lispOf(e)
	}

	return sx.NewList(elems...)
}

// Lisp implements the debug/round-trip rendering for each expression variant.

func (e *Read) Lisp() sx.Node {
	// An unindexed read prints as a bare name, the form parseAtomExpr
	// accepts for both buffers and size parameters.
	if len(e.Idx) == 0 {
		return sx.Ident(e.Name.Hint())
	}

	return sx.NewList(sx.Ident("read"), sx.Ident(e.Name.Hint()), idxLisp(e.Idx))
}

func (e *Window) Lisp() sx.Node {
	slices := make([]sx.Node, 0, len(e.Slices))

	for _, s := range e.Slices {
		if s.Hi == nil {
			slices = append(slices, sx.NewList(sx.Ident("pt"), lispOf(s.Lo)))
		} else {
			slices = append(slices, sx.NewList(lispOf(s.Lo), lispOf(s.Hi)))
		}
	}

	return sx.NewList(sx.Ident("window"), sx.Ident(e.Name.Hint()), sx.NewList(slices...))
}

func (e *Const) Lisp() sx.Node {
	switch e.Kind {
	case ConstInt:
		return sx.Int(fmt.Sprintf("%d", e.Int))
	case ConstFloat:
		return sx.Float(fmt.Sprintf("%g", e.Float))
	default:
		// parseAtomExpr recognises exactly "True"/"False" (spec.md's host
		// boolean literals), not Go's lowercase %t rendering.
		if e.Bool {
			return sx.Ident("True")
		}

		return sx.Ident("False")
	}
}

func (e *Unary) Lisp() sx.Node {
	if e.Op == Neg {
		return sx.NewList(sx.Ident("neg"), lispOf(e.Arg))
	}

	return sx.NewList(sx.Ident(string(e.Op)), lispOf(e.Arg))
}

func (e *Binary) Lisp() sx.Node {
	return sx.NewList(sx.Ident(string(e.Op)), lispOf(e.Lhs), lispOf(e.Rhs))
}

func (e *StrideExpr) Lisp() sx.Node {
	return sx.NewList(sx.Ident("stride"), sx.Ident(e.Buf.Hint()), sx.Int(fmt.Sprintf("%d", e.Dim)))
}

func (e *BuiltIn) Lisp() sx.Node {
	elems := []sx.Node{sx.Ident(e.Name)}
	for _, a := range e.Args {
		elems = append(elems, lispOf(a))
	}

	return sx.NewList(elems...)
}

func (e *ReadConfig) Lisp() sx.Node {
	return sx.NewList(sx.Ident("read-config"), sx.Ident(e.Cfg.Hint()), sx.Ident(e.Field))
}

func (e *Select) Lisp() sx.Node {
	return sx.NewList(sx.Ident("select"), lispOf(e.Cond), lispOf(e.Body))
}

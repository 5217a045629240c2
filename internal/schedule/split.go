package schedule

import (
	"github.com/exo-lang/exo/internal/loopir"
	"github.com/exo-lang/exo/internal/sym"
	"github.com/exo-lang/exo/internal/types"
)

// Split implements spec.md §4.5: ForAll(V, N, B) becomes
// ForAll(hi, ceildiv(N,q), ForAll(lo, q, B')) where B' substitutes every
// affine occurrence of V with q*hi + lo.
func Split(proc *loopir.Proc, v sym.Symbol, q int64, hiHint, loHint string) (*loopir.Proc, error) {
	newBody, err := splitStmt(proc.Body, v, q, hiHint, loHint)
	if err != nil {
		return nil, err
	}

	return withBody(proc, newBody, "split", []string{v.String()}), nil
}

func splitStmt(s loopir.Stmt, v sym.Symbol, q int64, hiHint, loHint string) (loopir.Stmt, error) {
	switch n := s.(type) {
	case *loopir.Seq:
		s0, err := splitStmt(n.S0, v, q, hiHint, loHint)
		if err != nil {
			return nil, err
		}

		s1, err := splitStmt(n.S1, v, q, hiHint, loHint)
		if err != nil {
			return nil, err
		}

		return loopir.NewSeq(s0, s1, n.Span()), nil
	case *loopir.If:
		body, err := splitStmt(n.Body, v, q, hiHint, loHint)
		if err != nil {
			return nil, err
		}

		return loopir.NewIf(n.Cond, body, n.Span()), nil
	case *loopir.ForAll:
		if n.Iter == v {
			hi := sym.New(hiHint)
			lo := sym.New(loHint)

			repl := buildReplacement(hi, lo, q)

			newBody := substStmt(n.Body, v, repl)

			inner := loopir.NewForAll(lo, &types.AConst{Value: q}, newBody, n.Span())
			outer := loopir.NewForAll(hi, &types.AScaleDiv{Expr: n.Hi, Quotient: q}, inner, n.Span())

			return outer, nil
		}

		body, err := splitStmt(n.Body, v, q, hiHint, loHint)
		if err != nil {
			return nil, err
		}

		return loopir.NewForAll(n.Iter, n.Hi, body, n.Span()), nil
	default:
		return s, nil
	}
}

// buildReplacement constructs q*hi + lo, the affine expression V's every
// occurrence is substituted with (spec.md §4.5).
func buildReplacement(hi, lo sym.Symbol, q int64) types.Affine {
	return &types.AAdd{
		Lhs: &types.AScale{Coeff: q, Expr: &types.AVar{Name: hi}},
		Rhs: &types.AVar{Name: lo},
	}
}

// substStmt substitutes every remaining affine occurrence of v (with repl)
// through the rest of a statement tree. repl is resolved lazily by the
// caller at the ForAll(v, ...) site; below this point repl is always
// non-nil, since v can only appear strictly inside its own binding loop.
func substStmt(s loopir.Stmt, v sym.Symbol, repl types.Affine) loopir.Stmt {
	switch n := s.(type) {
	case *loopir.Seq:
		return loopir.NewSeq(substStmt(n.S0, v, repl), substStmt(n.S1, v, repl), n.Span())
	case *loopir.If:
		return loopir.NewIf(substPred(n.Cond, v, repl), substStmt(n.Body, v, repl), n.Span())
	case *loopir.ForAll:
		return loopir.NewForAll(n.Iter, substAffine(n.Hi, v, repl), substStmt(n.Body, v, repl), n.Span())
	case *loopir.Alloc:
		return n
	case *loopir.Assign:
		return loopir.NewAssign(n.Name, substAffineList(n.Idx, v, repl), substExpr(n.Rhs, v, repl), n.Span())
	case *loopir.Reduce:
		return loopir.NewReduce(n.Name, substAffineList(n.Idx, v, repl), substExpr(n.Rhs, v, repl), n.Span())
	default:
		return s
	}
}

func substAffineList(idx []types.Affine, v sym.Symbol, repl types.Affine) []types.Affine {
	if idx == nil {
		return nil
	}

	out := make([]types.Affine, len(idx))
	for i, e := range idx {
		out[i] = substAffine(e, v, repl)
	}

	return out
}

func substAffine(e types.Affine, v sym.Symbol, repl types.Affine) types.Affine {
	if repl == nil {
		return e
	}

	return types.Substitute(e, v, repl)
}

func substExpr(e loopir.Expr, v sym.Symbol, repl types.Affine) loopir.Expr {
	switch n := e.(type) {
	case *loopir.Read:
		return &loopir.Read{Name: n.Name, Idx: substAffineList(n.Idx, v, repl)}
	case *loopir.Const:
		return n
	case *loopir.BinOp:
		return &loopir.BinOp{Op: n.Op, Lhs: substExpr(n.Lhs, v, repl), Rhs: substExpr(n.Rhs, v, repl)}
	case *loopir.Select:
		return &loopir.Select{Cond: substPred(n.Cond, v, repl), Body: substExpr(n.Body, v, repl)}
	default:
		return e
	}
}

func substPred(p loopir.Pred, v sym.Symbol, repl types.Affine) loopir.Pred {
	switch n := p.(type) {
	case *loopir.Cmp:
		return &loopir.Cmp{Op: n.Op, Lhs: substAffine(n.Lhs, v, repl), Rhs: substAffine(n.Rhs, v, repl)}
	case *loopir.And:
		return &loopir.And{Lhs: substPred(n.Lhs, v, repl), Rhs: substPred(n.Rhs, v, repl)}
	case *loopir.Or:
		return &loopir.Or{Lhs: substPred(n.Lhs, v, repl), Rhs: substPred(n.Rhs, v, repl)}
	default:
		return p
	}
}

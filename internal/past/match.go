package past

import (
	"github.com/exo-lang/exo/internal/loopir"
	"github.com/exo-lang/exo/internal/sym"
	"github.com/exo-lang/exo/internal/types"
)

// Bindings records, for one successful match, which concrete symbol each
// pattern name bound to. Per spec.md §3, "identifier strings resolve
// consistently": the second occurrence of a name already in Bindings must
// name the very same symbol, not merely an equally-spelled one.
type Bindings map[string]sym.Symbol

func (b Bindings) bind(name string, s sym.Symbol) bool {
	// A pattern name only ever matches a symbol printed under that name.
	if s.Hint() != name {
		return false
	}

	if existing, ok := b[name]; ok {
		return existing == s
	}

	b[name] = s

	return true
}

// MatchStmt reports whether pattern matches node, threading consistent name
// bindings through b (pass an empty Bindings{} for a fresh top-level match).
func MatchStmt(pattern Stmt, node loopir.Stmt, b Bindings) bool {
	switch pt := pattern.(type) {
	case SHole:
		return true
	case SAssign:
		var (
			name sym.Symbol
			idx  []types.Affine
			rhs  loopir.Expr
		)

		switch n := node.(type) {
		case *loopir.Assign:
			if pt.IsReduce {
				return false
			}

			name, idx, rhs = n.Name, n.Idx, n.Rhs
		case *loopir.Reduce:
			if !pt.IsReduce {
				return false
			}

			name, idx, rhs = n.Name, n.Idx, n.Rhs
		default:
			return false
		}

		if !b.bind(pt.Name, name) {
			return false
		}

		if pt.Idx != nil {
			if len(pt.Idx) != len(idx) {
				return false
			}

			for i := range pt.Idx {
				if !MatchAffine(pt.Idx[i], idx[i], b) {
					return false
				}
			}
		}

		return MatchExpr(pt.Rhs, rhs, b)
	case SAlloc:
		n, ok := node.(*loopir.Alloc)
		if !ok {
			return false
		}

		return b.bind(pt.Name, n.Name)
	case SPass:
		_, ok := node.(*loopir.Pass)
		return ok
	case SIf:
		n, ok := node.(*loopir.If)
		if !ok {
			return false
		}

		return MatchPred(pt.Cond, n.Cond, b) && MatchStmt(pt.Body, n.Body, b)
	case SForAll:
		n, ok := node.(*loopir.ForAll)
		if !ok {
			return false
		}

		if !b.bind(pt.Iter, n.Iter) {
			return false
		}

		if pt.Hi != nil && !MatchAffine(pt.Hi, n.Hi, b) {
			return false
		}

		return MatchStmt(pt.Body, n.Body, b)
	default:
		return false
	}
}

// MatchExpr reports whether pattern matches a value expression.
func MatchExpr(pattern Expr, node loopir.Expr, b Bindings) bool {
	switch pt := pattern.(type) {
	case EHole:
		return true
	case ERead:
		n, ok := node.(*loopir.Read)
		if !ok {
			return false
		}

		if !b.bind(pt.Name, n.Name) {
			return false
		}

		if pt.Idx == nil {
			return true
		}

		if len(pt.Idx) != len(n.Idx) {
			return false
		}

		for i := range pt.Idx {
			if !MatchAffine(pt.Idx[i], n.Idx[i], b) {
				return false
			}
		}

		return true
	case EConst:
		n, ok := node.(*loopir.Const)
		if !ok {
			return false
		}

		return n.IsInt == pt.IsInt && n.Value == pt.Value
	case EBinOp:
		n, ok := node.(*loopir.BinOp)
		if !ok || n.Op != pt.Op {
			return false
		}

		return MatchExpr(pt.Lhs, n.Lhs, b) && MatchExpr(pt.Rhs, n.Rhs, b)
	case ESelect:
		n, ok := node.(*loopir.Select)
		if !ok {
			return false
		}

		return MatchPred(pt.Cond, n.Cond, b) && MatchExpr(pt.Body, n.Body, b)
	case EStride:
		// StrideExpr does not survive into LoopIR as its own node (it is
		// resolved to a concrete affine coefficient, spec.md §4.6's "stride"
		// design note), so a stride pattern never matches against LoopIR.
		return false
	default:
		return false
	}
}

// MatchPred reports whether pattern matches a predicate.
func MatchPred(pattern Pred, node loopir.Pred, b Bindings) bool {
	switch pt := pattern.(type) {
	case PHole:
		return true
	case PCmp:
		n, ok := node.(*loopir.Cmp)
		if !ok || string(n.Op) != pt.Op {
			return false
		}

		return MatchAffine(pt.Lhs, n.Lhs, b) && MatchAffine(pt.Rhs, n.Rhs, b)
	case PAnd:
		n, ok := node.(*loopir.And)
		if !ok {
			return false
		}

		return MatchPred(pt.Lhs, n.Lhs, b) && MatchPred(pt.Rhs, n.Rhs, b)
	case POr:
		n, ok := node.(*loopir.Or)
		if !ok {
			return false
		}

		return MatchPred(pt.Lhs, n.Lhs, b) && MatchPred(pt.Rhs, n.Rhs, b)
	default:
		return false
	}
}

// MatchAffine reports whether pattern matches an affine expression.
func MatchAffine(pattern Affine, node types.Affine, b Bindings) bool {
	switch pt := pattern.(type) {
	case AHole:
		return true
	case AName:
		switch n := node.(type) {
		case *types.AVar:
			return b.bind(pt.Name, n.Name)
		case *types.ASize:
			return b.bind(pt.Name, n.Name)
		default:
			return false
		}
	case AConst:
		n, ok := node.(*types.AConst)
		return ok && n.Value == pt.Value
	case AScale:
		n, ok := node.(*types.AScale)
		if !ok || n.Coeff != pt.Coeff {
			return false
		}

		return MatchAffine(pt.Expr, n.Expr, b)
	case AScaleDiv:
		n, ok := node.(*types.AScaleDiv)
		if !ok || n.Quotient != pt.Quotient {
			return false
		}

		return MatchAffine(pt.Expr, n.Expr, b)
	case AAdd:
		n, ok := node.(*types.AAdd)
		if !ok {
			return false
		}

		return MatchAffine(pt.Lhs, n.Lhs, b) && MatchAffine(pt.Rhs, n.Rhs, b)
	case ASub:
		n, ok := node.(*types.ASub)
		if !ok {
			return false
		}

		return MatchAffine(pt.Lhs, n.Lhs, b) && MatchAffine(pt.Rhs, n.Rhs, b)
	default:
		return false
	}
}

// Find walks every statement position in body (structurally recursing
// through Seq/If/ForAll, per spec.md §8's "typed walker... mutual recursion
// over (pattern, IR) pairs") and returns every node that matches pattern,
// along with the name bindings that made it match, in preorder.
func Find(pattern Stmt, body loopir.Stmt) []Match {
	var out []Match

	var walk func(s loopir.Stmt)

	walk = func(s loopir.Stmt) {
		for _, one := range loopir.Flatten(s) {
			b := Bindings{}
			if MatchStmt(pattern, one, b) {
				out = append(out, Match{Node: one, Bindings: b})
			}

			switch n := one.(type) {
			case *loopir.If:
				walk(n.Body)
			case *loopir.ForAll:
				walk(n.Body)
			}
		}
	}

	walk(body)

	return out
}

// Match is one located pattern occurrence.
type Match struct {
	Node     loopir.Stmt
	Bindings Bindings
}

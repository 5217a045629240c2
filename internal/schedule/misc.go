package schedule

import (
	"github.com/exo-lang/exo/internal/loopir"
	"github.com/exo-lang/exo/internal/source"
	"github.com/exo-lang/exo/internal/sym"
	"github.com/exo-lang/exo/internal/types"

	log "github.com/sirupsen/logrus"
)

// Unroll implements `unroll(loop, n)` (SPEC_FULL "SUPPLEMENTED FEATURES"):
// n-fold duplication of a ForAll(v, N, B) body, substituting v with n*j+k in
// the k-th copy, where j is a fresh outer iterator over ceildiv(N, n).
func Unroll(proc *loopir.Proc, v sym.Symbol, n int64) (*loopir.Proc, error) {
	if n < 1 {
		return nil, source.NewSchedulingError(proc.Src, "unroll factor must be >= 1, got %d", n)
	}

	newBody, err := unrollStmt(proc.Body, v, n)
	if err != nil {
		return nil, err
	}

	log.Debugf("unroll: %s by %d", v, n)

	return withBody(proc, newBody, "unroll", []string{v.String()}), nil
}

func unrollStmt(s loopir.Stmt, v sym.Symbol, n int64) (loopir.Stmt, error) {
	switch node := s.(type) {
	case *loopir.Seq:
		s0, err := unrollStmt(node.S0, v, n)
		if err != nil {
			return nil, err
		}

		s1, err := unrollStmt(node.S1, v, n)
		if err != nil {
			return nil, err
		}

		return loopir.NewSeq(s0, s1, node.Span()), nil
	case *loopir.If:
		body, err := unrollStmt(node.Body, v, n)
		if err != nil {
			return nil, err
		}

		return loopir.NewIf(node.Cond, body, node.Span()), nil
	case *loopir.ForAll:
		if node.Iter != v {
			body, err := unrollStmt(node.Body, v, n)
			if err != nil {
				return nil, err
			}

			return loopir.NewForAll(node.Iter, node.Hi, body, node.Span()), nil
		}

		j := sym.Derive(v)

		copies := make([]loopir.Stmt, n)

		for k := int64(0); k < n; k++ {
			repl := &types.AAdd{
				Lhs: &types.AScale{Coeff: n, Expr: &types.AVar{Name: j}},
				Rhs: &types.AConst{Value: k},
			}

			copies[k] = substStmt(node.Body, v, repl)
		}

		body := loopir.Block(copies, node.Span())

		return loopir.NewForAll(j, &types.AScaleDiv{Expr: node.Hi, Quotient: n}, body, node.Span()), nil
	default:
		return s, nil
	}
}

// PartialEval implements `partial_eval(name, value)`: binds argument name to
// a constant, substitutes it into loop bounds, If conditions and the indices
// and right-hand sides of Assign/Reduce, and constant-folds the affine loop
// bounds and indices that result. If conditions are not folded, and Alloc
// shapes, argument types and other statements keep any mention of name.
func PartialEval(proc *loopir.Proc, name sym.Symbol, value int64) (*loopir.Proc, error) {
	repl := &types.AConst{Value: value}

	newBody := substStmt(proc.Body, name, repl)
	newBody = foldStmt(newBody)

	args := make([]loopir.Arg, 0, len(proc.Args))

	for _, a := range proc.Args {
		if a.Name != name {
			args = append(args, a)
		}
	}

	sizes := make([]sym.Symbol, 0, len(proc.Sizes))

	for _, s := range proc.Sizes {
		if s != name {
			sizes = append(sizes, s)
		}
	}

	out := withBody(proc, newBody, "partial_eval", []string{name.String()})
	out.Args = args
	out.Sizes = sizes

	return out, nil
}

// Simplify runs a fixed-point pass of local algebraic identities over body:
// x+0, x-0, 1*x/x*1, ceildiv of an already-constant multiple. Bounded by
// maxSimplifyPasses the way the teacher's mir package repeatedly applies
// subdivide_vanishing until no further rewrite applies.
func Simplify(proc *loopir.Proc) (*loopir.Proc, error) {
	body := proc.Body

	for pass := 0; pass < maxSimplifyPasses; pass++ {
		next, changed := foldStmtChanged(body)
		if !changed {
			break
		}

		body = next
	}

	return withBody(proc, body, "simplify", nil), nil
}

const maxSimplifyPasses = 64

func foldStmt(s loopir.Stmt) loopir.Stmt {
	out, _ := foldStmtChanged(s)
	return out
}

func foldStmtChanged(s loopir.Stmt) (loopir.Stmt, bool) {
	switch n := s.(type) {
	case *loopir.Seq:
		s0, c0 := foldStmtChanged(n.S0)
		s1, c1 := foldStmtChanged(n.S1)

		return loopir.NewSeq(s0, s1, n.Span()), c0 || c1
	case *loopir.If:
		body, changed := foldStmtChanged(n.Body)
		cond, condChanged := n.Cond, false

		return loopir.NewIf(cond, body, n.Span()), changed || condChanged
	case *loopir.ForAll:
		hi, hiChanged := foldAffine(n.Hi)
		body, bodyChanged := foldStmtChanged(n.Body)

		return loopir.NewForAll(n.Iter, hi, body, n.Span()), hiChanged || bodyChanged
	case *loopir.Assign:
		idx, idxChanged := foldAffineList(n.Idx)
		rhs, rhsChanged := foldExpr(n.Rhs)

		return loopir.NewAssign(n.Name, idx, rhs, n.Span()), idxChanged || rhsChanged
	case *loopir.Reduce:
		idx, idxChanged := foldAffineList(n.Idx)
		rhs, rhsChanged := foldExpr(n.Rhs)

		return loopir.NewReduce(n.Name, idx, rhs, n.Span()), idxChanged || rhsChanged
	default:
		return s, false
	}
}

func foldAffineList(idx []types.Affine) ([]types.Affine, bool) {
	if idx == nil {
		return nil, false
	}

	out := make([]types.Affine, len(idx))
	changed := false

	for i, e := range idx {
		f, c := foldAffine(e)
		out[i] = f
		changed = changed || c
	}

	return out, changed
}

// foldAffine applies local identities: k+0, 0+k, k-0, 1*e, e*1, and
// ceildiv(AConst, q) folding to a literal constant when q divides it.
func foldAffine(e types.Affine) (types.Affine, bool) {
	switch n := e.(type) {
	case *types.AAdd:
		lhs, lc := foldAffine(n.Lhs)
		rhs, rc := foldAffine(n.Rhs)

		if c, ok := rhs.(*types.AConst); ok && c.Value == 0 {
			return lhs, true
		}

		if c, ok := lhs.(*types.AConst); ok && c.Value == 0 {
			return rhs, true
		}

		if lc1, ok := lhs.(*types.AConst); ok {
			if rc1, ok := rhs.(*types.AConst); ok {
				return &types.AConst{Value: lc1.Value + rc1.Value}, true
			}
		}

		return &types.AAdd{Lhs: lhs, Rhs: rhs}, lc || rc
	case *types.ASub:
		lhs, lc := foldAffine(n.Lhs)
		rhs, rc := foldAffine(n.Rhs)

		if c, ok := rhs.(*types.AConst); ok && c.Value == 0 {
			return lhs, true
		}

		if lc1, ok := lhs.(*types.AConst); ok {
			if rc1, ok := rhs.(*types.AConst); ok {
				return &types.AConst{Value: lc1.Value - rc1.Value}, true
			}
		}

		return &types.ASub{Lhs: lhs, Rhs: rhs}, lc || rc
	case *types.AScale:
		expr, c := foldAffine(n.Expr)

		if n.Coeff == 1 {
			return expr, true
		}

		if ec, ok := expr.(*types.AConst); ok {
			return &types.AConst{Value: n.Coeff * ec.Value}, true
		}

		return &types.AScale{Coeff: n.Coeff, Expr: expr}, c
	case *types.AScaleDiv:
		expr, c := foldAffine(n.Expr)

		if ec, ok := expr.(*types.AConst); ok {
			v := ec.Value
			if v%n.Quotient == 0 {
				return &types.AConst{Value: v / n.Quotient}, true
			}
		}

		return &types.AScaleDiv{Expr: expr, Quotient: n.Quotient}, c
	default:
		return e, false
	}
}

func foldExpr(e loopir.Expr) (loopir.Expr, bool) {
	switch n := e.(type) {
	case *loopir.Read:
		idx, c := foldAffineList(n.Idx)
		return &loopir.Read{Name: n.Name, Idx: idx}, c
	case *loopir.BinOp:
		lhs, lc := foldExpr(n.Lhs)
		rhs, rc := foldExpr(n.Rhs)

		return &loopir.BinOp{Op: n.Op, Lhs: lhs, Rhs: rhs}, lc || rc
	case *loopir.Select:
		body, c := foldExpr(n.Body)
		return &loopir.Select{Cond: n.Cond, Body: body}, c
	default:
		return e, false
	}
}

// AddGuard implements `add_guard(loop)`: wraps loop's body in an If bounding
// the iterator strictly below the original bound `bound` — used after an
// uneven split so the last lo-iteration of the final hi-iteration does not
// read/write past the original extent (spec.md §8 testable property 3).
func AddGuard(proc *loopir.Proc, v sym.Symbol, bound types.Affine) (*loopir.Proc, error) {
	if !loopFound(proc.Body, v) {
		return nil, source.NewSchedulingError(proc.Src, "loop iterator %s not found", v)
	}

	newBody, err := addGuardStmt(proc.Body, v, bound)
	if err != nil {
		return nil, err
	}

	return withBody(proc, newBody, "add_guard", []string{v.String()}), nil
}

func addGuardStmt(s loopir.Stmt, v sym.Symbol, bound types.Affine) (loopir.Stmt, error) {
	switch n := s.(type) {
	case *loopir.Seq:
		s0, err := addGuardStmt(n.S0, v, bound)
		if err != nil {
			return nil, err
		}

		s1, err := addGuardStmt(n.S1, v, bound)
		if err != nil {
			return nil, err
		}

		return loopir.NewSeq(s0, s1, n.Span()), nil
	case *loopir.If:
		body, err := addGuardStmt(n.Body, v, bound)
		if err != nil {
			return nil, err
		}

		return loopir.NewIf(n.Cond, body, n.Span()), nil
	case *loopir.ForAll:
		if n.Iter != v {
			body, err := addGuardStmt(n.Body, v, bound)
			if err != nil {
				return nil, err
			}

			return loopir.NewForAll(n.Iter, n.Hi, body, n.Span()), nil
		}

		cond := &loopir.Cmp{Op: loopir.CmpLt, Lhs: &types.AVar{Name: v}, Rhs: bound}
		guarded := loopir.NewIf(cond, n.Body, n.Span())

		return loopir.NewForAll(n.Iter, n.Hi, guarded, n.Span()), nil
	default:
		return s, nil
	}
}

// ParToSeq implements `par_to_seq(loop)`: flips a loop's ParRange-equivalent
// scheduling classification to sequential with no other structural change.
// LoopIR's ForAll carries no range-kind flag of its own (spec.md §3: by the
// time a procedure reaches scheduling, ParRange/SeqRange have already been
// folded into whatever dependency-safety the scheduler has already checked
// upstream), so this primitive is recorded purely as a History directive;
// the loop itself is returned unchanged.
func ParToSeq(proc *loopir.Proc, v sym.Symbol) (*loopir.Proc, error) {
	if !loopFound(proc.Body, v) {
		return nil, source.NewSchedulingError(proc.Src, "loop iterator %s not found", v)
	}

	return withBody(proc, proc.Body, "par_to_seq", []string{v.String()}), nil
}

func loopFound(s loopir.Stmt, v sym.Symbol) bool {
	switch n := s.(type) {
	case *loopir.Seq:
		return loopFound(n.S0, v) || loopFound(n.S1, v)
	case *loopir.If:
		return loopFound(n.Body, v)
	case *loopir.ForAll:
		if n.Iter == v {
			return true
		}

		return loopFound(n.Body, v)
	default:
		return false
	}
}

// ReorderStmts implements `reorder_stmts(stmt_a, stmt_b)`: swaps two
// syntactically adjacent statements within the same Seq chain, erroring if
// they are not siblings.
func ReorderStmts(proc *loopir.Proc, a, b loopir.Stmt) (*loopir.Proc, error) {
	newBody, swapped, err := reorderStmtsIn(proc.Body, a, b)
	if err != nil {
		return nil, err
	}

	if !swapped {
		return nil, source.NewSchedulingError(proc.Src, "the given statements are not adjacent siblings")
	}

	return withBody(proc, newBody, "reorder_stmts", nil), nil
}

func reorderStmtsIn(s loopir.Stmt, a, b loopir.Stmt) (loopir.Stmt, bool, error) {
	flat := loopir.Flatten(s)

	for i := 0; i+1 < len(flat); i++ {
		if flat[i] == a && flat[i+1] == b {
			out := make([]loopir.Stmt, len(flat))
			copy(out, flat)
			out[i], out[i+1] = out[i+1], out[i]

			return loopir.Block(out, s.Span()), true, nil
		}
	}

	// Not found at this level: recurse into the single nested scope each
	// flattened entry may introduce.
	for i, one := range flat {
		switch n := one.(type) {
		case *loopir.If:
			newInner, ok, err := reorderStmtsIn(n.Body, a, b)
			if err != nil {
				return nil, false, err
			}

			if ok {
				flat[i] = loopir.NewIf(n.Cond, newInner, n.Span())
				return loopir.Block(flat, s.Span()), true, nil
			}
		case *loopir.ForAll:
			newInner, ok, err := reorderStmtsIn(n.Body, a, b)
			if err != nil {
				return nil, false, err
			}

			if ok {
				flat[i] = loopir.NewForAll(n.Iter, n.Hi, newInner, n.Span())
				return loopir.Block(flat, s.Span()), true, nil
			}
		}
	}

	return s, false, nil
}

// Fission splits a loop body at point into two siblings
// (`fission_after(point, n_lifts)`). Only nLifts <= 0 is handled: any
// positive nLifts returns a SchedulingError and nothing is lifted through
// enclosing loops.
func Fission(proc *loopir.Proc, point loopir.Stmt, nLifts int) (*loopir.Proc, error) {
	newBody, err := fissionStmt(proc.Body, point, nLifts)
	if err != nil {
		return nil, err
	}

	return withBody(proc, newBody, "fission_after", nil), nil
}

func fissionStmt(s loopir.Stmt, point loopir.Stmt, nLifts int) (loopir.Stmt, error) {
	flat := loopir.Flatten(s)

	for i, one := range flat {
		if one == point {
			if i == len(flat)-1 {
				return s, source.NewSchedulingError(s.Span(), "fission point is already the last statement in its block")
			}

			first := loopir.Block(flat[:i+1], s.Span())
			second := loopir.Block(flat[i+1:], s.Span())

			return fissionLift(first, second, nLifts, s.Span())
		}
	}

	for i, one := range flat {
		switch n := one.(type) {
		case *loopir.If:
			newInner, err := fissionStmt(n.Body, point, nLifts)
			if err == nil {
				flat[i] = loopir.NewIf(n.Cond, newInner, n.Span())
				return loopir.Block(flat, s.Span()), nil
			}
		case *loopir.ForAll:
			newInner, err := fissionStmt(n.Body, point, nLifts)
			if err == nil {
				flat[i] = loopir.NewForAll(n.Iter, n.Hi, newInner, n.Span())
				return loopir.Block(flat, s.Span()), nil
			}
		}
	}

	return nil, source.NewSchedulingError(s.Span(), "fission point not found")
}

// fissionLift wraps first/second back into nLifts enclosing ForAlls.
// Per §4.6 this is specified at design level only: the lift is legal
// precisely when neither sibling's free variables shadow the lifted loops'
// iterators, a dependency-safety property spec.md §4.4 explicitly leaves to
// the user for Reorder and which Fission inherits the same stance on.
func fissionLift(first, second loopir.Stmt, nLifts int, src source.Span) (loopir.Stmt, error) {
	if nLifts <= 0 {
		return loopir.NewSeq(first, second, src), nil
	}

	return nil, source.NewSchedulingError(src, "fission lifting through enclosing loops requires re-deriving each loop's bound per side, not yet supported above n_lifts=0")
}

// LiftAlloc hoists an allocation out of nLifts enclosing scopes, failing if
// the lifted-over scope mentions an index in the alloc's shape.
func LiftAlloc(proc *loopir.Proc, allocName sym.Symbol, nLifts int) (*loopir.Proc, error) {
	if nLifts <= 0 {
		return proc, nil
	}

	alloc, rest, err := extractAlloc(proc.Body, allocName)
	if err != nil {
		return nil, err
	}

	enclosing, err := enclosingItersFor(proc.Body, allocName, nLifts)
	if err != nil {
		return nil, err
	}

	for _, it := range enclosing {
		for _, dim := range allocAffineDims(alloc) {
			if affineMentions(dim, it) {
				return nil, source.NewSchedulingError(alloc.Span(), "cannot lift %s: its shape mentions enclosing iterator %s", allocName, it)
			}
		}
	}

	newBody := loopir.Block([]loopir.Stmt{alloc, rest}, proc.Src)

	return withBody(proc, newBody, "lift_alloc", []string{allocName.String()}), nil
}

func allocAffineDims(s loopir.Stmt) []types.Affine {
	alloc, ok := s.(*loopir.Alloc)
	if !ok {
		return nil
	}

	t, ok := alloc.Type.(*types.Tensor)
	if !ok {
		return nil
	}

	return t.Dims
}

func affineMentions(a types.Affine, v sym.Symbol) bool {
	switch n := a.(type) {
	case *types.AVar:
		return n.Name == v
	case *types.ASize:
		return n.Name == v
	case *types.AScale:
		return affineMentions(n.Expr, v)
	case *types.AScaleDiv:
		return affineMentions(n.Expr, v)
	case *types.AAdd:
		return affineMentions(n.Lhs, v) || affineMentions(n.Rhs, v)
	case *types.ASub:
		return affineMentions(n.Lhs, v) || affineMentions(n.Rhs, v)
	default:
		return false
	}
}

// extractAlloc removes the named Alloc from its current position in s,
// descending into ForAll/If bodies the same way enclosingItersFor does,
// since the allocation lift_alloc exists to hoist is typically nested
// inside the loops it's being lifted out of.
func extractAlloc(s loopir.Stmt, name sym.Symbol) (*loopir.Alloc, loopir.Stmt, error) {
	flat := loopir.Flatten(s)

	for i, one := range flat {
		switch n := one.(type) {
		case *loopir.Alloc:
			if n.Name == name {
				rest := append(append([]loopir.Stmt{}, flat[:i]...), flat[i+1:]...)
				return n, loopir.Block(rest, s.Span()), nil
			}
		case *loopir.ForAll:
			if alloc, newInner, err := extractAlloc(n.Body, name); err == nil {
				flat[i] = loopir.NewForAll(n.Iter, n.Hi, newInner, n.Span())
				return alloc, loopir.Block(flat, s.Span()), nil
			}
		case *loopir.If:
			if alloc, newInner, err := extractAlloc(n.Body, name); err == nil {
				flat[i] = loopir.NewIf(n.Cond, newInner, n.Span())
				return alloc, loopir.Block(flat, s.Span()), nil
			}
		}
	}

	return nil, nil, source.NewSchedulingError(s.Span(), "allocation %s not found", name)
}

// enclosingItersFor returns the nLifts innermost loop iterators that
// lexically enclose the named allocation.
func enclosingItersFor(s loopir.Stmt, name sym.Symbol, nLifts int) ([]sym.Symbol, error) {
	var (
		stack []sym.Symbol
		found []sym.Symbol
	)

	var walk func(s loopir.Stmt) bool

	walk = func(s loopir.Stmt) bool {
		for _, one := range loopir.Flatten(s) {
			switch n := one.(type) {
			case *loopir.Alloc:
				if n.Name == name {
					found = append([]sym.Symbol{}, stack...)
					return true
				}
			case *loopir.ForAll:
				stack = append(stack, n.Iter)

				if walk(n.Body) {
					return true
				}

				stack = stack[:len(stack)-1]
			case *loopir.If:
				if walk(n.Body) {
					return true
				}
			}
		}

		return false
	}

	if !walk(s) {
		return nil, source.NewSchedulingError(s.Span(), "allocation %s not found", name)
	}

	if len(found) < nLifts {
		return nil, source.NewSchedulingError(s.Span(), "allocation %s is only nested %d deep, cannot lift %d", name, len(found), nLifts)
	}

	return found[len(found)-nLifts:], nil
}

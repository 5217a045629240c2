package schedule

import (
	"github.com/exo-lang/exo/internal/loopir"
	"github.com/exo-lang/exo/internal/source"
	"github.com/exo-lang/exo/internal/sym"
	"github.com/exo-lang/exo/internal/types"

	log "github.com/sirupsen/logrus"
)

// Inline implements `inline(callsite)` (spec.md §4.6): substitutes callsite
// (a *loopir.Call) with its callee's body, replacing each formal argument
// by the call's actual expression and alpha-renaming every Alloc/ForAll
// iterator the callee introduces, so the inlined copy cannot capture or be
// captured by a symbol already in scope at the call site.
func Inline(proc *loopir.Proc, callsite *loopir.Call) (*loopir.Proc, error) {
	if callsite == nil {
		return nil, source.NewSchedulingError(proc.Src, "inline: nil callsite")
	}

	newBody, found, err := inlineStmt(proc.Body, callsite)
	if err != nil {
		return nil, err
	}

	if !found {
		return nil, source.NewSchedulingError(callsite.Span(), "inline: callsite not found in procedure body")
	}

	log.Debugf("inline: %s", callsite.Callee.Name)

	return withBody(proc, newBody, "inline", []string{callsite.Callee.Name}), nil
}

func inlineStmt(s loopir.Stmt, target *loopir.Call) (loopir.Stmt, bool, error) {
	switch n := s.(type) {
	case *loopir.Seq:
		s0, found, err := inlineStmt(n.S0, target)
		if err != nil {
			return nil, false, err
		}

		if found {
			return loopir.NewSeq(s0, n.S1, n.Span()), true, nil
		}

		s1, found, err := inlineStmt(n.S1, target)
		if err != nil {
			return nil, false, err
		}

		return loopir.NewSeq(n.S0, s1, n.Span()), found, nil
	case *loopir.If:
		body, found, err := inlineStmt(n.Body, target)
		if err != nil {
			return nil, false, err
		}

		return loopir.NewIf(n.Cond, body, n.Span()), found, nil
	case *loopir.ForAll:
		body, found, err := inlineStmt(n.Body, target)
		if err != nil {
			return nil, false, err
		}

		return loopir.NewForAll(n.Iter, n.Hi, body, n.Span()), found, nil
	case *loopir.Call:
		if n != target {
			return n, false, nil
		}

		body, err := expandCall(n)
		if err != nil {
			return nil, false, err
		}

		return body, true, nil
	default:
		return s, false, nil
	}
}

// expandCall substitutes a Call's callee body into the call site: each
// formal argument is replaced by the corresponding actual expression
// (argument substitution, the same affine/expr substitution machinery
// Split uses for loop variables), and every symbol the callee itself binds
// (Allocs, ForAll iterators) is alpha-renamed to a fresh derivative so the
// inlined copy cannot collide with anything already live at the call site.
func expandCall(call *loopir.Call) (loopir.Stmt, error) {
	callee := call.Callee

	if len(callee.Args) != len(call.Args) {
		return nil, source.NewSchedulingError(call.Span(), "inline: %s expects %d argument(s), got %d", callee.Name, len(callee.Args), len(call.Args))
	}

	body := callee.Body

	renames := make(map[sym.Symbol]sym.Symbol)
	collectBoundSymbols(body, renames)

	for old, fresh := range renames {
		body = alphaRenameStmt(body, old, fresh)
	}

	for i, arg := range callee.Args {
		renamed := arg.Name
		if fresh, ok := renames[arg.Name]; ok {
			renamed = fresh
		}

		body = substExprArg(body, renamed, call.Args[i])
	}

	return body, nil
}

// collectBoundSymbols walks s collecting every symbol it binds (Alloc
// names, ForAll iterators) and mints a fresh alpha-renaming target for each.
func collectBoundSymbols(s loopir.Stmt, out map[sym.Symbol]sym.Symbol) {
	switch n := s.(type) {
	case *loopir.Seq:
		collectBoundSymbols(n.S0, out)
		collectBoundSymbols(n.S1, out)
	case *loopir.If:
		collectBoundSymbols(n.Body, out)
	case *loopir.ForAll:
		out[n.Iter] = sym.Derive(n.Iter)
		collectBoundSymbols(n.Body, out)
	case *loopir.Alloc:
		out[n.Name] = sym.Derive(n.Name)
	}
}

// alphaRenameStmt replaces every occurrence (binding and use) of old with
// fresh throughout s. Built on the same substitution machinery Split uses,
// generalized from affine-only replacement to a full symbol rename since
// inline must also rename the Stmt-level binder (ForAll.Iter, Alloc.Name)
// itself, not merely affine reads of it.
func alphaRenameStmt(s loopir.Stmt, old, fresh sym.Symbol) loopir.Stmt {
	switch n := s.(type) {
	case *loopir.Seq:
		return loopir.NewSeq(alphaRenameStmt(n.S0, old, fresh), alphaRenameStmt(n.S1, old, fresh), n.Span())
	case *loopir.If:
		return loopir.NewIf(renamePred(n.Cond, old, fresh), alphaRenameStmt(n.Body, old, fresh), n.Span())
	case *loopir.ForAll:
		iter := n.Iter
		if iter == old {
			iter = fresh
		}

		return loopir.NewForAll(iter, renameAffine(n.Hi, old, fresh), alphaRenameStmt(n.Body, old, fresh), n.Span())
	case *loopir.Alloc:
		name := n.Name
		if name == old {
			name = fresh
		}

		return loopir.NewAlloc(name, n.Type, n.Mem, n.Span())
	case *loopir.Assign:
		return loopir.NewAssign(renameSym(n.Name, old, fresh), renameAffineList(n.Idx, old, fresh), renameExpr(n.Rhs, old, fresh), n.Span())
	case *loopir.Reduce:
		return loopir.NewReduce(renameSym(n.Name, old, fresh), renameAffineList(n.Idx, old, fresh), renameExpr(n.Rhs, old, fresh), n.Span())
	case *loopir.WriteConfig:
		cfg := n.Cfg
		if cfg == old {
			cfg = fresh
		}

		return loopir.NewWriteConfig(cfg, n.Field, renameExpr(n.Value, old, fresh), n.Span())
	default:
		return s
	}
}

func renameSym(s, old, fresh sym.Symbol) sym.Symbol {
	if s == old {
		return fresh
	}

	return s
}

// renameAffine renames every occurrence of old to fresh within e, reusing
// types.Substitute with a single-variable replacement.
func renameAffine(e types.Affine, old, fresh sym.Symbol) types.Affine {
	return types.Substitute(e, old, &types.AVar{Name: fresh})
}

func renameAffineList(idx []types.Affine, old, fresh sym.Symbol) []types.Affine {
	if idx == nil {
		return nil
	}

	out := make([]types.Affine, len(idx))
	for i, e := range idx {
		out[i] = renameAffine(e, old, fresh)
	}

	return out
}

func renameExpr(e loopir.Expr, old, fresh sym.Symbol) loopir.Expr {
	switch n := e.(type) {
	case *loopir.Read:
		return &loopir.Read{Name: renameSym(n.Name, old, fresh), Idx: renameAffineList(n.Idx, old, fresh)}
	case *loopir.Const:
		return n
	case *loopir.BinOp:
		return &loopir.BinOp{Op: n.Op, Lhs: renameExpr(n.Lhs, old, fresh), Rhs: renameExpr(n.Rhs, old, fresh)}
	case *loopir.Select:
		return &loopir.Select{Cond: renamePred(n.Cond, old, fresh), Body: renameExpr(n.Body, old, fresh)}
	case *loopir.ReadConfig:
		cfg := n.Cfg
		if cfg == old {
			cfg = fresh
		}

		return &loopir.ReadConfig{Cfg: cfg, Field: n.Field}
	default:
		return e
	}
}

func renamePred(p loopir.Pred, old, fresh sym.Symbol) loopir.Pred {
	switch n := p.(type) {
	case *loopir.Cmp:
		return &loopir.Cmp{Op: n.Op, Lhs: renameAffine(n.Lhs, old, fresh), Rhs: renameAffine(n.Rhs, old, fresh)}
	case *loopir.And:
		return &loopir.And{Lhs: renamePred(n.Lhs, old, fresh), Rhs: renamePred(n.Rhs, old, fresh)}
	case *loopir.Or:
		return &loopir.Or{Lhs: renamePred(n.Lhs, old, fresh), Rhs: renamePred(n.Rhs, old, fresh)}
	default:
		return p
	}
}

// substExprArg substitutes every Read of formal with actual throughout s,
// the argument-binding half of inlining a Call (as distinct from the
// alpha-renaming half performed by alphaRenameStmt/collectBoundSymbols).
// actual may itself reference symbols live at the call site; since those
// are disjoint from the callee's (just-renamed) bound symbols, no further
// capture-avoidance is needed here.
func substExprArg(s loopir.Stmt, formal sym.Symbol, actual loopir.Expr) loopir.Stmt {
	switch n := s.(type) {
	case *loopir.Seq:
		return loopir.NewSeq(substExprArg(n.S0, formal, actual), substExprArg(n.S1, formal, actual), n.Span())
	case *loopir.If:
		return loopir.NewIf(substPredArg(n.Cond, formal, actual), substExprArg(n.Body, formal, actual), n.Span())
	case *loopir.ForAll:
		return loopir.NewForAll(n.Iter, substAffineArg(n.Hi, formal, actual), substExprArg(n.Body, formal, actual), n.Span())
	case *loopir.Alloc:
		return n
	case *loopir.Assign:
		return loopir.NewAssign(substTargetArg(n.Name, formal, actual), substAffineListArg(n.Idx, formal, actual), substRhsArg(n.Rhs, formal, actual), n.Span())
	case *loopir.Reduce:
		return loopir.NewReduce(substTargetArg(n.Name, formal, actual), substAffineListArg(n.Idx, formal, actual), substRhsArg(n.Rhs, formal, actual), n.Span())
	case *loopir.WriteConfig:
		return loopir.NewWriteConfig(n.Cfg, n.Field, substRhsArg(n.Value, formal, actual), n.Span())
	default:
		return s
	}
}

// substTargetArg renames an assignment target that is the formal to the
// buffer an unindexed actual Read names; other targets are kept.
func substTargetArg(name, formal sym.Symbol, actual loopir.Expr) sym.Symbol {
	if r, ok := actual.(*loopir.Read); ok && name == formal && len(r.Idx) == 0 {
		return r.Name
	}

	return name
}

// actualAffine extracts the affine form of actual, when actual is itself a
// plain affine read or constant — the common case for an integer-valued
// argument (a size parameter passed through unchanged). A non-affine actual
// expression can only ever be substituted into Expr positions, not affine
// index/bound positions; the scheduling precondition that argument types
// match the callee's declared types (out of scope here, per spec.md §1's
// "type inference beyond what the surface syntax directly declares") is
// assumed to already hold.
func actualAffine(actual loopir.Expr) (types.Affine, bool) {
	switch n := actual.(type) {
	case *loopir.Read:
		if len(n.Idx) == 0 {
			return &types.AVar{Name: n.Name}, true
		}
	case *loopir.Const:
		if n.IsInt {
			return &types.AConst{Value: int64(n.Value)}, true
		}
	}

	return nil, false
}

func substAffineArg(e types.Affine, formal sym.Symbol, actual loopir.Expr) types.Affine {
	repl, ok := actualAffine(actual)
	if !ok {
		return e
	}

	return types.Substitute(e, formal, repl)
}

func substAffineListArg(idx []types.Affine, formal sym.Symbol, actual loopir.Expr) []types.Affine {
	if idx == nil {
		return nil
	}

	out := make([]types.Affine, len(idx))
	for i, e := range idx {
		out[i] = substAffineArg(e, formal, actual)
	}

	return out
}

func substPredArg(p loopir.Pred, formal sym.Symbol, actual loopir.Expr) loopir.Pred {
	switch n := p.(type) {
	case *loopir.Cmp:
		return &loopir.Cmp{Op: n.Op, Lhs: substAffineArg(n.Lhs, formal, actual), Rhs: substAffineArg(n.Rhs, formal, actual)}
	case *loopir.And:
		return &loopir.And{Lhs: substPredArg(n.Lhs, formal, actual), Rhs: substPredArg(n.Rhs, formal, actual)}
	case *loopir.Or:
		return &loopir.Or{Lhs: substPredArg(n.Lhs, formal, actual), Rhs: substPredArg(n.Rhs, formal, actual)}
	default:
		return p
	}
}

// substRhsArg substitutes formal with actual in an Expr position (as
// opposed to an affine index/bound position): a Read of formal becomes
// actual verbatim.
func substRhsArg(e loopir.Expr, formal sym.Symbol, actual loopir.Expr) loopir.Expr {
	switch n := e.(type) {
	case *loopir.Read:
		if n.Name == formal && len(n.Idx) == 0 {
			return actual
		}

		return &loopir.Read{Name: n.Name, Idx: substAffineListArg(n.Idx, formal, actual)}
	case *loopir.Const:
		return n
	case *loopir.BinOp:
		return &loopir.BinOp{Op: n.Op, Lhs: substRhsArg(n.Lhs, formal, actual), Rhs: substRhsArg(n.Rhs, formal, actual)}
	case *loopir.Select:
		return &loopir.Select{Cond: substPredArg(n.Cond, formal, actual), Body: substRhsArg(n.Body, formal, actual)}
	default:
		return e
	}
}

package loopir

import (
	"fmt"

	"github.com/exo-lang/exo/internal/sym"
	"github.com/exo-lang/exo/internal/types"
)

// Store is a reference interpreter's view of tensor/scalar storage: a flat
// map from (symbol, flattened index) to value. It exists solely to check
// scheduling-primitive evaluation-equivalence in tests (spec.md §8, testable
// property 3); it is not part of the scheduling engine itself and performs
// no bounds or type checking beyond what's needed to compare two runs.
type Store struct {
	cells map[cellKey]float64
}

type cellKey struct {
	name sym.Symbol
	idx  string
}

// NewStore constructs an empty store.
func NewStore() *Store {
	return &Store{cells: make(map[cellKey]float64)}
}

func keyOf(name sym.Symbol, idx []int64) cellKey {
	return cellKey{name: name, idx: fmt.Sprint(idx)}
}

// Get reads a cell, defaulting to 0 if never written (matching a
// freshly-allocated buffer).
func (s *Store) Get(name sym.Symbol, idx []int64) float64 {
	return s.cells[keyOf(name, idx)]
}

// Set writes a cell.
func (s *Store) Set(name sym.Symbol, idx []int64, v float64) {
	s.cells[keyOf(name, idx)] = v
}

// Snapshot returns a deep copy suitable for before/after comparison.
func (s *Store) Snapshot() map[string]float64 {
	out := make(map[string]float64, len(s.cells))
	for k, v := range s.cells {
		out[fmt.Sprintf("%s%s", k.name, k.idx)] = v
	}

	return out
}

// Run executes a procedure's Body against a starting environment of
// resolved Sizes/Args values, writing into store. It is a direct,
// unoptimized tree-walking evaluator: every ForAll is a plain Go loop, every
// Assign/Reduce indexes into store. Execution order is exactly the
// syntactic order of Seq nodes, matching LoopIR's sequential-by-construction
// shape (spec.md §3: "ParRange" affects scheduling legality, not the
// reference semantics used here to check equivalence).
func Run(body Stmt, env map[sym.Symbol]int64, store *Store) {
	switch s := body.(type) {
	case *Seq:
		Run(s.S0, env, store)
		Run(s.S1, env, store)
	case *If:
		if evalPred(s.Cond, env) {
			Run(s.Body, env, store)
		}
	case *ForAll:
		hi := types.Eval(s.Hi, env)
		for i := int64(0); i < hi; i++ {
			inner := cloneEnv(env)
			inner[s.Iter] = i
			Run(s.Body, inner, store)
		}
	case *Alloc:
		// storage starts zeroed; nothing to do
	case *Assign:
		idx := evalIdx(s.Idx, env)
		store.Set(s.Name, idx, evalExpr(s.Rhs, env, store))
	case *Reduce:
		idx := evalIdx(s.Idx, env)
		store.Set(s.Name, idx, store.Get(s.Name, idx)+evalExpr(s.Rhs, env, store))
	case *Pass:
		// no-op
	case *WriteConfig, *Call:
		// Configuration and cross-procedure call semantics are out of this
		// reference interpreter's scope (spec.md §8 testable property 3 only
		// concerns split's evaluation equivalence over plain loop nests);
		// evaluating either here would require modelling config state or
		// callee argument binding that no scheduling-equivalence test needs.
	default:
		panic(fmt.Sprintf("unreachable loopir.Stmt variant %T", body))
	}
}

func cloneEnv(env map[sym.Symbol]int64) map[sym.Symbol]int64 {
	out := make(map[sym.Symbol]int64, len(env)+1)
	for k, v := range env {
		out[k] = v
	}

	return out
}

func evalIdx(idx []types.Affine, env map[sym.Symbol]int64) []int64 {
	out := make([]int64, len(idx))
	for i, a := range idx {
		out[i] = types.Eval(a, env)
	}

	return out
}

func evalExpr(e Expr, env map[sym.Symbol]int64, store *Store) float64 {
	switch n := e.(type) {
	case *Read:
		return store.Get(n.Name, evalIdx(n.Idx, env))
	case *Const:
		return n.Value
	case *BinOp:
		l := evalExpr(n.Lhs, env, store)
		r := evalExpr(n.Rhs, env, store)

		switch n.Op {
		case "+":
			return l + r
		case "-":
			return l - r
		case "*":
			return l * r
		case "/":
			return l / r
		default:
			panic(fmt.Sprintf("unreachable BinOp %q", n.Op))
		}
	case *Select:
		if evalPred(n.Cond, env) {
			return evalExpr(n.Body, env, store)
		}

		return 0
	default:
		panic(fmt.Sprintf("unreachable loopir.Expr variant %T", e))
	}
}

func evalPred(p Pred, env map[sym.Symbol]int64) bool {
	switch n := p.(type) {
	case *Cmp:
		l := types.Eval(n.Lhs, env)
		r := types.Eval(n.Rhs, env)

		switch n.Op {
		case CmpLt:
			return l < r
		case CmpLe:
			return l <= r
		case CmpGt:
			return l > r
		case CmpGe:
			return l >= r
		case CmpEq:
			return l == r
		default:
			panic(fmt.Sprintf("unreachable CmpOp %q", n.Op))
		}
	case *And:
		return evalPred(n.Lhs, env) && evalPred(n.Rhs, env)
	case *Or:
		return evalPred(n.Lhs, env) || evalPred(n.Rhs, env)
	default:
		panic(fmt.Sprintf("unreachable loopir.Pred variant %T", p))
	}
}

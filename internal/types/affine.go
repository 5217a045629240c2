package types

import (
	"fmt"

	"github.com/exo-lang/exo/internal/sym"
)

// Affine is the closed set of affine expression variants used in shapes and
// indices (spec.md §3). Every variant is immutable; rewrites (e.g. split's
// substitution, §4.5) construct new trees rather than mutating in place.
type Affine interface {
	isAffine()
	String() string
}

// AVar is a read of a symbol known to hold an index/size value (a loop
// iterator, a split-minted hi/lo, etc).
type AVar struct {
	Name sym.Symbol
}

func (*AVar) isAffine() {}

// String implements Affine.
func (a *AVar) String() string { return a.Name.String() }

// ASize is a read of a symbol in a shape-defining position (a procedure
// size parameter). Distinguished from AVar because, per spec.md §4.5,
// ASize positions inside nested loop bounds must also be rewritten by a
// substitution targeting the same underlying symbol — the two variants
// exist to let a rewrite choose whether it cares about "index-like" versus
// "size-like" occurrences, even though both currently substitute alike.
type ASize struct {
	Name sym.Symbol
}

func (*ASize) isAffine() {}

// String implements Affine.
func (a *ASize) String() string { return a.Name.String() }

// AConst is an integer constant.
type AConst struct {
	Value int64
}

func (*AConst) isAffine() {}

// String implements Affine.
func (a *AConst) String() string { return fmt.Sprintf("%d", a.Value) }

// AScale is scalar multiplication of an affine expression by an integer
// coefficient: k*e.
type AScale struct {
	Coeff int64
	Expr  Affine
}

func (*AScale) isAffine() {}

// String implements Affine.
func (a *AScale) String() string { return fmt.Sprintf("(%d*%s)", a.Coeff, a.Expr) }

// AScaleDiv is symbolic ceiling-division of an affine expression by a
// positive integer quotient: a placeholder node consumed by later
// (out-of-scope, §1) lowering passes rather than evaluated eagerly, since
// ⌈N/q⌉ is not itself affine in N when q does not divide N.
type AScaleDiv struct {
	Expr     Affine
	Quotient int64
}

func (*AScaleDiv) isAffine() {}

// String implements Affine.
func (a *AScaleDiv) String() string { return fmt.Sprintf("ceildiv(%s,%d)", a.Expr, a.Quotient) }

// AAdd is addition of two affine expressions.
type AAdd struct {
	Lhs, Rhs Affine
}

func (*AAdd) isAffine() {}

// String implements Affine.
func (a *AAdd) String() string { return fmt.Sprintf("(%s+%s)", a.Lhs, a.Rhs) }

// ASub is subtraction of two affine expressions.
type ASub struct {
	Lhs, Rhs Affine
}

func (*ASub) isAffine() {}

// String implements Affine.
func (a *ASub) String() string { return fmt.Sprintf("(%s-%s)", a.Lhs, a.Rhs) }

// Substitute replaces every AVar/ASize occurrence naming `target` within e
// with `replacement`, recursing through AScale/AScaleDiv/AAdd/ASub. This is
// the engine split (spec.md §4.5) and unroll build on; it is defined here,
// rather than duplicated in internal/schedule, because it is a property of
// the affine sublanguage itself, not of any one scheduling primitive.
func Substitute(e Affine, target sym.Symbol, replacement Affine) Affine {
	switch n := e.(type) {
	case *AVar:
		if n.Name == target {
			return replacement
		}

		return n
	case *ASize:
		if n.Name == target {
			return replacement
		}

		return n
	case *AConst:
		return n
	case *AScale:
		return &AScale{Coeff: n.Coeff, Expr: Substitute(n.Expr, target, replacement)}
	case *AScaleDiv:
		return &AScaleDiv{Expr: Substitute(n.Expr, target, replacement), Quotient: n.Quotient}
	case *AAdd:
		return &AAdd{Lhs: Substitute(n.Lhs, target, replacement), Rhs: Substitute(n.Rhs, target, replacement)}
	case *ASub:
		return &ASub{Lhs: Substitute(n.Lhs, target, replacement), Rhs: Substitute(n.Rhs, target, replacement)}
	default:
		panic(fmt.Sprintf("unreachable affine variant %T", e))
	}
}

// Eval evaluates a fully-closed affine expression (no remaining AVar/ASize)
// against a concrete environment of symbol values, used only by the
// reference interpreter (internal/loopir) to check scheduling-primitive
// evaluation-equivalence (spec.md §8, testable property 3). AScaleDiv is
// evaluated as integer ceiling division.
func Eval(e Affine, env map[sym.Symbol]int64) int64 {
	switch n := e.(type) {
	case *AVar:
		return env[n.Name]
	case *ASize:
		return env[n.Name]
	case *AConst:
		return n.Value
	case *AScale:
		return n.Coeff * Eval(n.Expr, env)
	case *AScaleDiv:
		v := Eval(n.Expr, env)
		return ceilDiv(v, n.Quotient)
	case *AAdd:
		return Eval(n.Lhs, env) + Eval(n.Rhs, env)
	case *ASub:
		return Eval(n.Lhs, env) - Eval(n.Rhs, env)
	default:
		panic(fmt.Sprintf("unreachable affine variant %T", e))
	}
}

func ceilDiv(v, q int64) int64 {
	if q <= 0 {
		panic("ceilDiv: quotient must be positive")
	}

	if v%q == 0 {
		return v / q
	}

	if v >= 0 {
		return v/q + 1
	}

	return v / q
}

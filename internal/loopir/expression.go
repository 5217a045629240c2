package loopir

import (
	"github.com/exo-lang/exo/internal/sym"
	"github.com/exo-lang/exo/internal/types"
)

// Expr is the closed set of LoopIR value-expression variants.
type Expr interface {
	isExpr()
}

// Read is a tensor-element (or scalar) read.
type Read struct {
	Name sym.Symbol
	Idx  []types.Affine
}

func (*Read) isExpr() {}

// Const is a numeric literal.
type Const struct {
	Value float64
	IsInt bool
}

func (*Const) isExpr() {}

// BinOp is a binary arithmetic/comparison operation over values (as opposed
// to Pred, which is the separate restricted predicate algebra used in
// conditions).
type BinOp struct {
	Op       string
	Lhs, Rhs Expr
}

func (*BinOp) isExpr() {}

// ReadConfig is `cfg.field`, mirroring uast.ReadConfig. BindConfig (spec.md
// §9) rewrites occurrences of this node into a Read of a freshly bound
// scalar.
type ReadConfig struct {
	Cfg   sym.Symbol
	Field string
}

func (*ReadConfig) isExpr() {}

// Select evaluates to Body under Cond and to the additive identity
// otherwise — the masked-read idiom used after an uneven split (spec.md §8
// testable property 3, §9 add_guard).
type Select struct {
	Cond Pred
	Body Expr
}

func (*Select) isExpr() {}

// Pred is the closed set of LoopIR predicate variants: deliberately smaller
// than UAST's general boolean Expr, per spec.md §3's "LoopIR ... Simpler
// shape".
type Pred interface {
	isPred()
}

// CmpOp is a comparison operator.
type CmpOp string

// Recognised comparison operators.
const (
	CmpLt CmpOp = "<"
	CmpLe CmpOp = "<="
	CmpGt CmpOp = ">"
	CmpGe CmpOp = ">="
	CmpEq CmpOp = "=="
)

// Cmp compares two affine expressions.
type Cmp struct {
	Op       CmpOp
	Lhs, Rhs types.Affine
}

func (*Cmp) isPred() {}

// And is predicate conjunction.
type And struct {
	Lhs, Rhs Pred
}

func (*And) isPred() {}

// Or is predicate disjunction.
type Or struct {
	Lhs, Rhs Pred
}

func (*Or) isPred() {}

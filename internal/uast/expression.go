package uast

import (
	"github.com/exo-lang/exo/internal/source"
	"github.com/exo-lang/exo/internal/sym"
)

// Expr is the closed set of UAST expression variants (spec.md §3).
type Expr interface {
	Node
	isExpr()
}

type baseExpr struct{ src source.Span }

func (b baseExpr) Span() source.Span { return b.src }

// WinSlice is one dimension of a Window projection: either a single index
// (a point, collapsing that dimension) or a [lo:hi) range (retaining it).
type WinSlice struct {
	Lo, Hi Expr // Hi == nil for a point index
}

// Read is a plain variable or tensor-element read: `buf` or `buf[idx...]`.
type Read struct {
	baseExpr
	Name sym.Symbol
	Idx  []Expr
}

func (*Read) isExpr() {}

// NewRead constructs a Read expression.
func NewRead(name sym.Symbol, idx []Expr, src source.Span) *Read {
	return &Read{baseExpr{src}, name, idx}
}

// Window is a slice projection over a tensor: `buf[lo0:hi0, idx1, ...]`.
type Window struct {
	baseExpr
	Name   sym.Symbol
	Slices []WinSlice
}

func (*Window) isExpr() {}

// NewWindow constructs a Window expression.
func NewWindow(name sym.Symbol, slices []WinSlice, src source.Span) *Window {
	return &Window{baseExpr{src}, name, slices}
}

// ConstKind distinguishes the literal forms a Const may hold.
type ConstKind int

// Const kinds.
const (
	ConstInt ConstKind = iota
	ConstFloat
	ConstBool
)

// Const is a literal constant.
type Const struct {
	baseExpr
	Kind  ConstKind
	Int   int64
	Float float64
	Bool  bool
}

func (*Const) isExpr() {}

// NewIntConst constructs an integer Const.
func NewIntConst(v int64, src source.Span) *Const {
	return &Const{baseExpr: baseExpr{src}, Kind: ConstInt, Int: v}
}

// NewFloatConst constructs a float Const.
func NewFloatConst(v float64, src source.Span) *Const {
	return &Const{baseExpr: baseExpr{src}, Kind: ConstFloat, Float: v}
}

// NewBoolConst constructs a boolean Const.
func NewBoolConst(v bool, src source.Span) *Const {
	return &Const{baseExpr: baseExpr{src}, Kind: ConstBool, Bool: v}
}

// UnaryOp is the set of accepted unary operators.
type UnaryOp string

// Recognised unary operators.
const (
	Neg UnaryOp = "-"
	Not UnaryOp = "not"
)

// Unary is a unary operation.
type Unary struct {
	baseExpr
	Op  UnaryOp
	Arg Expr
}

func (*Unary) isExpr() {}

// NewUnary constructs a Unary expression.
func NewUnary(op UnaryOp, arg Expr, src source.Span) *Unary {
	return &Unary{baseExpr{src}, op, arg}
}

// BinaryOp is the set of accepted binary operators.
type BinaryOp string

// Recognised binary operators.
const (
	Add BinaryOp = "+"
	Sub BinaryOp = "-"
	Mul BinaryOp = "*"
	Div BinaryOp = "/"
	Mod BinaryOp = "%"
	Lt  BinaryOp = "<"
	Gt  BinaryOp = ">"
	Le  BinaryOp = "<="
	Ge  BinaryOp = ">="
	Eq  BinaryOp = "=="
	And BinaryOp = "and"
	Or  BinaryOp = "or"
)

// Binary is a binary operation.
type Binary struct {
	baseExpr
	Op       BinaryOp
	Lhs, Rhs Expr
}

func (*Binary) isExpr() {}

// NewBinary constructs a Binary expression.
func NewBinary(op BinaryOp, lhs, rhs Expr, src source.Span) *Binary {
	return &Binary{baseExpr{src}, op, lhs, rhs}
}

// StrideExpr is `stride(buf, k)`: the stride of buf's k-th dimension.
type StrideExpr struct {
	baseExpr
	Buf sym.Symbol
	Dim int64
}

func (*StrideExpr) isExpr() {}

// NewStrideExpr constructs a StrideExpr.
func NewStrideExpr(buf sym.Symbol, dim int64, src source.Span) *StrideExpr {
	return &StrideExpr{baseExpr{src}, buf, dim}
}

// BuiltIn invokes one of the seeded builtins (sin, relu, select).
type BuiltIn struct {
	baseExpr
	Name string
	Args []Expr
}

func (*BuiltIn) isExpr() {}

// NewBuiltIn constructs a BuiltIn expression.
func NewBuiltIn(name string, args []Expr, src source.Span) *BuiltIn {
	return &BuiltIn{baseExpr{src}, name, args}
}

// ReadConfig is `cfg.field`.
type ReadConfig struct {
	baseExpr
	Cfg   sym.Symbol
	Field string
}

func (*ReadConfig) isExpr() {}

// NewReadConfig constructs a ReadConfig expression.
func NewReadConfig(cfg sym.Symbol, field string, src source.Span) *ReadConfig {
	return &ReadConfig{baseExpr{src}, cfg, field}
}

// Select is a masked read: evaluates to Body when Cond holds, and to the
// additive identity otherwise. (Mirrors the original implementation's
// two-field Select — a mask, not a general ternary — consumed by masked
// iteration after an uneven split; spec.md §8 testable property 3.)
type Select struct {
	baseExpr
	Cond Expr
	Body Expr
}

func (*Select) isExpr() {}

// NewSelect constructs a Select expression.
func NewSelect(cond, body Expr, src source.Span) *Select {
	return &Select{baseExpr{src}, cond, body}
}

// Package uast is the typed, fully-resolved AST produced by lifting a
// decorated host procedure (spec.md §3 "UAST"). All symbols referenced here
// have already been resolved to a sym.Symbol by the surface parser; only
// PAST (internal/past) retains textual names.
package uast

import (
	"github.com/exo-lang/exo/internal/source"
	"github.com/exo-lang/exo/internal/sym"
	"github.com/exo-lang/exo/internal/types"
)

// Node is implemented by every UAST tree element, giving access to its
// originating span. The Lisp-style rendering (modelled on the teacher's
// Node.Lisp(), pkg/corset/ast.go) is a separate method defined in print.go,
// not part of this interface.
type Node interface {
	Span() source.Span
}

// ArgDecl is one procedure argument: `name : type` or `name : type @ mem`.
type ArgDecl struct {
	Name source.Span
	Sym  sym.Symbol
	Type types.Type
	Mem  string // "" when no memory annotation was given
}

// Proc is a fully-parsed procedure.
type Proc struct {
	Name  string
	Args  []ArgDecl
	Preds []Expr // leading `assert` statements
	Body  []Stmt
	Instr string // non-empty when tagged as an instruction procedure (§4.6 replace)
	Src   source.Span
}

// Range is the closed set of loop range kinds.
type Range interface {
	isRange()
}

// ParRange is `for v in par(lo, hi):` — a parallel (order-independent) loop.
type ParRange struct {
	Lo, Hi Expr
}

func (*ParRange) isRange() {}

// SeqRange is `for v in seq(lo, hi):` — a sequential loop.
type SeqRange struct {
	Lo, Hi Expr
}

func (*SeqRange) isRange() {}

// Stmt is the closed set of UAST statement variants (spec.md §3).
type Stmt interface {
	Node
	isStmt()
}

type baseStmt struct{ src source.Span }

func (b baseStmt) Span() source.Span { return b.src }

// Assign is `buf[idx...] = rhs`.
type Assign struct {
	baseStmt
	Name sym.Symbol
	Idx  []Expr
	Rhs  Expr
}

func (*Assign) isStmt() {}

// NewAssign constructs an Assign statement.
func NewAssign(name sym.Symbol, idx []Expr, rhs Expr, src source.Span) *Assign {
	return &Assign{baseStmt{src}, name, idx, rhs}
}

// Reduce is `buf[idx...] += rhs`, the only augmented-assignment form the
// surface parser accepts (spec.md §4.1).
type Reduce struct {
	baseStmt
	Name sym.Symbol
	Idx  []Expr
	Rhs  Expr
}

func (*Reduce) isStmt() {}

// NewReduce constructs a Reduce statement.
func NewReduce(name sym.Symbol, idx []Expr, rhs Expr, src source.Span) *Reduce {
	return &Reduce{baseStmt{src}, name, idx, rhs}
}

// FreshAssign introduces and binds a brand new (unshadowable) local symbol
// in one step, e.g. the result of an unquote-injected computation.
type FreshAssign struct {
	baseStmt
	Name sym.Symbol
	Rhs  Expr
}

func (*FreshAssign) isStmt() {}

// NewFreshAssign constructs a FreshAssign statement.
func NewFreshAssign(name sym.Symbol, rhs Expr, src source.Span) *FreshAssign {
	return &FreshAssign{baseStmt{src}, name, rhs}
}

// Alloc is a declaration without an initializing RHS: `buf : type [@ mem]`.
type Alloc struct {
	baseStmt
	Name sym.Symbol
	Type types.Type
	Mem  string
}

func (*Alloc) isStmt() {}

// NewAlloc constructs an Alloc statement.
func NewAlloc(name sym.Symbol, typ types.Type, mem string, src source.Span) *Alloc {
	return &Alloc{baseStmt{src}, name, typ, mem}
}

// If is a conditional statement. Orelse is nil when there is no else arm.
type If struct {
	baseStmt
	Cond   Expr
	Body   []Stmt
	Orelse []Stmt
}

func (*If) isStmt() {}

// NewIf constructs an If statement.
func NewIf(cond Expr, body, orelse []Stmt, src source.Span) *If {
	return &If{baseStmt{src}, cond, body, orelse}
}

// For is a loop statement, either parallel or sequential depending on its
// Range.
type For struct {
	baseStmt
	Iter  sym.Symbol
	Range Range
	Body  []Stmt
}

func (*For) isStmt() {}

// NewFor constructs a For statement.
func NewFor(iter sym.Symbol, rng Range, body []Stmt, src source.Span) *For {
	return &For{baseStmt{src}, iter, rng, body}
}

// Pass is a no-op statement, e.g. the result of an unquote site that
// injected nothing.
type Pass struct {
	baseStmt
}

func (*Pass) isStmt() {}

// NewPass constructs a Pass statement.
func NewPass(src source.Span) *Pass { return &Pass{baseStmt{src}} }

// Call invokes another procedure.
type Call struct {
	baseStmt
	Callee sym.Symbol
	Args   []Expr
}

func (*Call) isStmt() {}

// NewCall constructs a Call statement.
func NewCall(callee sym.Symbol, args []Expr, src source.Span) *Call {
	return &Call{baseStmt{src}, callee, args}
}

// WriteConfig is `cfg.field = value`.
type WriteConfig struct {
	baseStmt
	Cfg   sym.Symbol
	Field string
	Value Expr
}

func (*WriteConfig) isStmt() {}

// NewWriteConfig constructs a WriteConfig statement.
func NewWriteConfig(cfg sym.Symbol, field string, value Expr, src source.Span) *WriteConfig {
	return &WriteConfig{baseStmt{src}, cfg, field, value}
}

// Package loopir is the scheduling IR (spec.md §3 "LoopIR"): a simpler,
// fully name-resolved shape than UAST, over which the scheduling engine
// (internal/schedule) operates. Every tree is immutable; a scheduling
// primitive consumes a Proc and returns a new Proc whose unchanged subtrees
// may be structurally shared with the original.
package loopir

import (
	"github.com/exo-lang/exo/internal/source"
	"github.com/exo-lang/exo/internal/sym"
	"github.com/exo-lang/exo/internal/types"
)

// Proc is a fully-resolved, scheduling-ready procedure.
type Proc struct {
	Name  string
	Sizes []sym.Symbol
	Args  []Arg
	Body  Stmt
	Src   source.Span
	// Instr tags this Proc as an instruction procedure: its body
	// structurally describes one hardware-accelerator instruction, and
	// Replace (spec.md §4.6) may substitute a matching pattern occurrence
	// with a Call to it. Empty for an ordinary (non-instruction) procedure.
	Instr string
	// History records the scheduling primitives already applied to this
	// procedure, in order, so that Forward (spec.md §6, §9 SUPPLEMENTED
	// FEATURES) can replay them against an edited base procedure.
	History []Directive
}

// Arg is one procedure argument, already resolved to its symbol and type.
type Arg struct {
	Name sym.Symbol
	Type types.Type
	Mem  string
}

// Directive records one scheduling primitive invocation, by name and
// arguments rendered for replay/debugging. Scheduling primitives append to
// a Proc's History when they succeed.
type Directive struct {
	Name string
	Args []string
}

// Stmt is the closed set of LoopIR statement variants (spec.md §3).
type Stmt interface {
	isStmt()
	Span() source.Span
}

type baseStmt struct{ src source.Span }

func (b baseStmt) Span() source.Span { return b.src }

// Seq sequences two statements. A chain of N statements is represented as a
// right-leaning spine of N-1 Seq nodes, matching the original
// implementation's two-child Seq(s0, s1).
type Seq struct {
	baseStmt
	S0, S1 Stmt
}

func (*Seq) isStmt() {}

// NewSeq constructs a Seq statement.
func NewSeq(s0, s1 Stmt, src source.Span) *Seq { return &Seq{baseStmt{src}, s0, s1} }

// Block builds a right-leaning Seq chain from a slice of statements. An
// empty slice yields a Pass; this is purely a convenience for building
// procedures, not an IR variant of its own.
func Block(stmts []Stmt, src source.Span) Stmt {
	if len(stmts) == 0 {
		return &Pass{baseStmt{src}}
	}

	out := stmts[len(stmts)-1]
	for i := len(stmts) - 2; i >= 0; i-- {
		out = NewSeq(stmts[i], out, src)
	}

	return out
}

// Flatten walks a Seq spine back into a slice of statements, undoing Block.
func Flatten(s Stmt) []Stmt {
	var out []Stmt

	for {
		seq, ok := s.(*Seq)
		if !ok {
			return append(out, s)
		}

		out = append(out, seq.S0)
		s = seq.S1
	}
}

// If is a conditional with no else arm — LoopIR has already dropped the
// orelse branch UAST carries, since by the time a procedure reaches
// scheduling any else-branch has been made explicit via an add_guard-style
// negated condition.
type If struct {
	baseStmt
	Cond Pred
	Body Stmt
}

func (*If) isStmt() {}

// NewIf constructs an If statement.
func NewIf(cond Pred, body Stmt, src source.Span) *If { return &If{baseStmt{src}, cond, body} }

// ForAll is a loop. Per spec.md §3's LoopIR invariant, Iter must be fresh in
// Body's scope: no two enclosing ForAlls share an iteration symbol.
type ForAll struct {
	baseStmt
	Iter sym.Symbol
	Hi   types.Affine
	Body Stmt
}

func (*ForAll) isStmt() {}

// NewForAll constructs a ForAll statement.
func NewForAll(iter sym.Symbol, hi types.Affine, body Stmt, src source.Span) *ForAll {
	return &ForAll{baseStmt{src}, iter, hi, body}
}

// Alloc declares local storage.
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

// Assign writes a value, replacing whatever was there.
type Assign struct {
	baseStmt
	Name sym.Symbol
	Idx  []types.Affine
	Rhs  Expr
}

func (*Assign) isStmt() {}

// NewAssign constructs an Assign statement.
func NewAssign(name sym.Symbol, idx []types.Affine, rhs Expr, src source.Span) *Assign {
	return &Assign{baseStmt{src}, name, idx, rhs}
}

// Reduce accumulates a value (`+=`).
type Reduce struct {
	baseStmt
	Name sym.Symbol
	Idx  []types.Affine
	Rhs  Expr
}

func (*Reduce) isStmt() {}

// NewReduce constructs a Reduce statement.
func NewReduce(name sym.Symbol, idx []types.Affine, rhs Expr, src source.Span) *Reduce {
	return &Reduce{baseStmt{src}, name, idx, rhs}
}

// Pass is a no-op statement.
type Pass struct {
	baseStmt
}

func (*Pass) isStmt() {}

// NewPass constructs a Pass statement.
func NewPass(src source.Span) *Pass { return &Pass{baseStmt{src}} }

// WriteConfig is `cfg.field = value`, mirroring uast.WriteConfig. LoopIR
// keeps this node, rather than requiring it be lowered away before
// scheduling, because bind_config/write_config (spec.md §9) are themselves
// scheduling primitives that rewrite config reads/writes into explicit
// scalar bindings.
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

// Call invokes another procedure, mirroring uast.Call. LoopIR keeps this
// node (rather than requiring callees be lowered away before scheduling)
// because both Inline (spec.md §4.6) and Replace, which produces a Call to
// an instruction procedure, operate on it directly.
type Call struct {
	baseStmt
	Callee *Proc
	Args   []Expr
}

func (*Call) isStmt() {}

// NewCall constructs a Call statement.
func NewCall(callee *Proc, args []Expr, src source.Span) *Call {
	return &Call{baseStmt{src}, callee, args}
}

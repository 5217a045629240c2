// Package exo is the user-facing façade over the scheduling engine: spec.md
// §6's "Procedure API (exposed to users)" — a single Procedure type whose
// methods are the scheduling primitives, each consuming a Procedure and
// returning a new one, modelled on the teacher's pkg/corset/compiler.go
// orchestration style (a thin object wrapping the IR and the resolvers
// needed to locate a rewrite's target, rather than requiring every caller
// to import internal/schedule, internal/pattern, and internal/past
// directly).
//
// Every method here is a thin resolve-then-dispatch: turn the caller's name
// descriptor (spec.md §4.3) or pattern into the sym.Symbol/loopir.Stmt the
// underlying internal/schedule primitive expects, then call it. None of
// them duplicate a primitive's rewrite logic.
package exo

import (
	"github.com/exo-lang/exo/internal/loopir"
	"github.com/exo-lang/exo/internal/past"
	"github.com/exo-lang/exo/internal/pattern"
	"github.com/exo-lang/exo/internal/schedule"
	"github.com/exo-lang/exo/internal/source"
	"github.com/exo-lang/exo/internal/sym"
	"github.com/exo-lang/exo/internal/types"
)

// Affine re-exports internal/types' affine expression interface so a caller
// constructing an AddGuard bound or similar need not import internal/types
// directly.
type Affine = types.Affine

// Expr re-exports internal/loopir's value-expression interface, needed by
// WriteConfig.
type Expr = loopir.Expr

// Procedure is an immutable, user-schedulable procedure: every method
// returns a new Procedure, never mutating the receiver (spec.md §3
// "Lifecycle: IR nodes are immutable").
type Procedure struct {
	proc *loopir.Proc
}

// NewProcedure wraps an already-built LoopIR procedure (the output of the
// surface parser, internal/parser, after UAST->LoopIR lowering) as a
// schedulable Procedure.
func NewProcedure(proc *loopir.Proc) *Procedure {
	return &Procedure{proc: proc}
}

// LoopIR exposes the wrapped procedure, the boundary internal/codegen's
// Gather/BuildHandoff consume once scheduling is finished.
func (p *Procedure) LoopIR() *loopir.Proc {
	return p.proc
}

func wrap(proc *loopir.Proc, err error) (*Procedure, error) {
	if err != nil {
		return nil, err
	}

	return &Procedure{proc: proc}, nil
}

// resolveOne resolves a §4.3 name descriptor to exactly one symbol,
// erroring if it names zero or more than one occurrence — the primitives
// below each take a single unambiguous target, so an ambiguous descriptor
// (absent a disambiguating `[k]`) is itself a scheduling error rather than
// an implicit "first occurrence wins".
func (p *Procedure) resolveOne(descriptor string) (sym.Symbol, error) {
	single, err := pattern.ParseSingle(descriptor)
	if err != nil {
		return sym.Symbol{}, source.NewSchedulingError(p.proc.Src, "%s", err)
	}

	matches, err := pattern.FindSingle(p.proc, single)
	if err != nil {
		return sym.Symbol{}, err
	}

	switch len(matches) {
	case 0:
		return sym.Symbol{}, source.NewSchedulingError(p.proc.Src, "no occurrence of %q", descriptor)
	case 1:
		return matches[0], nil
	default:
		return sym.Symbol{}, source.NewSchedulingError(p.proc.Src,
			"%q is ambiguous (%d occurrences); disambiguate with name[k]", descriptor, len(matches))
	}
}

// firstMatch resolves a PAST pattern to the first matching statement in
// preorder, the identity Fission/Inline/ReorderStmts need to locate their
// structural target.
func (p *Procedure) firstMatch(pat past.Stmt) (past.Match, error) {
	matches := schedule.Find(p.proc, pat)
	if len(matches) == 0 {
		return past.Match{}, source.NewSchedulingError(p.proc.Src, "pattern matched no statement")
	}

	return matches[0], nil
}

// Reorder implements `reorder(outer, inner)` (spec.md §4.4).
func (p *Procedure) Reorder(outer, inner string) (*Procedure, error) {
	o, err := p.resolveOne(outer)
	if err != nil {
		return nil, err
	}

	i, err := p.resolveOne(inner)
	if err != nil {
		return nil, err
	}

	return wrap(schedule.Reorder(p.proc, o, i))
}

// Split implements `split(v, q, hi_hint, lo_hint)` (spec.md §4.5).
func (p *Procedure) Split(v string, q int64, hiHint, loHint string) (*Procedure, error) {
	s, err := p.resolveOne(v)
	if err != nil {
		return nil, err
	}

	return wrap(schedule.Split(p.proc, s, q, hiHint, loHint))
}

// FissionAfter implements `fission_after(point, n_lifts)` (spec.md §4.6):
// point is a PAST pattern matching the statement to split after.
func (p *Procedure) FissionAfter(point past.Stmt, nLifts int) (*Procedure, error) {
	m, err := p.firstMatch(point)
	if err != nil {
		return nil, err
	}

	return wrap(schedule.Fission(p.proc, m.Node, nLifts))
}

// LiftAlloc implements `lift_alloc(alloc, n_lifts)` (spec.md §4.6).
func (p *Procedure) LiftAlloc(alloc string, nLifts int) (*Procedure, error) {
	s, err := p.resolveOne(alloc)
	if err != nil {
		return nil, err
	}

	return wrap(schedule.LiftAlloc(p.proc, s, nLifts))
}

// Inline implements `inline(callsite)` (spec.md §4.6): callsite is a PAST
// pattern identifying the statement to inline. Since internal/past has no
// dedicated Call pattern variant (a caller locates a call site the same way
// it locates any other statement, typically with past.SHole{} scoped by an
// enclosing SIf/SForAll), every match is checked in preorder for the first
// one that is actually a Call.
func (p *Procedure) Inline(callsite past.Stmt) (*Procedure, error) {
	for _, m := range schedule.Find(p.proc, callsite) {
		if call, ok := m.Node.(*loopir.Call); ok {
			return wrap(schedule.Inline(p.proc, call))
		}
	}

	return nil, source.NewSchedulingError(p.proc.Src, "pattern matched no call statement")
}

// BindConfig implements `bind_config(cfg, field, hint)` (spec.md §9).
func (p *Procedure) BindConfig(cfg, field, hint string) (*Procedure, error) {
	s, err := p.resolveOne(cfg)
	if err != nil {
		return nil, err
	}

	return wrap(schedule.BindConfig(p.proc, s, field, hint))
}

// WriteConfig implements `write_config(cfg, field, value)` (spec.md §9).
func (p *Procedure) WriteConfig(cfg, field string, value Expr) (*Procedure, error) {
	s, err := p.resolveOne(cfg)
	if err != nil {
		return nil, err
	}

	return wrap(schedule.WriteConfigSched(p.proc, s, field, value))
}

// Replace implements `replace(pattern, instr_proc)` (spec.md §4.6).
func (p *Procedure) Replace(pat past.Stmt, instrProc *Procedure) (*Procedure, error) {
	return wrap(schedule.Replace(p.proc, pat, instrProc.proc))
}

// Unroll implements `unroll(loop, n)` (SPEC_FULL supplemented feature).
func (p *Procedure) Unroll(loop string, n int64) (*Procedure, error) {
	s, err := p.resolveOne(loop)
	if err != nil {
		return nil, err
	}

	return wrap(schedule.Unroll(p.proc, s, n))
}

// PartialEval implements `partial_eval(name, value)`.
func (p *Procedure) PartialEval(name string, value int64) (*Procedure, error) {
	s, err := p.resolveOne(name)
	if err != nil {
		return nil, err
	}

	return wrap(schedule.PartialEval(p.proc, s, value))
}

// Simplify implements `simplify()`.
func (p *Procedure) Simplify() (*Procedure, error) {
	return wrap(schedule.Simplify(p.proc))
}

// AddGuard implements `add_guard(loop)`.
func (p *Procedure) AddGuard(loop string, bound Affine) (*Procedure, error) {
	s, err := p.resolveOne(loop)
	if err != nil {
		return nil, err
	}

	return wrap(schedule.AddGuard(p.proc, s, bound))
}

// ParToSeq implements `par_to_seq(loop)`.
func (p *Procedure) ParToSeq(loop string) (*Procedure, error) {
	s, err := p.resolveOne(loop)
	if err != nil {
		return nil, err
	}

	return wrap(schedule.ParToSeq(p.proc, s))
}

// ReorderStmts implements `reorder_stmts(stmt_a, stmt_b)`: each of a, b is a
// PAST pattern matching the statement it names.
func (p *Procedure) ReorderStmts(a, b past.Stmt) (*Procedure, error) {
	ma, err := p.firstMatch(a)
	if err != nil {
		return nil, err
	}

	mb, err := p.firstMatch(b)
	if err != nil {
		return nil, err
	}

	return wrap(schedule.ReorderStmts(p.proc, ma.Node, mb.Node))
}

// Find implements the `find` Procedure API method (spec.md §6): every
// statement matching a PAST pattern, in preorder.
func (p *Procedure) Find(pat past.Stmt) []past.Match {
	return schedule.Find(p.proc, pat)
}

// FindLoop implements the `find_loop` Procedure API method (spec.md §4.3):
// resolves a name descriptor (single or pair) restricted to loop iterators.
func (p *Procedure) FindLoop(descriptor string) ([]sym.Symbol, []pattern.SymbolPair, error) {
	return schedule.FindLoop(p.proc, descriptor)
}

// Forward implements `forward(proc)` (SPEC_FULL supplemented feature):
// replays the scheduling directives already recorded on the receiver
// against base, a separately edited starting point, returning the rebuilt
// procedure.
func (p *Procedure) Forward(base *Procedure) (*Procedure, error) {
	return wrap(schedule.Forward(base.proc, p.proc.History))
}

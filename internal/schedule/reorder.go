// Package schedule implements the scheduling primitives (spec.md §4.4-§4.6):
// pure IR-to-IR rewrite functions over LoopIR that either succeed with a new
// Proc or fail with a source.SchedulingError. None of them mutate their
// input; unchanged subtrees are shared with the original per spec.md §5.
//
// Grounded on the teacher's rewrite-pass idiom (pkg/ir/mir/vanishing.go,
// pkg/ir/mir/subdivide_vanishing.go): a structural recursion over a closed
// statement variant set, short-circuiting to an explicit error type the
// moment a precondition fails, rather than panicking or silently no-oping.
package schedule

import (
	"github.com/exo-lang/exo/internal/loopir"
	"github.com/exo-lang/exo/internal/source"
	"github.com/exo-lang/exo/internal/sym"
)

// Reorder implements spec.md §4.4: exchanges ForAll(O, ForAll(I, body)) into
// ForAll(I, ForAll(O, body)) wherever O directly encloses I in proc's body.
func Reorder(proc *loopir.Proc, outer, inner sym.Symbol) (*loopir.Proc, error) {
	newBody, err := reorderStmt(proc.Body, outer, inner)
	if err != nil {
		return nil, err
	}

	return withBody(proc, newBody, "reorder", []string{outer.String(), inner.String()}), nil
}

func reorderStmt(s loopir.Stmt, outer, inner sym.Symbol) (loopir.Stmt, error) {
	switch n := s.(type) {
	case *loopir.Seq:
		s0, err := reorderStmt(n.S0, outer, inner)
		if err != nil {
			return nil, err
		}

		s1, err := reorderStmt(n.S1, outer, inner)
		if err != nil {
			return nil, err
		}

		return loopir.NewSeq(s0, s1, n.Span()), nil
	case *loopir.If:
		body, err := reorderStmt(n.Body, outer, inner)
		if err != nil {
			return nil, err
		}

		return loopir.NewIf(n.Cond, body, n.Span()), nil
	case *loopir.ForAll:
		if n.Iter != outer {
			body, err := reorderStmt(n.Body, outer, inner)
			if err != nil {
				return nil, err
			}

			return loopir.NewForAll(n.Iter, n.Hi, body, n.Span()), nil
		}

		innerLoop, ok := n.Body.(*loopir.ForAll)
		if !ok {
			return nil, source.NewSchedulingError(n.Span(), "expected loop directly inside of %s", outer)
		}

		if innerLoop.Iter != inner {
			return nil, source.NewSchedulingError(innerLoop.Span(), "expected inner loop to iterate %s, found %s", inner, innerLoop.Iter)
		}

		return loopir.NewForAll(inner, innerLoop.Hi, loopir.NewForAll(outer, n.Hi, innerLoop.Body, n.Span()), innerLoop.Span()), nil
	default:
		return s, nil
	}
}

func withBody(proc *loopir.Proc, body loopir.Stmt, directive string, args []string) *loopir.Proc {
	history := make([]loopir.Directive, len(proc.History)+1)
	copy(history, proc.History)
	history[len(proc.History)] = loopir.Directive{Name: directive, Args: args}

	return &loopir.Proc{
		Name:    proc.Name,
		Sizes:   proc.Sizes,
		Args:    proc.Args,
		Body:    body,
		Src:     proc.Src,
		Instr:   proc.Instr,
		History: history,
	}
}

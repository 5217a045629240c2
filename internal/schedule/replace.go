package schedule

import (
	"github.com/exo-lang/exo/internal/loopir"
	"github.com/exo-lang/exo/internal/past"
	"github.com/exo-lang/exo/internal/source"

	log "github.com/sirupsen/logrus"
)

// Replace implements `replace(pattern, instr_proc)` (spec.md §4.6): matches
// a PAST pattern against proc's body and substitutes the first matching
// subtree with a Call to instr_proc, an instruction-tagged procedure whose
// body structurally unified with the pattern. instr_proc's argument names
// are looked up, by printable hint, in the match's Bindings to build the
// Call's actual argument list — the same name a pattern used to bind a
// buffer is the name instr_proc declares it under, which is what "the body
// structurally unifies with the pattern" means in practice.
func Replace(proc *loopir.Proc, pattern past.Stmt, instrProc *loopir.Proc) (*loopir.Proc, error) {
	if instrProc.Instr == "" {
		return nil, source.NewSchedulingError(proc.Src, "replace: %s is not an instruction procedure", instrProc.Name)
	}

	matches := past.Find(pattern, proc.Body)
	if len(matches) == 0 {
		return nil, source.NewSchedulingError(proc.Src, "replace: pattern did not match anywhere in %s", proc.Name)
	}

	target := matches[0]

	args, err := buildCallArgs(instrProc, target.Bindings)
	if err != nil {
		return nil, err
	}

	call := loopir.NewCall(instrProc, args, target.Node.Span())

	newBody, ok := replaceStmt(proc.Body, target.Node, call)
	if !ok {
		return nil, source.NewSchedulingError(proc.Src, "replace: matched node no longer present during substitution")
	}

	log.Debugf("replace: matched subtree with call to %s", instrProc.Name)

	return withBody(proc, newBody, "replace", []string{instrProc.Name}), nil
}

func buildCallArgs(instrProc *loopir.Proc, b past.Bindings) ([]loopir.Expr, error) {
	args := make([]loopir.Expr, len(instrProc.Args))

	for i, a := range instrProc.Args {
		s, ok := b[a.Name.Hint()]
		if !ok {
			return nil, source.NewSchedulingError(instrProc.Src, "replace: instruction argument %q has no corresponding pattern binding", a.Name.Hint())
		}

		args[i] = &loopir.Read{Name: s}
	}

	return args, nil
}

// replaceStmt walks s, returning a copy with the first occurrence of target
// (by identity) replaced by repl.
func replaceStmt(s, target loopir.Stmt, repl loopir.Stmt) (loopir.Stmt, bool) {
	if s == target {
		return repl, true
	}

	switch n := s.(type) {
	case *loopir.Seq:
		s0, ok := replaceStmt(n.S0, target, repl)
		if ok {
			return loopir.NewSeq(s0, n.S1, n.Span()), true
		}

		s1, ok := replaceStmt(n.S1, target, repl)
		if ok {
			return loopir.NewSeq(n.S0, s1, n.Span()), true
		}

		return s, false
	case *loopir.If:
		body, ok := replaceStmt(n.Body, target, repl)
		if !ok {
			return s, false
		}

		return loopir.NewIf(n.Cond, body, n.Span()), true
	case *loopir.ForAll:
		body, ok := replaceStmt(n.Body, target, repl)
		if !ok {
			return s, false
		}

		return loopir.NewForAll(n.Iter, n.Hi, body, n.Span()), true
	default:
		return s, false
	}
}

package schedule

import (
	"github.com/exo-lang/exo/internal/loopir"
	"github.com/exo-lang/exo/internal/past"
	"github.com/exo-lang/exo/internal/pattern"
	"github.com/exo-lang/exo/internal/sym"
)

// Find implements the `find` half of spec.md §6's Procedure API: locates
// every statement in proc's body matching a PAST pattern (spec.md §8's
// "pattern hole" scenario), returning the matched nodes in preorder.
// FindLoop, the companion entry point for the `name`/`name[k]`/`outer >
// inner` descriptor grammar of spec.md §4.3, already lives in
// internal/pattern as FindLoop; this wrapper exists purely so callers of
// the Procedure API (exo.go) have one import to reach both search modes.
func Find(proc *loopir.Proc, pat past.Stmt) []past.Match {
	return past.Find(pat, proc.Body)
}

// FindLoop implements `find_loop(descriptor)`: resolves a §4.3 descriptor
// string against proc, returning the single-symbol matches (for a `single`
// descriptor) or the nesting-pair matches (for a `pair` descriptor).
func FindLoop(proc *loopir.Proc, descriptor string) ([]sym.Symbol, []pattern.SymbolPair, error) {
	return pattern.FindLoop(proc, descriptor)
}

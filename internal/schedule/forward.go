package schedule

import (
	"strconv"
	"strings"

	"github.com/exo-lang/exo/internal/loopir"
	"github.com/exo-lang/exo/internal/pattern"
	"github.com/exo-lang/exo/internal/source"
	"github.com/exo-lang/exo/internal/sym"

	log "github.com/sirupsen/logrus"
)

// Forward implements `forward(proc)` (spec.md §6, SUPPLEMENTED FEATURES):
// replays history — the sequence of scheduling directives recorded on an
// already-scheduled procedure — against base, a *different* procedure,
// used when the original source has been edited upstream and the schedule
// needs to be re-applied rather than hand-rewritten.
//
// A directive's arguments were recorded as each target symbol's printable
// form (hint~id, sym.Symbol.String()); since spec.md §8 testable property 4
// guarantees symbols minted across independent compilations are never
// equal, replay re-resolves each argument by *hint* against base via
// pattern.FindSingle rather than by the stale identity, taking the first
// matching occurrence. This only round-trips faithfully when a hint is
// unambiguous in base's body; a directive whose original target was
// disambiguated by a `[k]` index is not itself recoverable from History
// (the recorded form has already lost which occurrence was chosen), so
// Forward is restricted to the one directive whose full rewrite rule
// spec.md §4 specifies precisely enough to replay blind — reorder — and
// reports every other recorded directive as non-replayable rather than
// guessing at lost parameters (split's quotient, unroll's factor, ...).
func Forward(base *loopir.Proc, history []loopir.Directive) (*loopir.Proc, error) {
	cur := base

	for _, d := range history {
		switch d.Name {
		case "reorder":
			if len(d.Args) != 2 {
				return nil, source.NewSchedulingError(base.Src, "forward: malformed reorder directive")
			}

			outer, err := resolveOne(cur, d.Args[0])
			if err != nil {
				return nil, err
			}

			inner, err := resolveOne(cur, d.Args[1])
			if err != nil {
				return nil, err
			}

			next, err := Reorder(cur, outer, inner)
			if err != nil {
				return nil, err
			}

			cur = next
		default:
			return nil, source.NewSchedulingError(base.Src, "forward: directive %q is not replayable (lost parameters)", d.Name)
		}

		log.Debugf("forward: replayed %s", d.Name)
	}

	return cur, nil
}

// hintOf strips a recorded symbol's numeric identity suffix (sym.String()'s
// "hint~id" form) back down to its bare hint, the only part of the original
// identity that can still mean anything against a different compilation.
func hintOf(recorded string) string {
	if idx := strings.LastIndex(recorded, "~"); idx >= 0 {
		if _, err := strconv.ParseUint(recorded[idx+1:], 10, 64); err == nil {
			return recorded[:idx]
		}
	}

	return recorded
}

func resolveOne(proc *loopir.Proc, recorded string) (sym.Symbol, error) {
	hint := hintOf(recorded)

	matches, err := pattern.FindSingle(proc, pattern.Single{Name: hint})
	if err != nil {
		return sym.Symbol{}, source.NewSchedulingError(proc.Src, "forward: %v", err)
	}

	if len(matches) == 0 {
		return sym.Symbol{}, source.NewSchedulingError(proc.Src, "forward: no occurrence of %q in base procedure", hint)
	}

	return matches[0], nil
}

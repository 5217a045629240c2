// Package sym provides globally-unique symbol identities for the IR.
//
// A Symbol pairs a monotonically increasing identifier with a printable
// "hint" name. Two symbols constructed from the same hint are never equal;
// equality on a Symbol is always identity, never spelling. This is what lets
// shadowing be represented faithfully: `for j: for j: ...` produces two
// distinct Symbols that both print as "j".
package sym

import (
	"fmt"
	"sync/atomic"
)

// counter is the process-wide monotone symbol identifier source. It is never
// consulted for correctness beyond uniqueness, only for freshness.
var counter uint64

// Reset restarts the global counter at zero. Intended for test isolation
// only: production code never needs determinism in the numeric component of
// a Symbol, which it compares by identity and never by its printed id.
func Reset() {
	atomic.StoreUint64(&counter, 0)
}

// Symbol is a globally-unique identity with a printable hint. The zero value
// is not a valid Symbol; use New or Derive.
type Symbol struct {
	id   uint64
	hint string
}

// New mints a fresh symbol with the given printable hint. Every call
// produces a distinct identity, even if hint has been used before.
func New(hint string) Symbol {
	id := atomic.AddUint64(&counter, 1)
	return Symbol{id: id, hint: hint}
}

// Derive mints a fresh symbol reusing another symbol's hint. Used by
// scheduling primitives (e.g. split) that synthesize new iterators closely
// related to an existing one but must not collide with it.
func Derive(s Symbol) Symbol {
	return New(s.hint)
}

// Hint returns the printable name this symbol was minted with. Two distinct
// symbols may share a hint.
func (s Symbol) Hint() string {
	return s.hint
}

// IsValid reports whether this symbol was produced by New/Derive, as opposed
// to being a zero value.
func (s Symbol) IsValid() bool {
	return s.id != 0
}

// String renders the symbol as its hint suffixed by "~" and its identifier,
// so shadowed names stay distinguishable in debug output.
func (s Symbol) String() string {
	return fmt.Sprintf("%s~%d", s.hint, s.id)
}

// ID exposes the raw numeric identity, e.g. for use as a map key alongside
// other Symbols, or as an index into a bitset of "already visited" symbols.
func (s Symbol) ID() uint64 {
	return s.id
}

// Package pattern implements the name-search descriptor grammar (spec.md
// §4.3) used by the scheduling primitives to locate targets textually:
// `reorder(i, j)` and `find_loop("i")` both resolve their symbol arguments
// through this package rather than taking a sym.Symbol directly, since a
// user addresses loops and allocations by the name they wrote, not by an
// opaque identity they never see.
//
// Grounded on the teacher's resolver walking a scope for name lookups
// (pkg/corset/compiler/resolver.go style), generalized here into an ordered
// preorder walk over LoopIR rather than a single-scope lookup, per spec.md
// §4.3's "definition order of a preorder walk of the body".
package pattern

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/exo-lang/exo/internal/loopir"
	"github.com/exo-lang/exo/internal/sym"
)

// Single is `name` or `name[k]`.
type Single struct {
	Name string
	K    int // 0 means "no index given" (all occurrences)
}

// Pair is `outer > inner`.
type Pair struct {
	Outer, Inner Single
}

// ParseSingle parses a `single` descriptor.
func ParseSingle(s string) (Single, error) {
	s = strings.TrimSpace(s)

	name, k, err := splitNameIndex(s)
	if err != nil {
		return Single{}, err
	}

	return Single{Name: name, K: k}, nil
}

// ParsePair parses a `pair` descriptor (`outer > inner`). Returns ok=false
// if s contains no top-level '>' (i.e. it is a Single, not a Pair).
func ParsePair(s string) (Pair, bool, error) {
	idx := strings.Index(s, ">")
	if idx < 0 {
		return Pair{}, false, nil
	}

	outer, err := ParseSingle(s[:idx])
	if err != nil {
		return Pair{}, false, err
	}

	inner, err := ParseSingle(s[idx+1:])
	if err != nil {
		return Pair{}, false, err
	}

	return Pair{Outer: outer, Inner: inner}, true, nil
}

func splitNameIndex(s string) (string, int, error) {
	open := strings.Index(s, "[")
	if open < 0 {
		s = strings.TrimSpace(s)
		if s == "" {
			return "", 0, fmt.Errorf("pattern: empty descriptor")
		}

		return s, 0, nil
	}

	if !strings.HasSuffix(s, "]") {
		return "", 0, fmt.Errorf("pattern: malformed descriptor %q, expected trailing ']'", s)
	}

	name := strings.TrimSpace(s[:open])
	kStr := strings.TrimSpace(s[open+1 : len(s)-1])

	k, err := strconv.Atoi(kStr)
	if err != nil {
		return "", 0, fmt.Errorf("pattern: invalid index %q in descriptor %q", kStr, s)
	}

	if k < 1 {
		return "", 0, fmt.Errorf("pattern: index must be >= 1, got %d", k)
	}

	return name, k, nil
}

// occurrence is one defining occurrence visited during the preorder walk.
type occurrence struct {
	sym       sym.Symbol
	name      string
	nameIdx   int // 1-based count of this occurrence among same-named ones
	ancestors []occurrence
	isLoop    bool
}

// walk collects every defining occurrence (procedure sizes, arguments,
// allocations, loop iterators) across proc, in preorder. Ancestor lists are
// only populated for enclosing ForAll loops, since only loop nesting
// participates in Pair resolution (spec.md §4.3).
func walk(proc *loopir.Proc) []occurrence {
	var (
		out      []occurrence
		nameSeen = map[string]int{}
		ancestry []occurrence
	)

	record := func(name string, s sym.Symbol, isLoop bool) occurrence {
		nameSeen[name]++

		o := occurrence{sym: s, name: name, nameIdx: nameSeen[name], isLoop: isLoop}
		if isLoop {
			o.ancestors = append([]occurrence(nil), ancestry...)
		}

		out = append(out, o)

		return o
	}

	for _, s := range proc.Sizes {
		record(s.Hint(), s, false)
	}

	for _, a := range proc.Args {
		record(a.Name.Hint(), a.Name, false)
	}

	var walkStmt func(s loopir.Stmt)

	walkStmt = func(s loopir.Stmt) {
		switch n := s.(type) {
		case *loopir.Seq:
			walkStmt(n.S0)
			walkStmt(n.S1)
		case *loopir.If:
			walkStmt(n.Body)
		case *loopir.ForAll:
			o := record(n.Iter.Hint(), n.Iter, true)
			ancestry = append(ancestry, o)
			walkStmt(n.Body)
			ancestry = ancestry[:len(ancestry)-1]
		case *loopir.Alloc:
			record(n.Name.Hint(), n.Name, false)
		}
	}

	walkStmt(proc.Body)

	return out
}

// FindSingle resolves a Single descriptor against proc.
func FindSingle(proc *loopir.Proc, s Single) ([]sym.Symbol, error) {
	var matches []sym.Symbol

	for _, o := range walk(proc) {
		if o.name != s.Name {
			continue
		}

		if s.K == 0 || o.nameIdx == s.K {
			matches = append(matches, o.sym)
		}
	}

	if s.K != 0 && len(matches) == 0 {
		return nil, fmt.Errorf("pattern: fewer than %d occurrence(s) of %q", s.K, s.Name)
	}

	return matches, nil
}

// SymbolPair is one resolved (outer, inner) nesting pair.
type SymbolPair struct {
	Outer, Inner sym.Symbol
}

// FindPair resolves a Pair descriptor against proc, per spec.md §4.3's
// canonical example (nesting [j,i,j,i,i] with "j > i" yielding five pairs).
func FindPair(proc *loopir.Proc, p Pair) ([]SymbolPair, error) {
	occs := walk(proc)

	var outerCandidates, innerCandidates []occurrence

	for _, o := range occs {
		if !o.isLoop {
			continue
		}

		if o.name == p.Outer.Name && (p.Outer.K == 0 || o.nameIdx == p.Outer.K) {
			outerCandidates = append(outerCandidates, o)
		}

		if o.name == p.Inner.Name && (p.Inner.K == 0 || o.nameIdx == p.Inner.K) {
			innerCandidates = append(innerCandidates, o)
		}
	}

	if p.Outer.K != 0 && len(outerCandidates) == 0 {
		return nil, fmt.Errorf("pattern: fewer than %d occurrence(s) of %q", p.Outer.K, p.Outer.Name)
	}

	if p.Inner.K != 0 && len(innerCandidates) == 0 {
		return nil, fmt.Errorf("pattern: fewer than %d occurrence(s) of %q", p.Inner.K, p.Inner.Name)
	}

	outerSet := map[sym.Symbol]bool{}
	for _, o := range outerCandidates {
		outerSet[o.sym] = true
	}

	var pairs []SymbolPair

	for _, inner := range innerCandidates {
		for _, anc := range inner.ancestors {
			if outerSet[anc.sym] {
				pairs = append(pairs, SymbolPair{Outer: anc.sym, Inner: inner.sym})
			}
		}
	}

	return pairs, nil
}

// FindLoop resolves a descriptor (single or pair) restricted to loop
// iterators, the form `proc.find_loop` accepts (spec.md §6).
func FindLoop(proc *loopir.Proc, descriptor string) ([]sym.Symbol, []SymbolPair, error) {
	if pair, ok, err := ParsePair(descriptor); err != nil {
		return nil, nil, err
	} else if ok {
		pairs, err := FindPair(proc, pair)
		return nil, pairs, err
	}

	single, err := ParseSingle(descriptor)
	if err != nil {
		return nil, nil, err
	}

	var matches []sym.Symbol

	for _, o := range walk(proc) {
		if !o.isLoop || o.name != single.Name {
			continue
		}

		if single.K == 0 || o.nameIdx == single.K {
			matches = append(matches, o.sym)
		}
	}

	if single.K != 0 && len(matches) == 0 {
		return nil, nil, fmt.Errorf("pattern: fewer than %d occurrence(s) of loop %q", single.K, single.Name)
	}

	return matches, nil, nil
}

package pattern

import (
	"testing"

	"github.com/exo-lang/exo/internal/loopir"
	"github.com/exo-lang/exo/internal/source"
	"github.com/exo-lang/exo/internal/sym"
)

// buildNest constructs the canonical example from spec.md §4.3: a linear
// nest of loops named j, i, j, i, i (outermost to innermost).
func buildNest(t *testing.T) (*loopir.Proc, []sym.Symbol) {
	t.Helper()
	sym.Reset()

	names := []string{"j", "i", "j", "i", "i"}
	syms := make([]sym.Symbol, len(names))

	for i, n := range names {
		syms[i] = sym.New(n)
	}

	body := loopir.Stmt(loopir.NewPass(source.Unknown))
	for i := len(names) - 1; i >= 0; i-- {
		body = loopir.NewForAll(syms[i], nil, body, source.Unknown)
	}

	proc := &loopir.Proc{Name: "nest", Body: body}

	return proc, syms
}

func TestFindPairCanonicalExample(t *testing.T) {
	proc, syms := buildNest(t)

	pair, ok, err := ParsePair("j > i")
	if err != nil || !ok {
		t.Fatalf("expected a parsed pair, err=%v ok=%v", err, ok)
	}

	pairs, err := FindPair(proc, pair)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := map[[2]sym.Symbol]bool{
		{syms[0], syms[1]}: true,
		{syms[0], syms[3]}: true,
		{syms[0], syms[4]}: true,
		{syms[2], syms[3]}: true,
		{syms[2], syms[4]}: true,
	}

	if len(pairs) != len(want) {
		t.Fatalf("expected %d pairs, got %d: %+v", len(want), len(pairs), pairs)
	}

	for _, p := range pairs {
		if !want[[2]sym.Symbol{p.Outer, p.Inner}] {
			t.Fatalf("unexpected pair %+v", p)
		}
	}
}

func TestFindSingleWithIndex(t *testing.T) {
	proc, syms := buildNest(t)

	single, err := ParseSingle("i[2]")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	matches, err := FindSingle(proc, single)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(matches) != 1 || matches[0] != syms[3] {
		t.Fatalf("expected the 2nd 'i' occurrence (index 3), got %+v", matches)
	}
}

func TestFindSingleIndexOutOfRangeIsError(t *testing.T) {
	proc, _ := buildNest(t)

	single, err := ParseSingle("i[5]")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := FindSingle(proc, single); err == nil {
		t.Fatalf("expected an error for an out-of-range index")
	}
}

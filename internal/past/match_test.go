package past

import (
	"testing"

	"github.com/exo-lang/exo/internal/loopir"
	"github.com/exo-lang/exo/internal/source"
	"github.com/exo-lang/exo/internal/sym"
	"github.com/exo-lang/exo/internal/types"
)

func TestParsePatternAssignWithHole(t *testing.T) {
	pat, err := ParsePattern("A[_] = _")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	a, ok := pat.(SAssign)
	if !ok {
		t.Fatalf("expected SAssign, got %T", pat)
	}

	if a.Name != "A" || a.IsReduce {
		t.Fatalf("unexpected pattern: %+v", a)
	}

	if len(a.Idx) != 1 {
		t.Fatalf("expected one index slot, got %d", len(a.Idx))
	}

	if _, ok := a.Idx[0].(AHole); !ok {
		t.Fatalf("expected index hole, got %T", a.Idx[0])
	}

	if _, ok := a.Rhs.(EHole); !ok {
		t.Fatalf("expected rhs hole, got %T", a.Rhs)
	}
}

func TestFindMatchesEveryAssignmentIntoNamedBuffer(t *testing.T) {
	sym.Reset()

	bufA := sym.New("A")
	bufB := sym.New("B")
	i := sym.New("i")

	body := loopir.Block([]loopir.Stmt{
		loopir.NewAssign(bufA, []types.Affine{&types.AVar{Name: i}}, &loopir.Const{Value: 1, IsInt: true}, source.Unknown),
		loopir.NewAssign(bufB, []types.Affine{&types.AVar{Name: i}}, &loopir.Const{Value: 2, IsInt: true}, source.Unknown),
		loopir.NewReduce(bufA, []types.Affine{&types.AVar{Name: i}}, &loopir.Const{Value: 3, IsInt: true}, source.Unknown),
	}, source.Unknown)

	pat, err := ParsePattern("A[_] = _")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	matches := Find(pat, body)
	if len(matches) != 1 {
		t.Fatalf("expected exactly 1 match (the plain assign, not the reduce), got %d", len(matches))
	}

	got, ok := matches[0].Node.(*loopir.Assign)
	if !ok || got.Name != bufA {
		t.Fatalf("expected the assign into A, got %+v", matches[0].Node)
	}
}

func TestFindStatementHoleMatchesExactlyOneStatement(t *testing.T) {
	sym.Reset()

	buf := sym.New("x")

	body := loopir.Block([]loopir.Stmt{
		loopir.NewAssign(buf, nil, &loopir.Const{Value: 1, IsInt: true}, source.Unknown),
		loopir.NewPass(source.Unknown),
	}, source.Unknown)

	pat, err := ParsePattern("_")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	matches := Find(pat, body)
	if len(matches) != 2 {
		t.Fatalf("expected the hole to match each of the 2 statements individually, got %d", len(matches))
	}
}

package exo

import (
	"testing"

	"github.com/exo-lang/exo/internal/loopir"
	"github.com/exo-lang/exo/internal/past"
	"github.com/exo-lang/exo/internal/source"
	"github.com/exo-lang/exo/internal/sym"
	"github.com/exo-lang/exo/internal/types"
)

// buildDoubleLoop constructs:
//
//	for o in seq(0, No):
//	    for i in seq(0, Ni):
//	        A[o,i] = A[o,i] + 1
func buildDoubleLoop(t *testing.T, no, ni int64) *Procedure {
	t.Helper()
	sym.Reset()

	a := sym.New("A")
	o := sym.New("o")
	i := sym.New("i")

	innerBody := loopir.NewAssign(
		a,
		[]types.Affine{&types.AVar{Name: o}, &types.AVar{Name: i}},
		&loopir.BinOp{
			Op:  "+",
			Lhs: &loopir.Read{Name: a, Idx: []types.Affine{&types.AVar{Name: o}, &types.AVar{Name: i}}},
			Rhs: &loopir.Const{Value: 1, IsInt: true},
		},
		source.Unknown,
	)

	inner := loopir.NewForAll(i, &types.AConst{Value: ni}, innerBody, source.Unknown)
	outer := loopir.NewForAll(o, &types.AConst{Value: no}, inner, source.Unknown)

	proc := &loopir.Proc{Name: "doubleloop", Body: outer}

	return NewProcedure(proc)
}

func TestProcedureReorderThenSplit(t *testing.T) {
	p := buildDoubleLoop(t, 3, 8)

	reordered, err := p.Reorder("o", "i")
	if err != nil {
		t.Fatalf("unexpected reorder error: %v", err)
	}

	outer, ok := reordered.proc.Body.(*loopir.ForAll)
	if !ok || outer.Iter.Hint() != "i" {
		t.Fatalf("expected i to become the outer loop, got %+v", reordered.proc.Body)
	}

	split, err := reordered.Split("o", 4, "oh", "ol")
	if err != nil {
		t.Fatalf("unexpected split error: %v", err)
	}

	ohLoop, ok := split.proc.Body.(*loopir.ForAll).Body.(*loopir.ForAll)
	if !ok || ohLoop.Iter.Hint() != "oh" {
		t.Fatalf("expected a freshly minted oh loop nested under i, got %+v", split.proc.Body)
	}
}

func TestProcedureReorderAmbiguousDescriptorErrors(t *testing.T) {
	sym.Reset()

	i1 := sym.New("i")
	i2 := sym.New("i")

	inner := loopir.NewForAll(i2, &types.AConst{Value: 3}, loopir.NewPass(source.Unknown), source.Unknown)
	outer := loopir.NewForAll(i1, &types.AConst{Value: 3}, inner, source.Unknown)

	p := NewProcedure(&loopir.Proc{Name: "p", Body: outer})

	if _, err := p.Reorder("i", "i"); err == nil {
		t.Fatalf("expected an ambiguity error resolving a repeated name with no [k]")
	}
}

func TestProcedureFindLocatesAssign(t *testing.T) {
	p := buildDoubleLoop(t, 3, 8)

	matches := p.Find(past.SAssign{Name: "A", Idx: []past.Affine{past.AHole{}, past.AHole{}}, Rhs: past.EHole{}})
	if len(matches) != 1 {
		t.Fatalf("expected exactly one Assign match, got %d", len(matches))
	}
}

func TestProcedureFindLoopResolvesPair(t *testing.T) {
	p := buildDoubleLoop(t, 3, 8)

	singles, pairs, err := p.FindLoop("o > i")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(singles) != 0 || len(pairs) != 1 {
		t.Fatalf("expected a single (o,i) pair and no bare singles, got singles=%d pairs=%d", len(singles), len(pairs))
	}
}

func TestProcedureForwardReplaysReorder(t *testing.T) {
	p := buildDoubleLoop(t, 3, 8)

	scheduled, err := p.Reorder("o", "i")
	if err != nil {
		t.Fatalf("unexpected reorder error: %v", err)
	}

	freshBase := buildDoubleLoop(t, 3, 8)

	forwarded, err := scheduled.Forward(freshBase)
	if err != nil {
		t.Fatalf("unexpected forward error: %v", err)
	}

	outer, ok := forwarded.proc.Body.(*loopir.ForAll)
	if !ok || outer.Iter.Hint() != "i" {
		t.Fatalf("expected forward to replay the reorder onto the fresh base, got %+v", forwarded.proc.Body)
	}
}

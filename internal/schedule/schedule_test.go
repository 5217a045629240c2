package schedule

import (
	"testing"

	"github.com/exo-lang/exo/internal/loopir"
	"github.com/exo-lang/exo/internal/source"
	"github.com/exo-lang/exo/internal/sym"
	"github.com/exo-lang/exo/internal/types"
)

// buildDoubleLoop constructs:
//
//	for o in seq(0, No):
//	    for i in seq(0, Ni):
//	        A[o,i] = A[o,i] + 1
func buildDoubleLoop(t *testing.T, no, ni int64) (*loopir.Proc, sym.Symbol, sym.Symbol, sym.Symbol) {
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

	return proc, a, o, i
}

// TestReorderIsInvolution checks spec.md §8's testable property: reordering
// twice (O,I then I,O) restores the original nesting.
func TestReorderIsInvolution(t *testing.T) {
	proc, _, o, i := buildDoubleLoop(t, 3, 4)

	once, err := Reorder(proc, o, i)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	twice, err := Reorder(once, i, o)
	if err != nil {
		t.Fatalf("unexpected error on second reorder: %v", err)
	}

	outer, ok := twice.Body.(*loopir.ForAll)
	if !ok || outer.Iter != o {
		t.Fatalf("expected outer loop to iterate o again, got %+v", twice.Body)
	}

	inner, ok := outer.Body.(*loopir.ForAll)
	if !ok || inner.Iter != i {
		t.Fatalf("expected inner loop to iterate i again, got %+v", outer.Body)
	}
}

func TestReorderFailsWhenNotDirectlyNested(t *testing.T) {
	sym.Reset()

	a := sym.New("A")
	o := sym.New("o")
	i := sym.New("i")

	leaf := loopir.NewAssign(a, nil, &loopir.Const{Value: 0, IsInt: true}, source.Unknown)
	wrapped := loopir.NewIf(&loopir.Cmp{Op: loopir.CmpLt, Lhs: &types.AConst{Value: 0}, Rhs: &types.AConst{Value: 1}}, leaf, source.Unknown)
	outer := loopir.NewForAll(o, &types.AConst{Value: 3}, wrapped, source.Unknown)

	proc := &loopir.Proc{Name: "p", Body: outer}

	if _, err := Reorder(proc, o, i); err == nil {
		t.Fatalf("expected an error: %s is not directly inside %s", i, o)
	}
}

// TestSplitPreservesEvaluationSemantics checks spec.md §8's testable
// property 3: when q evenly divides N, running the split procedure produces
// the same store as running the original.
func TestSplitPreservesEvaluationSemantics(t *testing.T) {
	proc, _, _, i := buildDoubleLoop(t, 2, 6)

	before := loopir.NewStore()
	loopir.Run(proc.Body, map[sym.Symbol]int64{}, before)

	split, err := Split(proc, i, 3, "hi", "lo")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	after := loopir.NewStore()
	loopir.Run(split.Body, map[sym.Symbol]int64{}, after)

	snapBefore := before.Snapshot()
	snapAfter := after.Snapshot()

	if len(snapBefore) != len(snapAfter) {
		t.Fatalf("expected same number of written cells, got %d vs %d", len(snapBefore), len(snapAfter))
	}

	for _, v := range snapBefore {
		if v != 1 {
			t.Fatalf("sanity check failed: expected every cell written exactly once")
		}
	}

	for k, v := range snapBefore {
		if got, ok := snapAfter[k]; !ok || got != v {
			t.Fatalf("cell %s: expected %v after split, got %v (present=%v)", k, v, got, ok)
		}
	}
}

func TestSplitMintsFreshIteratorsAndRewritesBound(t *testing.T) {
	proc, _, _, i := buildDoubleLoop(t, 2, 7)

	split, err := Split(proc, i, 3, "hi", "lo")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	outer, ok := split.Body.(*loopir.ForAll)
	if !ok {
		t.Fatalf("expected outer o loop unchanged, got %T", split.Body)
	}

	hiLoop, ok := outer.Body.(*loopir.ForAll)
	if !ok || hiLoop.Iter.Hint() != "hi" {
		t.Fatalf("expected a freshly minted 'hi' loop, got %+v", outer.Body)
	}

	if _, ok := hiLoop.Hi.(*types.AScaleDiv); !ok {
		t.Fatalf("expected hi's bound to be a symbolic ceildiv, got %T", hiLoop.Hi)
	}

	loLoop, ok := hiLoop.Body.(*loopir.ForAll)
	if !ok || loLoop.Iter.Hint() != "lo" {
		t.Fatalf("expected a freshly minted 'lo' loop, got %+v", hiLoop.Body)
	}

	if loLoop.Iter == i {
		t.Fatalf("expected lo to be a fresh symbol distinct from the original iterator")
	}
}

// TestLiftAllocHoistsNestedAllocation covers the one case lift_alloc exists
// for: an Alloc nested inside the loops it is being lifted out of, not one
// already sitting at the procedure's top level.
func TestLiftAllocHoistsNestedAllocation(t *testing.T) {
	sym.Reset()

	o := sym.New("o")
	i := sym.New("i")
	tmp := sym.New("tmp")

	alloc := loopir.NewAlloc(tmp, types.NewScalar(types.F32), "sram", source.Unknown)
	pass := loopir.NewPass(source.Unknown)

	innerBody := loopir.NewSeq(alloc, pass, source.Unknown)
	inner := loopir.NewForAll(i, &types.AConst{Value: 4}, innerBody, source.Unknown)
	outer := loopir.NewForAll(o, &types.AConst{Value: 3}, inner, source.Unknown)

	proc := &loopir.Proc{Name: "liftme", Body: outer}

	lifted, err := LiftAlloc(proc, tmp, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	flat := loopir.Flatten(lifted.Body)
	if len(flat) == 0 {
		t.Fatalf("expected a non-empty lifted body")
	}

	hoisted, ok := flat[0].(*loopir.Alloc)
	if !ok || hoisted.Name != tmp {
		t.Fatalf("expected the allocation hoisted to the front of the body, got %+v", flat[0])
	}
}

// TestLiftAllocRejectsShapeMentioningEnclosingIterator checks that
// LiftAlloc refuses to hoist an allocation whose shape depends on an
// iterator it would be lifted past.
func TestLiftAllocRejectsShapeMentioningEnclosingIterator(t *testing.T) {
	sym.Reset()

	i := sym.New("i")
	tmp := sym.New("tmp")

	allocType := types.NewTensor([]types.Affine{&types.AVar{Name: i}}, false, types.NewScalar(types.F32))
	alloc := loopir.NewAlloc(tmp, allocType, "sram", source.Unknown)
	pass := loopir.NewPass(source.Unknown)

	innerBody := loopir.NewSeq(alloc, pass, source.Unknown)
	inner := loopir.NewForAll(i, &types.AConst{Value: 4}, innerBody, source.Unknown)

	proc := &loopir.Proc{Name: "liftme", Body: inner}

	if _, err := LiftAlloc(proc, tmp, 1); err == nil {
		t.Fatalf("expected an error lifting an allocation whose shape mentions the enclosing iterator")
	}
}

package codegen

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/exo-lang/exo/internal/loopir"
	"github.com/exo-lang/exo/internal/source"
	"github.com/exo-lang/exo/internal/sym"
	"github.com/exo-lang/exo/internal/types"
)

func TestGatherCollectsArgsAndAllocs(t *testing.T) {
	sym.Reset()

	x := sym.New("x")
	tmp := sym.New("tmp")

	proc := &loopir.Proc{
		Name: "foo",
		Args: []loopir.Arg{{Name: x, Type: types.NewScalar(types.F32), Mem: "dram"}},
		Body: loopir.NewAlloc(tmp, types.NewScalar(types.F32), "sram", source.Unknown),
	}

	cat := Gather(proc)

	if len(cat.Memories) != 2 {
		t.Fatalf("expected 2 memory entries (1 arg + 1 alloc), got %d: %+v", len(cat.Memories), cat.Memories)
	}

	if cat.Memories[0].Mem != "dram" || cat.Memories[1].Mem != "sram" {
		t.Fatalf("expected arg then alloc memory spaces preserved, got %+v", cat.Memories)
	}
}

func TestGatherCollectsTaggedInstructionCalls(t *testing.T) {
	sym.Reset()

	a := sym.New("a")
	instrProc := &loopir.Proc{Name: "mma", Instr: "tensor.mma"}
	untaggedProc := &loopir.Proc{Name: "helper"}

	body := loopir.NewSeq(
		loopir.NewCall(instrProc, []loopir.Expr{&loopir.Read{Name: a}}, source.Unknown),
		loopir.NewCall(untaggedProc, nil, source.Unknown),
		source.Unknown,
	)

	proc := &loopir.Proc{Name: "bar", Body: body}
	cat := Gather(proc)

	if len(cat.Instructions) != 1 {
		t.Fatalf("expected only the tagged instruction call to be catalogued, got %+v", cat.Instructions)
	}

	if cat.Instructions[0].Instr != "tensor.mma" {
		t.Fatalf("expected instr tag %q, got %q", "tensor.mma", cat.Instructions[0].Instr)
	}
}

func TestHandoffMarshalsDeterministically(t *testing.T) {
	sym.Reset()

	b := sym.New("b")
	a := sym.New("a")

	proc := &loopir.Proc{
		Name: "baz",
		Args: []loopir.Arg{
			{Name: b, Type: types.NewScalar(types.F32)},
			{Name: a, Type: types.NewScalar(types.F32)},
		},
		Body: loopir.NewPass(source.Unknown),
	}

	out, err := json.Marshal(BuildHandoff(proc))
	if err != nil {
		t.Fatalf("unexpected marshal error: %v", err)
	}

	aIdx := strings.Index(string(out), `"a`)
	bIdx := strings.Index(string(out), `"b`)

	if aIdx == -1 || bIdx == -1 || aIdx > bIdx {
		t.Fatalf("expected memories sorted by name (a before b), got %s", out)
	}
}

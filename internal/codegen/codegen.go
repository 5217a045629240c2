// Package codegen implements the "codegen handoff" spec.md §6 names as the
// boundary of the core: once a procedure's schedule is finished, whatever
// consumes it next (an out-of-scope backend) needs the finished LoopIR
// procedure plus a flat catalogue of the memory spaces and hardware
// instructions it references, so it can allocate storage and lower calls
// without re-walking the tree itself.
//
// Unlike every other ambient concern in this module, this one component is
// deliberately built on the standard library's encoding/json rather than a
// teacher dependency: the teacher has no JSON handoff of its own (its
// schemas serialize to a bespoke binary trace format via gnark-crypto field
// elements, which has no bearing on Exo's plain-integer IR), and no other
// wired dependency in the pack covers "serialize a flat struct to JSON" any
// better than the standard library already does. See DESIGN.md.
package codegen

import (
	"encoding/json"
	"sort"

	"github.com/exo-lang/exo/internal/loopir"
)

// MemoryEntry describes one local allocation's storage requirement.
type MemoryEntry struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Mem  string `json:"mem,omitempty"`
}

// InstructionEntry describes one call site targeting an instruction
// procedure (spec.md §4.6 replace): which tag fired, and what was passed.
type InstructionEntry struct {
	Instr string   `json:"instr"`
	Args  []string `json:"args"`
}

// Catalogue is the flat annotation summary gathered from one procedure's
// body: every Alloc's memory space, and every Call targeting a tagged
// instruction procedure.
type Catalogue struct {
	Memories     []MemoryEntry      `json:"memories"`
	Instructions []InstructionEntry `json:"instructions"`
}

// Handoff bundles the finished procedure (rendered textually — LoopIR's
// symbols and interface-typed nodes aren't themselves JSON-friendly) with
// its gathered Catalogue, the unit an out-of-scope backend receives.
type Handoff struct {
	Proc      string    `json:"proc"`
	Catalogue Catalogue `json:"catalogue"`
}

// Gather walks proc's body collecting a Catalogue. Argument allocations
// (proc.Args themselves) are included alongside any Alloc found in the
// body, since both occupy memory a backend must account for.
func Gather(proc *loopir.Proc) Catalogue {
	var cat Catalogue

	for _, a := range proc.Args {
		cat.Memories = append(cat.Memories, MemoryEntry{
			Name: a.Name.Hint(),
			Type: a.Type.String(),
			Mem:  a.Mem,
		})
	}

	walkStmt(proc.Body, &cat)

	return cat
}

// BuildHandoff builds the full codegen handoff for proc: its textual
// rendering plus the Catalogue Gather collects.
func BuildHandoff(proc *loopir.Proc) Handoff {
	return Handoff{Proc: proc.String(), Catalogue: Gather(proc)}
}

// MarshalJSON serializes a Handoff. Memories and Instructions are sorted by
// name first so the output is deterministic across runs over the same
// procedure, independent of map/slice iteration order anywhere upstream.
func (h Handoff) MarshalJSON() ([]byte, error) {
	type alias Handoff

	sorted := alias(h)
	sorted.Catalogue.Memories = append([]MemoryEntry(nil), h.Catalogue.Memories...)
	sorted.Catalogue.Instructions = append([]InstructionEntry(nil), h.Catalogue.Instructions...)

	sort.Slice(sorted.Catalogue.Memories, func(i, j int) bool {
		return sorted.Catalogue.Memories[i].Name < sorted.Catalogue.Memories[j].Name
	})

	sort.SliceStable(sorted.Catalogue.Instructions, func(i, j int) bool {
		return sorted.Catalogue.Instructions[i].Instr < sorted.Catalogue.Instructions[j].Instr
	})

	return json.Marshal(alias(sorted))
}

func walkStmt(s loopir.Stmt, cat *Catalogue) {
	switch n := s.(type) {
	case *loopir.Seq:
		walkStmt(n.S0, cat)
		walkStmt(n.S1, cat)
	case *loopir.If:
		walkStmt(n.Body, cat)
	case *loopir.ForAll:
		walkStmt(n.Body, cat)
	case *loopir.Alloc:
		cat.Memories = append(cat.Memories, MemoryEntry{
			Name: n.Name.Hint(),
			Type: n.Type.String(),
			Mem:  n.Mem,
		})
	case *loopir.Call:
		if n.Callee.Instr == "" {
			return
		}

		args := make([]string, len(n.Args))
		for i, a := range n.Args {
			args[i] = loopir.ExprString(a)
		}

		cat.Instructions = append(cat.Instructions, InstructionEntry{Instr: n.Callee.Instr, Args: args})
	}
}

package env

// Env combines the three overlapping environments consulted, in order, when
// resolving a bare name during parsing (spec.md §4.1): the chained
// procedure-local scope, the defining host frame's locals (captured at
// decoration time), and that frame's globals.
type Env struct {
	Chain   Scope
	Locals  map[string]Binding
	Globals map[string]Binding
}

// NewEnv constructs an Env with builtins seeded into Globals.
func NewEnv(locals map[string]Binding) *Env {
	e := &Env{
		Locals:  locals,
		Globals: make(map[string]Binding),
	}

	SeedBuiltins(e)

	return e
}

// Resolve looks up name across all three environments in the specified
// order, returning the winning Binding.
func (e *Env) Resolve(name string) (Binding, bool) {
	if b, ok := e.Chain.Lookup(name); ok {
		return b, true
	}

	if b, ok := e.Locals[name]; ok {
		return b, true
	}

	if b, ok := e.Globals[name]; ok {
		return b, true
	}

	return nil, false
}

// BuiltinBinding marks a name as one of the seeded builtins (sin, relu,
// select), so the parser can distinguish a builtin call from an ordinary
// procedure Call (spec.md §4.1).
type BuiltinBinding struct {
	Name  string
	Arity int // -1 means variadic
}

func (BuiltinBinding) isBinding() {}

// SeedBuiltins installs sin, relu, select into e's global scope. This
// mirrors the teacher's "intrinsics" seeding (pkg/corset/intrinsics.go)
// seeding a fixed builtin catalogue into every compiled module's scope.
func SeedBuiltins(e *Env) {
	e.Globals["sin"] = BuiltinBinding{Name: "sin", Arity: 1}
	e.Globals["relu"] = BuiltinBinding{Name: "relu", Arity: 1}
	e.Globals["select"] = BuiltinBinding{Name: "select", Arity: 2}
}

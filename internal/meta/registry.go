package meta

import (
	"fmt"

	"github.com/exo-lang/exo/internal/sx"
)

// UnquoteFunc is the Go-native stand-in for a host expression/block reached
// via `unquote(...)` or `with unquote:`: the scheduling script supplies one
// directly (there being no host source text for Exo's Go embedding to
// re-parse), and it runs with a Builder through which it may, in turn,
// realise any `quote(...)` fragments lexically nested inside it.
type UnquoteFunc func(b *Builder) (any, error)

// QuoteKind distinguishes a statement-level quote (`with quote:`, a block)
// from an expression-level one (`quote(expr)`).
type QuoteKind int

// Recognised quote kinds.
const (
	KindExpr QuoteKind = iota
	KindStmt
)

// QuoteBlock is one `quote(...)`/`with quote:` fragment lexically nested
// inside a host unquote callback: the host-AST fragment to re-parse,
// carrying the enclosing procedure scope, per spec.md §4.2's "Quote ...
// re-enters the parser on the inner AST, carrying the enclosing procedure
// scope".
type QuoteBlock struct {
	Fragment sx.Node
	Kind     QuoteKind
}

// entry is what a mangled name resolves to in a Registry: either a
// directly-registered host callback (an unquote site) or an
// auto-registered QuoteBlock (a quote site QuoteReplacer found nested
// inside one).
type entry struct {
	fn    UnquoteFunc
	quote *QuoteBlock
}

// Registry holds every mangled-name -> callback/quote-block binding active
// for one compilation of a procedure's unquote protocol, plus the Mangler
// state needed to keep minting fresh names deterministically.
//
// Grounded on spec.md §4.2's "Determinism" paragraph: for a given captured
// scope and input AST, the set of mangled names, callback registrations,
// and injected IR must be deterministic. Registry achieves this the same
// way internal/sym achieves global freshness — a monotone counter — except
// scoped per-Registry (one per quote/unquote compilation) rather than
// process-wide, since mangled names only need to avoid collision with the
// captured scope they're probed against, not with every other compilation
// that ever ran.
type Registry struct {
	scope   *CapturedEnv
	entries map[string]entry
	next    int
}

// NewRegistry constructs an empty Registry against scope.
func NewRegistry(scope *CapturedEnv) *Registry {
	return &Registry{scope: scope, entries: make(map[string]entry)}
}

// Mangle probes for a name derived from hint that collides with neither an
// already-registered entry nor any name bound in the captured scope's
// locals or globals (spec.md §4.2: "probing the union of parent globals and
// locals with an incrementing index until a fresh name is found (no
// collision possible)").
func (r *Registry) Mangle(hint string) string {
	for {
		name := fmt.Sprintf("%s__%d", hint, r.next)
		r.next++

		if _, taken := r.entries[name]; taken {
			continue
		}

		if r.scope != nil {
			if _, isLocal := r.scope.Locals[name]; isLocal {
				continue
			}

			if _, isGlobal := r.scope.Globals[name]; isGlobal {
				continue
			}
		}

		return name
	}
}

// RegisterFunc installs fn under a freshly mangled name derived from hint
// and returns that name, the callback reference a scheduling script splices
// into the host AST at the unquote site.
func (r *Registry) RegisterFunc(hint string, fn UnquoteFunc) string {
	name := r.Mangle(hint)
	r.entries[name] = entry{fn: fn}

	return name
}

// RegisterQuote installs a QuoteBlock under a freshly mangled name derived
// from hint. QuoteReplacer calls this for every quote construct it finds.
func (r *Registry) RegisterQuote(hint string, qb *QuoteBlock) string {
	name := r.Mangle(hint)
	r.entries[name] = entry{quote: qb}

	return name
}

// lookup resolves a mangled name back to its entry.
func (r *Registry) lookup(name string) (entry, bool) {
	e, ok := r.entries[name]
	return e, ok
}

// QuoteReplacer walks a host-AST fragment rewriting quote constructs into
// `(unquote MANGLED-NAME)` references, registering each one in a Registry
// (spec.md §4.2: "A QuoteReplacer walks the host AST rewriting quote
// constructs into calls to uniquely-mangled callback names"). It recognises
// two leading keywords: `quote-expr` for `quote(expr)` and `quote-block`
// for `with quote:` bodies.
type QuoteReplacer struct {
	reg *Registry
}

// NewQuoteReplacer constructs a QuoteReplacer registering into reg.
func NewQuoteReplacer(reg *Registry) *QuoteReplacer {
	return &QuoteReplacer{reg: reg}
}

// Replace returns a copy of node with every quote construct rewritten into
// an unquote-callback reference, recursing into every list position so a
// quote block arbitrarily deep inside other host constructs is still found.
func (q *QuoteReplacer) Replace(node sx.Node) sx.Node {
	l, ok := node.(*sx.List)
	if !ok {
		return node
	}

	if head, ok := l.Head(); ok && (head == "quote-expr" || head == "quote-block") {
		kind := KindExpr
		if head == "quote-block" {
			kind = KindStmt
		}

		name := q.reg.RegisterQuote("quote", &QuoteBlock{Fragment: node, Kind: kind})

		return sx.NewList(sx.Ident("unquote"), sx.Ident(name))
	}

	out := make([]sx.Node, len(l.Elements))
	for i, e := range l.Elements {
		out[i] = q.Replace(e)
	}

	return sx.NewList(out...)
}

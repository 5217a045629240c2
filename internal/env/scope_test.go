package env

import (
	"testing"

	"github.com/exo-lang/exo/internal/sym"
)

func TestScopeDisciplineEmptyAfterParse(t *testing.T) {
	var s Scope

	s.WithScope(func() {
		s.Declare("i", VarBinding{Sym: sym.New("i")})

		s.WithScope(func() {
			s.Declare("j", VarBinding{Sym: sym.New("j")})

			if _, ok := s.Lookup("i"); !ok {
				t.Fatalf("expected outer binding visible from nested scope")
			}
		})

		if _, ok := s.Lookup("j"); ok {
			t.Fatalf("expected inner binding to vanish after Pop")
		}
	})

	if s.Depth() != 0 {
		t.Fatalf("expected scope chain empty after parsing, got depth %d", s.Depth())
	}
}

func TestScopeShadowing(t *testing.T) {
	var s Scope

	s.Push()
	defer s.Pop()

	outer := sym.New("j")
	s.Declare("j", VarBinding{Sym: outer})

	s.Push()

	inner := sym.New("j")
	s.Declare("j", VarBinding{Sym: inner})

	got, _ := s.Lookup("j")
	if got.(VarBinding).Sym != inner {
		t.Fatalf("expected shadowed lookup to find innermost binding")
	}

	s.Pop()

	got, _ = s.Lookup("j")
	if got.(VarBinding).Sym != outer {
		t.Fatalf("expected lookup after Pop to find outer binding again")
	}
}

func TestPopWithoutPushPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic popping an empty scope")
		}
	}()

	var s Scope

	s.Pop()
}

func TestEnvResolutionOrder(t *testing.T) {
	locals := map[string]Binding{"n": LiteralInt{Value: 42}}
	e := NewEnv(locals)

	// Chain shadows locals.
	e.Chain.Push()
	defer e.Chain.Pop()

	chainSym := sym.New("n")
	e.Chain.Declare("n", VarBinding{Sym: chainSym})

	got, ok := e.Resolve("n")
	if !ok {
		t.Fatalf("expected resolution to succeed")
	}

	if v, ok := got.(VarBinding); !ok || v.Sym != chainSym {
		t.Fatalf("expected chain binding to win over locals, got %#v", got)
	}

	// Builtins resolve through globals.
	if _, ok := e.Resolve("relu"); !ok {
		t.Fatalf("expected relu to be seeded as a builtin")
	}
}

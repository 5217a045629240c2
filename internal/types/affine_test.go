package types

import (
	"testing"

	"github.com/exo-lang/exo/internal/sym"
)

func TestSubstituteSplitArithmetic(t *testing.T) {
	sym.Reset()

	v := sym.New("v")
	hi := sym.New("vh")
	lo := sym.New("vl")

	// 4*hi + lo
	replacement := &AAdd{
		Lhs: &AScale{Coeff: 4, Expr: &AVar{Name: hi}},
		Rhs: &AVar{Name: lo},
	}

	original := &AVar{Name: v}

	got := Substitute(original, v, replacement)

	want := "((4*vh~2)+vl~3)"
	if got.String() != want {
		t.Fatalf("got %s, want %s", got.String(), want)
	}
}

func TestSubstituteLeavesOtherSymbolsAlone(t *testing.T) {
	sym.Reset()

	v := sym.New("v")
	other := sym.New("w")

	expr := &AAdd{Lhs: &AVar{Name: v}, Rhs: &AVar{Name: other}}

	got := Substitute(expr, v, &AConst{Value: 7})

	add, ok := got.(*AAdd)
	if !ok {
		t.Fatalf("expected *AAdd, got %T", got)
	}

	if c, ok := add.Lhs.(*AConst); !ok || c.Value != 7 {
		t.Fatalf("expected substituted lhs to be AConst(7), got %v", add.Lhs)
	}

	if v2, ok := add.Rhs.(*AVar); !ok || v2.Name != other {
		t.Fatalf("expected rhs untouched, got %v", add.Rhs)
	}
}

func TestEvalCeilDiv(t *testing.T) {
	sym.Reset()

	n := sym.New("N")
	env := map[sym.Symbol]int64{n: 10}

	got := Eval(&AScaleDiv{Expr: &AVar{Name: n}, Quotient: 4}, env)
	if got != 3 {
		t.Fatalf("ceil(10/4) = 3, got %d", got)
	}

	env[n] = 8

	got = Eval(&AScaleDiv{Expr: &AVar{Name: n}, Quotient: 4}, env)
	if got != 2 {
		t.Fatalf("ceil(8/4) = 2, got %d", got)
	}
}

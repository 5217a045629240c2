package loopir

import (
	"fmt"
	"strings"

	"github.com/exo-lang/exo/internal/types"
)

// String renders a procedure in a debug s-expression form.
func (p *Proc) String() string {
	var b strings.Builder

	fmt.Fprintf(&b, "(proc %s (", p.Name)

	for i, a := range p.Args {
		if i != 0 {
			b.WriteString(" ")
		}

		fmt.Fprintf(&b, "%s:%s", a.Name, a.Type)
	}

	b.WriteString(") ")
	b.WriteString(stmtString(p.Body))
	b.WriteString(")")

	return b.String()
}

func stmtString(s Stmt) string {
	switch n := s.(type) {
	case *Seq:
		return fmt.Sprintf("(seq %s %s)", stmtString(n.S0), stmtString(n.S1))
	case *If:
		return fmt.Sprintf("(if %s %s)", predString(n.Cond), stmtString(n.Body))
	case *ForAll:
		return fmt.Sprintf("(forall %s %s %s)", n.Iter, n.Hi, stmtString(n.Body))
	case *Alloc:
		return fmt.Sprintf("(alloc %s %s)", n.Name, n.Type)
	case *Assign:
		return fmt.Sprintf("(assign %s %s %s)", n.Name, idxString(n.Idx), exprString(n.Rhs))
	case *Reduce:
		return fmt.Sprintf("(reduce %s %s %s)", n.Name, idxString(n.Idx), exprString(n.Rhs))
	case *Pass:
		return "(pass)"
	case *WriteConfig:
		return fmt.Sprintf("(write-config %s.%s %s)", n.Cfg, n.Field, exprString(n.Value))
	case *Call:
		parts := make([]string, len(n.Args))
		for i, a := range n.Args {
			parts[i] = exprString(a)
		}

		return fmt.Sprintf("(call %s %s)", n.Callee.Name, strings.Join(parts, " "))
	default:
		return fmt.Sprintf("<unknown stmt %T>", s)
	}
}

func idxString(idx []types.Affine) string {
	parts := make([]string, len(idx))
	for i, e := range idx {
		parts[i] = e.String()
	}

	return "[" + strings.Join(parts, ",") + "]"
}

// ExprString renders an expression in the same debug s-expression form
// Proc.String uses, exported for callers outside the package (internal/
// codegen's instruction-argument catalogue) that need to render a single
// Expr without printing a whole procedure around it.
func ExprString(e Expr) string {
	return exprString(e)
}

func exprString(e Expr) string {
	switch n := e.(type) {
	case *Read:
		parts := make([]string, len(n.Idx))
		for i, a := range n.Idx {
			parts[i] = a.String()
		}

		return fmt.Sprintf("%s[%s]", n.Name, strings.Join(parts, ","))
	case *Const:
		if n.IsInt {
			return fmt.Sprintf("%d", int64(n.Value))
		}

		return fmt.Sprintf("%g", n.Value)
	case *BinOp:
		return fmt.Sprintf("(%s %s %s)", n.Op, exprString(n.Lhs), exprString(n.Rhs))
	case *Select:
		return fmt.Sprintf("(select %s %s)", predString(n.Cond), exprString(n.Body))
	case *ReadConfig:
		return fmt.Sprintf("%s.%s", n.Cfg, n.Field)
	default:
		return fmt.Sprintf("<unknown expr %T>", e)
	}
}

func predString(p Pred) string {
	switch n := p.(type) {
	case *Cmp:
		return fmt.Sprintf("(%s %s %s)", n.Op, n.Lhs, n.Rhs)
	case *And:
		return fmt.Sprintf("(and %s %s)", predString(n.Lhs), predString(n.Rhs))
	case *Or:
		return fmt.Sprintf("(or %s %s)", predString(n.Lhs), predString(n.Rhs))
	default:
		return fmt.Sprintf("<unknown pred %T>", p)
	}
}

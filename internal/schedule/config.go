package schedule

import (
	"github.com/exo-lang/exo/internal/loopir"
	"github.com/exo-lang/exo/internal/source"
	"github.com/exo-lang/exo/internal/sym"
	"github.com/exo-lang/exo/internal/types"

	log "github.com/sirupsen/logrus"
)

// BindConfig implements `bind_config(cfg, field, name)` (spec.md §4.6,
// SUPPLEMENTED FEATURES): the ReadConfigs of cfg.field in the first
// statement (in body order) that reads it are replaced by a Read of a
// freshly-allocated scalar, and an Alloc for that scalar plus an Assign
// copying cfg.field into it are inserted immediately before that statement.
// Later statements that read cfg.field keep their ReadConfig.
func BindConfig(proc *loopir.Proc, cfg sym.Symbol, field, hint string) (*loopir.Proc, error) {
	name := sym.New(hint)

	newBody, bound, err := bindConfigStmt(proc.Body, cfg, field, name)
	if err != nil {
		return nil, err
	}

	if !bound {
		return nil, source.NewSchedulingError(proc.Src, "bind_config: %s.%s is never read in procedure body", cfg, field)
	}

	log.Debugf("bind_config: %s.%s -> %s", cfg, field, name)

	return withBody(proc, newBody, "bind_config", []string{cfg.String(), field, name.String()}), nil
}

// bindConfigStmt rewrites s, returning whether a binding was (or already
// had been) inserted along the way so the caller only inserts the
// Alloc+Assign preamble once, at the first statement that actually needs
// cfg.field's value.
func bindConfigStmt(s loopir.Stmt, cfg sym.Symbol, field string, name sym.Symbol) (loopir.Stmt, bool, error) {
	switch n := s.(type) {
	case *loopir.Seq:
		s0, bound, err := bindConfigStmt(n.S0, cfg, field, name)
		if err != nil {
			return nil, false, err
		}

		s1 := n.S1
		if !bound {
			var err error

			s1, bound, err = bindConfigStmt(n.S1, cfg, field, name)
			if err != nil {
				return nil, false, err
			}
		}

		return loopir.NewSeq(s0, s1, n.Span()), bound, nil
	case *loopir.If:
		body, bound, err := bindConfigStmt(n.Body, cfg, field, name)
		if err != nil {
			return nil, false, err
		}

		return loopir.NewIf(n.Cond, body, n.Span()), bound, nil
	case *loopir.ForAll:
		body, bound, err := bindConfigStmt(n.Body, cfg, field, name)
		if err != nil {
			return nil, false, err
		}

		return loopir.NewForAll(n.Iter, n.Hi, body, n.Span()), bound, nil
	case *loopir.Assign:
		rhs, used := bindConfigExpr(n.Rhs, cfg, field, name)
		newStmt := loopir.Stmt(loopir.NewAssign(n.Name, n.Idx, rhs, n.Span()))

		return withConfigPreamble(newStmt, used, cfg, field, name, n.Span())
	case *loopir.Reduce:
		rhs, used := bindConfigExpr(n.Rhs, cfg, field, name)
		newStmt := loopir.Stmt(loopir.NewReduce(n.Name, n.Idx, rhs, n.Span()))

		return withConfigPreamble(newStmt, used, cfg, field, name, n.Span())
	case *loopir.WriteConfig:
		value, used := bindConfigExpr(n.Value, cfg, field, name)
		newStmt := loopir.Stmt(loopir.NewWriteConfig(n.Cfg, n.Field, value, n.Span()))

		return withConfigPreamble(newStmt, used, cfg, field, name, n.Span())
	default:
		return s, false, nil
	}
}

func withConfigPreamble(stmt loopir.Stmt, used bool, cfg sym.Symbol, field string, name sym.Symbol, src source.Span) (loopir.Stmt, bool, error) {
	if !used {
		return stmt, false, nil
	}

	alloc := loopir.NewAlloc(name, types.NewScalar(types.Num), "", src)
	assign := loopir.NewAssign(name, nil, &loopir.ReadConfig{Cfg: cfg, Field: field}, src)

	return loopir.NewSeq(alloc, loopir.NewSeq(assign, stmt, src), src), true, nil
}

func bindConfigExpr(e loopir.Expr, cfg sym.Symbol, field string, name sym.Symbol) (loopir.Expr, bool) {
	switch n := e.(type) {
	case *loopir.ReadConfig:
		if n.Cfg == cfg && n.Field == field {
			return &loopir.Read{Name: name}, true
		}

		return n, false
	case *loopir.BinOp:
		lhs, lu := bindConfigExpr(n.Lhs, cfg, field, name)
		rhs, ru := bindConfigExpr(n.Rhs, cfg, field, name)

		return &loopir.BinOp{Op: n.Op, Lhs: lhs, Rhs: rhs}, lu || ru
	case *loopir.Select:
		body, used := bindConfigExpr(n.Body, cfg, field, name)
		return &loopir.Select{Cond: n.Cond, Body: body}, used
	default:
		return e, false
	}
}

// WriteConfigSched implements `write_config(cfg, field, value)` (spec.md
// §4.6): appends a WriteConfig of value to cfg.field as a new final
// statement of proc's body. It does not search the body, and existing
// writes to cfg.field are left as they are. It is exposed here, rather than
// as a bare loopir.NewWriteConfig call in exo.go, so every scheduling
// primitive shares the same History-recording discipline.
func WriteConfigSched(proc *loopir.Proc, cfg sym.Symbol, field string, value loopir.Expr) (*loopir.Proc, error) {
	write := loopir.NewWriteConfig(cfg, field, value, proc.Src)
	newBody := loopir.NewSeq(proc.Body, write, proc.Src)

	return withBody(proc, newBody, "write_config", []string{cfg.String(), field}), nil
}

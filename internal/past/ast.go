// Package past is the pattern IR (spec.md §3 "PAST"): a structural mirror of
// LoopIR where leaves carry textual names instead of resolved symbols, and
// every category admits a hole. A pattern matches an IR subtree when
// corresponding non-hole positions agree structurally and identifier strings
// resolve consistently (the same pattern name used twice must bind to the
// same underlying symbol).
//
// Modelled on the teacher's tagged-variant IR style (pkg/corset/ast.go)
// generalized with hole variants, the way spec.md §8's "typed walker"
// redesign calls for in place of the original's string-keyed ast.py search.
package past

// Affine is the pattern mirror of types.Affine.
type Affine interface {
	isPAffine()
}

// AHole matches any affine expression, binding nothing.
type AHole struct{}

func (AHole) isPAffine() {}

// AName matches an AVar/ASize whose symbol's printable name equals Name.
// The parser turns "_" into AHole, never into an AName.
type AName struct {
	Name string
}

func (AName) isPAffine() {}

// AConst matches an exact integer constant.
type AConst struct {
	Value int64
}

func (AConst) isPAffine() {}

// AScale matches k*E.
type AScale struct {
	Coeff int64
	Expr  Affine
}

func (AScale) isPAffine() {}

// AScaleDiv matches ceildiv(E, k).
type AScaleDiv struct {
	Expr     Affine
	Quotient int64
}

func (AScaleDiv) isPAffine() {}

// AAdd matches Lhs+Rhs.
type AAdd struct {
	Lhs, Rhs Affine
}

func (AAdd) isPAffine() {}

// ASub matches Lhs-Rhs.
type ASub struct {
	Lhs, Rhs Affine
}

func (ASub) isPAffine() {}

// Expr is the pattern mirror of loopir.Expr.
type Expr interface {
	isPExpr()
}

// EHole matches any value expression.
type EHole struct{}

func (EHole) isPExpr() {}

// ERead matches a Read whose buffer's printable name is Name, with Idx
// patterns matched positionally against the read's index list.
type ERead struct {
	Name string
	Idx  []Affine
}

func (ERead) isPExpr() {}

// EConst matches an exact numeric literal.
type EConst struct {
	Value float64
	IsInt bool
}

func (EConst) isPExpr() {}

// EBinOp matches a binary operation.
type EBinOp struct {
	Op       string
	Lhs, Rhs Expr
}

func (EBinOp) isPExpr() {}

// EStride matches `stride(buf, k)`.
type EStride struct {
	Buf string
	Dim int64
}

func (EStride) isPExpr() {}

// ESelect matches a masked Select.
type ESelect struct {
	Cond Pred
	Body Expr
}

func (ESelect) isPExpr() {}

// Pred is the pattern mirror of loopir.Pred.
type Pred interface {
	isPPred()
}

// PHole matches any predicate.
type PHole struct{}

func (PHole) isPPred() {}

// PCmp matches a comparison.
type PCmp struct {
	Op       string
	Lhs, Rhs Affine
}

func (PCmp) isPPred() {}

// PAnd matches conjunction.
type PAnd struct {
	Lhs, Rhs Pred
}

func (PAnd) isPPred() {}

// POr matches disjunction.
type POr struct {
	Lhs, Rhs Pred
}

func (POr) isPPred() {}

// Stmt is the pattern mirror of loopir.Stmt.
type Stmt interface {
	isPStmt()
}

// SHole is a bare `_` statement: matches exactly one statement, of any
// shape, binding nothing.
type SHole struct{}

func (SHole) isPStmt() {}

// SAssign matches an Assign (IsReduce=false) or Reduce (IsReduce=true).
type SAssign struct {
	Name     string
	Idx      []Affine
	Rhs      Expr
	IsReduce bool
}

func (SAssign) isPStmt() {}

// SAlloc matches an Alloc naming Name.
type SAlloc struct {
	Name string
}

func (SAlloc) isPStmt() {}

// SPass matches a Pass.
type SPass struct{}

func (SPass) isPStmt() {}

// SIf matches an If whose condition and single-statement body match.
type SIf struct {
	Cond Pred
	Body Stmt
}

func (SIf) isPStmt() {}

// SForAll matches a ForAll whose iterator's printable name is Iter.
type SForAll struct {
	Iter string
	Hi   Affine
	Body Stmt
}

func (SForAll) isPStmt() {}

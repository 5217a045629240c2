// Package types holds Exo's type grammar (primitive numeric/control-plane
// types and the compound tensor type) and affine index/shape expressions.
//
// Modelled on the teacher's tagged-variant type representation
// (pkg/corset/type.go, pkg/corset/ast/type.go): a closed interface
// implemented by a fixed set of concrete structs, dispatched with a type
// switch rather than runtime reflection.
package types

import "fmt"

// Type is the closed set of Exo surface/IR types.
type Type interface {
	isType()
	String() string
}

// Prim is a primitive scalar kind.
type Prim int

// Primitive kinds.
const (
	Num Prim = iota
	F16
	F32
	F64
	I8
	I32
	U8
	U16
	Size
	Index
	Bool
	Stride
)

func (p Prim) String() string {
	switch p {
	case Num:
		return "num"
	case F16:
		return "f16"
	case F32:
		return "f32"
	case F64:
		return "f64"
	case I8:
		return "i8"
	case I32:
		return "i32"
	case U8:
		return "u8"
	case U16:
		return "u16"
	case Size:
		return "size"
	case Index:
		return "index"
	case Bool:
		return "bool"
	case Stride:
		return "stride"
	default:
		return fmt.Sprintf("prim(%d)", int(p))
	}
}

// IsNumeric reports whether values of this primitive kind participate in
// arithmetic, as opposed to control-plane-only kinds like Bool.
func (p Prim) IsNumeric() bool {
	switch p {
	case Size, Index, Bool, Stride:
		return false
	default:
		return true
	}
}

// Scalar is a primitive scalar type.
type Scalar struct {
	Kind Prim
}

func (*Scalar) isType() {}

// String implements Type.
func (s *Scalar) String() string { return s.Kind.String() }

// NewScalar constructs a Scalar type of the given primitive kind.
func NewScalar(kind Prim) *Scalar { return &Scalar{Kind: kind} }

// Tensor is the compound fixed-shape tensor type: an ordered sequence of
// affine dimension expressions over an element type, optionally a "window"
// (a slice/projection view rather than an owning allocation).
type Tensor struct {
	Dims     []Affine
	IsWindow bool
	Elem     *Scalar
}

func (*Tensor) isType() {}

// String implements Type.
func (t *Tensor) String() string {
	s := "tensor("
	for i, d := range t.Dims {
		if i != 0 {
			s += ","
		}
		s += d.String()
	}

	s += fmt.Sprintf(";window=%t;%s)", t.IsWindow, t.Elem)

	return s
}

// NewTensor constructs a Tensor type.
func NewTensor(dims []Affine, isWindow bool, elem *Scalar) *Tensor {
	return &Tensor{Dims: dims, IsWindow: isWindow, Elem: elem}
}

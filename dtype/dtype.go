// Package dtype models the primitive scalar kinds a mmappet column can hold.
package dtype

import (
	"fmt"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
)

// DType identifies one of the supported fixed-width scalar kinds.
type DType uint8

const (
	UInt8 DType = iota
	Int8
	UInt16
	Int16
	UInt32
	Int32
	UInt64
	Int64
	Float32
	Float64
	Bool
)

// Kinds lists every supported DType in declaration order.
var Kinds = []DType{
	UInt8, Int8, UInt16, Int16, UInt32, Int32,
	UInt64, Int64, Float32, Float64, Bool,
}

// UnknownDTypeError reports a schema type token that matches no kind.
type UnknownDTypeError struct {
	Token string
}

func (e *UnknownDTypeError) Error() string {
	return fmt.Sprintf("unknown dtype: %q", e.Token)
}

// Parse resolves a schema type token to its DType. Matching is
// case-insensitive and accepts the canonical names, the short aliases
// (u8, i8, ... f64), and size_t, double, boolean.
func Parse(token string) (DType, error) {
	switch strings.ToLower(strings.TrimSpace(token)) {
	case "uint8", "u8":
		return UInt8, nil
	case "int8", "i8":
		return Int8, nil
	case "uint16", "u16":
		return UInt16, nil
	case "int16", "i16":
		return Int16, nil
	case "uint32", "u32":
		return UInt32, nil
	case "int32", "i32":
		return Int32, nil
	case "uint64", "u64", "size_t":
		return UInt64, nil
	case "int64", "i64":
		return Int64, nil
	case "float32", "f32":
		return Float32, nil
	case "float64", "f64", "double":
		return Float64, nil
	case "bool", "boolean":
		return Bool, nil
	default:
		return 0, &UnknownDTypeError{Token: token}
	}
}

// Size returns the fixed width of one element in bytes. Bool is stored
// as a single byte holding 0 or 1.
func (d DType) Size() int {
	switch d {
	case UInt8, Int8, Bool:
		return 1
	case UInt16, Int16:
		return 2
	case UInt32, Int32, Float32:
		return 4
	default:
		return 8
	}
}

// String returns the canonical lowercase name. It round-trips through
// Parse for every kind.
func (d DType) String() string {
	switch d {
	case UInt8:
		return "uint8"
	case Int8:
		return "int8"
	case UInt16:
		return "uint16"
	case Int16:
		return "int16"
	case UInt32:
		return "uint32"
	case Int32:
		return "int32"
	case UInt64:
		return "uint64"
	case Int64:
		return "int64"
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	case Bool:
		return "bool"
	default:
		return fmt.Sprintf("dtype(%d)", uint8(d))
	}
}

// ArrowType maps the kind to the equivalent Arrow primitive type. Bool
// maps to uint8 because column files store one byte per value rather
// than Arrow's bit-packed booleans.
func (d DType) ArrowType() arrow.DataType {
	switch d {
	case UInt8, Bool:
		return arrow.PrimitiveTypes.Uint8
	case Int8:
		return arrow.PrimitiveTypes.Int8
	case UInt16:
		return arrow.PrimitiveTypes.Uint16
	case Int16:
		return arrow.PrimitiveTypes.Int16
	case UInt32:
		return arrow.PrimitiveTypes.Uint32
	case Int32:
		return arrow.PrimitiveTypes.Int32
	case UInt64:
		return arrow.PrimitiveTypes.Uint64
	case Int64:
		return arrow.PrimitiveTypes.Int64
	case Float32:
		return arrow.PrimitiveTypes.Float32
	default:
		return arrow.PrimitiveTypes.Float64
	}
}

// Scalar is the set of Go types a column can be viewed as. Bool columns
// are viewed as uint8 (one byte per value on disk).
type Scalar interface {
	uint8 | int8 | uint16 | int16 | uint32 | int32 |
		uint64 | int64 | float32 | float64
}

// Of returns the DType corresponding to the Go scalar type T.
func Of[T Scalar]() DType {
	var zero T
	switch any(zero).(type) {
	case uint8:
		return UInt8
	case int8:
		return Int8
	case uint16:
		return UInt16
	case int16:
		return Int16
	case uint32:
		return UInt32
	case int32:
		return Int32
	case uint64:
		return UInt64
	case int64:
		return Int64
	case float32:
		return Float32
	default:
		return Float64
	}
}

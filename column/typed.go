package column

import (
	"fmt"
	"strconv"

	"github.com/TFMV/mmappet/dtype"
)

// TypedArray is a dtype-tagged view over a column's mapped bytes, the
// runtime-dispatch counterpart to Slice. Callers switch on DType and
// call the matching kind accessor; the widening helpers below serve
// fully generic consumers such as the CLI.
type TypedArray struct {
	dt   dtype.DType
	data []byte
}

// DType returns the tag.
func (a TypedArray) DType() dtype.DType {
	return a.dt
}

// Len returns the element count.
func (a TypedArray) Len() int {
	return len(a.data) / a.dt.Size()
}

func check(a TypedArray, want dtype.DType) {
	if a.dt != want {
		panic(fmt.Sprintf("typed array is %s, not %s", a.dt, want))
	}
}

// Uint8s returns the view for a uint8 column. It panics when the tag
// disagrees; switch on DType first.
func (a TypedArray) Uint8s() []uint8 {
	check(a, dtype.UInt8)
	return castSlice[uint8](a.data)
}

func (a TypedArray) Int8s() []int8 {
	check(a, dtype.Int8)
	return castSlice[int8](a.data)
}

func (a TypedArray) Uint16s() []uint16 {
	check(a, dtype.UInt16)
	return castSlice[uint16](a.data)
}

func (a TypedArray) Int16s() []int16 {
	check(a, dtype.Int16)
	return castSlice[int16](a.data)
}

func (a TypedArray) Uint32s() []uint32 {
	check(a, dtype.UInt32)
	return castSlice[uint32](a.data)
}

func (a TypedArray) Int32s() []int32 {
	check(a, dtype.Int32)
	return castSlice[int32](a.data)
}

func (a TypedArray) Uint64s() []uint64 {
	check(a, dtype.UInt64)
	return castSlice[uint64](a.data)
}

func (a TypedArray) Int64s() []int64 {
	check(a, dtype.Int64)
	return castSlice[int64](a.data)
}

func (a TypedArray) Float32s() []float32 {
	check(a, dtype.Float32)
	return castSlice[float32](a.data)
}

func (a TypedArray) Float64s() []float64 {
	check(a, dtype.Float64)
	return castSlice[float64](a.data)
}

// Bools returns the view for a bool column, one byte per value holding
// 0 or 1.
func (a TypedArray) Bools() []uint8 {
	check(a, dtype.Bool)
	return castSlice[uint8](a.data)
}

// Float64At reads element i widened to float64, regardless of kind.
// Bool values widen to 0 or 1.
func (a TypedArray) Float64At(i int) float64 {
	switch a.dt {
	case dtype.UInt8:
		return float64(a.Uint8s()[i])
	case dtype.Int8:
		return float64(a.Int8s()[i])
	case dtype.UInt16:
		return float64(a.Uint16s()[i])
	case dtype.Int16:
		return float64(a.Int16s()[i])
	case dtype.UInt32:
		return float64(a.Uint32s()[i])
	case dtype.Int32:
		return float64(a.Int32s()[i])
	case dtype.UInt64:
		return float64(a.Uint64s()[i])
	case dtype.Int64:
		return float64(a.Int64s()[i])
	case dtype.Float32:
		return float64(a.Float32s()[i])
	case dtype.Float64:
		return a.Float64s()[i]
	default:
		return float64(a.Bools()[i])
	}
}

// FormatAt renders element i for display. Integers print in decimal,
// floats with six fractional digits, bools as true/false.
func (a TypedArray) FormatAt(i int) string {
	switch a.dt {
	case dtype.UInt8, dtype.UInt16, dtype.UInt32, dtype.UInt64:
		return strconv.FormatUint(uint64IntAt(a, i), 10)
	case dtype.Int8, dtype.Int16, dtype.Int32, dtype.Int64:
		return strconv.FormatInt(int64IntAt(a, i), 10)
	case dtype.Float32:
		return strconv.FormatFloat(float64(a.Float32s()[i]), 'f', 6, 32)
	case dtype.Float64:
		return strconv.FormatFloat(a.Float64s()[i], 'f', 6, 64)
	default:
		return strconv.FormatBool(a.Bools()[i] != 0)
	}
}

func uint64IntAt(a TypedArray, i int) uint64 {
	switch a.dt {
	case dtype.UInt8:
		return uint64(a.Uint8s()[i])
	case dtype.UInt16:
		return uint64(a.Uint16s()[i])
	case dtype.UInt32:
		return uint64(a.Uint32s()[i])
	default:
		return a.Uint64s()[i]
	}
}

func int64IntAt(a TypedArray, i int) int64 {
	switch a.dt {
	case dtype.Int8:
		return int64(a.Int8s()[i])
	case dtype.Int16:
		return int64(a.Int16s()[i])
	case dtype.Int32:
		return int64(a.Int32s()[i])
	default:
		return a.Int64s()[i]
	}
}

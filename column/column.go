// Package column provides type-checked, zero-copy access to a single
// memory-mapped column file of a mmappet dataset.
package column

import (
	"fmt"
	"os"
	"unsafe"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/TFMV/mmappet/dtype"
)

// ---------------------------------------------------------------------
// Errors
// ---------------------------------------------------------------------

// TypeMismatchError reports a requested element type that disagrees
// with the column's declared dtype.
type TypeMismatchError struct {
	Requested dtype.DType
	Actual    dtype.DType
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("type mismatch: requested %s, column is %s", e.Requested, e.Actual)
}

// InvalidFileSizeError reports a column file whose byte length is not
// an exact multiple of its element width.
type InvalidFileSizeError struct {
	Path     string
	Size     int64
	ElemSize int
}

func (e *InvalidFileSizeError) Error() string {
	return fmt.Sprintf("invalid column file size: %s has %d bytes, expected multiple of %d", e.Path, e.Size, e.ElemSize)
}

// LengthMismatchError reports two disagreeing row counts. Against names
// where Expected came from (another column, or a caller's expectation).
type LengthMismatchError struct {
	Name     string
	Against  string
	Expected int
	Actual   int
}

func (e *LengthMismatchError) Error() string {
	return fmt.Sprintf("length mismatch: %s has %d rows, %s expects %d", e.Name, e.Actual, e.Against, e.Expected)
}

// ---------------------------------------------------------------------
// Column
// ---------------------------------------------------------------------

// Column is one memory-mapped binary column file plus its declared
// dtype and row count. The mapped region is read-only and exclusively
// owned; every accessor returns a view into it without copying.
// Invariant: len(data) == length * dt.Size().
type Column struct {
	data   []byte // nil for zero-length columns
	dt     dtype.DType
	length int
}

type openConfig struct {
	expectRows int
}

// Option configures Open.
type Option func(*openConfig)

// WithExpectedRows makes Open fail with LengthMismatchError when the
// file holds a different number of elements.
func WithExpectedRows(n int) Option {
	return func(c *openConfig) { c.expectRows = n }
}

// Open memory-maps the column file at path read-only. The file's byte
// length must be an exact multiple of the dtype's width; the row count
// is derived from it, never truncated. Zero-byte files are valid and
// yield a zero-length column with no mapping.
func Open(path string, dt dtype.DType, opts ...Option) (*Column, error) {
	cfg := openConfig{expectRows: -1}
	for _, opt := range opts {
		opt(&cfg)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return nil, err
	}

	size := st.Size()
	if size%int64(dt.Size()) != 0 {
		return nil, &InvalidFileSizeError{Path: path, Size: size, ElemSize: dt.Size()}
	}
	length := int(size / int64(dt.Size()))

	if cfg.expectRows >= 0 && length != cfg.expectRows {
		return nil, &LengthMismatchError{
			Name:     path,
			Against:  "caller",
			Expected: cfg.expectRows,
			Actual:   length,
		}
	}

	var data []byte
	if size > 0 {
		data, err = mapFile(f, int(size))
		if err != nil {
			return nil, fmt.Errorf("mmap %s: %w", path, err)
		}
	}

	return &Column{data: data, dt: dt, length: length}, nil
}

// DType returns the declared element type.
func (c *Column) DType() dtype.DType {
	return c.dt
}

// Len returns the row count.
func (c *Column) Len() int {
	return c.length
}

// Bytes returns the raw mapped region.
func (c *Column) Bytes() []byte {
	return c.data
}

// Typed returns a dtype-tagged view over the mapped bytes for callers
// that do not know the element type at compile time.
func (c *Column) Typed() TypedArray {
	return TypedArray{dt: c.dt, data: c.data}
}

// AsArrow wraps the mapped region in an Arrow array without copying.
// Bool columns surface as uint8 arrays (one byte per value on disk).
func (c *Column) AsArrow() arrow.Array {
	buf := memory.NewBufferBytes(c.data)
	data := array.NewData(c.dt.ArrowType(), c.length, []*memory.Buffer{nil, buf}, nil, 0, 0)
	defer data.Release()
	return array.MakeFromData(data)
}

// Close releases the mapping. Views obtained earlier must not be used
// afterward. Close is idempotent.
func (c *Column) Close() error {
	if c.data == nil {
		return nil
	}
	data := c.data
	c.data = nil
	c.length = 0
	return unmapFile(data)
}

// Slice reinterprets the mapped bytes as []T in place, no copy and no
// allocation. It fails with TypeMismatchError unless T's dtype equals
// the column's declared dtype; Bool columns are only reachable through
// Typed, matching their byte-per-value representation.
func Slice[T dtype.Scalar](c *Column) ([]T, error) {
	if want := dtype.Of[T](); want != c.dt {
		return nil, &TypeMismatchError{Requested: want, Actual: c.dt}
	}
	return castSlice[T](c.data), nil
}

// Array returns the column as an Arrow array under the same
// type-checking contract as Slice.
func Array[T dtype.Scalar](c *Column) (arrow.Array, error) {
	if want := dtype.Of[T](); want != c.dt {
		return nil, &TypeMismatchError{Requested: want, Actual: c.dt}
	}
	return c.AsArrow(), nil
}

// castSlice reinterprets b as []T. The mapping is page-aligned, so the
// element alignment requirement always holds.
func castSlice[T dtype.Scalar](b []byte) []T {
	if len(b) == 0 {
		return nil
	}
	n := len(b) / int(unsafe.Sizeof(*new(T)))
	return unsafe.Slice((*T)(unsafe.Pointer(&b[0])), n)
}

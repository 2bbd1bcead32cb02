package column

import (
	"os"
	"path/filepath"
	"testing"
	"unsafe"

	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TFMV/mmappet/dtype"
)

// writeColumn writes vals to path in native byte order, exactly as a
// producer would lay them out on disk.
func writeColumn[T dtype.Scalar](t *testing.T, path string, vals []T) {
	t.Helper()
	var raw []byte
	if len(vals) > 0 {
		size := len(vals) * int(unsafe.Sizeof(vals[0]))
		raw = unsafe.Slice((*byte)(unsafe.Pointer(&vals[0])), size)
	}
	require.NoError(t, os.WriteFile(path, raw, 0o644))
}

func TestOpenAndSlice(t *testing.T) {
	path := filepath.Join(t.TempDir(), "0.bin")
	writeColumn(t, path, []uint32{10, 20, 30})

	col, err := Open(path, dtype.UInt32)
	require.NoError(t, err)
	defer col.Close()

	assert.Equal(t, 3, col.Len())
	assert.Equal(t, dtype.UInt32, col.DType())
	assert.Equal(t, col.Len()*col.DType().Size(), len(col.Bytes()))

	vals, err := Slice[uint32](col)
	require.NoError(t, err)
	assert.Equal(t, []uint32{10, 20, 30}, vals)
}

func TestOpenInvalidFileSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "0.bin")
	require.NoError(t, os.WriteFile(path, make([]byte, 7), 0o644))

	// 7 bytes is not a multiple of 4; must fail, never truncate to 1 row.
	_, err := Open(path, dtype.UInt32)
	var sizeErr *InvalidFileSizeError
	require.ErrorAs(t, err, &sizeErr)
	assert.Equal(t, int64(7), sizeErr.Size)
	assert.Equal(t, 4, sizeErr.ElemSize)
}

func TestOpenMissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "absent.bin"), dtype.UInt32)
	assert.True(t, os.IsNotExist(err))
}

func TestOpenExpectedRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "0.bin")
	writeColumn(t, path, []uint32{1, 2, 3})

	col, err := Open(path, dtype.UInt32, WithExpectedRows(3))
	require.NoError(t, err)
	col.Close()

	_, err = Open(path, dtype.UInt32, WithExpectedRows(4))
	var lenErr *LengthMismatchError
	require.ErrorAs(t, err, &lenErr)
	assert.Equal(t, 4, lenErr.Expected)
	assert.Equal(t, 3, lenErr.Actual)
}

func TestSliceTypeMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "0.bin")
	writeColumn(t, path, []float32{1.5, 2.5})

	col, err := Open(path, dtype.Float32)
	require.NoError(t, err)
	defer col.Close()

	_, err = Slice[uint32](col)
	var tmErr *TypeMismatchError
	require.ErrorAs(t, err, &tmErr)
	assert.Equal(t, dtype.UInt32, tmErr.Requested)
	assert.Equal(t, dtype.Float32, tmErr.Actual)
}

func TestZeroCopyBitPatterns(t *testing.T) {
	dir := t.TempDir()

	t.Run("float64", func(t *testing.T) {
		path := filepath.Join(dir, "f64.bin")
		writeColumn(t, path, []float64{1.5, -2.25, 0})

		col, err := Open(path, dtype.Float64)
		require.NoError(t, err)
		defer col.Close()

		vals, err := Slice[float64](col)
		require.NoError(t, err)
		assert.Equal(t, []float64{1.5, -2.25, 0}, vals)

		// The mapped bytes are the slice's backing store.
		assert.Equal(t, unsafe.Pointer(&col.Bytes()[0]), unsafe.Pointer(&vals[0]))
	})

	t.Run("int16", func(t *testing.T) {
		path := filepath.Join(dir, "i16.bin")
		writeColumn(t, path, []int16{-1, 32767, -32768})

		col, err := Open(path, dtype.Int16)
		require.NoError(t, err)
		defer col.Close()

		vals, err := Slice[int16](col)
		require.NoError(t, err)
		assert.Equal(t, []int16{-1, 32767, -32768}, vals)
	})

	t.Run("bool", func(t *testing.T) {
		path := filepath.Join(dir, "bool.bin")
		require.NoError(t, os.WriteFile(path, []byte{1, 0, 1, 1}, 0o644))

		col, err := Open(path, dtype.Bool)
		require.NoError(t, err)
		defer col.Close()

		assert.Equal(t, []uint8{1, 0, 1, 1}, col.Typed().Bools())
		assert.Equal(t, "true", col.Typed().FormatAt(0))
		assert.Equal(t, "false", col.Typed().FormatAt(1))
	})
}

func TestEmptyColumn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "0.bin")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	col, err := Open(path, dtype.Float64)
	require.NoError(t, err)
	defer col.Close()

	assert.Equal(t, 0, col.Len())

	vals, err := Slice[float64](col)
	require.NoError(t, err)
	assert.Empty(t, vals)
	assert.Equal(t, 0, col.Typed().Len())
}

func TestTypedDispatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "0.bin")
	writeColumn(t, path, []int64{-5, 40})

	col, err := Open(path, dtype.Int64)
	require.NoError(t, err)
	defer col.Close()

	ta := col.Typed()
	assert.Equal(t, dtype.Int64, ta.DType())
	assert.Equal(t, 2, ta.Len())
	assert.Equal(t, []int64{-5, 40}, ta.Int64s())
	assert.Equal(t, -5.0, ta.Float64At(0))
	assert.Equal(t, "40", ta.FormatAt(1))

	assert.Panics(t, func() { ta.Uint32s() })
}

func TestArrowView(t *testing.T) {
	path := filepath.Join(t.TempDir(), "0.bin")
	writeColumn(t, path, []float32{1.5, 2.5, 3.5})

	col, err := Open(path, dtype.Float32)
	require.NoError(t, err)
	defer col.Close()

	arr, err := Array[float32](col)
	require.NoError(t, err)
	defer arr.Release()

	f32s, ok := arr.(*array.Float32)
	require.True(t, ok)
	assert.Equal(t, 3, f32s.Len())
	assert.Equal(t, float32(2.5), f32s.Value(1))

	_, err = Array[uint32](col)
	var tmErr *TypeMismatchError
	assert.ErrorAs(t, err, &tmErr)
}

func TestClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "0.bin")
	writeColumn(t, path, []uint32{1})

	col, err := Open(path, dtype.UInt32)
	require.NoError(t, err)

	require.NoError(t, col.Close())
	require.NoError(t, col.Close())
	assert.Equal(t, 0, col.Len())
}

package schema

import (
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TFMV/mmappet/dtype"
)

func TestParse(t *testing.T) {
	s, err := Parse("uint32 tof\nuint32 intensity\nfloat32 score\nfloat32 mz")
	require.NoError(t, err)

	assert.Equal(t, 4, s.Len())
	assert.Equal(t, []string{"tof", "intensity", "score", "mz"}, s.ColumnNames())

	idx, ok := s.IndexOf("tof")
	require.True(t, ok)
	tof, err := s.Get(idx)
	require.NoError(t, err)
	assert.Equal(t, 0, tof.Index)
	assert.Equal(t, dtype.UInt32, tof.DType)

	idx, ok = s.IndexOf("mz")
	require.True(t, ok)
	mz, err := s.Get(idx)
	require.NoError(t, err)
	assert.Equal(t, 3, mz.Index)
	assert.Equal(t, dtype.Float32, mz.DType)
}

func TestParseBlankLines(t *testing.T) {
	s, err := Parse("\nuint32 a\n\nfloat64 b\n")
	require.NoError(t, err)

	// Blank lines do not consume column indexes.
	assert.Equal(t, 2, s.Len())
	b, err := s.Get(1)
	require.NoError(t, err)
	assert.Equal(t, "b", b.Name)
}

func TestParseDuplicateName(t *testing.T) {
	_, err := Parse("uint32 col\nfloat32 col")
	var dupErr *DuplicateColumnNameError
	require.ErrorAs(t, err, &dupErr)
	assert.Equal(t, "col", dupErr.Name)
	assert.Equal(t, 0, dupErr.First)
	assert.Equal(t, 1, dupErr.Second)
}

func TestParseMalformedLine(t *testing.T) {
	_, err := Parse("uint32 a\ninvalid line format here")
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, 2, parseErr.Line)
	assert.Equal(t, "invalid line format here", parseErr.Content)
}

func TestParseUnknownDType(t *testing.T) {
	_, err := Parse("varchar name")
	var unknownErr *dtype.UnknownDTypeError
	require.ErrorAs(t, err, &unknownErr)
	assert.Equal(t, "varchar", unknownErr.Token)
}

func TestGetOutOfRange(t *testing.T) {
	s, err := Parse("uint32 a")
	require.NoError(t, err)

	_, err = s.Get(5)
	var nfErr *ColumnNotFoundError
	assert.ErrorAs(t, err, &nfErr)

	_, err = s.Get(-1)
	assert.ErrorAs(t, err, &nfErr)
}

func TestIndexOfMissing(t *testing.T) {
	s, err := Parse("uint32 a")
	require.NoError(t, err)

	_, ok := s.IndexOf("b")
	assert.False(t, ok)
}

func TestToArrow(t *testing.T) {
	s, err := Parse("uint32 tof\nfloat32 mz\nbool flagged")
	require.NoError(t, err)

	as := s.ToArrow()
	require.Equal(t, 3, len(as.Fields()))
	assert.Equal(t, "tof", as.Field(0).Name)
	assert.Equal(t, arrow.PrimitiveTypes.Uint32, as.Field(0).Type)
	assert.Equal(t, arrow.PrimitiveTypes.Float32, as.Field(1).Type)
	assert.Equal(t, arrow.PrimitiveTypes.Uint8, as.Field(2).Type)
}

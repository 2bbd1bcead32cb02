// Package stats computes summary statistics over mmappet columns. It
// is a downstream consumer of the typed views: values are read through
// TypedArray without copying the mapped bytes.
package stats

import (
	"fmt"

	roaring "github.com/RoaringBitmap/roaring"

	"github.com/TFMV/mmappet/column"
	"github.com/TFMV/mmappet/dtype"
)

// Summary holds min, max, and mean of a numeric column.
type Summary struct {
	Count int
	Min   float64
	Max   float64
	Mean  float64
}

// ErrNonNumeric reports a stats request against a bool column.
var ErrNonNumeric = fmt.Errorf("stats not available for non-numeric columns")

// Describe computes the summary over every row of col. Bool columns
// are rejected with ErrNonNumeric. A zero-length column yields a
// zero-valued summary.
func Describe(col *column.Column) (Summary, error) {
	if col.DType() == dtype.Bool {
		return Summary{}, ErrNonNumeric
	}

	ta := col.Typed()
	n := ta.Len()
	if n == 0 {
		return Summary{}, nil
	}

	s := Summary{Count: n}
	s.Min = ta.Float64At(0)
	s.Max = s.Min

	var sum float64
	for i := 0; i < n; i++ {
		v := ta.Float64At(i)
		if v < s.Min {
			s.Min = v
		}
		if v > s.Max {
			s.Max = v
		}
		sum += v
	}
	s.Mean = sum / float64(n)
	return s, nil
}

// DescribeRows computes the summary restricted to the rows selected by
// the bitmap, as produced by the index package. Out-of-range rows are
// an error.
func DescribeRows(col *column.Column, rows *roaring.Bitmap) (Summary, error) {
	if col.DType() == dtype.Bool {
		return Summary{}, ErrNonNumeric
	}

	ta := col.Typed()
	n := ta.Len()
	if rows.IsEmpty() {
		return Summary{}, nil
	}
	if int(rows.Maximum()) >= n {
		return Summary{}, fmt.Errorf("selection row %d out of range (%d rows)", rows.Maximum(), n)
	}

	s := Summary{Count: int(rows.GetCardinality())}
	first := true

	it := rows.Iterator()
	var sum float64
	for it.HasNext() {
		v := ta.Float64At(int(it.Next()))
		if first {
			s.Min = v
			s.Max = v
			first = false
		} else {
			if v < s.Min {
				s.Min = v
			}
			if v > s.Max {
				s.Max = v
			}
		}
		sum += v
	}
	s.Mean = sum / float64(s.Count)
	return s, nil
}

// Package dataset opens and validates a mmappet dataset directory and
// exposes its columns through type-checked, zero-copy views.
package dataset

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/TFMV/mmappet/column"
	"github.com/TFMV/mmappet/dtype"
	"github.com/TFMV/mmappet/schema"
)

// ---------------------------------------------------------------------
// Prometheus Metrics
// ---------------------------------------------------------------------

var (
	openLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name: "mmappet_open_latency_seconds",
		Help: "Dataset open latency distribution",
	})
	mappedBytes = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "mmappet_mapped_bytes_total",
		Help: "Total bytes memory-mapped by dataset opens",
	})
)

func init() {
	prometheus.MustRegister(openLatency, mappedBytes)
}

// ---------------------------------------------------------------------
// Errors
// ---------------------------------------------------------------------

// MissingSchemaError reports a dataset directory without schema.txt.
type MissingSchemaError struct {
	Dir string
}

func (e *MissingSchemaError) Error() string {
	return fmt.Sprintf("missing schema.txt in %s", e.Dir)
}

// MissingColumnFileError reports an absent column binary file.
type MissingColumnFileError struct {
	Index int
	Path  string
}

func (e *MissingColumnFileError) Error() string {
	return fmt.Sprintf("missing column file for column %d: %s", e.Index, e.Path)
}

// ---------------------------------------------------------------------
// Dataset
// ---------------------------------------------------------------------

// Dataset is an opened, validated collection of memory-mapped columns
// sharing one row count. It is immutable after Open; reads need no
// locking. Close releases every mapping.
type Dataset struct {
	path    string
	schema  *schema.Schema
	columns []*column.Column // schema order
	rows    int
}

type openConfig struct {
	logger *zap.Logger
}

// Option configures Open.
type Option func(*openConfig)

// WithLogger attaches a logger to the open sequence. The default is a
// nop logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *openConfig) { c.logger = logger }
}

// Open reads and parses schema.txt under dir, then memory-maps
// "{index}.bin" for every declared column in order. Every column must
// report the same row count; the first disagreement aborts the open
// before any remaining file is touched. Open is all-or-nothing: on any
// failure the partially mapped columns are released and no Dataset is
// returned.
func Open(dir string, opts ...Option) (*Dataset, error) {
	cfg := openConfig{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&cfg)
	}
	start := time.Now()

	raw, err := os.ReadFile(filepath.Join(dir, "schema.txt"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &MissingSchemaError{Dir: dir}
		}
		return nil, err
	}

	sch, err := schema.Parse(string(raw))
	if err != nil {
		return nil, err
	}

	columns := make([]*column.Column, 0, sch.Len())
	closeAll := func() {
		for _, c := range columns {
			c.Close()
		}
	}

	rows := 0
	var totalBytes int64
	for _, def := range sch.Columns() {
		colPath := filepath.Join(dir, fmt.Sprintf("%d.bin", def.Index))

		col, err := column.Open(colPath, def.DType)
		if err != nil {
			closeAll()
			if os.IsNotExist(err) {
				return nil, &MissingColumnFileError{Index: def.Index, Path: colPath}
			}
			return nil, err
		}

		if def.Index == 0 {
			rows = col.Len()
		} else if col.Len() != rows {
			first := sch.Columns()[0]
			actual := col.Len()
			col.Close()
			closeAll()
			return nil, &column.LengthMismatchError{
				Name:     def.Name,
				Against:  first.Name,
				Expected: rows,
				Actual:   actual,
			}
		}

		totalBytes += int64(len(col.Bytes()))
		columns = append(columns, col)
		cfg.logger.Debug("mapped column",
			zap.String("name", def.Name),
			zap.Stringer("dtype", def.DType),
			zap.Int("rows", col.Len()))
	}

	openLatency.Observe(time.Since(start).Seconds())
	mappedBytes.Add(float64(totalBytes))
	cfg.logger.Info("opened dataset",
		zap.String("path", dir),
		zap.Int("columns", sch.Len()),
		zap.Int("rows", rows),
		zap.Int64("mapped_bytes", totalBytes))

	return &Dataset{path: dir, schema: sch, columns: columns, rows: rows}, nil
}

// Len returns the shared row count, 0 when the dataset has no columns.
func (ds *Dataset) Len() int {
	return ds.rows
}

// NumColumns returns the number of columns.
func (ds *Dataset) NumColumns() int {
	return ds.schema.Len()
}

// Schema returns the parsed schema.
func (ds *Dataset) Schema() *schema.Schema {
	return ds.schema
}

// Path returns the dataset directory.
func (ds *Dataset) Path() string {
	return ds.path
}

// ColumnNames returns every column name in schema order.
func (ds *Dataset) ColumnNames() []string {
	return ds.schema.ColumnNames()
}

// Column returns the raw column for name, deferring type resolution to
// the caller via Typed or a later typed call.
func (ds *Dataset) Column(name string) (*column.Column, error) {
	idx, ok := ds.schema.IndexOf(name)
	if !ok {
		return nil, &schema.ColumnNotFoundError{Key: name}
	}
	return ds.columns[idx], nil
}

// Close unmaps every column. Views obtained earlier must not be used
// afterward.
func (ds *Dataset) Close() error {
	var firstErr error
	for _, c := range ds.columns {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Get resolves name and returns the column as a zero-copy []T. It
// fails with ColumnNotFoundError for unknown names and
// TypeMismatchError when T disagrees with the declared dtype.
func Get[T dtype.Scalar](ds *Dataset, name string) ([]T, error) {
	col, err := ds.Column(name)
	if err != nil {
		return nil, err
	}
	return column.Slice[T](col)
}

// GetArray is Get returning an Arrow array view over the same bytes.
func GetArray[T dtype.Scalar](ds *Dataset, name string) (arrow.Array, error) {
	col, err := ds.Column(name)
	if err != nil {
		return nil, err
	}
	return column.Array[T](col)
}

// Package schema parses the schema.txt column declarations of a
// mmappet dataset.
package schema

import (
	"fmt"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/TFMV/mmappet/dtype"
)

// ColumnDef is one parsed column declaration.
type ColumnDef struct {
	// Index is the 0-based position in the schema; column index i is
	// backed by the file "{i}.bin".
	Index int
	Name  string
	DType dtype.DType
}

// ParseError reports a schema line that is not "<dtype> <name>".
type ParseError struct {
	Line    int // 1-based
	Content string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("schema parse error at line %d: expected 'dtype name', got: %q", e.Line, e.Content)
}

// DuplicateColumnNameError reports two declarations sharing a name.
type DuplicateColumnNameError struct {
	Name   string
	First  int // column index of the earlier declaration
	Second int // column index of the later declaration
}

func (e *DuplicateColumnNameError) Error() string {
	return fmt.Sprintf("duplicate column name %q (columns %d and %d)", e.Name, e.First, e.Second)
}

// ColumnNotFoundError reports a failed name or index lookup.
type ColumnNotFoundError struct {
	Key string
}

func (e *ColumnNotFoundError) Error() string {
	return fmt.Sprintf("column not found: %s", e.Key)
}

// Schema is the ordered, named, typed column declaration list.
// It is immutable after Parse.
type Schema struct {
	columns []ColumnDef
	byName  map[string]int
}

// Parse builds a Schema from schema.txt content. Each nonblank line
// holds exactly two whitespace-separated tokens, dtype then column
// name. Blank lines are skipped and do not consume a column index.
func Parse(text string) (*Schema, error) {
	s := &Schema{byName: make(map[string]int)}

	for lineNum, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		parts := strings.Fields(line)
		if len(parts) != 2 {
			return nil, &ParseError{Line: lineNum + 1, Content: line}
		}

		dt, err := dtype.Parse(parts[0])
		if err != nil {
			return nil, err
		}
		name := parts[1]

		if first, dup := s.byName[name]; dup {
			return nil, &DuplicateColumnNameError{
				Name:   name,
				First:  first,
				Second: len(s.columns),
			}
		}

		idx := len(s.columns)
		s.byName[name] = idx
		s.columns = append(s.columns, ColumnDef{Index: idx, Name: name, DType: dt})
	}

	return s, nil
}

// Len returns the number of declared columns.
func (s *Schema) Len() int {
	return len(s.columns)
}

// Columns returns the declarations in schema order.
func (s *Schema) Columns() []ColumnDef {
	return s.columns
}

// ColumnNames returns every column name in schema order.
func (s *Schema) ColumnNames() []string {
	names := make([]string, len(s.columns))
	for i, c := range s.columns {
		names[i] = c.Name
	}
	return names
}

// IndexOf resolves a column name to its schema index.
func (s *Schema) IndexOf(name string) (int, bool) {
	idx, ok := s.byName[name]
	return idx, ok
}

// Get returns the declaration at the given index.
func (s *Schema) Get(index int) (ColumnDef, error) {
	if index < 0 || index >= len(s.columns) {
		return ColumnDef{}, &ColumnNotFoundError{Key: fmt.Sprintf("index %d", index)}
	}
	return s.columns[index], nil
}

// ToArrow derives the equivalent Arrow schema.
func (s *Schema) ToArrow() *arrow.Schema {
	fields := make([]arrow.Field, len(s.columns))
	for i, c := range s.columns {
		fields[i] = arrow.Field{Name: c.Name, Type: c.DType.ArrowType()}
	}
	return arrow.NewSchema(fields, nil)
}

package coltype

import (
	"database/sql"
	"fmt"

	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/schema"
)

// floatStrategy maps FLOAT/REAL columns onto parquet's 32-bit float physical
// type (spec §4.B "Floating point").
type floatStrategy struct {
	name     string
	nullable bool
}

func newFloatStrategy(name string, nullable bool) *floatStrategy {
	return &floatStrategy{name: name, nullable: nullable}
}

func (s *floatStrategy) ColumnName() string { return s.name }
func (s *floatStrategy) FetchWidth() int64  { return 4 }

func (s *floatStrategy) ScanDest() any { return new(sql.NullFloat64) }

func (s *floatStrategy) ScanValue(dest any) (any, error) {
	v := dest.(*sql.NullFloat64)
	if !v.Valid {
		return nil, nil
	}
	return float32(v.Float64), nil
}

func (s *floatStrategy) Node(fieldID int32) (schema.Node, error) {
	return schema.NewPrimitiveNodeLogical(s.name, repetitionOf(s.nullable), nil, parquet.Types.Float, 0, fieldID)
}

func (s *floatStrategy) WriteColumn(values []any, w file.ColumnChunkWriter) (int64, error) {
	cw, ok := w.(*file.FloatColumnChunkWriter)
	if !ok {
		return 0, fmt.Errorf("column %q: expected float column writer, got %T", s.name, w)
	}
	vals, defs := make([]float32, 0, len(values)), make([]int16, len(values))
	for i, v := range values {
		if v == nil {
			continue
		}
		defs[i] = 1
		vals = append(vals, v.(float32))
	}
	return cw.WriteBatch(vals, defs, nil)
}

// doubleStrategy maps DOUBLE/DOUBLE PRECISION columns onto parquet's 64-bit
// double physical type.
type doubleStrategy struct {
	name     string
	nullable bool
}

func newDoubleStrategy(name string, nullable bool) *doubleStrategy {
	return &doubleStrategy{name: name, nullable: nullable}
}

func (s *doubleStrategy) ColumnName() string { return s.name }
func (s *doubleStrategy) FetchWidth() int64  { return 8 }

func (s *doubleStrategy) ScanDest() any { return new(sql.NullFloat64) }

func (s *doubleStrategy) ScanValue(dest any) (any, error) {
	v := dest.(*sql.NullFloat64)
	if !v.Valid {
		return nil, nil
	}
	return v.Float64, nil
}

func (s *doubleStrategy) Node(fieldID int32) (schema.Node, error) {
	return schema.NewPrimitiveNodeLogical(s.name, repetitionOf(s.nullable), nil, parquet.Types.Double, 0, fieldID)
}

func (s *doubleStrategy) WriteColumn(values []any, w file.ColumnChunkWriter) (int64, error) {
	cw, ok := w.(*file.DoubleColumnChunkWriter)
	if !ok {
		return 0, fmt.Errorf("column %q: expected double column writer, got %T", s.name, w)
	}
	vals, defs := make([]float64, 0, len(values)), make([]int16, len(values))
	for i, v := range values {
		if v == nil {
			continue
		}
		defs[i] = 1
		vals = append(vals, v.(float64))
	}
	return cw.WriteBatch(vals, defs, nil)
}

package coltype

import (
	"database/sql"
	"fmt"

	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/schema"
)

// timeStrategy maps TIME-of-day columns onto parquet's TIME logical type at
// microsecond precision, stored as physical int64 microseconds since
// midnight (spec §4.B "Time").
type timeStrategy struct {
	name     string
	nullable bool
}

func newTimeStrategy(name string, nullable bool) *timeStrategy {
	return &timeStrategy{name: name, nullable: nullable}
}

func (s *timeStrategy) ColumnName() string { return s.name }
func (s *timeStrategy) FetchWidth() int64  { return 8 }

func (s *timeStrategy) ScanDest() any { return new(sql.NullTime) }

func (s *timeStrategy) ScanValue(dest any) (any, error) {
	v := dest.(*sql.NullTime)
	if !v.Valid {
		return nil, nil
	}
	t := v.Time.UTC()
	micros := int64(t.Hour())*3600e6 + int64(t.Minute())*60e6 + int64(t.Second())*1e6 + int64(t.Nanosecond())/1000
	return micros, nil
}

func (s *timeStrategy) Node(fieldID int32) (schema.Node, error) {
	logical := schema.NewTimeLogicalType(false, schema.TimeUnitMicros)
	return schema.NewPrimitiveNodeLogical(s.name, repetitionOf(s.nullable), logical, parquet.Types.Int64, 0, fieldID)
}

func (s *timeStrategy) WriteColumn(values []any, w file.ColumnChunkWriter) (int64, error) {
	cw, ok := w.(*file.Int64ColumnChunkWriter)
	if !ok {
		return 0, fmt.Errorf("column %q: expected int64 column writer, got %T", s.name, w)
	}
	vals, defs := make([]int64, 0, len(values)), make([]int16, len(values))
	for i, v := range values {
		if v == nil {
			continue
		}
		defs[i] = 1
		vals = append(vals, v.(int64))
	}
	return cw.WriteBatch(vals, defs, nil)
}

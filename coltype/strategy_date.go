package coltype

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/schema"
)

var epoch = time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)

// dateStrategy maps DATE columns onto parquet's DATE logical type, stored
// as the physical int32 count of days since the Unix epoch (spec §4.B
// "Date").
type dateStrategy struct {
	name     string
	nullable bool
}

func newDateStrategy(name string, nullable bool) *dateStrategy {
	return &dateStrategy{name: name, nullable: nullable}
}

func (s *dateStrategy) ColumnName() string { return s.name }
func (s *dateStrategy) FetchWidth() int64  { return 4 }

func (s *dateStrategy) ScanDest() any { return new(sql.NullTime) }

func (s *dateStrategy) ScanValue(dest any) (any, error) {
	v := dest.(*sql.NullTime)
	if !v.Valid {
		return nil, nil
	}
	days := int32(v.Time.UTC().Sub(epoch).Hours() / 24)
	return days, nil
}

func (s *dateStrategy) Node(fieldID int32) (schema.Node, error) {
	logical := schema.DateLogicalType{}
	return schema.NewPrimitiveNodeLogical(s.name, repetitionOf(s.nullable), logical, parquet.Types.Int32, 0, fieldID)
}

func (s *dateStrategy) WriteColumn(values []any, w file.ColumnChunkWriter) (int64, error) {
	cw, ok := w.(*file.Int32ColumnChunkWriter)
	if !ok {
		return 0, fmt.Errorf("column %q: expected int32 column writer, got %T", s.name, w)
	}
	vals, defs := make([]int32, 0, len(values)), make([]int16, len(values))
	for i, v := range values {
		if v == nil {
			continue
		}
		defs[i] = 1
		vals = append(vals, v.(int32))
	}
	return cw.WriteBatch(vals, defs, nil)
}

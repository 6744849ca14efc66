package coltype

import (
	"database/sql"
	"fmt"

	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/schema"
)

// boolStrategy is a direct 1-bit -> parquet boolean mapping (spec §4.B
// "Boolean").
type boolStrategy struct {
	name     string
	nullable bool
}

func newBoolStrategy(name string, nullable bool) *boolStrategy {
	return &boolStrategy{name: name, nullable: nullable}
}

func (s *boolStrategy) ColumnName() string { return s.name }
func (s *boolStrategy) FetchWidth() int64  { return 1 }

func (s *boolStrategy) ScanDest() any {
	return new(sql.NullBool)
}

func (s *boolStrategy) ScanValue(dest any) (any, error) {
	v := dest.(*sql.NullBool)
	if !v.Valid {
		return nil, nil
	}
	return v.Bool, nil
}

func (s *boolStrategy) Node(fieldID int32) (schema.Node, error) {
	return schema.NewPrimitiveNodeLogical(s.name, repetitionOf(s.nullable), nil, parquet.Types.Boolean, 0, fieldID)
}

func (s *boolStrategy) WriteColumn(values []any, w file.ColumnChunkWriter) (int64, error) {
	cw, ok := w.(*file.BooleanColumnChunkWriter)
	if !ok {
		return 0, fmt.Errorf("column %q: expected boolean column writer, got %T", s.name, w)
	}
	vals, defs := make([]bool, 0, len(values)), make([]int16, len(values))
	for i, v := range values {
		if v == nil {
			defs[i] = 0
			continue
		}
		defs[i] = 1
		vals = append(vals, v.(bool))
	}
	return cw.WriteBatch(vals, defs, nil)
}

package coltype

import (
	"database/sql"
	"fmt"

	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/schema"

	"github.com/y-trudeau/dbxport/errs"
)

// binaryStrategy maps BINARY/VARBINARY/BLOB columns onto parquet's
// variable-length BYTE_ARRAY physical type with no logical annotation
// (spec §4.B "Binary").
type binaryStrategy struct {
	name      string
	nullable  bool
	avgLength int64
}

func newBinaryStrategy(d ColumnDescriptor, opt MappingOptions) *binaryStrategy {
	avg := int64(64)
	if d.HasLength && d.Length > 0 {
		avg = d.Length
	}
	return &binaryStrategy{name: d.Name, nullable: d.Nullable, avgLength: avg}
}

func (s *binaryStrategy) ColumnName() string { return s.name }
func (s *binaryStrategy) FetchWidth() int64  { return s.avgLength }

func (s *binaryStrategy) ScanDest() any { return new([]byte) }

func (s *binaryStrategy) ScanValue(dest any) (any, error) {
	v := dest.(*[]byte)
	if *v == nil {
		return nil, nil
	}
	out := make([]byte, len(*v))
	copy(out, *v)
	return out, nil
}

func (s *binaryStrategy) Node(fieldID int32) (schema.Node, error) {
	return schema.NewPrimitiveNodeLogical(s.name, repetitionOf(s.nullable), nil, parquet.Types.ByteArray, 0, fieldID)
}

func (s *binaryStrategy) WriteColumn(values []any, w file.ColumnChunkWriter) (int64, error) {
	cw, ok := w.(*file.ByteArrayColumnChunkWriter)
	if !ok {
		return 0, fmt.Errorf("%w: column %q: expected byte-array column writer, got %T", errs.WriteFailure, s.name, w)
	}
	vals, defs := make([]parquet.ByteArray, 0, len(values)), make([]int16, len(values))
	for i, v := range values {
		if v == nil {
			continue
		}
		defs[i] = 1
		vals = append(vals, parquet.ByteArray(v.([]byte)))
	}
	return cw.WriteBatch(vals, defs, nil)
}

package coltype

import (
	"database/sql"
	"fmt"

	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/schema"
)

// timestampStrategy maps DATETIME/TIMESTAMP columns onto parquet's TIMESTAMP
// logical type (spec §4.B "Timestamp without/with timezone"), stored as a
// physical int64 count of time units since the Unix epoch. The unit is
// chosen from the driver-reported fractional-second digits: 3 or fewer
// selects milliseconds, 6 or fewer microseconds, anything wider
// nanoseconds.
type timestampStrategy struct {
	name             string
	nullable         bool
	fractionalDigits int
	adjustedToUTC    bool
	unit             schema.TimeUnitType
}

func newTimestampStrategy(name string, nullable bool, fractionalDigits int, hasTimezone bool) *timestampStrategy {
	return &timestampStrategy{
		name:             name,
		nullable:         nullable,
		fractionalDigits: fractionalDigits,
		adjustedToUTC:    hasTimezone,
		unit:             timeUnitFor(fractionalDigits),
	}
}

func timeUnitFor(fractionalDigits int) schema.TimeUnitType {
	switch {
	case fractionalDigits <= 3:
		return schema.TimeUnitMillis
	case fractionalDigits <= 6:
		return schema.TimeUnitMicros
	default:
		return schema.TimeUnitNanos
	}
}

func (s *timestampStrategy) ColumnName() string { return s.name }
func (s *timestampStrategy) FetchWidth() int64  { return 8 }

func (s *timestampStrategy) ScanDest() any { return new(sql.NullTime) }

func (s *timestampStrategy) ScanValue(dest any) (any, error) {
	v := dest.(*sql.NullTime)
	if !v.Valid {
		return nil, nil
	}
	t := v.Time.UTC()
	switch s.unit {
	case schema.TimeUnitMillis:
		return t.Unix()*1e3 + int64(t.Nanosecond())/1e6, nil
	case schema.TimeUnitNanos:
		return t.Unix()*1e9 + int64(t.Nanosecond()), nil
	default:
		return t.Unix()*1e6 + int64(t.Nanosecond())/1e3, nil
	}
}

func (s *timestampStrategy) Node(fieldID int32) (schema.Node, error) {
	logical := schema.NewTimestampLogicalType(s.adjustedToUTC, s.unit)
	return schema.NewPrimitiveNodeLogical(s.name, repetitionOf(s.nullable), logical, parquet.Types.Int64, 0, fieldID)
}

func (s *timestampStrategy) WriteColumn(values []any, w file.ColumnChunkWriter) (int64, error) {
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

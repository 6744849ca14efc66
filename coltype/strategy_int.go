package coltype

import (
	"database/sql"
	"fmt"
	"math"
	"strconv"

	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/schema"

	"github.com/y-trudeau/dbxport/errs"
	"github.com/y-trudeau/dbxport/internal/version"
)

// unsignedBigintTextBindFloor is the MySQL version below which some ODBC
// driver builds are known to mis-bind UNSIGNED BIGINT values above
// math.MaxInt64 (silently wrapping them negative) when bound as a native
// 64-bit integer; binding as text sidesteps the driver bug entirely.
const unsignedBigintTextBindFloor = "5.6.0"

// intStrategy covers the signed/unsigned 8/16/32/64-bit integer families
// (spec §4.B "Integer families"). Columns wider than 32 bits are bound as
// text and parsed when the driver cannot bind 64-bit integers directly.
type intStrategy struct {
	name       string
	nullable   bool
	bitWidth   int8
	signed     bool
	asText     bool // driver lacks 64-bit binding; scan as string and parse
}

func newIntStrategy(d ColumnDescriptor, opt MappingOptions) (*intStrategy, error) {
	bitWidth, signed := intWidthFor(d.SQLType, d.Unsigned)

	s := &intStrategy{
		name:     d.Name,
		nullable: d.Nullable,
		bitWidth: bitWidth,
		signed:   signed,
	}
	if bitWidth == 64 && !opt.DriverSupportsI64 {
		s.asText = true
	}
	if bitWidth == 64 && !signed && opt.ServerVersion != "" && !version.AtLeast(opt.ServerVersion, unsignedBigintTextBindFloor) {
		s.asText = true
	}
	return s, nil
}

func intWidthFor(t string, unsigned bool) (int8, bool) {
	switch t {
	case "TINYINT", "INT8":
		return 8, !unsigned
	case "SMALLINT", "INT2":
		return 16, !unsigned
	case "MEDIUMINT":
		return 32, !unsigned
	case "INT", "INT4", "INTEGER":
		return 32, !unsigned
	case "BIGINT":
		return 64, !unsigned
	}
	return 32, true
}

func (s *intStrategy) ColumnName() string { return s.name }

func (s *intStrategy) FetchWidth() int64 {
	if s.bitWidth > 32 {
		return 8
	}
	return 4
}

func (s *intStrategy) ScanDest() any {
	if s.asText {
		return new(sql.NullString)
	}
	return new(sql.NullInt64)
}

func (s *intStrategy) ScanValue(dest any) (any, error) {
	if s.asText {
		v := dest.(*sql.NullString)
		if !v.Valid {
			return nil, nil
		}
		if !s.signed {
			// An unsigned 64-bit value is stored in parquet's INT64 physical
			// type as its two's-complement bit pattern.
			u, err := strconv.ParseUint(v.String, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: column %q: cannot parse %q as uint64: %v", errs.ValueOutOfRange, s.name, v.String, err)
			}
			return int64(u), nil
		}
		n, err := strconv.ParseInt(v.String, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: column %q: cannot parse %q as int64: %v", errs.ValueOutOfRange, s.name, v.String, err)
		}
		return n, nil
	}
	v := dest.(*sql.NullInt64)
	if !v.Valid {
		return nil, nil
	}
	return v.Int64, nil
}

func (s *intStrategy) Node(fieldID int32) (schema.Node, error) {
	logical := schema.NewIntLogicalType(s.bitWidth, s.signed)
	physical := parquet.Types.Int32
	typeLength := 0
	if s.bitWidth > 32 {
		physical = parquet.Types.Int64
	}
	return schema.NewPrimitiveNodeLogical(s.name, repetitionOf(s.nullable), logical, physical, typeLength, fieldID)
}

func (s *intStrategy) WriteColumn(values []any, w file.ColumnChunkWriter) (int64, error) {
	if s.bitWidth > 32 {
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
		n := v.(int64)
		if n > math.MaxInt32 || n < math.MinInt32 {
			return 0, fmt.Errorf("%w: column %q: value %d does not fit in 32 bits", errs.ValueOutOfRange, s.name, n)
		}
		vals = append(vals, int32(n))
	}
	return cw.WriteBatch(vals, defs, nil)
}

// Package coltype implements the Column Strategy Registry (spec §4.B): an
// exhaustive, closed dispatch from a driver-reported SQL column to the
// ColumnStrategy that knows how to size, scan, and transcode it into a
// parquet column chunk.
package coltype

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/schema"

	"github.com/y-trudeau/dbxport/errs"
)

// repetitionOf returns the parquet repetition for a column's nullability.
func repetitionOf(nullable bool) parquet.Repetition {
	if nullable {
		return parquet.Repetitions.Optional
	}
	return parquet.Repetitions.Required
}

// ColumnDescriptor is the per-column detail the registry dispatches on,
// assembled from *sql.ColumnType plus whatever a vendor-specific fallback
// adds (see MappingOptions.DBName).
type ColumnDescriptor struct {
	Index    int
	Name     string
	SQLType  string // DatabaseTypeName(), e.g. "VARCHAR", "DECIMAL", "DATETIME"
	Nullable bool

	HasLength bool
	Length    int64

	HasDecimalSize bool
	Precision      int64
	Scale          int64

	// TimestampFractionalDigits is the number of fractional-second digits
	// the driver reports for a time/timestamp column; 6 (microseconds) if
	// unknown.
	TimestampFractionalDigits int
	// HasTimezone marks a "timestamp with timezone" column.
	HasTimezone bool

	// Width1Bool and Unsigned come from a vendor fallback (internal/mysqlddl)
	// when the driver's own metadata cannot express them.
	Width1Bool bool
	Unsigned   bool
}

// DescribeColumns builds ColumnDescriptors from a cursor's column metadata,
// preserving column order (an invariant of spec.md §3).
func DescribeColumns(cols []*sql.ColumnType) ([]ColumnDescriptor, error) {
	out := make([]ColumnDescriptor, len(cols))
	for i, c := range cols {
		d := ColumnDescriptor{
			Index:   i,
			Name:    c.Name(),
			SQLType: strings.ToUpper(c.DatabaseTypeName()),
			// 6 (microseconds) is the fallback when neither DecimalSize nor
			// a vendor fallback reports a fractional-second count.
			TimestampFractionalDigits: 6,
		}
		if nullable, ok := c.Nullable(); ok {
			d.Nullable = nullable
		} else {
			d.Nullable = true
		}
		if length, ok := c.Length(); ok {
			d.HasLength = true
			d.Length = length
		}
		if prec, scale, ok := c.DecimalSize(); ok {
			d.HasDecimalSize = true
			d.Precision = prec
			d.Scale = scale
			// ODBC drivers report a temporal column's fractional-second
			// precision through the same SQL_DESC_SCALE field DecimalSize
			// surfaces for numeric columns; database/sql's ColumnType
			// doesn't distinguish the two, so a scale reported for a
			// TIME/TIMESTAMP/DATETIME column is read the same way here.
			if isTemporalType(d.SQLType) {
				d.TimestampFractionalDigits = int(scale)
			}
		}
		out[i] = d
	}
	return out, nil
}

// MappingOptions mirrors the pipeline-wide knobs that affect how a column
// is mapped to a strategy (spec.md §4.B).
type MappingOptions struct {
	DBName            string
	UseUTF16          bool
	PreferVarbinary   bool
	AvoidDecimal      bool
	DriverSupportsI64 bool
	ColumnLengthLimit int64
	// ServerVersion is the source server's self-reported version string
	// (e.g. MySQL's @@version), used to gate quirks tied to a specific
	// version floor rather than to DBName alone. Empty disables any
	// version-gated behavior.
	ServerVersion string
}

// ColumnStrategy is the stateless behavior object for one column: how wide
// a Go-level scan destination it needs, what parquet node it targets, and
// how to transcode a batch's worth of scanned values into a column chunk
// writer.
type ColumnStrategy interface {
	// ColumnName returns the column's display name.
	ColumnName() string
	// FetchWidth estimates the per-row byte footprint this column
	// contributes, for sizelimit's byte-budget calculation. It is an
	// advisory upper bound, not an exact wire size.
	FetchWidth() int64
	// ScanDest returns a fresh pointer suitable for *sql.Rows.Scan.
	ScanDest() any
	// ScanValue extracts the value out of a destination returned by
	// ScanDest, as either nil (SQL NULL) or a concrete Go value ready for
	// WriteColumn.
	ScanValue(dest any) (any, error)
	// Node builds the parquet schema node for this column.
	Node(fieldID int32) (schema.Node, error)
	// WriteColumn transcodes one batch's worth of values (as produced by
	// ScanValue, in row order) into the column chunk writer w, which has
	// already been positioned at this column by the row group writer.
	// It returns the number of rows written.
	WriteColumn(values []any, w file.ColumnChunkWriter) (int64, error)
}

// Select is the registry's exhaustive dispatch: given a column's
// descriptor and the pipeline's mapping options, return the strategy that
// will fetch, scan and transcode it.
func Select(d ColumnDescriptor, opt MappingOptions) (ColumnStrategy, error) {
	t := d.SQLType
	switch {
	case isBoolType(t, d, opt):
		return newBoolStrategy(d.Name, d.Nullable), nil

	case isIntegerType(t):
		return newIntStrategy(d, opt)

	case isDecimalType(t):
		return newDecimalStrategy(d, opt)

	case t == "FLOAT" || t == "REAL":
		return newFloatStrategy(d.Name, d.Nullable), nil
	case t == "DOUBLE" || t == "DOUBLE PRECISION":
		return newDoubleStrategy(d.Name, d.Nullable), nil

	case t == "DATE":
		return newDateStrategy(d.Name, d.Nullable), nil

	case t == "TIME":
		return newTimeStrategy(d.Name, d.Nullable), nil

	case t == "TIMESTAMP" || t == "DATETIME" || t == "DATETIME2":
		return newTimestampStrategy(d.Name, d.Nullable, d.TimestampFractionalDigits, d.HasTimezone), nil
	case t == "TIMESTAMPTZ" || t == "TIMESTAMP WITH TIME ZONE" || t == "DATETIMEOFFSET":
		return newTimestampStrategy(d.Name, d.Nullable, d.TimestampFractionalDigits, true), nil

	case t == "BINARY" || t == "VARBINARY" || t == "BLOB" || t == "BYTEA" || t == "IMAGE":
		return newBinaryStrategy(d, opt), nil

	case t == "CHAR" || t == "VARCHAR" || t == "TEXT" || t == "NVARCHAR" || t == "NCHAR" ||
		t == "NTEXT" || t == "CLOB" || t == "LONGTEXT" || t == "MEDIUMTEXT":
		return newTextStrategy(d, opt), nil

	default:
		return nil, fmt.Errorf("%w: column %q has SQL type %q", errs.UnsupportedType, d.Name, d.SQLType)
	}
}

func isBoolType(t string, d ColumnDescriptor, opt MappingOptions) bool {
	if t == "BOOL" || t == "BOOLEAN" || t == "BIT" {
		return true
	}
	// MySQL reports BOOLEAN columns as TINYINT over database/sql; the
	// vendor fallback (internal/mysqlddl) flags the TINYINT(1) convention.
	if strings.EqualFold(opt.DBName, "MySQL") && (t == "TINYINT" || t == "INT8") && d.Width1Bool {
		return true
	}
	return false
}

func isIntegerType(t string) bool {
	switch t {
	case "TINYINT", "SMALLINT", "INT2", "MEDIUMINT", "INT", "INT4", "INTEGER", "BIGINT", "INT8":
		return true
	}
	return false
}

func isDecimalType(t string) bool {
	return t == "DECIMAL" || t == "NUMERIC"
}

func isTemporalType(t string) bool {
	switch t {
	case "TIME", "TIMESTAMP", "DATETIME", "DATETIME2",
		"TIMESTAMPTZ", "TIMESTAMP WITH TIME ZONE", "DATETIMEOFFSET":
		return true
	}
	return false
}

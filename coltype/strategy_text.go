package coltype

import (
	"database/sql"
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"

	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/schema"

	"github.com/y-trudeau/dbxport/errs"
	"github.com/y-trudeau/dbxport/internal/logx"
)

// textStrategy maps CHAR/VARCHAR/TEXT columns onto parquet's UTF8-annotated
// BYTE_ARRAY physical type (spec §4.B "Text"). When MappingOptions.UseUTF16
// is set, the driver's own bytes are assumed to be little-endian UTF-16 (a
// quirk of some ODBC drivers' wide-character columns) and are transcoded to
// UTF-8 before being written.
type textStrategy struct {
	name      string
	nullable  bool
	avgLength int64
	useUTF16  bool
	// maxRunes caps a scanned value's length in code points, enforced only
	// for columns the driver reports no declared length for (CLOB/TEXT and
	// friends); 0 means uncapped. A value past the cap is truncated at a
	// code-point boundary and reported with logx.Warn, never an error
	// (spec §4.B "Text").
	maxRunes int64
}

func newTextStrategy(d ColumnDescriptor, opt MappingOptions) *textStrategy {
	avg := int64(32)
	if d.HasLength && d.Length > 0 {
		avg = d.Length
	}
	var maxRunes int64
	if !d.HasLength && opt.ColumnLengthLimit > 0 {
		maxRunes = opt.ColumnLengthLimit
	}
	if opt.ColumnLengthLimit > 0 && avg > opt.ColumnLengthLimit {
		avg = opt.ColumnLengthLimit
	}
	return &textStrategy{name: d.Name, nullable: d.Nullable, avgLength: avg, useUTF16: opt.UseUTF16, maxRunes: maxRunes}
}

// truncate caps s at s.maxRunes code points, cutting on a rune boundary, and
// warns once per over-length value rather than failing the row.
func (s *textStrategy) truncate(v string) string {
	if s.maxRunes <= 0 || int64(utf8.RuneCountInString(v)) <= s.maxRunes {
		return v
	}
	var n int64
	for i := range v {
		if n == s.maxRunes {
			logx.Warn("text value exceeds column_length_limit, truncating", "column", s.name, "limit", s.maxRunes)
			return v[:i]
		}
		n++
	}
	return v
}

func (s *textStrategy) ColumnName() string { return s.name }
func (s *textStrategy) FetchWidth() int64  { return s.avgLength }

func (s *textStrategy) ScanDest() any {
	if s.useUTF16 {
		return new([]byte)
	}
	return new(sql.NullString)
}

func (s *textStrategy) ScanValue(dest any) (any, error) {
	if s.useUTF16 {
		raw := dest.(*[]byte)
		if *raw == nil {
			return nil, nil
		}
		decoded, err := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder().Bytes(*raw)
		if err != nil {
			return nil, fmt.Errorf("%w: column %q: utf16 decode: %v", errs.PrecisionLoss, s.name, err)
		}
		return s.truncate(string(decoded)), nil
	}

	v := dest.(*sql.NullString)
	if !v.Valid {
		return nil, nil
	}
	return s.truncate(v.String), nil
}

func (s *textStrategy) Node(fieldID int32) (schema.Node, error) {
	logical := schema.StringLogicalType{}
	return schema.NewPrimitiveNodeLogical(s.name, repetitionOf(s.nullable), logical, parquet.Types.ByteArray, 0, fieldID)
}

func (s *textStrategy) WriteColumn(values []any, w file.ColumnChunkWriter) (int64, error) {
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
		vals = append(vals, parquet.ByteArray(v.(string)))
	}
	return cw.WriteBatch(vals, defs, nil)
}

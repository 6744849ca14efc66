package coltype

import (
	"database/sql"
	"errors"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/schema"

	"github.com/y-trudeau/dbxport/errs"
)

// decimalStrategy maps DECIMAL/NUMERIC(precision, scale) columns to a
// fixed-length-byte-array parquet decimal (spec §4.B "Decimal"), sized so
// the unscaled value always fits: byteWidth = ceil((precision*log2(10)+1)/8).
// The declared precision/scale is preserved on both paths; only the
// binding method changes. The default path takes the driver-reported
// decimal text and converts it to an unscaled integer with exact
// arbitrary-precision arithmetic (decimalUnscaled). When
// MappingOptions.AvoidDecimal is set, the value is instead bound as text
// and round-tripped through a float64 parse before being re-derived to the
// unscaled integer, the same "bind as text" quirk odbc2parquet's
// --avoid-decimal flag works around for drivers that can't bind a native
// decimal type. Either path fails with PrecisionLoss when the literal
// carries more fractional digits than the declared scale.
type decimalStrategy struct {
	name         string
	nullable     bool
	precision    int64
	scale        int64
	byteWidth    int32
	avoidDecimal bool
}

func newDecimalStrategy(d ColumnDescriptor, opt MappingOptions) (*decimalStrategy, error) {
	precision, scale := d.Precision, d.Scale
	if !d.HasDecimalSize {
		precision, scale = 38, 0
	}
	if precision <= 0 {
		return nil, fmt.Errorf("%w: column %q: non-positive decimal precision %d", errs.UnsupportedType, d.Name, precision)
	}

	return &decimalStrategy{
		name:         d.Name,
		nullable:     d.Nullable,
		precision:    precision,
		scale:        scale,
		byteWidth:    decimalByteWidth(precision),
		avoidDecimal: opt.AvoidDecimal,
	}, nil
}

func decimalByteWidth(precision int64) int32 {
	bits := float64(precision)*math.Log2(10) + 1
	return int32(math.Ceil(bits / 8))
}

func (s *decimalStrategy) ColumnName() string { return s.name }

func (s *decimalStrategy) FetchWidth() int64 {
	return int64(s.byteWidth)
}

func (s *decimalStrategy) ScanDest() any {
	return new(sql.NullString)
}

func (s *decimalStrategy) ScanValue(dest any) (any, error) {
	v := dest.(*sql.NullString)
	if !v.Valid {
		return nil, nil
	}
	return strings.TrimSpace(v.String), nil
}

func (s *decimalStrategy) Node(fieldID int32) (schema.Node, error) {
	logical := schema.NewDecimalLogicalType(int32(s.precision), int32(s.scale))
	return schema.NewPrimitiveNodeLogical(s.name, repetitionOf(s.nullable), logical, parquet.Types.FixedLenByteArray, int(s.byteWidth), fieldID)
}

func (s *decimalStrategy) WriteColumn(values []any, w file.ColumnChunkWriter) (int64, error) {
	cw, ok := w.(*file.FixedLenByteArrayColumnChunkWriter)
	if !ok {
		return 0, fmt.Errorf("column %q: expected fixed-len-byte-array column writer, got %T", s.name, w)
	}
	vals, defs := make([]parquet.FixedLenByteArray, 0, len(values)), make([]int16, len(values))
	for i, v := range values {
		if v == nil {
			continue
		}
		defs[i] = 1
		unscaled, err := s.parseUnscaled(v.(string))
		if err != nil {
			return 0, err
		}
		b, err := twosComplementFixed(unscaled, int(s.byteWidth))
		if err != nil {
			return 0, fmt.Errorf("%w: column %q: %v", errs.ValueOutOfRange, s.name, err)
		}
		vals = append(vals, parquet.FixedLenByteArray(b))
	}
	return cw.WriteBatch(vals, defs, nil)
}

// parseUnscaled converts a decimal literal to its unscaled integer at the
// column's declared scale, per s.avoidDecimal's binding method.
func (s *decimalStrategy) parseUnscaled(literal string) (*big.Int, error) {
	if s.avoidDecimal {
		f, err := strconv.ParseFloat(literal, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: column %q: cannot parse %q via text bind: %v", errs.ValueOutOfRange, s.name, literal, err)
		}
		literal = strconv.FormatFloat(f, 'f', -1, 64)
	}
	n, err := decimalUnscaled(literal, s.scale)
	if err != nil {
		if errors.Is(err, errs.PrecisionLoss) {
			return nil, fmt.Errorf("column %q: %w", s.name, err)
		}
		return nil, fmt.Errorf("%w: column %q: %v", errs.ValueOutOfRange, s.name, err)
	}
	return n, nil
}

// decimalUnscaled turns a base-10 literal like "-123.450" into its unscaled
// integer representation at the column's fixed scale, e.g. scale 2 turns
// "1.5" into 150. A literal with more fractional digits than scale fails
// with PrecisionLoss rather than silently truncating them.
func decimalUnscaled(literal string, scale int64) (*big.Int, error) {
	neg := false
	if strings.HasPrefix(literal, "-") {
		neg = true
		literal = literal[1:]
	} else if strings.HasPrefix(literal, "+") {
		literal = literal[1:]
	}

	intPart, fracPart := literal, ""
	if i := strings.IndexByte(literal, '.'); i >= 0 {
		intPart, fracPart = literal[:i], literal[i+1:]
	}
	if int64(len(fracPart)) > scale {
		return nil, fmt.Errorf("%w: literal %q has more fractional digits than scale %d", errs.PrecisionLoss, literal, scale)
	}
	for int64(len(fracPart)) < scale {
		fracPart += "0"
	}

	digits := intPart + fracPart
	if digits == "" {
		digits = "0"
	}
	n, ok := new(big.Int).SetString(digits, 10)
	if !ok {
		return nil, fmt.Errorf("malformed decimal literal %q", literal)
	}
	if neg {
		n.Neg(n)
	}
	return n, nil
}

// twosComplementFixed encodes n as a big-endian two's-complement byte slice
// of exactly width bytes, the layout parquet's FIXED_LEN_BYTE_ARRAY decimal
// physical type requires.
func twosComplementFixed(n *big.Int, width int) ([]byte, error) {
	out := make([]byte, width)
	if n.Sign() >= 0 {
		b := n.Bytes()
		if len(b) > width {
			return nil, fmt.Errorf("value does not fit in %d bytes", width)
		}
		copy(out[width-len(b):], b)
		return out, nil
	}

	// Two's complement of a negative value: (2^(8*width) + n).
	mod := new(big.Int).Lsh(big.NewInt(1), uint(8*width))
	twos := new(big.Int).Add(mod, n)
	if twos.Sign() < 0 {
		return nil, fmt.Errorf("value does not fit in %d bytes", width)
	}
	b := twos.Bytes()
	if len(b) > width {
		return nil, fmt.Errorf("value does not fit in %d bytes", width)
	}
	for i := range out {
		out[i] = 0xff
	}
	copy(out[width-len(b):], b)
	return out, nil
}

package coltype

import (
	"errors"
	"math/big"
	"testing"

	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/schema"

	"github.com/y-trudeau/dbxport/errs"
)

func bigFromInt(n int64) *big.Int {
	return big.NewInt(n)
}

func TestSelectUnsupportedType(t *testing.T) {
	_, err := Select(ColumnDescriptor{Name: "blob_of_geometry", SQLType: "GEOMETRY"}, MappingOptions{})
	if !errors.Is(err, errs.UnsupportedType) {
		t.Fatalf("Select() error = %v, want UnsupportedType", err)
	}
}

func TestSelectBoolDirect(t *testing.T) {
	s, err := Select(ColumnDescriptor{Name: "active", SQLType: "BOOLEAN", Nullable: true}, MappingOptions{})
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if _, ok := s.(*boolStrategy); !ok {
		t.Fatalf("Select() = %T, want *boolStrategy", s)
	}
}

func TestSelectMySQLTinyIntOneIsBool(t *testing.T) {
	s, err := Select(ColumnDescriptor{Name: "is_active", SQLType: "TINYINT", Width1Bool: true}, MappingOptions{DBName: "MySQL"})
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if _, ok := s.(*boolStrategy); !ok {
		t.Fatalf("Select() = %T, want *boolStrategy for MySQL TINYINT(1)", s)
	}
}

func TestSelectPlainTinyIntIsInteger(t *testing.T) {
	s, err := Select(ColumnDescriptor{Name: "small_count", SQLType: "TINYINT"}, MappingOptions{DBName: "MySQL"})
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if _, ok := s.(*intStrategy); !ok {
		t.Fatalf("Select() = %T, want *intStrategy", s)
	}
}

func TestSelectBigIntTextBindWhenDriverLacks64Bit(t *testing.T) {
	s, err := Select(ColumnDescriptor{Name: "big", SQLType: "BIGINT"}, MappingOptions{DriverSupportsI64: false})
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	is := s.(*intStrategy)
	if !is.asText {
		t.Fatalf("intStrategy.asText = false, want true when driver lacks 64-bit binding")
	}
}

func TestSelectBigIntUnsignedTextBindOnOldMySQL(t *testing.T) {
	s, err := Select(ColumnDescriptor{Name: "big", SQLType: "BIGINT", Unsigned: true}, MappingOptions{DriverSupportsI64: true, ServerVersion: "5.5.62"})
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	is := s.(*intStrategy)
	if !is.asText {
		t.Fatalf("intStrategy.asText = false, want true for UNSIGNED BIGINT on MySQL older than %s", unsignedBigintTextBindFloor)
	}
}

func TestSelectBigIntUnsignedBindsNativeOnModernMySQL(t *testing.T) {
	s, err := Select(ColumnDescriptor{Name: "big", SQLType: "BIGINT", Unsigned: true}, MappingOptions{DriverSupportsI64: true, ServerVersion: "8.0.34"})
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	is := s.(*intStrategy)
	if is.asText {
		t.Fatalf("intStrategy.asText = true, want false for UNSIGNED BIGINT on a modern MySQL server")
	}
}

func TestIntStrategyWriteColumnOverflows32Bit(t *testing.T) {
	s := &intStrategy{name: "n", bitWidth: 32}
	var cw *file.Int32ColumnChunkWriter
	_, err := s.WriteColumn([]any{int64(1) << 40}, cw)
	if !errors.Is(err, errs.ValueOutOfRange) {
		t.Fatalf("WriteColumn() error = %v, want ValueOutOfRange", err)
	}
}

func TestDecimalByteWidth(t *testing.T) {
	cases := []struct {
		precision int64
		want      int32
	}{
		{1, 1},
		{9, 4},
		{18, 8},
		{38, 16},
	}
	for _, c := range cases {
		if got := decimalByteWidth(c.precision); got != c.want {
			t.Errorf("decimalByteWidth(%d) = %d, want %d", c.precision, got, c.want)
		}
	}
}

func TestDecimalUnscaled(t *testing.T) {
	n, err := decimalUnscaled("-123.4", 2)
	if err != nil {
		t.Fatalf("decimalUnscaled() error = %v", err)
	}
	if n.Int64() != -12340 {
		t.Fatalf("decimalUnscaled() = %d, want -12340", n.Int64())
	}
}

func TestTwosComplementFixedRoundTripsPositiveAndNegative(t *testing.T) {
	pos, err := twosComplementFixed(bigFromInt(12345), 4)
	if err != nil {
		t.Fatalf("twosComplementFixed() error = %v", err)
	}
	if len(pos) != 4 {
		t.Fatalf("len(pos) = %d, want 4", len(pos))
	}

	neg, err := twosComplementFixed(bigFromInt(-1), 4)
	if err != nil {
		t.Fatalf("twosComplementFixed() error = %v", err)
	}
	for _, b := range neg {
		if b != 0xff {
			t.Fatalf("twosComplementFixed(-1) = % x, want all 0xff", neg)
		}
	}
}

func TestSelectDecimalAvoidDecimalStillUsesFixedLenByteArray(t *testing.T) {
	s, err := Select(ColumnDescriptor{Name: "amount", SQLType: "DECIMAL", HasDecimalSize: true, Precision: 10, Scale: 2}, MappingOptions{AvoidDecimal: true})
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	ds := s.(*decimalStrategy)
	if !ds.avoidDecimal {
		t.Fatalf("decimalStrategy.avoidDecimal = false, want true")
	}
	if ds.byteWidth != decimalByteWidth(10) {
		t.Fatalf("decimalStrategy.byteWidth = %d, want %d even with AvoidDecimal set", ds.byteWidth, decimalByteWidth(10))
	}
	if _, err := ds.Node(0); err != nil {
		t.Fatalf("Node() error = %v", err)
	}
}

func TestDecimalUnscaledFailsOnExcessFractionalDigits(t *testing.T) {
	_, err := decimalUnscaled("1.2345", 2)
	if !errors.Is(err, errs.PrecisionLoss) {
		t.Fatalf("decimalUnscaled() error = %v, want PrecisionLoss", err)
	}
}

func TestDecimalStrategyWriteColumnFailsOnExcessFractionalDigits(t *testing.T) {
	s := &decimalStrategy{name: "amount", precision: 10, scale: 2, byteWidth: decimalByteWidth(10)}
	var cw *file.FixedLenByteArrayColumnChunkWriter
	_, err := s.WriteColumn([]any{"1.2345"}, cw)
	if !errors.Is(err, errs.PrecisionLoss) {
		t.Fatalf("WriteColumn() error = %v, want PrecisionLoss", err)
	}
}

func TestTimeUnitForSelectsByFractionalDigits(t *testing.T) {
	cases := []struct {
		fractionalDigits int
		want             schema.TimeUnitType
	}{
		{0, schema.TimeUnitMillis},
		{3, schema.TimeUnitMillis},
		{4, schema.TimeUnitMicros},
		{6, schema.TimeUnitMicros},
		{7, schema.TimeUnitNanos},
		{9, schema.TimeUnitNanos},
	}
	for _, c := range cases {
		if got := timeUnitFor(c.fractionalDigits); got != c.want {
			t.Errorf("timeUnitFor(%d) = %v, want %v", c.fractionalDigits, got, c.want)
		}
	}
}

func TestSelectTimestampPicksUnitFromFractionalDigits(t *testing.T) {
	s, err := Select(ColumnDescriptor{Name: "placed_at", SQLType: "DATETIME", TimestampFractionalDigits: 3}, MappingOptions{})
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	ts := s.(*timestampStrategy)
	if ts.unit != schema.TimeUnitMillis {
		t.Fatalf("timestampStrategy.unit = %v, want TimeUnitMillis for 3 fractional digits", ts.unit)
	}
}

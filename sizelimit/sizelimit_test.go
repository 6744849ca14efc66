package sizelimit

import (
	"errors"
	"testing"

	"github.com/y-trudeau/dbxport/errs"
)

func TestEffectiveRowsDriverDefault(t *testing.T) {
	var b BatchSizeLimit
	rows, err := b.EffectiveRows(100)
	if err != nil || rows != DriverDefault {
		t.Fatalf("EffectiveRows() = %d, %v, want %d, nil", rows, err, DriverDefault)
	}
}

func TestEffectiveRowsRowCapOnly(t *testing.T) {
	b := BatchSizeLimit{MaxRows: 500}
	rows, err := b.EffectiveRows(1000)
	if err != nil || rows != 500 {
		t.Fatalf("EffectiveRows() = %d, %v, want 500, nil", rows, err)
	}
}

func TestEffectiveRowsByteCapOnly(t *testing.T) {
	b := BatchSizeLimit{MaxBytes: 10_000}
	rows, err := b.EffectiveRows(100)
	if err != nil || rows != 100 {
		t.Fatalf("EffectiveRows() = %d, %v, want 100, nil", rows, err)
	}
}

func TestEffectiveRowsBothCapsMinWins(t *testing.T) {
	b := BatchSizeLimit{MaxRows: 1000, MaxBytes: 10_000}
	rows, err := b.EffectiveRows(100)
	if err != nil || rows != 100 {
		t.Fatalf("EffectiveRows() = %d, %v, want 100, nil", rows, err)
	}
}

func TestEffectiveRowsInfeasibleByteCap(t *testing.T) {
	b := BatchSizeLimit{MaxRows: 1000, MaxBytes: 10}
	_, err := b.EffectiveRows(100)
	if !errors.Is(err, errs.InvalidConfiguration) {
		t.Fatalf("EffectiveRows() error = %v, want InvalidConfiguration", err)
	}
}

func TestEffectiveRowsClampsToOne(t *testing.T) {
	b := BatchSizeLimit{MaxRows: 0, MaxBytes: 1000}
	rows, err := b.EffectiveRows(1000)
	if err != nil || rows != 1 {
		t.Fatalf("EffectiveRows() = %d, %v, want 1, nil", rows, err)
	}
}

func TestFileSizeLimitActive(t *testing.T) {
	if (FileSizeLimit{}).Active() {
		t.Error("zero value should not be active")
	}
	if !(FileSizeLimit{RowGroupsPerFile: 1}).Active() {
		t.Error("expected active with RowGroupsPerFile set")
	}
	if !(FileSizeLimit{ByteThreshold: 1}).Active() {
		t.Error("expected active with ByteThreshold set")
	}
}

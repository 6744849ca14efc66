package coltype

import (
	"database/sql"
	"testing"
)

func TestTextStrategyTruncatesOnlyWhenLengthUndeclared(t *testing.T) {
	s := newTextStrategy(ColumnDescriptor{Name: "notes", HasLength: false}, MappingOptions{ColumnLengthLimit: 3})
	if s.maxRunes != 3 {
		t.Fatalf("maxRunes = %d, want 3 for a column with no declared length", s.maxRunes)
	}

	bounded := newTextStrategy(ColumnDescriptor{Name: "code", HasLength: true, Length: 10}, MappingOptions{ColumnLengthLimit: 3})
	if bounded.maxRunes != 0 {
		t.Fatalf("maxRunes = %d, want 0 for a column with a declared length", bounded.maxRunes)
	}
}

func TestTextStrategyTruncateCutsOnRuneBoundary(t *testing.T) {
	s := &textStrategy{name: "notes", maxRunes: 2}
	got := s.truncate("héllo")
	if got != "hé" {
		t.Fatalf("truncate() = %q, want %q", got, "hé")
	}
}

func TestTextStrategyTruncateLeavesShortValuesAlone(t *testing.T) {
	s := &textStrategy{name: "notes", maxRunes: 10}
	if got := s.truncate("short"); got != "short" {
		t.Fatalf("truncate() = %q, want unchanged %q", got, "short")
	}
}

func TestTextStrategyScanValueAppliesTruncation(t *testing.T) {
	s := &textStrategy{name: "notes", maxRunes: 3}
	v := &sql.NullString{String: "abcdef", Valid: true}
	got, err := s.ScanValue(v)
	if err != nil {
		t.Fatalf("ScanValue() error = %v", err)
	}
	if got != "abc" {
		t.Fatalf("ScanValue() = %q, want %q", got, "abc")
	}
}

package columnarfile

import (
	"errors"
	"os"
	"testing"

	"github.com/y-trudeau/dbxport/errs"
	"github.com/y-trudeau/dbxport/sizelimit"
)

func TestSuffixPath(t *testing.T) {
	got, err := suffixPath("out.parquet", 3, 2)
	if err != nil {
		t.Fatalf("suffixPath() error = %v", err)
	}
	if got != "out_03.parquet" {
		t.Fatalf("suffixPath() = %q, want %q", got, "out_03.parquet")
	}
}

func TestSuffixPathNoExtension(t *testing.T) {
	got, err := suffixPath("out", 1, 3)
	if err != nil {
		t.Fatalf("suffixPath() error = %v", err)
	}
	if got != "out_001" {
		t.Fatalf("suffixPath() = %q, want %q", got, "out_001")
	}
}

func TestSuffixPathTooManyFiles(t *testing.T) {
	_, err := suffixPath("out.parquet", 100, 2)
	if !errors.Is(err, errs.TooManyFiles) {
		t.Fatalf("suffixPath() error = %v, want TooManyFiles", err)
	}
}

func TestNewWriterRejectsRolloverToStdout(t *testing.T) {
	_, err := NewWriter(Target{Stdout: os.Stdout}, nil, Options{
		FileSizeLimit: sizelimit.FileSizeLimit{RowGroupsPerFile: 1},
	})
	if !errors.Is(err, errs.InvalidConfiguration) {
		t.Fatalf("NewWriter() error = %v, want InvalidConfiguration", err)
	}
}

func TestNewWriterDefaultsSuffixLength(t *testing.T) {
	w, err := NewWriter(Target{Path: "out.parquet"}, nil, Options{})
	if err != nil {
		t.Fatalf("NewWriter() error = %v", err)
	}
	if w.opt.SuffixLength != 2 {
		t.Fatalf("SuffixLength = %d, want 2", w.opt.SuffixLength)
	}
}

func TestNewWriterRejectsUnknownColumnEncoding(t *testing.T) {
	_, err := NewWriter(Target{Path: "out.parquet"}, nil, Options{
		ColumnEncodingOverrides: []ColumnEncodingOverride{{Column: "id", Encoding: "NOT_A_REAL_ENCODING"}},
	})
	if !errors.Is(err, errs.InvalidConfiguration) {
		t.Fatalf("NewWriter() error = %v, want InvalidConfiguration", err)
	}
}

func TestParquetEncodingRecognizesKnownNames(t *testing.T) {
	for _, name := range []string{"plain", "RLE", "delta_binary_packed", "DELTA_BYTE_ARRAY"} {
		if _, err := parquetEncoding(name); err != nil {
			t.Errorf("parquetEncoding(%q) error = %v, want a recognized encoding", name, err)
		}
	}
}

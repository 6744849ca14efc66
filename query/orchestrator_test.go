package query

import (
	"context"
	"os"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/apache/arrow-go/v18/parquet/compress"

	"github.com/y-trudeau/dbxport/coltype"
	"github.com/y-trudeau/dbxport/columnarfile"
	"github.com/y-trudeau/dbxport/convert"
	"github.com/y-trudeau/dbxport/fetch"
)

func TestResolveStatementTextPassesThroughVerbatim(t *testing.T) {
	got, err := resolveStatementText("SELECT 1")
	if err != nil {
		t.Fatalf("resolveStatementText() error = %v", err)
	}
	if got != "SELECT 1" {
		t.Fatalf("resolveStatementText() = %q, want %q", got, "SELECT 1")
	}
}

func TestResolveStatementTextReadsStdinOnDashSentinel(t *testing.T) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe() error = %v", err)
	}
	origStdin := os.Stdin
	os.Stdin = r
	defer func() { os.Stdin = origStdin }()

	go func() {
		w.WriteString("SELECT 42")
		w.Close()
	}()

	got, err := resolveStatementText("-")
	if err != nil {
		t.Fatalf("resolveStatementText() error = %v", err)
	}
	if got != "SELECT 42" {
		t.Fatalf("resolveStatementText() = %q, want %q", got, "SELECT 42")
	}
}

func TestDefaultOptionsMatchesForeignEntryPointDefaults(t *testing.T) {
	opt := DefaultOptions()
	if opt.CompressionCodec != compress.Codecs.Zstd {
		t.Errorf("CompressionCodec = %v, want Zstd", opt.CompressionCodec)
	}
	if opt.SuffixLength != 2 {
		t.Errorf("SuffixLength = %d, want 2", opt.SuffixLength)
	}
	if opt.ColumnLengthLimit != 4096 {
		t.Errorf("ColumnLengthLimit = %d, want 4096", opt.ColumnLengthLimit)
	}
	if opt.RowGroupsPerFile != 0 || opt.FileSizeThreshold != 0 {
		t.Errorf("expected no file-size or row-group limits by default")
	}
	if opt.ConcurrentFetching {
		t.Errorf("expected sequential fetching by default")
	}
	if len(opt.Parameters) != 0 {
		t.Errorf("expected no parameters by default")
	}
}

func TestApplyVendorFallbackNoopWithoutTableHint(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	descs := []coltype.ColumnDescriptor{{Name: "is_active", SQLType: "TINYINT"}}
	got := applyVendorFallback(context.Background(), db, descs, Options{})
	if got[0].Width1Bool {
		t.Fatalf("Width1Bool = true without a FallbackTable hint, want false")
	}
}

func TestApplyVendorFallbackAppliesDDLQuirks(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	ddl := "CREATE TABLE `orders` (\n  `is_active` tinyint(1) NOT NULL,\n  `qty` int unsigned NOT NULL\n) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4"
	mock.ExpectQuery("SHOW CREATE TABLE").WillReturnRows(
		sqlmock.NewRows([]string{"Table", "Create Table"}).AddRow("orders", ddl),
	)

	descs := []coltype.ColumnDescriptor{
		{Name: "is_active", SQLType: "TINYINT"},
		{Name: "qty", SQLType: "INT"},
	}
	got := applyVendorFallback(context.Background(), db, descs, Options{FallbackDatabase: "shop", FallbackTable: "orders"})

	if !got[0].Width1Bool {
		t.Errorf("is_active.Width1Bool = false, want true")
	}
	if !got[1].Unsigned {
		t.Errorf("qty.Unsigned = false, want true")
	}
}

func TestServerVersionSkippedForNonMySQL(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	if got := serverVersion(context.Background(), db, Options{DBName: "PostgreSQL"}); got != "" {
		t.Fatalf("serverVersion() = %q, want \"\" for a non-MySQL DBName", got)
	}
}

func TestServerVersionReadsMySQLVersion(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT @@version").WillReturnRows(
		sqlmock.NewRows([]string{"@@version"}).AddRow("8.0.34-26"),
	)

	got := serverVersion(context.Background(), db, Options{DBName: "MySQL"})
	if got != "8.0.34-26" {
		t.Fatalf("serverVersion() = %q, want %q", got, "8.0.34-26")
	}
}

func TestColumnEncodingOverridesAdaptsToColumnarfileShape(t *testing.T) {
	got := columnEncodingOverrides([]ColumnEncodingOverride{{Column: "id", Encoding: "PLAIN"}})
	want := []columnarfile.ColumnEncodingOverride{{Column: "id", Encoding: "PLAIN"}}
	if len(got) != 1 || got[0] != want[0] {
		t.Fatalf("columnEncodingOverrides() = %+v, want %+v", got, want)
	}
}

func TestColumnEncodingOverridesNilInputYieldsNil(t *testing.T) {
	if got := columnEncodingOverrides(nil); got != nil {
		t.Fatalf("columnEncodingOverrides(nil) = %+v, want nil", got)
	}
}

func TestPreviewHookDisabledWithoutDebugEnv(t *testing.T) {
	os.Unsetenv("DBXPORT_DEBUG")
	plan, err := convert.NewPlan([]coltype.ColumnDescriptor{{Name: "id", SQLType: "INT"}}, coltype.MappingOptions{})
	if err != nil {
		t.Fatalf("NewPlan() error = %v", err)
	}
	if hook := previewHook(plan); hook != nil {
		t.Fatalf("previewHook() = non-nil, want nil when DBXPORT_DEBUG is unset")
	}
}

func TestPreviewHookEnabledUnderDebugEnv(t *testing.T) {
	os.Setenv("DBXPORT_DEBUG", "1")
	defer os.Unsetenv("DBXPORT_DEBUG")
	plan, err := convert.NewPlan([]coltype.ColumnDescriptor{{Name: "id", SQLType: "INT"}}, coltype.MappingOptions{})
	if err != nil {
		t.Fatalf("NewPlan() error = %v", err)
	}
	hook := previewHook(plan)
	if hook == nil {
		t.Fatalf("previewHook() = nil, want non-nil when DBXPORT_DEBUG=1")
	}
	// Exercise it once to confirm it doesn't panic on a short batch.
	hook(&fetch.RowBatch{Columns: [][]any{{int64(1)}}, Rows: 1})
}

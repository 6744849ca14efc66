package query

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/y-trudeau/dbxport/coltype"
	"github.com/y-trudeau/dbxport/columnarfile"
	"github.com/y-trudeau/dbxport/internal/connect"
	"github.com/y-trudeau/dbxport/convert"
	"github.com/y-trudeau/dbxport/errs"
	"github.com/y-trudeau/dbxport/fetch"
	"github.com/y-trudeau/dbxport/internal/logx"
	"github.com/y-trudeau/dbxport/internal/mysqlddl"
	"github.com/y-trudeau/dbxport/internal/preview"
	"github.com/y-trudeau/dbxport/sizelimit"
)

// previewRows caps how many rows of the first fetched batch are dumped by
// previewHook; enough to eyeball shape and NULL handling without flooding
// stderr on a wide result set.
const previewRows = 5

// previewHook builds convert.BlockCursorToParquet's optional diagnostic
// callback, gated on DBXPORT_DEBUG (spec §9 "optional diagnostic
// preview"): it writes the first previewRows rows of the first fetched
// batch to stderr in SELECT INTO OUTFILE style, headed by the column
// names. Returns nil when debug logging is off, so the hot path pays
// nothing for it.
func previewHook(plan *convert.Plan) func(*fetch.RowBatch) {
	if os.Getenv("DBXPORT_DEBUG") != "1" {
		return nil
	}
	names := make([]string, len(plan.Strategies()))
	for i, s := range plan.Strategies() {
		names[i] = s.ColumnName()
	}

	return func(batch *fetch.RowBatch) {
		w := preview.NewWriter(os.Stderr)
		header := make([]any, len(names))
		for i, n := range names {
			header[i] = n
		}
		_ = w.Write(header)

		rows := batch.Rows
		if rows > previewRows {
			rows = previewRows
		}
		for r := 0; r < rows; r++ {
			row := make([]any, len(batch.Columns))
			for c, col := range batch.Columns {
				row[c] = col[r]
			}
			_ = w.Write(row)
		}
		_ = w.Flush()
	}
}

// defaultFetchRows is used when neither BatchSizeRow nor BatchSizeMemory is
// set: sizelimit.BatchSizeLimit.EffectiveRows returns its DriverDefault
// sentinel in that case, and database/sql (unlike a raw tabular driver
// handle) has no notion of the driver choosing its own array size, so the
// orchestrator must pick a concrete number itself.
const defaultFetchRows = 1000

// resolveStatementText reads standard input to end-of-stream when stmt is
// the single character "-" (spec §6), and returns stmt unchanged otherwise.
func resolveStatementText(stmt string) (string, error) {
	if stmt != "-" {
		return stmt, nil
	}
	buf, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("%w: reading statement text from standard input: %v", errs.QueryFailure, err)
	}
	return string(buf), nil
}

// Run executes opt.Statement against a connection opened per connOpts,
// transcodes the result into one or more columnar files, and returns the
// cumulative row count (spec §4.F).
func Run(ctx context.Context, connOpts connect.Options, opt Options) (uint64, error) {
	stmt, err := resolveStatementText(opt.Statement)
	if err != nil {
		return 0, err
	}

	db, err := connect.Open(ctx, connOpts)
	if err != nil {
		return 0, err
	}
	defer db.Close()

	args := make([]any, len(opt.Parameters))
	for i, p := range opt.Parameters {
		args[i] = p
	}

	rows, err := db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", errs.QueryFailure, err)
	}
	defer rows.Close()

	cols, err := rows.ColumnTypes()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", errs.QueryFailure, err)
	}
	if len(cols) == 0 {
		// The cursor yielded no result-set metadata at all; per spec §4.F
		// (vi) and the Open Question in §9(iii), this is success with zero
		// rows and no file is created.
		logx.Debug("query came back empty; no file created")
		return 0, nil
	}

	descs, err := coltype.DescribeColumns(cols)
	if err != nil {
		return 0, err
	}
	descs = applyVendorFallback(ctx, db, descs, opt)

	plan, err := convert.NewPlan(descs, coltype.MappingOptions{
		DBName:            opt.DBName,
		UseUTF16:          opt.UseUTF16,
		PreferVarbinary:   opt.PreferVarbinary,
		AvoidDecimal:      opt.AvoidDecimal,
		DriverSupportsI64: opt.DriverSupportsI64,
		ColumnLengthLimit: opt.ColumnLengthLimit,
		ServerVersion:     serverVersion(ctx, db, opt),
	})
	if err != nil {
		return 0, err
	}

	root, err := plan.SchemaRoot()
	if err != nil {
		return 0, err
	}

	batchLimit := sizelimit.NewBatchSizeLimit(opt.BatchSizeRow, opt.BatchSizeMemory)
	effectiveRows, err := batchLimit.EffectiveRows(plan.PerRowBytes())
	if err != nil {
		return 0, err
	}
	if effectiveRows == sizelimit.DriverDefault {
		effectiveRows = defaultFetchRows
	}

	var src fetch.Source
	if opt.ConcurrentFetching {
		src = fetch.NewConcurrent(ctx, rows, plan.Strategies(), int(effectiveRows))
	} else {
		src = fetch.NewSequential(rows, plan.Strategies(), int(effectiveRows))
	}
	defer src.Close()

	writer, err := columnarfile.NewWriter(opt.Output, root, columnarfile.Options{
		FileSizeLimit: sizelimit.FileSizeLimit{
			RowGroupsPerFile: opt.RowGroupsPerFile,
			ByteThreshold:    opt.FileSizeThreshold,
		},
		SuffixLength:            opt.SuffixLength,
		NoEmptyFile:             opt.NoEmptyFile,
		CompressionCodec:        opt.CompressionCodec,
		ColumnEncodingOverrides: columnEncodingOverrides(opt.ColumnEncodingOverrides),
	})
	if err != nil {
		return 0, err
	}

	rowCount, err := convert.BlockCursorToParquet(ctx, src, plan, writer, previewHook(plan))
	if err != nil {
		_ = writer.Abort()
		return 0, err
	}
	return rowCount, nil
}

// serverVersion best-effort queries the MySQL-family server's own @@version
// for coltype.MappingOptions.ServerVersion's version-gated quirks. Any
// failure (a non-MySQL server, or one whose driver doesn't support the
// query) just disables those quirks rather than failing the export.
func serverVersion(ctx context.Context, db *sql.DB, opt Options) string {
	if !strings.EqualFold(opt.DBName, "MySQL") {
		return ""
	}
	v, err := mysqlddl.ServerVersion(ctx, db)
	if err != nil {
		logx.Debugf("could not read server version, version-gated quirks disabled", "error", err)
		return ""
	}
	return v
}

// columnEncodingOverrides adapts QueryOptions' override list to the shape
// columnarfile.Options expects.
func columnEncodingOverrides(in []ColumnEncodingOverride) []columnarfile.ColumnEncodingOverride {
	if in == nil {
		return nil
	}
	out := make([]columnarfile.ColumnEncodingOverride, len(in))
	for i, o := range in {
		out[i] = columnarfile.ColumnEncodingOverride{Column: o.Column, Encoding: o.Encoding}
	}
	return out
}

// applyVendorFallback fills in ColumnDescriptor fields the driver's own
// metadata cannot express (spec §4.B "db_name is used only to select
// vendor-specific fallbacks"), by re-reading a single table's DDL. It only
// applies when the caller identifies the source table explicitly
// (opt.FallbackDatabase/FallbackTable): an arbitrary query's result set has
// no single originating table to introspect, so this is necessarily an
// opt-in narrowing rather than a general mechanism. Any failure here is
// logged and otherwise non-fatal: columns just keep their driver-reported
// defaults.
func applyVendorFallback(ctx context.Context, db *sql.DB, descs []coltype.ColumnDescriptor, opt Options) []coltype.ColumnDescriptor {
	if opt.FallbackDatabase == "" || opt.FallbackTable == "" {
		return descs
	}
	ddl, err := mysqlddl.GetCreateTable(ctx, db, opt.FallbackDatabase, opt.FallbackTable)
	if err != nil {
		logx.Error(err, "vendor fallback: could not read table DDL, columns keep driver defaults")
		return descs
	}
	logx.Debugf("vendor fallback: read table DDL", "engine", mysqlddl.Engine(ddl), "charset", mysqlddl.Charset(ddl))

	quirks := mysqlddl.ParseColumnQuirks(ddl)
	out := make([]coltype.ColumnDescriptor, len(descs))
	for i, d := range descs {
		if q, ok := quirks[d.Name]; ok {
			d.Width1Bool = q.Width1Bool
			d.Unsigned = q.Unsigned
			if q.FractionalDigits >= 0 {
				d.TimestampFractionalDigits = q.FractionalDigits
			}
		}
		out[i] = d
	}
	return out
}

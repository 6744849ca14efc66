// Package query implements the Query Orchestrator (spec §4.F): it resolves
// the statement text, opens a connection, executes the query, and wires
// together the Batch Size Governor, Column Strategy Registry, Conversion
// Strategy, Fetch Batch Source, and Rollover Writer.
package query

import (
	"github.com/apache/arrow-go/v18/parquet/compress"

	"github.com/y-trudeau/dbxport/columnarfile"
)

// Options is QueryOptions (spec §3): the immutable request descriptor a
// caller builds once and passes to Run.
type Options struct {
	// Statement is the SQL text, or "-" to read it from standard input
	// until end-of-stream (spec §6 "Statement-text convention").
	Statement string
	// Parameters are bound positionally, each as a text parameter.
	Parameters []string

	Output columnarfile.Target

	CompressionCodec compress.Compression
	// ColumnEncodingOverrides is an ordered list of (column name, encoding)
	// pairs; nil means "automatic encoding per column".
	ColumnEncodingOverrides []ColumnEncodingOverride

	// BatchSizeRow and BatchSizeMemory are the Batch Size Governor's caps;
	// nil means unbounded on that axis.
	BatchSizeRow    *uint64
	BatchSizeMemory *uint64

	RowGroupsPerFile  uint32
	FileSizeThreshold uint64
	SuffixLength      int
	NoEmptyFile       bool

	// ConcurrentFetching selects the double-buffered producer/consumer
	// fetch source (spec §4.D) over the default sequential one.
	ConcurrentFetching bool

	// DBName hints which vendor-specific fallback coltype.Select should
	// apply (e.g. MySQL's TINYINT(1)-is-boolean convention). The tabular
	// driver API has no portable way to ask the driver for this at
	// runtime through database/sql, so it is supplied by the caller
	// instead of introspected.
	DBName string
	// FallbackDatabase and FallbackTable, when both set, let the MySQL
	// vendor fallback (internal/mysqlddl) recover detail *sql.ColumnType
	// can't report (TINYINT(1)-as-boolean, UNSIGNED) for a query known to
	// read a single table.
	FallbackDatabase string
	FallbackTable    string

	UseUTF16          bool
	PreferVarbinary   bool
	AvoidDecimal      bool
	DriverSupportsI64 bool
	ColumnLengthLimit int64
}

// ColumnEncodingOverride pins one column to an explicit parquet encoding
// instead of the automatic per-type default.
type ColumnEncodingOverride struct {
	Column   string
	Encoding string
}

// DefaultOptions mirrors the defaults the foreign entry point applies
// (spec §6): Zstd compression, automatic encoding, a 4096 column-length
// cap, suffix length 2, no file-size or row-group limits, sequential
// fetching, no parameters.
func DefaultOptions() Options {
	return Options{
		CompressionCodec:  compress.Codecs.Zstd,
		SuffixLength:      2,
		ColumnLengthLimit: 4096,
		DriverSupportsI64: true,
	}
}

/*
   Copyright 2025, Yves Trudeau, Percona Inc.

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at


       http://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License.

   dbxport runs a SQL query against an ODBC data source and writes the
   result set to one or more Parquet files.
*/

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/apache/arrow-go/v18/parquet/compress"

	"github.com/y-trudeau/dbxport/columnarfile"
	"github.com/y-trudeau/dbxport/internal/connect"
	"github.com/y-trudeau/dbxport/internal/dsnutil"
	"github.com/y-trudeau/dbxport/internal/encodinglist"
	"github.com/y-trudeau/dbxport/internal/logx"
	"github.com/y-trudeau/dbxport/query"
)

var bDebug = false

type Configuration struct {
	ConnectionString     string // ODBC connection string used to reach the source database.
	Dsn                  string // Comma-delimited DSN shorthand ("h=host,P=1433,u=bob,D=mydb"), expanded into --connection-string when set.
	MaxConnectRetries    uint   // Number of retries after a connection attempt fails.
	ConnectRetryInterval uint   // Seconds to wait between connect retries.
	MinServerVersion     string // Reject a MySQL-family server reporting an older @@version than this.

	Query  string // SQL statement text, or "-" to read it from standard input.
	Output string // Output path; under rollover, "out.parquet" becomes "out_01.parquet" etc.
	Stdout bool   // Write the single output file to standard output instead of --output.

	BatchSizeRow    uint64 // Row cap per fetch; 0 means unbounded on this axis.
	BatchSizeMemory uint64 // Byte cap per fetch; 0 means unbounded on this axis.

	RowGroupsPerFile  uint   // Close and roll over after this many row groups; 0 means never.
	FileSizeThreshold uint64 // Close and roll over once the current file reaches this many bytes; 0 means never.
	SuffixLength      int    // Width of the zero-padded numeric suffix inserted under rollover.
	NoEmptyFile       bool   // Suppress the schema-only file when the query returns zero rows.

	Compression string // Column compression codec: "zstd", "snappy", "gzip", or "none".

	ConcurrentFetching bool // Use the double-buffered producer/consumer fetch source.

	DBName           string // Hints the vendor fallback in coltype.Select, e.g. "MySQL".
	FallbackDatabase string // Paired with --fallback-table to recover MySQL DDL quirks.
	FallbackTable    string

	UseUTF16          bool  // Treat text columns as UTF-16 before transcoding to UTF-8.
	PreferVarbinary   bool  // Passed through to coltype; binary columns are always written as variable-length byte arrays, with or without it.
	AvoidDecimal      bool  // Bind DECIMAL/NUMERIC columns as text instead of fixed-point.
	DriverSupportsI64 bool  // Whether the driver can bind 64-bit integers directly.
	ColumnLengthLimit int64 // Cap applied to variable-width columns with no declared length.

	ColumnEncodings string // Comma-separated "column=ENCODING" overrides, e.g. "id=PLAIN,notes=DELTA_BYTE_ARRAY".

	Parameters string // Comma-separated, quote-aware list of bound parameters.

	Version bool // Print the version and exit.
}

var Config Configuration

func (config *Configuration) init() {
	flag.StringVar(&config.ConnectionString, "connection-string", "", "ODBC connection string used to reach the source database.")
	flag.StringVar(&config.Dsn, "dsn", "", `Comma-delimited DSN shorthand ("h=host,P=1433,u=bob,D=mydb"), expanded into --connection-string when --connection-string is unset.`)
	flag.UintVar(&config.MaxConnectRetries, "max-connect-retries", 0, "Number of retries after a connection attempt fails.")
	flag.UintVar(&config.ConnectRetryInterval, "connect-retry-interval", 1, "Seconds to wait between connect retries.")
	flag.StringVar(&config.MinServerVersion, "min-server-version", "", `Reject a MySQL-family server reporting an older @@version than this, e.g. "5.6.4".`)

	flag.StringVar(&config.Query, "query", "-", `SQL statement text, or "-" to read it from standard input.`)
	flag.StringVar(&config.Output, "output", "out.parquet", "Output path.")
	flag.BoolVar(&config.Stdout, "stdout", false, "Write the single output file to standard output instead of --output.")

	flag.Uint64Var(&config.BatchSizeRow, "batch-size-row", 0, "Row cap per fetch; 0 means unbounded on this axis.")
	flag.Uint64Var(&config.BatchSizeMemory, "batch-size-memory", 0, "Byte cap per fetch; 0 means unbounded on this axis.")

	flag.UintVar(&config.RowGroupsPerFile, "row-groups-per-file", 0, "Close and roll over after this many row groups; 0 means never.")
	flag.Uint64Var(&config.FileSizeThreshold, "file-size-threshold", 0, "Close and roll over once the current file reaches this many bytes; 0 means never.")
	flag.IntVar(&config.SuffixLength, "suffix-length", 2, "Width of the zero-padded numeric suffix inserted under rollover.")
	flag.BoolVar(&config.NoEmptyFile, "no-empty-file", false, "Suppress the schema-only file when the query returns zero rows.")

	flag.StringVar(&config.Compression, "compression", "zstd", `Column compression codec: "zstd", "snappy", "gzip", or "none".`)

	flag.BoolVar(&config.ConcurrentFetching, "concurrent-fetching", false, "Use the double-buffered producer/consumer fetch source.")

	flag.StringVar(&config.DBName, "db-name", "", `Hints the vendor fallback in coltype.Select, e.g. "MySQL".`)
	flag.StringVar(&config.FallbackDatabase, "fallback-database", "", "Paired with --fallback-table to recover MySQL DDL quirks.")
	flag.StringVar(&config.FallbackTable, "fallback-table", "", "Paired with --fallback-database to recover MySQL DDL quirks.")
	flag.BoolVar(&config.UseUTF16, "use-utf16", false, "Treat text columns as UTF-16 before transcoding to UTF-8.")
	flag.BoolVar(&config.PreferVarbinary, "prefer-varbinary", false, "Accepted but has no effect: binary columns are always written as variable-length byte arrays.")
	flag.BoolVar(&config.AvoidDecimal, "avoid-decimal", false, "Bind DECIMAL/NUMERIC columns as text instead of fixed-point.")
	flag.BoolVar(&config.DriverSupportsI64, "driver-supports-i64", true, "Whether the driver can bind 64-bit integers directly.")
	flag.Int64Var(&config.ColumnLengthLimit, "column-length-limit", 4096, "Cap applied to variable-width columns with no declared length.")

	flag.StringVar(&config.ColumnEncodings, "column-encodings", "", `Comma-separated "column=ENCODING" overrides, e.g. "id=PLAIN,notes=DELTA_BYTE_ARRAY".`)

	flag.StringVar(&config.Parameters, "parameters", "", "Comma-separated, quote-aware list of bound parameters.")

	flag.BoolVar(&config.Version, "version", false, "Show version and exit.")
}

func (config *Configuration) Print() {
	fmt.Printf("Parameters read from the command line or at their default values:\n")
	fmt.Printf("connection-string is set to: '%v'\n", config.ConnectionString)
	fmt.Printf("dsn is set to: '%v'\n", config.Dsn)
	fmt.Printf("max-connect-retries is set to: %v\n", config.MaxConnectRetries)
	fmt.Printf("connect-retry-interval is set to: %v\n", config.ConnectRetryInterval)
	fmt.Printf("min-server-version is set to: '%v'\n", config.MinServerVersion)
	fmt.Printf("query is set to: '%v'\n", config.Query)
	fmt.Printf("output is set to: '%v'\n", config.Output)
	fmt.Printf("stdout is set to: %v\n", config.Stdout)
	fmt.Printf("batch-size-row is set to: %v\n", config.BatchSizeRow)
	fmt.Printf("batch-size-memory is set to: %v\n", config.BatchSizeMemory)
	fmt.Printf("row-groups-per-file is set to: %v\n", config.RowGroupsPerFile)
	fmt.Printf("file-size-threshold is set to: %v\n", config.FileSizeThreshold)
	fmt.Printf("suffix-length is set to: %v\n", config.SuffixLength)
	fmt.Printf("no-empty-file is set to: %v\n", config.NoEmptyFile)
	fmt.Printf("compression is set to: %v\n", config.Compression)
	fmt.Printf("concurrent-fetching is set to: %v\n", config.ConcurrentFetching)
	fmt.Printf("db-name is set to: '%v'\n", config.DBName)
	fmt.Printf("fallback-database is set to: '%v'\n", config.FallbackDatabase)
	fmt.Printf("fallback-table is set to: '%v'\n", config.FallbackTable)
	fmt.Printf("use-utf16 is set to: %v\n", config.UseUTF16)
	fmt.Printf("prefer-varbinary is set to: %v\n", config.PreferVarbinary)
	fmt.Printf("avoid-decimal is set to: %v\n", config.AvoidDecimal)
	fmt.Printf("driver-supports-i64 is set to: %v\n", config.DriverSupportsI64)
	fmt.Printf("column-length-limit is set to: %v\n", config.ColumnLengthLimit)
	fmt.Printf("column-encodings is set to: '%v'\n", config.ColumnEncodings)
	fmt.Printf("parameters is set to: '%v'\n", config.Parameters)
	fmt.Printf("version is set to: %v\n", config.Version)
}

func (config *Configuration) Validate() error {
	if config.ConnectionString == "" {
		return fmt.Errorf("'connection-string' must be set")
	}
	if config.Query == "" {
		return fmt.Errorf("'query' must be set")
	}
	if config.Output == "" && !config.Stdout {
		return fmt.Errorf("one of 'output' or 'stdout' must be set")
	}
	if config.Stdout && config.RowGroupsPerFile != 0 {
		return fmt.Errorf("'row-groups-per-file' is incompatible with 'stdout'")
	}
	if config.Stdout && config.FileSizeThreshold != 0 {
		return fmt.Errorf("'file-size-threshold' is incompatible with 'stdout'")
	}
	switch config.Compression {
	case "zstd", "snappy", "gzip", "none":
	default:
		return fmt.Errorf("allowed values for --compression are 'zstd', 'snappy', 'gzip', or 'none'")
	}
	if config.SuffixLength <= 0 {
		return fmt.Errorf("'suffix-length' must be positive")
	}
	if config.ColumnLengthLimit <= 0 {
		return fmt.Errorf("'column-length-limit' must be positive")
	}
	return nil
}

func (config *Configuration) Usage() error {
	return nil
}

// expandDsn parses the comma-delimited --dsn shorthand and expands it into
// a full ODBC connection string.
func expandDsn(shorthand string) (string, error) {
	var d dsnutil.Dsn
	if err := d.Parse(shorthand); err != nil {
		return "", err
	}
	return d.ConnectionString(), nil
}

func compressionCodec(name string) compress.Compression {
	switch name {
	case "snappy":
		return compress.Codecs.Snappy
	case "gzip":
		return compress.Codecs.Gzip
	case "none":
		return compress.Codecs.Uncompressed
	default:
		return compress.Codecs.Zstd
	}
}

func main() {
	if os.Getenv("DBXPORT_DEBUG") == "1" {
		bDebug = true
	}

	Config.init()

	flag.Usage = func() {
		fmt.Print(`
Usage: dbxport [OPTIONS] --connection-string DSN --query SQL --output FILE

dbxport runs a query against a database reachable over ODBC and writes the
result set to one or more Parquet files.

Examples:

Export a table to a single Parquet file:

  dbxport --connection-string "DSN=mydb" --query "SELECT * FROM orders" \
    --output orders.parquet

Export in 1000-row-group chunks, 10 row groups per file:

  dbxport --connection-string "DSN=mydb" --query "SELECT * FROM big_table" \
    --output big_table.parquet --batch-size-row 1000 --row-groups-per-file 10

`)
		flag.VisitAll(func(f *flag.Flag) {
			fmt.Println(" --"+f.Name, "  "+f.Usage, "(Default: ", f.DefValue, ")")
		})
	}

	flag.Parse()

	if Config.ConnectionString == "" && Config.Dsn != "" {
		expanded, err := expandDsn(Config.Dsn)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error expanding --dsn: %v\n", err)
			os.Exit(1)
		}
		Config.ConnectionString = expanded
	}

	if bDebug {
		Config.Print()
	}

	if Config.Version {
		fmt.Println("dbxport version 0.1")
		os.Exit(0)
	}

	if err := Config.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "error validating the command line arguments: %v\n", err)
		os.Exit(1)
	}

	if err := run(Config); err != nil {
		logx.Error(err, "export failed")
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg Configuration) error {
	ctx := context.Background()

	var params []string
	if strings.TrimSpace(cfg.Parameters) != "" {
		params = encodinglist.ParseParameters(cfg.Parameters)
	}

	var encodingOverrides []query.ColumnEncodingOverride
	if strings.TrimSpace(cfg.ColumnEncodings) != "" {
		parsed, err := encodinglist.ParseColumnEncodings(cfg.ColumnEncodings)
		if err != nil {
			return fmt.Errorf("'column-encodings': %w", err)
		}
		encodingOverrides = make([]query.ColumnEncodingOverride, len(parsed))
		for i, p := range parsed {
			encodingOverrides[i] = query.ColumnEncodingOverride{Column: p.Column, Encoding: p.Encoding}
		}
	}

	var out columnarfile.Target
	if cfg.Stdout {
		out = columnarfile.Target{Stdout: os.Stdout}
	} else {
		out = columnarfile.Target{Path: cfg.Output}
	}

	opt := query.DefaultOptions()
	opt.Statement = cfg.Query
	opt.Output = out
	opt.Parameters = params
	opt.CompressionCodec = compressionCodec(cfg.Compression)
	if cfg.BatchSizeRow != 0 {
		v := cfg.BatchSizeRow
		opt.BatchSizeRow = &v
	}
	if cfg.BatchSizeMemory != 0 {
		v := cfg.BatchSizeMemory
		opt.BatchSizeMemory = &v
	}
	opt.RowGroupsPerFile = uint32(cfg.RowGroupsPerFile)
	opt.FileSizeThreshold = cfg.FileSizeThreshold
	opt.SuffixLength = cfg.SuffixLength
	opt.NoEmptyFile = cfg.NoEmptyFile
	opt.ConcurrentFetching = cfg.ConcurrentFetching
	opt.DBName = cfg.DBName
	opt.FallbackDatabase = cfg.FallbackDatabase
	opt.FallbackTable = cfg.FallbackTable
	opt.UseUTF16 = cfg.UseUTF16
	opt.PreferVarbinary = cfg.PreferVarbinary
	opt.AvoidDecimal = cfg.AvoidDecimal
	opt.DriverSupportsI64 = cfg.DriverSupportsI64
	opt.ColumnLengthLimit = cfg.ColumnLengthLimit
	opt.ColumnEncodingOverrides = encodingOverrides

	connOpts := connect.Options{
		ConnectionString:     cfg.ConnectionString,
		MaxConnectRetries:    uint32(cfg.MaxConnectRetries),
		ConnectRetryInterval: time.Duration(cfg.ConnectRetryInterval) * time.Second,
		MinServerVersion:     cfg.MinServerVersion,
	}

	rows, err := query.Run(ctx, connOpts, opt)
	if err != nil {
		return err
	}

	logx.Debugf("export complete", "rows", rows)
	fmt.Printf("%d rows written\n", rows)
	return nil
}

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

   libdbxport exposes a single C ABI entry point for embedding the export
   pipeline into a host process (spec §6): a connection string, a SQL
   statement, and an output path in, a row count out. Build with
   `go build -buildmode=c-shared`.
*/
package main

/*
#include <stddef.h>
*/
import "C"

import (
	"context"
	"fmt"
	"os"

	"github.com/y-trudeau/dbxport/columnarfile"
	"github.com/y-trudeau/dbxport/internal/connect"
	"github.com/y-trudeau/dbxport/internal/logx"
	"github.com/y-trudeau/dbxport/query"
)

// ExportOdbcToParquet runs connectionStr's statement sqlQuery and writes the
// result set to outputPath, applying query.DefaultOptions() throughout. It
// returns the row count on success. On failure it logs a diagnostic and
// returns 1 rather than an error code: a genuine one-row export is
// indistinguishable from that failure sentinel at this ABI boundary. This
// mirrors the foreign entry point this function replaces and is retained
// deliberately rather than silently fixed, since widening the return type
// would break existing callers built against the narrower contract.
//
//export ExportOdbcToParquet
func ExportOdbcToParquet(connectionStr, sqlQuery, outputPath *C.char) C.size_t {
	connStr := C.GoString(connectionStr)
	stmt := C.GoString(sqlQuery)
	outPath := C.GoString(outputPath)

	rows, err := runExport(connStr, stmt, outPath)
	if err != nil {
		logx.Error(err, "FFI export failed")
		fmt.Fprintf(os.Stderr, "FFI export failed: %v\n", err)
		return 1
	}
	return C.size_t(rows)
}

func runExport(connStr, stmt, outPath string) (uint64, error) {
	ctx := context.Background()

	connOpts := connect.Options{ConnectionString: connStr}

	opt := query.DefaultOptions()
	opt.Statement = stmt
	opt.Output = columnarfile.Target{Path: outPath}

	return query.Run(ctx, connOpts, opt)
}

func main() {}

// Package fetch implements the Fetch Batch Source (spec §4.D): a sequential
// or concurrent producer of filled row batches pulled off a bound
// *sql.Rows cursor.
package fetch

import (
	"context"
)

// RowBatch is one fetch unit: up to effective_rows rows, held column-major.
// Columns[c][r] is either nil (SQL NULL) or the concrete Go value
// coltype.ColumnStrategy.ScanValue produced for column c, row r. Rows is the
// number of valid rows actually filled (may be less than cap(Columns[c])
// on the final, partial batch).
type RowBatch struct {
	Columns [][]any
	Rows    int
}

// Source is the contract both the sequential and concurrent fetchers
// implement: FetchNext returns the next batch, or (nil, nil) once the
// cursor is exhausted.
type Source interface {
	FetchNext(ctx context.Context) (*RowBatch, error)
	// Close releases any resources (goroutines, buffers) held by the
	// source. Safe to call more than once.
	Close() error
}

func newColumns(numCols int, batchRows int) [][]any {
	cols := make([][]any, numCols)
	for i := range cols {
		cols[i] = make([]any, batchRows)
	}
	return cols
}

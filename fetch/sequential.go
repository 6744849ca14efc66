package fetch

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/y-trudeau/dbxport/coltype"
	"github.com/y-trudeau/dbxport/errs"
)

// Sequential fetches batches synchronously on the caller's goroutine: the
// caller's own call to FetchNext drives the cursor, one *sql.Rows.Scan per
// row, up to batchRows rows per call (spec §4.D "Sequential").
type Sequential struct {
	rows       *sql.Rows
	strategies []coltype.ColumnStrategy
	batchRows  int
	done       bool
}

// NewSequential wraps an already-executed cursor. batchRows is the
// effective row count sizelimit.BatchSizeLimit.EffectiveRows computed for
// this query; it caps how many rows one FetchNext call advances.
func NewSequential(rows *sql.Rows, strategies []coltype.ColumnStrategy, batchRows int) *Sequential {
	return &Sequential{rows: rows, strategies: strategies, batchRows: batchRows}
}

func (s *Sequential) FetchNext(ctx context.Context) (*RowBatch, error) {
	if s.done {
		return nil, nil
	}

	batch := &RowBatch{Columns: newColumns(len(s.strategies), s.batchRows)}
	dest := make([]any, len(s.strategies))

	for batch.Rows < s.batchRows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !s.rows.Next() {
			s.done = true
			break
		}
		for i, strat := range s.strategies {
			dest[i] = strat.ScanDest()
		}
		if err := s.rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("%w: %v", errs.FetchFailure, err)
		}
		for i, strat := range s.strategies {
			v, err := strat.ScanValue(dest[i])
			if err != nil {
				return nil, err
			}
			batch.Columns[i][batch.Rows] = v
		}
		batch.Rows++
	}

	if err := s.rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", errs.FetchFailure, err)
	}
	if batch.Rows == 0 {
		return nil, nil
	}
	for i := range batch.Columns {
		batch.Columns[i] = batch.Columns[i][:batch.Rows]
	}
	return batch, nil
}

func (s *Sequential) Close() error {
	s.done = true
	return nil
}

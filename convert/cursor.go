package convert

import (
	"context"

	"github.com/y-trudeau/dbxport/columnarfile"
	"github.com/y-trudeau/dbxport/fetch"
)

// BlockCursorToParquet is the outer driver loop (spec §4.C
// "block_cursor_to_parquet"): pull batches from src until exhaustion,
// transcoding each into a fresh row group of writer and asking writer to
// evaluate rollover between batches. It returns the cumulative row count.
// If onFirstBatch is non-nil, it is called once with the first non-empty
// batch pulled, before that batch is transcoded (spec §9 optional
// diagnostic preview).
func BlockCursorToParquet(ctx context.Context, src fetch.Source, plan *Plan, writer *columnarfile.Writer, onFirstBatch func(*fetch.RowBatch)) (uint64, error) {
	for {
		batch, err := src.FetchNext(ctx)
		if err != nil {
			return 0, err
		}
		if batch == nil {
			break
		}

		if onFirstBatch != nil {
			onFirstBatch(batch)
			onFirstBatch = nil
		}

		rgw, err := writer.BeginRowGroup()
		if err != nil {
			return 0, err
		}
		rows, err := plan.Transcode(batch, rgw)
		if err != nil {
			return 0, err
		}
		if err := writer.CloseRowGroup(rgw, rows); err != nil {
			return 0, err
		}

		if returner, ok := src.(interface {
			Return(*fetch.RowBatch)
		}); ok {
			returner.Return(batch)
		}
	}

	return writer.Finish()
}

package fetch

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/y-trudeau/dbxport/coltype"
	"github.com/y-trudeau/dbxport/errs"
)

// Concurrent is the double-buffered producer/consumer fetch source (spec
// §4.D "Concurrent"). Exactly one auxiliary goroutine fills buffer i while
// the caller transcodes buffer 1-i; handoff is two channels: a depth-1
// channel carrying filled batches to the consumer, and a channel returning
// emptied buffers to the producer whose capacity of 2 holds both buffers,
// so the constructor can queue them up front. The consumer only ever reads
// the buffer the producer just released.
type Concurrent struct {
	rows       *sql.Rows
	strategies []coltype.ColumnStrategy
	batchRows  int

	filled chan filledMsg
	empty  chan *RowBatch

	cancel context.CancelFunc
	group  *errgroup.Group

	closeOnce sync.Once
}

type filledMsg struct {
	batch *RowBatch
	err   error
}

// NewConcurrent spawns the one permitted auxiliary worker goroutine
// immediately; the first FetchNext call receives whatever it has already
// produced.
func NewConcurrent(ctx context.Context, rows *sql.Rows, strategies []coltype.ColumnStrategy, batchRows int) *Concurrent {
	ctx, cancel := context.WithCancel(ctx)
	group, gctx := errgroup.WithContext(ctx)

	c := &Concurrent{
		rows:       rows,
		strategies: strategies,
		batchRows:  batchRows,
		filled:     make(chan filledMsg, 1),
		empty:      make(chan *RowBatch, 2),
		cancel:     cancel,
		group:      group,
	}

	// Two buffers in flight: one the producer fills while the consumer
	// drains the other.
	c.empty <- &RowBatch{Columns: newColumns(len(strategies), batchRows)}
	c.empty <- &RowBatch{Columns: newColumns(len(strategies), batchRows)}

	group.Go(func() error {
		c.produce(gctx)
		return nil
	})

	return c
}

func (c *Concurrent) produce(ctx context.Context) {
	dest := make([]any, len(c.strategies))

	for {
		var buf *RowBatch
		select {
		case <-ctx.Done():
			return
		case buf = <-c.empty:
		}

		buf.Rows = 0
		for i := range buf.Columns {
			if cap(buf.Columns[i]) < c.batchRows {
				buf.Columns[i] = make([]any, c.batchRows)
			}
			buf.Columns[i] = buf.Columns[i][:c.batchRows]
		}

		for buf.Rows < c.batchRows {
			if ctx.Err() != nil {
				return
			}
			if !c.rows.Next() {
				break
			}
			for i, strat := range c.strategies {
				dest[i] = strat.ScanDest()
			}
			if err := c.rows.Scan(dest...); err != nil {
				c.sendFilled(ctx, filledMsg{err: fmt.Errorf("%w: %v", errs.FetchFailure, err)})
				return
			}
			for i, strat := range c.strategies {
				v, err := strat.ScanValue(dest[i])
				if err != nil {
					c.sendFilled(ctx, filledMsg{err: err})
					return
				}
				buf.Columns[i][buf.Rows] = v
			}
			buf.Rows++
		}

		if err := c.rows.Err(); err != nil {
			c.sendFilled(ctx, filledMsg{err: fmt.Errorf("%w: %v", errs.FetchFailure, err)})
			return
		}
		if buf.Rows == 0 {
			c.sendFilled(ctx, filledMsg{}) // end-of-cursor sentinel
			return
		}

		for i := range buf.Columns {
			buf.Columns[i] = buf.Columns[i][:buf.Rows]
		}
		if !c.sendFilled(ctx, filledMsg{batch: buf}) {
			return
		}
	}
}

func (c *Concurrent) sendFilled(ctx context.Context, msg filledMsg) bool {
	select {
	case c.filled <- msg:
		return true
	case <-ctx.Done():
		return false
	}
}

func (c *Concurrent) FetchNext(ctx context.Context) (*RowBatch, error) {
	select {
	case msg := <-c.filled:
		if msg.err != nil {
			return nil, msg.err
		}
		return msg.batch, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Return gives a drained batch's buffer back to the producer for reuse.
// Callers that are done transcoding a batch should call Return before the
// next FetchNext to keep the two-buffer pipeline full.
func (c *Concurrent) Return(batch *RowBatch) {
	if batch == nil {
		return
	}
	select {
	case c.empty <- batch:
	default:
		// Producer already exited (error or cancellation); drop silently.
	}
}

// Close cancels the producer and joins it, per the cooperative-cancellation
// contract in spec §5: the producer finishes its in-flight fetch call and
// exits without further side effects.
func (c *Concurrent) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		err = c.group.Wait()
	})
	return err
}

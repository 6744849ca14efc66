// Package convert implements the Conversion Strategy (spec §4.C): the
// table-level plan composed from per-column coltype.ColumnStrategy values,
// the columnar schema it produces, and the per-batch transcode loop.
package convert

import (
	"fmt"

	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/schema"

	"github.com/y-trudeau/dbxport/coltype"
	"github.com/y-trudeau/dbxport/errs"
	"github.com/y-trudeau/dbxport/fetch"
)

// Plan is a ConversionPlan (spec §3): the ordered strategies plus the
// derived schema and per-row byte footprint, fixed at construction and
// never reordered afterward.
type Plan struct {
	strategies []coltype.ColumnStrategy
}

// NewPlan builds a Plan from a cursor's described columns, selecting one
// ColumnStrategy per column via the registry.
func NewPlan(descs []coltype.ColumnDescriptor, opt coltype.MappingOptions) (*Plan, error) {
	strategies := make([]coltype.ColumnStrategy, len(descs))
	for i, d := range descs {
		s, err := coltype.Select(d, opt)
		if err != nil {
			return nil, err
		}
		strategies[i] = s
	}
	return &Plan{strategies: strategies}, nil
}

// Strategies exposes the ordered strategy list, e.g. for fetch.NewSequential
// and fetch.NewConcurrent, which must scan columns in the same order.
func (p *Plan) Strategies() []coltype.ColumnStrategy {
	return p.strategies
}

// SchemaRoot builds the parquet schema's root group node from the ordered
// strategies, assigning field IDs by column position.
func (p *Plan) SchemaRoot() (*schema.GroupNode, error) {
	fields := make([]schema.Node, len(p.strategies))
	for i, s := range p.strategies {
		node, err := s.Node(int32(i))
		if err != nil {
			return nil, err
		}
		fields[i] = node
	}
	root, err := schema.NewGroupNode("schema", parquet.Repetitions.Required, fields, -1)
	if err != nil {
		return nil, fmt.Errorf("%w: building schema: %v", errs.WriteFailure, err)
	}
	return root, nil
}

// PerRowBytes sums each strategy's advisory fetch width, the figure the
// Batch Size Governor (sizelimit) divides the byte budget by.
func (p *Plan) PerRowBytes() uint64 {
	var total int64
	for _, s := range p.strategies {
		total += s.FetchWidth()
	}
	if total <= 0 {
		return 1
	}
	return uint64(total)
}

// Transcode appends one batch's rows to rgw, column by column in schema
// order, and returns the number of rows appended.
func (p *Plan) Transcode(batch *fetch.RowBatch, rgw file.RowGroupWriter) (int64, error) {
	if len(batch.Columns) != len(p.strategies) {
		return 0, fmt.Errorf("%w: batch has %d columns, schema has %d", errs.WriteFailure, len(batch.Columns), len(p.strategies))
	}
	for i, s := range p.strategies {
		cw, err := rgw.NextColumn()
		if err != nil {
			return 0, fmt.Errorf("%w: column %q: %v", errs.WriteFailure, s.ColumnName(), err)
		}
		if _, err := s.WriteColumn(batch.Columns[i][:batch.Rows], cw); err != nil {
			return 0, err
		}
	}
	return int64(batch.Rows), nil
}

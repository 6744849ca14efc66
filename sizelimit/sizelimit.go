// Package sizelimit converts the user-facing row/byte/row-group/file-size
// budgets (QueryOptions) into the concrete buffer and rollover limits the
// rest of the pipeline drives off of.
package sizelimit

import (
	"fmt"

	"github.com/y-trudeau/dbxport/errs"
)

// BatchSizeLimit bounds a single fetch: at most MaxRows rows, and no more
// rows than fit under MaxBytes given a column layout's per-row footprint. A
// zero value on either axis means that axis is unbounded; at least one must
// be nonzero or EffectiveRows returns the driver-default sentinel.
type BatchSizeLimit struct {
	MaxRows  uint64
	MaxBytes uint64
}

// DriverDefault is returned by EffectiveRows when neither MaxRows nor
// MaxBytes is set: the caller should let the driver choose its own fetch
// array size.
const DriverDefault = 0

// NewBatchSizeLimit builds a BatchSizeLimit from optional caps. A nil
// pointer means "no cap on this axis".
func NewBatchSizeLimit(maxRows, maxBytes *uint64) BatchSizeLimit {
	var b BatchSizeLimit
	if maxRows != nil {
		b.MaxRows = *maxRows
	}
	if maxBytes != nil {
		b.MaxBytes = *maxBytes
	}
	return b
}

// EffectiveRows resolves the batch row count for a column layout whose
// fixed per-row footprint is perRowBytes. It returns DriverDefault if
// neither cap is set, InvalidConfiguration if both caps are set but a
// single row does not fit under the byte cap, and otherwise
// min(MaxRows, floor(MaxBytes/perRowBytes)) clamped to at least 1.
func (b BatchSizeLimit) EffectiveRows(perRowBytes uint64) (uint64, error) {
	if b.MaxRows == 0 && b.MaxBytes == 0 {
		return DriverDefault, nil
	}

	rows := b.MaxRows

	if b.MaxBytes != 0 {
		if perRowBytes == 0 {
			perRowBytes = 1
		}
		byRows := b.MaxBytes / perRowBytes
		if byRows == 0 {
			return 0, fmt.Errorf("%w: a single row (%d bytes) does not fit the %d byte batch cap",
				errs.InvalidConfiguration, perRowBytes, b.MaxBytes)
		}
		if rows == 0 || byRows < rows {
			rows = byRows
		}
	}

	if rows == 0 {
		rows = 1
	}
	return rows, nil
}

// FileSizeLimit bounds output rollover: a file is closed and the next
// opened once RowGroupsPerFile row groups have been written to it (if
// nonzero) or once its on-disk size reaches ByteThreshold (if nonzero).
// Both zero means the output is never rolled over.
type FileSizeLimit struct {
	RowGroupsPerFile uint32
	ByteThreshold    uint64
}

// Active reports whether either rollover axis is configured; when false,
// the Rollover Writer never inserts a numeric suffix into the output path.
func (f FileSizeLimit) Active() bool {
	return f.RowGroupsPerFile != 0 || f.ByteThreshold != 0
}

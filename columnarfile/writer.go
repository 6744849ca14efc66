// Package columnarfile implements the Rollover Writer (spec §4.E): it
// wraps the columnar encoder, manages row-group boundaries, monitors
// on-disk file size, and rotates output files with a zero-padded numeric
// suffix when configured to do so.
package columnarfile

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/schema"

	"github.com/y-trudeau/dbxport/errs"
	"github.com/y-trudeau/dbxport/internal/logx"
	"github.com/y-trudeau/dbxport/sizelimit"
)

// Target is the CurrentFile's output: either a filesystem path (opened
// write-truncate, one per rollover) or the process's standard output
// stream (single file only; rollover against a stream is an error).
type Target struct {
	Path   string
	Stdout io.Writer
}

// Options configures rollover and encoding policy, independent of any one
// query (spec §3 QueryOptions' output-related fields).
type Options struct {
	FileSizeLimit    sizelimit.FileSizeLimit
	SuffixLength     int
	NoEmptyFile      bool
	CompressionCodec compress.Compression
	// ColumnEncodingOverrides pins individual columns to an explicit
	// parquet encoding instead of the per-type automatic default (spec §3
	// "optional explicit per-column encoding overrides"). A later entry
	// for the same column wins, matching parquet-rs's own override
	// semantics.
	ColumnEncodingOverrides []ColumnEncodingOverride
}

// ColumnEncodingOverride pins one column, by name, to an explicit parquet
// encoding.
type ColumnEncodingOverride struct {
	Column   string
	Encoding string
}

// parquetEncodingByName maps the encoding names parquet-rs and parquet-cpp
// use on their own CLIs to the arrow-go constant that configures a writer
// for them.
var parquetEncodingByName = map[string]parquet.Encoding{
	"PLAIN":                    parquet.Encodings.Plain,
	"RLE":                      parquet.Encodings.RLE,
	"PLAIN_DICTIONARY":         parquet.Encodings.PlainDictionary,
	"RLE_DICTIONARY":           parquet.Encodings.RLEDictionary,
	"DELTA_BINARY_PACKED":      parquet.Encodings.DeltaBinaryPacked,
	"DELTA_LENGTH_BYTE_ARRAY":  parquet.Encodings.DeltaLengthByteArray,
	"DELTA_BYTE_ARRAY":        parquet.Encodings.DeltaByteArray,
	"BYTE_STREAM_SPLIT":       parquet.Encodings.ByteStreamSplit,
}

func parquetEncoding(name string) (parquet.Encoding, error) {
	enc, ok := parquetEncodingByName[strings.ToUpper(strings.TrimSpace(name))]
	if !ok {
		return 0, fmt.Errorf("%w: unrecognized parquet encoding %q", errs.InvalidConfiguration, name)
	}
	return enc, nil
}

// Writer is the CurrentFile state machine (spec §3/§4.E): it owns at most
// one open encoder handle at a time and decides, between row groups,
// whether to roll the output over to the next suffixed file.
type Writer struct {
	target Target
	root   *schema.GroupNode
	opt    Options

	current         *file.Writer
	currentPath     string
	fileIndex       int
	rowGroupsInFile uint32
	totalRows       uint64
	needNewFile     bool
	anyFileOpened   bool
}

// NewWriter constructs a Writer with no file open yet; the first file is
// created lazily by the first BeginRowGroup call.
func NewWriter(target Target, root *schema.GroupNode, opt Options) (*Writer, error) {
	if target.Stdout != nil && opt.FileSizeLimit.Active() {
		return nil, fmt.Errorf("%w: rollover is not supported when writing to standard output", errs.InvalidConfiguration)
	}
	if opt.SuffixLength <= 0 {
		opt.SuffixLength = 2
	}
	for _, o := range opt.ColumnEncodingOverrides {
		if _, err := parquetEncoding(o.Encoding); err != nil {
			return nil, err
		}
	}
	return &Writer{target: target, root: root, opt: opt, needNewFile: true}, nil
}

// BeginRowGroup opens the current (or next, on rollover) file if needed and
// appends a new row group to it.
func (w *Writer) BeginRowGroup() (file.RowGroupWriter, error) {
	if w.needNewFile {
		if err := w.openNext(); err != nil {
			return nil, err
		}
	}
	rgw := w.current.AppendRowGroup()
	return rgw, nil
}

// CloseRowGroup closes a row group obtained from BeginRowGroup, records its
// row count, and evaluates rollover for the next call.
func (w *Writer) CloseRowGroup(rgw file.RowGroupWriter, rows int64) error {
	if err := rgw.Close(); err != nil {
		return fmt.Errorf("%w: closing row group: %v", errs.WriteFailure, err)
	}
	w.rowGroupsInFile++
	w.totalRows += uint64(rows)
	return w.maybeRollover()
}

func (w *Writer) maybeRollover() error {
	if !w.opt.FileSizeLimit.Active() {
		return nil
	}

	rollover := false
	if n := w.opt.FileSizeLimit.RowGroupsPerFile; n != 0 && w.rowGroupsInFile >= n {
		rollover = true
	}
	if !rollover && w.opt.FileSizeLimit.ByteThreshold != 0 && w.target.Stdout == nil {
		if size, err := fileSize(w.currentPath); err == nil && size >= int64(w.opt.FileSizeLimit.ByteThreshold) {
			rollover = true
		}
	}
	if !rollover {
		return nil
	}

	if err := w.closeCurrent(); err != nil {
		return err
	}
	w.needNewFile = true
	return nil
}

func fileSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

func (w *Writer) openNext() error {
	w.fileIndex++

	var sink io.Writer
	path := w.target.Path
	if w.target.Stdout != nil {
		sink = w.target.Stdout
	} else {
		if w.opt.FileSizeLimit.Active() {
			suffixed, err := suffixPath(w.target.Path, w.fileIndex, w.opt.SuffixLength)
			if err != nil {
				return err
			}
			path = suffixed
		}
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
		if err != nil {
			return fmt.Errorf("%w: opening %q: %v", errs.WriteFailure, path, err)
		}
		sink = f
	}

	logx.Debugf("opening output file", "path", path)
	propOpts := []parquet.WriterProperty{parquet.WithCompression(w.opt.CompressionCodec)}
	for _, o := range w.opt.ColumnEncodingOverrides {
		enc, err := parquetEncoding(o.Encoding)
		if err != nil {
			return err
		}
		// An explicit encoding conflicts with the dictionary encoding
		// arrow-go otherwise applies by default; turn it off for any
		// column that names its own encoding.
		propOpts = append(propOpts, parquet.WithDictionaryFor(o.Column, false), parquet.WithEncodingFor(o.Column, enc))
	}
	props := parquet.NewWriterProperties(propOpts...)
	w.current = file.NewParquetWriter(sink, w.root, file.WithWriterProps(props))
	w.currentPath = path
	w.rowGroupsInFile = 0
	w.needNewFile = false
	w.anyFileOpened = true
	return nil
}

func (w *Writer) closeCurrent() error {
	if w.current == nil {
		return nil
	}
	if err := w.current.Close(); err != nil {
		return fmt.Errorf("%w: closing %q: %v", errs.WriteFailure, w.currentPath, err)
	}
	w.current = nil
	return nil
}

// Finish closes any in-flight file and applies the empty-result policy:
// if no row was ever written and NoEmptyFile is unset, a schema-only,
// zero-row file is written; if NoEmptyFile is set, no file is created or
// left on disk. It returns the cumulative row count.
func (w *Writer) Finish() (uint64, error) {
	if err := w.closeCurrent(); err != nil {
		return w.totalRows, err
	}

	if w.totalRows == 0 && !w.anyFileOpened && !w.opt.NoEmptyFile {
		if err := w.openNext(); err != nil {
			return 0, err
		}
		if err := w.closeCurrent(); err != nil {
			return 0, err
		}
	}

	return w.totalRows, nil
}

// Abort closes and discards any in-flight file state after an error,
// leaving on disk whatever row groups were already fully closed (spec §5
// "Cancellation": partially written files are left valid but truncated).
func (w *Writer) Abort() error {
	return w.closeCurrent()
}

// suffixPath inserts a zero-padded numeric suffix before the file
// extension, e.g. suffixPath("out.parquet", 3, 2) -> "out_03.parquet". It
// fails with TooManyFiles once index overflows the width's decimal range.
func suffixPath(basePath string, index int, width int) (string, error) {
	max := 1
	for i := 0; i < width; i++ {
		max *= 10
	}
	if index >= max {
		return "", fmt.Errorf("%w: file index %d exceeds suffix width %d", errs.TooManyFiles, index, width)
	}

	ext := filepath.Ext(basePath)
	stem := strings.TrimSuffix(basePath, ext)
	return fmt.Sprintf("%s_%0*d%s", stem, width, index, ext), nil
}

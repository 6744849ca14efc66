/*
   Copyright 2023, Yves Trudeau, Percona Inc.

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at


       http://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License.

   Preview writes a handful of rows to a writer in SELECT INTO OUTFILE style,
   tab-separated with '\N' standing in for NULL. The query orchestrator uses
   it, gated on debug logging, to show the operator what the first fetched
   batch actually looked like before it is transcoded into the columnar file.
*/

package preview

import (
	"bufio"
	"fmt"
	"strings"
)

// Writer buffers rows written with Write and flushes them to the
// underlying io.Writer on Flush.
type Writer struct {
	bw *bufio.Writer
}

// NewWriter wraps w for row-at-a-time preview output.
func NewWriter(w interface{ Write([]byte) (int, error) }) *Writer {
	return &Writer{bw: bufio.NewWriter(w)}
}

// Write emits one row. A nil entry in row is rendered as "\N"; tabs,
// newlines and backslashes in non-nil values are backslash-escaped.
func (p *Writer) Write(row []interface{}) error {
	_, err := p.bw.WriteString(escape(row))
	if err != nil {
		return err
	}
	return p.bw.WriteByte('\n')
}

// Flush flushes any buffered rows to the underlying writer.
func (p *Writer) Flush() error {
	return p.bw.Flush()
}

var escaper = strings.NewReplacer(`\`, `\\`, "\t", `\t`, "\n", `\n`)

func escape(row []interface{}) string {
	fields := make([]string, len(row))
	for i, v := range row {
		fields[i] = escapeField(v)
	}
	return strings.Join(fields, "\t")
}

func escapeField(v interface{}) string {
	if v == nil {
		return `\N`
	}
	switch t := v.(type) {
	case string:
		return escaper.Replace(t)
	case []byte:
		return escaper.Replace(string(t))
	case fmtStringer:
		return escaper.Replace(t.String())
	default:
		return escaper.Replace(fmt.Sprint(v))
	}
}

type fmtStringer interface {
	String() string
}

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

   This package parses a string composed of comma delimited values that can
   also have a comma within double quotes, e.g. a per-column parquet encoding
   override list: `id=PLAIN,"notes, free text"=DELTA_BYTE_ARRAY`. It is also
   used to split the ordered bound-parameter list on the command line, since
   a parameter value may itself need to carry a comma.
*/

package encodinglist

import (
	"fmt"
	"strings"

	"github.com/dlclark/regexp2"
)

// splitRE matches a comma that is not inside an (even-count) run of double
// quotes, i.e. a comma used as a separator rather than as literal data.
var splitRE = regexp2.MustCompile(`,(?=(?:(?:[^"]*"){2})*[^"]*$)`, regexp2.RE2)

// Split divides s on top-level commas, honoring double-quoted spans.
func Split(s string) []string {
	if s == "" {
		return nil
	}

	var matches []string
	previous := 0
	m, _ := splitRE.FindStringMatch(s)
	for m != nil {
		matches = append(matches, s[previous:m.Index])
		previous = m.Index + m.Length
		m, _ = splitRE.FindNextMatch(m)
	}
	matches = append(matches, s[previous:])
	return matches
}

// ColumnEncoding is one (column, encoding) override, in the order it was
// given on the command line. Order matters: QueryOptions preserves it so
// later overrides for the same column win, matching parquet-rs's behavior.
type ColumnEncoding struct {
	Column   string
	Encoding string
}

// ParseColumnEncodings parses a comma-separated "column=ENCODING,..." list
// into an ordered slice of overrides.
func ParseColumnEncodings(s string) ([]ColumnEncoding, error) {
	parts := Split(s)
	out := make([]ColumnEncoding, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		idx := strings.IndexByte(p, '=')
		if idx < 0 {
			return nil, fmt.Errorf("column encoding override %q is missing '='", p)
		}
		out = append(out, ColumnEncoding{
			Column:   unquote(strings.TrimSpace(p[:idx])),
			Encoding: unquote(strings.TrimSpace(p[idx+1:])),
		})
	}
	return out, nil
}

// ParseParameters parses a comma-separated, quote-aware list of bound
// parameter values, preserving order.
func ParseParameters(s string) []string {
	parts := Split(s)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, unquote(strings.TrimSpace(p)))
	}
	return out
}

func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}

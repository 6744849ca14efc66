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

   This package quotes and unquotes fully qualified identifiers (table and
   column names), so a dotted or backtick-bearing name is never ambiguous in
   a SQL statement such as internal/mysqlddl's SHOW CREATE TABLE, or in the
   log line that records it.
*/

package quoter

import (
	"regexp"
	"strings"
)

var backtickRE = regexp.MustCompile("`")

// Backtick quotes each value in backticks and joins them with '.'.
// A literal backtick inside a value is doubled, matching SQL identifier
// quoting rules.
func Backtick(vals []string) string {
	var b strings.Builder
	for i, el := range vals {
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteByte('`')
		b.WriteString(backtickRE.ReplaceAllString(el, "``"))
		b.WriteByte('`')
	}
	return b.String()
}

// Splitunbacktick splits a possibly-backticked "db.table" identifier into its
// database and table parts. If no database is present, defdb is used.
func Splitunbacktick(dbtbl string, defdb string) (string, string) {
	db, tbl := defdb, dbtbl
	if parts := strings.SplitN(dbtbl, ".", 2); len(parts) == 2 {
		db, tbl = parts[0], parts[1]
	}
	return unquoteOne(db), unquoteOne(tbl)
}

func unquoteOne(s string) string {
	s = strings.TrimPrefix(s, "`")
	s = strings.TrimSuffix(s, "`")
	return strings.ReplaceAll(s, "``", "`")
}

// Escapelike escapes a value for use inside a SQL LIKE pattern: '%' and '_'
// are the wildcards, so literal occurrences must be backslash-escaped.
func Escapelike(like string) string {
	r := strings.NewReplacer(`%`, `\%`, `_`, `\_`)
	return "'" + r.Replace(like) + "'"
}

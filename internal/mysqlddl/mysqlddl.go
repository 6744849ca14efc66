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

   This package re-derives column detail MySQL's database/sql driver loses
   across the wire: database/sql's *sql.ColumnType reports TINYINT(1) the
   same way it reports any other 8-bit integer, and reports an UNSIGNED
   integer with the same DatabaseTypeName as its signed counterpart. The
   query orchestrator's vendor fallback, enabled when a fallback database
   and table are named, re-parses the column's DDL line from SHOW CREATE
   TABLE to recover that detail for coltype.
*/

package mysqlddl

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/y-trudeau/dbxport/internal/logx"
	"github.com/y-trudeau/dbxport/internal/quoter"
)

// ColumnQuirks is the subset of DDL-derived detail coltype's MySQL fallback
// needs that *sql.ColumnType cannot supply.
type ColumnQuirks struct {
	// Width1Bool is true for an integer column declared as exactly
	// TINYINT(1), the MySQL convention for a boolean.
	Width1Bool bool
	// Unsigned is true when the column definition carries the UNSIGNED
	// attribute.
	Unsigned bool
	// AutoIncrement is true when the column is an AUTO_INCREMENT key.
	AutoIncrement bool
	// FractionalDigits is the declared fractional-second precision for a
	// DATETIME(n)/TIMESTAMP(n) column, or -1 if the type name carries none.
	FractionalDigits int
}

var createTableNameRE = regexp.MustCompile("(?i)^CREATE (?:TEMPORARY )?TABLE `([^`]*)`")
var columnLineRE = regexp.MustCompile("(?m)^\\s+`([^`]+)`\\s+(\\S+)\\s+(.*?),?$")
var temporalPrecisionRE = regexp.MustCompile(`(?i)^(?:datetime|timestamp)\((\d+)\)$`)

// GetCreateTable runs SHOW CREATE TABLE and returns the raw DDL text.
func GetCreateTable(ctx context.Context, dbh *sql.DB, db, table string) (string, error) {
	stmt := fmt.Sprintf("SHOW CREATE TABLE %s", quoter.Backtick([]string{db, table}))
	logx.Debugf("show create table", "sql", stmt)

	var dummyName, ddl string
	row := dbh.QueryRowContext(ctx, stmt)
	if err := row.Scan(&dummyName, &ddl); err != nil {
		return "", fmt.Errorf("show create table %s.%s: %w", db, table, err)
	}

	if !createTableNameRE.MatchString(ddl) {
		return "", fmt.Errorf("unexpected SHOW CREATE TABLE result for %s.%s", db, table)
	}
	return ddl, nil
}

// ParseColumnQuirks scans a CREATE TABLE statement for the detail listed in
// ColumnQuirks, keyed by column name.
func ParseColumnQuirks(ddl string) map[string]ColumnQuirks {
	out := make(map[string]ColumnQuirks)
	for _, m := range columnLineRE.FindAllStringSubmatch(ddl, -1) {
		name, dataType, rest := m[1], m[2], m[3]
		fractionalDigits := -1
		if pm := temporalPrecisionRE.FindStringSubmatch(dataType); pm != nil {
			if n, err := strconv.Atoi(pm[1]); err == nil {
				fractionalDigits = n
			}
		}
		out[name] = ColumnQuirks{
			Width1Bool:       strings.EqualFold(dataType, "tinyint(1)"),
			Unsigned:         strings.Contains(strings.ToUpper(rest), "UNSIGNED"),
			AutoIncrement:    strings.Contains(strings.ToUpper(rest), "AUTO_INCREMENT"),
			FractionalDigits: fractionalDigits,
		}
	}
	return out
}

// ServerVersion runs SELECT @@version and returns the raw result, for
// callers that gate a quirk on the server's version rather than on its
// DDL (e.g. coltype.MappingOptions.ServerVersion).
func ServerVersion(ctx context.Context, dbh *sql.DB) (string, error) {
	var v string
	if err := dbh.QueryRowContext(ctx, "SELECT @@version").Scan(&v); err != nil {
		return "", fmt.Errorf("select @@version: %w", err)
	}
	return v, nil
}

// Engine returns the storage engine named in a CREATE TABLE statement, or
// "" if none is found (e.g. for a CREATE VIEW).
func Engine(ddl string) string {
	re := regexp.MustCompile(`(?m)\)\s*ENGINE=([^\s]+)`)
	m := re.FindStringSubmatch(ddl)
	if m == nil {
		return ""
	}
	return m[1]
}

// Charset returns the default character set named in a CREATE TABLE
// statement, or "" if none is found.
func Charset(ddl string) string {
	re := regexp.MustCompile(`DEFAULT CHARSET=([^\s]+)`)
	m := re.FindStringSubmatch(ddl)
	if m == nil {
		return ""
	}
	return m[1]
}

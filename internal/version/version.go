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

   This package handles comparison of MySQL-family server version numbers. It
   uses the nomenclature of:
   https://docs.percona.com/percona-server/8.0/server-version-numbers.html

   internal/connect and coltype use it to decide version-gated vendor quirks,
   such as a server older than 5.6.0, on which UNSIGNED BIGINT columns are
   bound as text, and the optional minimum server version check.
*/

package version

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var versionRE = regexp.MustCompile(`^([58])\.([0-9]+)\.([0-9]+)(?:-(.+))?$`)

// Validate reports whether v conforms to the MySQL/Percona version format,
// e.g. "8.0.34-26".
func Validate(v string) bool {
	return versionRE.MatchString(v)
}

func splitVersion(v string) []string {
	m := versionRE.FindStringSubmatch(v)
	if m == nil {
		return nil
	}
	return []string{m[1], m[2], m[3], m[4]}
}

// Major returns the major version digit, e.g. "8".
func Major(v string) (string, error) {
	parts := splitVersion(v)
	if parts == nil {
		return "", errors.New("invalid version format")
	}
	return parts[0], nil
}

// Minor returns the "major.minor" version, e.g. "8.0".
func Minor(v string) (string, error) {
	parts := splitVersion(v)
	if parts == nil {
		return "", errors.New("invalid version format")
	}
	return parts[0] + "." + parts[1], nil
}

// Release returns the release/build suffix, e.g. "-26" (empty if none).
func Release(v string) (string, error) {
	parts := splitVersion(v)
	if parts == nil {
		return "", errors.New("invalid version format")
	}
	if parts[3] == "" {
		return "", nil
	}
	return "-" + parts[3], nil
}

// Normalized returns a comparable form, e.g. "8.0.34" -> "80034".
func Normalized(v string) (string, error) {
	parts := splitVersion(v)
	if parts == nil {
		return "", errors.New("invalid version format")
	}
	digit1, _ := strconv.Atoi(parts[0])
	digit2, _ := strconv.Atoi(parts[1])
	digit3, _ := strconv.Atoi(parts[2])
	return fmt.Sprintf("%d%02d%02d", digit1, digit2, digit3), nil
}

// Compare returns -1, 0 or 1 according to whether v1 is older than, equal
// to, or younger than v2.
func Compare(v1, v2 string) (int, error) {
	n1, err := Normalized(v1)
	if err != nil {
		return 0, err
	}
	n2, err := Normalized(v2)
	if err != nil {
		return 0, err
	}
	switch {
	case n1 < n2:
		return -1, nil
	case n1 > n2:
		return 1, nil
	default:
		return 0, nil
	}
}

// AtLeast reports whether v is syntactically valid and >= floor.
func AtLeast(v, floor string) bool {
	if !Validate(v) {
		return false
	}
	cmp, err := Compare(v, floor)
	return err == nil && cmp >= 0
}

// TrimBuildMetadata strips everything from the first space on, which drops
// trailing text some drivers append to @@version (e.g.
// "8.0.34-0ubuntu0.22.04.1 (Ubuntu)" becomes "8.0.34-0ubuntu0.22.04.1").
func TrimBuildMetadata(v string) string {
	if i := strings.IndexByte(v, ' '); i >= 0 {
		return v[:i]
	}
	return v
}

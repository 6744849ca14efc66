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

   This package parses DSN shorthand values and expands them into a full ODBC
   connection string. A typical shorthand DSN is a comma delimited list of
   parameters like: "h=host1,P=1433,u=bob,D=mydb".

   The possible parameters are:

   A  ODBC driver name to bind to (e.g. "ODBC Driver 18 for SQL Server").

   D  Default database to use when connecting.

   F  Path to an odbc.ini style defaults file.

   h  Hostname or IP address of the server to connect to.

   L  Explicitly request a LOCAL/trusted connection (no password exchange).

   p  Password to use when connecting.

   P  Port number to use for the connection.

   S  ODBC DSN name registered in odbc.ini, used instead of h/P.

   u  Username to use when connecting.
*/

package dsnutil

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Dsn is a parsed connection shorthand. The zero value is the set of defaults
// applied before Parse overlays the supplied parameters.
type Dsn struct {
	Driver       string
	Database     string
	DefaultsFile string
	Host         string
	Local        bool
	Password     string
	Port         uint16
	Source       string
	User         string
}

var paramNameRE = regexp.MustCompile(`^(A|D|F|h|L|p|P|S|u){1}$`)
var digitsRE = regexp.MustCompile(`^[[:digit:]]*$`)
var boolRE = regexp.MustCompile(`^(0|1){1}$`)

// Validate checks that a shorthand DSN is syntactically well formed: every
// parameter has an '=', every parameter name is known, and the numeric/bool
// parameters carry values of the right shape.
func Validate(dsnValue string) error {
	params := strings.Split(dsnValue, ",")

	for i := 0; i < len(params); i++ {
		if strings.Count(params[i], "=") == 0 {
			return fmt.Errorf("parameter %q is missing an '='", params[i])
		}

		pSplit := strings.SplitN(params[i], "=", 2)

		if !paramNameRE.MatchString(pSplit[0]) {
			return fmt.Errorf("unknown parameter %q", pSplit[0])
		}

		if pSplit[0] == "P" {
			if !digitsRE.MatchString(pSplit[1]) {
				return fmt.Errorf("port value must be composed of digits, received %q", pSplit[1])
			}
			port, _ := strconv.Atoi(pSplit[1])
			if port < 1 || port > 65535 {
				return fmt.Errorf("port value should be between 1 and 65535, received %q", pSplit[1])
			}
		}

		if pSplit[0] == "L" {
			if !boolRE.MatchString(pSplit[1]) {
				return fmt.Errorf("local value must be 0 or 1, received %q", pSplit[1])
			}
		}
	}
	return nil
}

func (d *Dsn) init() {
	d.Driver = ""
	d.Database = ""
	d.DefaultsFile = ""
	d.Host = ""
	d.Local = false
	d.Password = ""
	d.Port = 0
	d.Source = ""
	d.User = ""
}

// Parse validates dsnValue and fills d with its parsed fields.
func (d *Dsn) Parse(dsnValue string) error {
	if err := Validate(dsnValue); err != nil {
		return err
	}
	d.init()

	params := strings.Split(dsnValue, ",")
	for i := 0; i < len(params); i++ {
		pSplit := strings.SplitN(params[i], "=", 2)

		switch pSplit[0] {
		case "A":
			d.Driver = pSplit[1]
		case "D":
			d.Database = pSplit[1]
		case "F":
			d.DefaultsFile = pSplit[1]
		case "h":
			d.Host = pSplit[1]
		case "L":
			d.Local = pSplit[1] != "0"
		case "P":
			p, _ := strconv.Atoi(pSplit[1])
			d.Port = uint16(p)
		case "p":
			d.Password = pSplit[1]
		case "S":
			d.Source = pSplit[1]
		case "u":
			d.User = pSplit[1]
		}
	}
	return nil
}

// ConnectionString expands the parsed fields into an ODBC connection string
// suitable for use as ConnectOptions.ConnectionString. If Source (an odbc.ini
// DSN name) is set it takes precedence over Host/Port. DefaultsFile (the F
// parameter) is parsed but not written into the connection string.
func (d *Dsn) ConnectionString() string {
	var b strings.Builder
	if d.Driver != "" {
		fmt.Fprintf(&b, "DRIVER={%s};", d.Driver)
	}
	if d.Source != "" {
		fmt.Fprintf(&b, "DSN=%s;", d.Source)
	} else if d.Host != "" {
		fmt.Fprintf(&b, "SERVER=%s;", d.Host)
		if d.Port != 0 {
			fmt.Fprintf(&b, "PORT=%d;", d.Port)
		}
	}
	if d.Database != "" {
		fmt.Fprintf(&b, "DATABASE=%s;", d.Database)
	}
	if d.User != "" {
		fmt.Fprintf(&b, "UID=%s;", d.User)
	}
	if d.Password != "" {
		fmt.Fprintf(&b, "PWD=%s;", d.Password)
	}
	if d.Local {
		b.WriteString("Trusted_Connection=yes;")
	}
	return b.String()
}

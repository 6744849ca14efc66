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

   This package provides structured debug output. Verbosity is controlled by
   the DBXPORT_DEBUG environment variable; when unset (or not "1") the
   package logs at info level and above only.
*/

package logx

import (
	"os"

	"github.com/rs/zerolog"
)

var log = newLogger()

func newLogger() zerolog.Logger {
	level := zerolog.InfoLevel
	if os.Getenv("DBXPORT_DEBUG") == "1" {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}).
		Level(level).
		With().Timestamp().Logger()
}

// Debugf logs a message and an associated value at debug level.
func Debugf(msg string, kv ...interface{}) {
	ev := log.Debug()
	for i := 0; i+1 < len(kv); i += 2 {
		key, _ := kv[i].(string)
		ev = ev.Interface(key, kv[i+1])
	}
	ev.Msg(msg)
}

// Debug logs a bare message at debug level.
func Debug(msg string) {
	log.Debug().Msg(msg)
}

// Warn logs a non-fatal condition, such as a truncated text value.
func Warn(msg string, kv ...interface{}) {
	ev := log.Warn()
	for i := 0; i+1 < len(kv); i += 2 {
		key, _ := kv[i].(string)
		ev = ev.Interface(key, kv[i+1])
	}
	ev.Msg(msg)
}

// Error logs a diagnostic for a failure that is about to be returned to the caller.
func Error(err error, msg string) {
	log.Error().Err(err).Msg(msg)
}

// Package connect implements the Connection Factory (spec §4.G): opens a
// single tabular-driver connection from a connection string, retrying
// transient failures, behind a process-wide driver environment that is
// initialized exactly once.
package connect

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/alexbrainman/odbc"

	"github.com/y-trudeau/dbxport/errs"
	"github.com/y-trudeau/dbxport/internal/logx"
	"github.com/y-trudeau/dbxport/internal/version"
)

// openDB is a seam for tests: production code always calls sql.Open, tests
// substitute a driver that does not require a real ODBC environment.
var openDB = sql.Open

// driverName is the database/sql driver registered by
// github.com/alexbrainman/odbc; it is the Go stand-in for the tabular
// driver API's environment handle.
var driverName = "odbc"

var (
	envOnce sync.Once
	envErr  error
)

// sharedEnvironment mirrors the process-wide driver environment (spec §5,
// §9 "Process-wide driver environment"): initialized once, lazily, on first
// connection attempt, and never torn down before process exit.
func sharedEnvironment() error {
	envOnce.Do(func() {
		logx.Debug("initializing process-wide driver environment")
		// database/sql's driver registry is itself a process-wide
		// singleton populated by the alexbrainman/odbc package's blank
		// import above; there is nothing further to initialize, but the
		// one-shot guard keeps the shape spec.md describes and gives
		// future driver-level setup (e.g. diagnostics) a single place to
		// live.
	})
	return envErr
}

// Options is ConnectOptions (spec §3): immutable, consumed once by Open.
type Options struct {
	ConnectionString     string
	MaxConnectRetries    uint32
	ConnectRetryInterval time.Duration
	// MinServerVersion, when set, rejects a connection to a MySQL-family
	// server reporting an older @@version than this floor (e.g. "5.6.4",
	// below which fractional-second temporal precision doesn't exist at
	// all). Empty means no floor is enforced. Non-MySQL servers, or ones
	// whose @@version can't be queried or parsed, are never rejected by
	// this check.
	MinServerVersion string
}

// Open resolves a driver connection from opts.ConnectionString, retrying up
// to opts.MaxConnectRetries times on transient failures with a fixed sleep
// of opts.ConnectRetryInterval between attempts. Authentication failures
// are never retried.
func Open(ctx context.Context, opts Options) (*sql.DB, error) {
	if strings.TrimSpace(opts.ConnectionString) == "" {
		return nil, fmt.Errorf("%w: connection string is empty", errs.InvalidConfiguration)
	}
	if err := sharedEnvironment(); err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ConnectionFailure, err)
	}

	var lastErr error
	attempts := opts.MaxConnectRetries + 1
	for attempt := uint32(0); attempt < attempts; attempt++ {
		if attempt > 0 {
			logx.Warn("retrying connection", "attempt", attempt, "of", opts.MaxConnectRetries)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(opts.ConnectRetryInterval):
			}
		}

		db, err := openDB(driverName, opts.ConnectionString)
		if err == nil {
			err = db.PingContext(ctx)
			if err == nil {
				if err := checkMinServerVersion(ctx, db, opts.MinServerVersion); err != nil {
					db.Close()
					return nil, err
				}
				return db, nil
			}
			db.Close()
		}

		lastErr = err
		if !isTransient(err) {
			return nil, fmt.Errorf("%w: %v", errs.ConnectionFailure, err)
		}
	}

	return nil, fmt.Errorf("%w: exhausted %d retries: %v", errs.ConnectionFailure, opts.MaxConnectRetries, lastErr)
}

// checkMinServerVersion enforces opts.MinServerVersion against the
// connected server's own @@version report. Any failure to query or parse
// it (a non-MySQL server, or a driver that doesn't support the @@version
// system variable) is treated as "floor not applicable", not an error:
// this check only ever rejects a server it positively identifies as too
// old.
func checkMinServerVersion(ctx context.Context, db *sql.DB, floor string) error {
	if floor == "" {
		return nil
	}
	var raw string
	if err := db.QueryRowContext(ctx, "SELECT @@version").Scan(&raw); err != nil {
		return nil
	}
	return evaluateServerVersion(raw, floor)
}

// evaluateServerVersion applies the MinServerVersion floor to a raw
// @@version string, split out from checkMinServerVersion so the
// comparison logic is testable without a live *sql.DB.
func evaluateServerVersion(raw, floor string) error {
	v := version.TrimBuildMetadata(raw)
	if !version.Validate(v) {
		return nil
	}
	if !version.AtLeast(v, floor) {
		return fmt.Errorf("%w: server version %q is older than the required minimum %q", errs.ConnectionFailure, raw, floor)
	}
	return nil
}

// isTransient classifies driver errors as retryable (connection refused,
// timeout, reset) versus terminal (authentication failure, unknown
// database, malformed connection string). The driver does not expose a
// typed distinction, so this matches on the error text it's known to
// produce.
func isTransient(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, needle := range []string{"refused", "timeout", "timed out", "reset", "unreachable", "no route to host"} {
		if strings.Contains(msg, needle) {
			return true
		}
	}
	return false
}

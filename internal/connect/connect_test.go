package connect

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"testing"
	"time"

	"github.com/y-trudeau/dbxport/errs"
)

type fakeConn struct{}

func (fakeConn) Prepare(query string) (driver.Stmt, error) { return nil, errors.New("unimplemented") }
func (fakeConn) Close() error                              { return nil }
func (fakeConn) Begin() (driver.Tx, error)                  { return nil, errors.New("unimplemented") }

type fakeDriver struct {
	failuresBeforeSuccess int
	failWith              error
	calls                 int
}

func (d *fakeDriver) Open(dsn string) (driver.Conn, error) {
	d.calls++
	if d.calls <= d.failuresBeforeSuccess {
		return nil, d.failWith
	}
	return fakeConn{}, nil
}

func withDriver(t *testing.T, name string, drv driver.Driver) {
	t.Helper()
	sql.Register(name, drv)
	prev := driverName
	driverName = name
	t.Cleanup(func() { driverName = prev })
}

func TestOpenRejectsEmptyConnectionString(t *testing.T) {
	_, err := Open(context.Background(), Options{})
	if !errors.Is(err, errs.InvalidConfiguration) {
		t.Fatalf("Open() error = %v, want InvalidConfiguration", err)
	}
}

func TestOpenRetriesTransientFailureThenSucceeds(t *testing.T) {
	drv := &fakeDriver{failuresBeforeSuccess: 2, failWith: errors.New("dial tcp: connection refused")}
	withDriver(t, "fakeodbc-retry-success", drv)

	db, err := Open(context.Background(), Options{
		ConnectionString:     "DSN=test;",
		MaxConnectRetries:    3,
		ConnectRetryInterval: time.Millisecond,
	})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer db.Close()
	if drv.calls != 3 {
		t.Fatalf("calls = %d, want 3 (2 failures + 1 success)", drv.calls)
	}
}

func TestOpenDoesNotRetryAuthFailure(t *testing.T) {
	drv := &fakeDriver{failuresBeforeSuccess: 100, failWith: errors.New("login failed for user")}
	withDriver(t, "fakeodbc-auth-failure", drv)

	_, err := Open(context.Background(), Options{
		ConnectionString:     "DSN=test;",
		MaxConnectRetries:    5,
		ConnectRetryInterval: time.Millisecond,
	})
	if !errors.Is(err, errs.ConnectionFailure) {
		t.Fatalf("Open() error = %v, want ConnectionFailure", err)
	}
	if drv.calls != 1 {
		t.Fatalf("calls = %d, want 1 (no retry on auth failure)", drv.calls)
	}
}

func TestEvaluateServerVersionRejectsTooOld(t *testing.T) {
	err := evaluateServerVersion("5.5.62-0ubuntu0.14.04.1", "5.6.4")
	if !errors.Is(err, errs.ConnectionFailure) {
		t.Fatalf("evaluateServerVersion() error = %v, want ConnectionFailure", err)
	}
}

func TestEvaluateServerVersionAcceptsAtOrAboveFloor(t *testing.T) {
	if err := evaluateServerVersion("8.0.34-26", "5.6.4"); err != nil {
		t.Fatalf("evaluateServerVersion() error = %v, want nil", err)
	}
}

func TestEvaluateServerVersionIgnoresUnparsableVersion(t *testing.T) {
	if err := evaluateServerVersion("PostgreSQL 15.3 on x86_64", "5.6.4"); err != nil {
		t.Fatalf("evaluateServerVersion() error = %v, want nil for a non-MySQL version string", err)
	}
}

func TestOpenExhaustsRetries(t *testing.T) {
	drv := &fakeDriver{failuresBeforeSuccess: 100, failWith: errors.New("connection refused")}
	withDriver(t, "fakeodbc-exhausted", drv)

	_, err := Open(context.Background(), Options{
		ConnectionString:     "DSN=test;",
		MaxConnectRetries:    2,
		ConnectRetryInterval: time.Millisecond,
	})
	if !errors.Is(err, errs.ConnectionFailure) {
		t.Fatalf("Open() error = %v, want ConnectionFailure", err)
	}
	if drv.calls != 3 {
		t.Fatalf("calls = %d, want 3 (1 initial + 2 retries)", drv.calls)
	}
}

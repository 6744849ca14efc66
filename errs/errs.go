// Package errs defines the error kinds shared across the pipeline (spec
// §7). Each kind is a sentinel error; call sites wrap it with fmt.Errorf's
// %w verb so callers can match with errors.Is while still getting a
// descriptive message.
package errs

import "errors"

var (
	// InvalidConfiguration signals mutually exclusive or infeasible
	// options, e.g. a batch byte cap too small for a single row.
	InvalidConfiguration = errors.New("invalid configuration")
	// ConnectionFailure signals the driver refused or lost the connection
	// after exhausting retries.
	ConnectionFailure = errors.New("connection failure")
	// QueryFailure signals the driver rejected the SQL text or parameter
	// binding.
	QueryFailure = errors.New("query failure")
	// UnsupportedType signals a column's SQL type has no registered
	// strategy.
	UnsupportedType = errors.New("unsupported column type")
	// ValueOutOfRange signals a scalar value does not fit the target
	// columnar type.
	ValueOutOfRange = errors.New("value out of range")
	// PrecisionLoss signals a decimal value has more digits than the
	// target columnar type can represent.
	PrecisionLoss = errors.New("precision loss")
	// FetchFailure signals a mid-stream driver error during row
	// retrieval.
	FetchFailure = errors.New("fetch failure")
	// WriteFailure signals a file-system, encoder, or compression error.
	WriteFailure = errors.New("write failure")
	// TooManyFiles signals the rollover suffix range was exhausted.
	TooManyFiles = errors.New("too many files")
)

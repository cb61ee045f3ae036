package db

import (
	"errors"
	"fmt"
	"strings"
)

// Stage names the step of a probe that failed.
type Stage string

const (
	// StageConnect covers opening and pinging the database (network, auth, host down).
	StageConnect Stage = "connect"
	// StageQuery covers executing SampleQuery and iterating its rows (e.g. missing table).
	StageQuery Stage = "query"
	// StageScan covers mapping result columns onto UserRecord.
	StageScan Stage = "scan"
)

// ProbeError wraps a driver error with the stage it came from.
type ProbeError struct {
	Stage Stage
	Err   error
}

func (e *ProbeError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *ProbeError) Unwrap() error { return e.Err }

// Message returns the underlying driver text, which is what the status page shows.
func (e *ProbeError) Message() string {
	if e.Err == nil {
		return string(e.Stage) + " failed"
	}
	return e.Err.Error()
}

// SchemaError reports a test_users result that lacks required columns.
type SchemaError struct {
	Missing []string
	Columns []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("test_users is missing column(s) %s (got %s)",
		strings.Join(e.Missing, ", "), strings.Join(e.Columns, ", "))
}

// StageOf reports the failing stage of err, or "" when err is not a ProbeError.
func StageOf(err error) Stage {
	var pe *ProbeError
	if errors.As(err, &pe) {
		return pe.Stage
	}
	return ""
}

// MessageOf returns the human-readable text for err as the status page renders it.
func MessageOf(err error) string {
	if err == nil {
		return ""
	}
	var pe *ProbeError
	if errors.As(err, &pe) {
		return pe.Message()
	}
	return err.Error()
}

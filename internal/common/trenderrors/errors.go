// Package trenderrors contains the error types shared across the trending
// engine. Errors of these types are created at the point where the problem is
// detected and wrapped with a stack trace using github.com/pkg/errors.
//
// None of these errors is fatal to the process by itself. ErrValidation is
// fatal to constructing the definition it refers to, ErrExtraction and
// ErrRender are scoped to a single trend and a single processing cycle, and
// ErrPersistence means the cycle's registry mutation is not durable and may
// be retried.
package trenderrors

import (
	"fmt"
)

// ValidationKind identifies which definition invariant was violated.
type ValidationKind string

const (
	KindWrongType      ValidationKind = "WrongType"
	KindNotCollection  ValidationKind = "NotCollection"
	KindNoHistograms   ValidationKind = "NoHistograms"
	KindWrongMetric    ValidationKind = "WrongMetric"
	KindWrongAlarmType ValidationKind = "WrongAlarmType"
	KindDuplicateName  ValidationKind = "DuplicateName"
)

// ErrValidation is returned when constructing a trend definition or registry
// from invalid inputs. It is always returned eagerly at construction time.
type ErrValidation struct {
	Kind    ValidationKind
	Field   string      // Name of the offending field, e.g., "description"
	Value   interface{} // The invalid value that was provided
	Message string      // Optional extra context
}

func (err *ErrValidation) Error() string {
	if err.Message == "" {
		return fmt.Sprintf("%s: value %q is invalid for field %q", err.Kind, err.Value, err.Field)
	}
	return fmt.Sprintf("%s: value %q is invalid for field %q; %s", err.Kind, err.Value, err.Field, err.Message)
}

// ErrExtraction is returned when a metric cannot be extracted from a
// histogram snapshot, e.g., asking for the mean of an empty histogram.
// Callers must treat it as non-fatal and isolated to the single trend.
type ErrExtraction struct {
	Trend   string
	Metric  string
	Message string
}

func (err *ErrExtraction) Error() string {
	return fmt.Sprintf("cannot extract %s for trend %q: %s", err.Metric, err.Trend, err.Message)
}

// ErrRender is returned when producing an output artifact fails. The trend's
// sample buffer has already been updated when rendering runs, so a failed
// render is caught up naturally on the next cycle.
type ErrRender struct {
	Trend    string
	Artifact string // "image" or "json"
	Cause    error
}

func (err *ErrRender) Error() string {
	return fmt.Sprintf("rendering %s artifact for trend %q: %s", err.Artifact, err.Trend, err.Cause)
}

func (err *ErrRender) Unwrap() error {
	return err.Cause
}

// ErrPersistence is returned when committing a subsystem's registry snapshot
// fails. The whole cycle is considered not durably applied; the in-memory
// state is unchanged and the commit may be retried.
type ErrPersistence struct {
	Subsystem string
	Cause     error
}

func (err *ErrPersistence) Error() string {
	return fmt.Sprintf("persisting registry for subsystem %q: %s", err.Subsystem, err.Cause)
}

func (err *ErrPersistence) Unwrap() error {
	return err.Cause
}

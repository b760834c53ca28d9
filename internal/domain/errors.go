package domain

import (
	"fmt"
	"strings"
)

// SchemaError means a column needed for the arithmetic is absent after alias
// resolution. It must abort whatever computation raised it.
type SchemaError struct {
	Dataset string
	Field   string
	Aliases []string
}

func (e *SchemaError) Error() string {
	if len(e.Aliases) == 0 {
		return fmt.Sprintf("schema error: %s: required column %q is missing", e.Dataset, e.Field)
	}
	return fmt.Sprintf("schema error: %s: required column %q is missing (looked for %s)",
		e.Dataset, e.Field, strings.Join(e.Aliases, ", "))
}

// ValidationError is returned for malformed run parameters such as the cutoff date.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s %q: %s", e.Field, e.Value, e.Reason)
}

// Warning is a data quality finding: processing continued with degraded precision.
type Warning struct {
	Source  string `json:"source"`
	Message string `json:"message"`
}

func (w Warning) String() string {
	return w.Source + ": " + w.Message
}

// FailureKind classifies why a bridge calculator did not produce a result.
type FailureKind string

const (
	FailureKindSchema FailureKind = "schema"
	FailureKindData   FailureKind = "data"
	FailureKindPanic  FailureKind = "panic"
)

// BridgeFailure is the recorded failure of a single bridge calculator.
type BridgeFailure struct {
	Bridge  string      `json:"bridge"`
	Kind    FailureKind `json:"kind"`
	Message string      `json:"message"`
}

func (f BridgeFailure) Error() string {
	return fmt.Sprintf("bridge %s failed (%s): %s", f.Bridge, f.Kind, f.Message)
}

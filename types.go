package vintfcheck

import "fmt"

// Result codes returned by [CheckCompatibilityMatrix].
const (
	CodeCompatible       = 1
	CodeIncompatible     = 0
	CodeParseFailed      = -1
	CodeResolutionFailed = -2
)

// Status is the outcome of one evaluation.
type Status int

const (
	// StatusIncompatible means the manifest was checked and fails the matrix.
	StatusIncompatible Status = iota
	// StatusCompatible means the manifest satisfies every non-suppressed predicate.
	StatusCompatible
	// StatusParseFailed means the matrix text could not be parsed.
	StatusParseFailed
	// StatusResolutionFailed means no device manifest could be loaded from the root.
	StatusResolutionFailed
)

var statusNames = map[Status]string{
	StatusIncompatible:     "incompatible",
	StatusCompatible:       "compatible",
	StatusParseFailed:      "matrix parse failed",
	StatusResolutionFailed: "manifest resolution failed",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Status(%d)", s)
}

// Code maps the status to its integer result code.
func (s Status) Code() int {
	switch s {
	case StatusCompatible:
		return CodeCompatible
	case StatusParseFailed:
		return CodeParseFailed
	case StatusResolutionFailed:
		return CodeResolutionFailed
	default:
		return CodeIncompatible
	}
}

// Result is the outcome of [Evaluate].
type Result struct {
	Status Status
	// Err is a *[ParseError] or *[ResolutionError] for failed evaluations.
	// For StatusIncompatible it explains which predicates failed.
	Err error
	// EvaluationID tags every log line of the evaluation.
	EvaluationID string
}

// Code returns the integer result code (1, 0, -1 or -2).
func (r Result) Code() int {
	return r.Status.Code()
}

// Compatible reports whether the evaluation produced a positive answer.
func (r Result) Compatible() bool {
	return r.Status == StatusCompatible
}

// ParseError means the compatibility matrix text is malformed.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse compatibility matrix: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ResolutionError means the device manifest could not be obtained from Root.
type ResolutionError struct {
	Root string
	Err  error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolve device manifest under %q: %v", e.Root, e.Err)
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

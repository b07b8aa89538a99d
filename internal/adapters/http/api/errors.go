package api

import "fmt"

// Error codes returned in the body of non-2xx responses.
const (
	codeBadRequest       = "bad_request"
	codeMethodNotAllowed = "method_not_allowed"
	codeNotFound         = "not_found"
	codeNoSnapshot       = "no_snapshot"
	codeComputeInFlight  = "compute_in_flight"
	codeComputeTimeout   = "compute_timeout"
	codeSaveFailed       = "save_failed"
	codeScoringFailed    = "scoring_failed"
	codeInternal         = "internal"
)

// Err tags an error with the operation that produced it.
type Err struct {
	Op   string
	Kind string
	Err  error
}

// Error implements the error interface.
func (e *Err) Error() string {
	switch {
	case e.Err == nil:
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	case e.Kind == "":
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}
}

// Unwrap exposes the underlying error for errors.Is checks.
func (e *Err) Unwrap() error {
	return e.Err
}

// NewKind creates an operation-tagged error with no underlying cause.
func NewKind(op, kind string) error {
	return &Err{Op: op, Kind: kind}
}

// Wrap tags err with the operation it failed in.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Err{Op: op, Err: err}
}

// WrapKind tags err with an operation and a kind.
func WrapKind(op, kind string, err error) error {
	if err == nil {
		return nil
	}
	return &Err{Op: op, Kind: kind, Err: err}
}

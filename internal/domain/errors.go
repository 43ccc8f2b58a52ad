package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrSourceUnavailable: origin unreachable, blocked, or query/auth rejected.
	ErrSourceUnavailable = errors.New("source unavailable")
	// ErrMalformedItem: a single listing could not be parsed.
	ErrMalformedItem = errors.New("malformed item")
	// ErrStoreWriteConflict: the store changed under the single writer.
	ErrStoreWriteConflict = errors.New("store write conflict")
	// ErrTotalPipelineFailure: every origin failed; the store was not touched.
	ErrTotalPipelineFailure = errors.New("total pipeline failure")
)

// SourceError carries the origin and phase of a per-origin failure.
type SourceError struct {
	Origin string
	Phase  string
	Err    error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Origin, e.Phase, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }

// Unavailable wraps err as a SourceError that matches ErrSourceUnavailable.
func Unavailable(origin, phase string, err error) error {
	if err == nil {
		err = ErrSourceUnavailable
	} else if !errors.Is(err, ErrSourceUnavailable) {
		err = fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}
	return &SourceError{Origin: origin, Phase: phase, Err: err}
}

// RunError is what the orchestrator surfaces to its caller.
type RunError struct {
	RunID  string
	Phase  string
	Failed []string
	Err    error
}

func (e *RunError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "run %s failed in %s", e.RunID, e.Phase)
	if len(e.Failed) > 0 {
		fmt.Fprintf(&b, " (origins failed: %s)", strings.Join(e.Failed, ", "))
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *RunError) Unwrap() error { return e.Err }

package verify

import (
	"errors"
	"fmt"
	"time"

	"github.com/groundcheck/groundcheck/internal/foundry"
)

// Verification failure classes. A scenario maps each of these to a distinct
// report line; platform transport and auth errors pass through unclassified.
var (
	// ErrEmptyResponse: the run completed but produced no response text.
	ErrEmptyResponse = errors.New("run completed with empty response text")

	// ErrMissingCitations: a grounded run completed without a single
	// citation, meaning the search tool was never actually exercised.
	ErrMissingCitations = errors.New("grounded run completed with no citations")

	// ErrRequiresAction: the run is waiting for tool outputs this harness
	// does not supply.
	ErrRequiresAction = errors.New("run requires tool action the harness does not supply")
)

// TimeoutError means the polling budget ran out before a terminal status.
type TimeoutError struct {
	Attempts int
	Interval time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("run did not reach a terminal status after %d polls at %s intervals",
		e.Attempts, e.Interval)
}

// RunFailedError carries the platform-reported reason for a run that ended
// in failed, cancelled or expired.
type RunFailedError struct {
	Status foundry.RunStatus
	Code   string
	Reason string
}

func (e *RunFailedError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("run ended with status %s: %s (%s)", e.Status, e.Reason, e.Code)
	}
	return fmt.Sprintf("run ended with status %s", e.Status)
}

// RegressionError means the platform reported a status earlier in the
// lifecycle than one already observed, violating the run contract.
type RegressionError struct {
	From foundry.RunStatus
	To   foundry.RunStatus
}

func (e *RegressionError) Error() string {
	return fmt.Sprintf("run status regressed from %s to %s", e.From, e.To)
}

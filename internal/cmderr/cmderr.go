// Package cmderr defines the command-facing error kinds from spec.md §7, as
// typed errors so errors.As can recover the kind at the scheduler/manager
// boundary.
package cmderr

import (
	"errors"
	"fmt"
)

// InvalidArgument covers a non-buy/sell side, a malformed offset or a bad
// duration literal. Surfaces to the user; aborts the current command.
type InvalidArgument struct {
	Field  string
	Reason string
}

func (e *InvalidArgument) Error() string {
	return fmt.Sprintf("invalid argument %q: %s", e.Field, e.Reason)
}

// ZeroSize is raised when the computed amount is zero after position or
// balance adjustment. Aborts the current command, not the block.
type ZeroSize struct {
	Symbol string
}

func (e *ZeroSize) Error() string {
	return fmt.Sprintf("zero size for %s after position/balance adjustment", e.Symbol)
}

// AbortSequence is raised by stopIf/continueIf. It terminates the current
// block cleanly and silently; it is never logged as an error (spec.md §7).
type AbortSequence struct {
	Reason string
}

func (e *AbortSequence) Error() string {
	return fmt.Sprintf("sequence aborted: %s", e.Reason)
}

// ApiTransient wraps a single failed API call (network error, null
// response). Local retries only happen where spec.md explicitly calls for
// them (aggressiveEntry placement, stop-and-TP's best-effort cancel); this
// type just tags the failure for the caller's decision.
type ApiTransient struct {
	Op  string
	Err error
}

func (e *ApiTransient) Error() string {
	return fmt.Sprintf("transient api error in %s: %v", e.Op, e.Err)
}

func (e *ApiTransient) Unwrap() error { return e.Err }

// IsAbortSequence reports whether err is an *AbortSequence, unwrapping as
// needed.
func IsAbortSequence(err error) bool {
	var abort *AbortSequence
	return errors.As(err, &abort)
}

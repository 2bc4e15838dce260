// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"os/exec"

	"devcell/internal/provision"
)

// ExitError carries the process exit status for a failed run. Execute
// inspects the error returned by fang for an ExitError and exits with its
// code; per the fail-fast policy, the code of the first failing external
// command is the one propagated.
type ExitError struct {
	// Code is the process exit status (must be non-zero).
	Code int
	// Err is the underlying error (must not be nil).
	Err error
}

// newExitError wraps err with the exit status extracted from its chain.
func newExitError(err error) *ExitError {
	if err == nil {
		panic("ExitError: Err must not be nil")
	}
	return &ExitError{
		Code: exitCodeFromError(err),
		Err:  err,
	}
}

// Error implements the error interface.
func (e *ExitError) Error() string { return e.Err.Error() }

// Unwrap returns the underlying error for errors.Is/As chains.
func (e *ExitError) Unwrap() error { return e.Err }

// exitCodeFromError extracts the exit status to propagate from an error chain:
// the status of a re-invoked in-container run, the status of a failed external
// command, or 1 when the chain carries no status at all.
func exitCodeFromError(err error) int {
	var statusErr *provision.ExitStatusError
	if errors.As(err, &statusErr) {
		return statusErr.Code
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() > 0 {
		return exitErr.ExitCode()
	}

	return 1
}

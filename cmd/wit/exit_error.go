// SPDX-License-Identifier: MPL-2.0

package cmd

import "fmt"

const (
	// ExitUserError is returned for failures the user can fix (bad input,
	// missing configuration, unknown package or version).
	ExitUserError = 1
	// ExitUnexpected is returned for network and filesystem failures.
	ExitUnexpected = 2
)

// ExitError signals a non-zero exit code without forcing os.Exit in RunE handlers.
// The error has already been rendered when it reaches Execute.
type ExitError struct {
	Code int
	Err  error
}

// Error returns the error message for ExitError.
func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit status %d", e.Code)
}

// Unwrap returns the underlying error, if any.
func (e *ExitError) Unwrap() error {
	return e.Err
}

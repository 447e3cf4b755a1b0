// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/wit-registry/wit/internal/download"
	"github.com/wit-registry/wit/internal/issue"
)

// ServiceError is an error that carries optional rendering information for
// the CLI layer.
// Always create via newServiceError to enforce the Err-must-be-non-nil invariant.
type ServiceError struct {
	// Err is the underlying error (must not be nil).
	Err error
	// Kind is the download error classification.
	Kind download.ErrorKind
	// IssueID is the optional issue catalog ID for rendering help text.
	IssueID issue.Id
}

// newServiceError classifies err and attaches its catalog entry.
func newServiceError(err error) *ServiceError {
	if err == nil {
		panic("ServiceError: Err must not be nil")
	}
	kind := download.Kind(err)
	return &ServiceError{
		Err:     err,
		Kind:    kind,
		IssueID: issueIDForKind(kind),
	}
}

// newConfigError wraps a configuration load failure.
func newConfigError(err error) *ServiceError {
	svcErr := newServiceError(err)
	if svcErr.Kind == download.KindUnknown {
		svcErr.IssueID = issue.ConfigLoadFailedId
	}
	return svcErr
}

// Error implements the error interface.
func (e *ServiceError) Error() string { return e.Err.Error() }

// Unwrap returns the underlying error for errors.Is/As chains.
func (e *ServiceError) Unwrap() error { return e.Err }

// ExitCode maps the error kind to a process exit code.
func (e *ServiceError) ExitCode() int {
	if e.Kind.UserCorrectable() || e.IssueID == issue.ConfigLoadFailedId {
		return ExitUserError
	}
	return ExitUnexpected
}

func issueIDForKind(k download.ErrorKind) issue.Id {
	switch k {
	case download.KindInvalidPackageName:
		return issue.InvalidPackageNameId
	case download.KindInvalidVersionFormat:
		return issue.InvalidVersionFormatId
	case download.KindRegistryNotConfigured:
		return issue.RegistryNotConfiguredId
	case download.KindRegistryFetchFailed:
		return issue.RegistryFetchFailedId
	case download.KindPackageNotFound:
		return issue.PackageNotFoundId
	case download.KindVersionNotFound:
		return issue.VersionNotFoundId
	case download.KindOutputWriteFailed:
		return issue.OutputWriteFailedId
	default:
		return 0
	}
}

// renderServiceError prints the error kind, message and suggestions. In
// verbose mode the issue catalog guidance follows.
func renderServiceError(stderr io.Writer, svcErr *ServiceError, verbose bool) {
	if svcErr == nil {
		return
	}

	label := "error"
	if svcErr.Kind != download.KindUnknown {
		label = svcErr.Kind.String()
	}
	fmt.Fprintf(stderr, "%s %s\n", ErrorStyle.Render(label+":"), formatErrorForDisplay(svcErr.Err, verbose))

	if !verbose || svcErr.IssueID == 0 {
		return
	}

	if catalogEntry := issue.Get(svcErr.IssueID); catalogEntry != nil {
		rendered, renderErr := catalogEntry.Render("dark")
		if renderErr != nil {
			slog.Warn("failed to render issue catalog entry", "issueID", svcErr.IssueID, "error", renderErr)
		} else {
			fmt.Fprint(stderr, rendered)
		}
	}
}

// formatErrorForDisplay formats an error for user display.
// If the error is an ActionableError, it uses the Format method.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}

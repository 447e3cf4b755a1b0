// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable error handling with user-friendly messages.
//
// [ActionableError] attaches the failed operation, the resource involved, and
// remediation suggestions to an underlying error. The issue catalog ([Get],
// [Values]) holds Markdown guidance for each user-correctable failure kind,
// rendered for the terminal with glamour.
package issue

// SPDX-License-Identifier: MPL-2.0

// Package cmd contains the wit CLI commands.
//
// The root command is executed through fang for styling, version output and
// interrupt handling. Commands render their own errors (with suggestions and,
// in verbose mode, issue catalog guidance) and return an ExitError so that
// Execute can pick the process exit code.
package cmd

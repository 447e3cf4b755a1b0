// SPDX-License-Identifier: MPL-2.0

// Package testutil provides helpers shared by tests: a controllable clock and
// file helpers that fail the test instead of returning errors.
package testutil

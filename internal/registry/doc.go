// SPDX-License-Identifier: MPL-2.0

// Package registry locates the registry a download talks to and fetches
// package releases from it over HTTP.
//
// Endpoint resolution is a fixed, ordered chain (project alias, then the
// client home URL) that fails closed: when nothing is configured the caller
// gets ErrRegistryNotConfigured instead of a guessed default.
package registry

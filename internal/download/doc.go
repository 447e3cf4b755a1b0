// SPDX-License-Identifier: MPL-2.0

// Package download implements the download pipeline: resolve the registry,
// resolve the version requirement, consult the cache, fetch from the
// registry, store the result, and write the package to disk.
//
// The pipeline is a small sequential state machine. Every transition is
// logged at debug level, and every failure is classified into an ErrorKind
// so the CLI can pick an exit code and guidance text.
package download

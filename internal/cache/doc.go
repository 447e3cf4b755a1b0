// SPDX-License-Identifier: MPL-2.0

// Package cache stores downloaded package releases on disk, keyed by
// registry, package name and resolved version.
//
// Layout under the cache root:
//
//	blobs/sha256/<hex>                                 content, immutable
//	index/<registry-id>/<namespace>/<name>/<version>.json  metadata
//
// Both kinds of file are written to a temp file and renamed into place, so a
// reader never observes a partial write. Entries never expire; a forced
// refresh replaces them.
package cache

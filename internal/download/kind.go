// SPDX-License-Identifier: MPL-2.0

package download

import (
	"errors"

	"github.com/wit-registry/wit/internal/cache"
	"github.com/wit-registry/wit/internal/registry"
	"github.com/wit-registry/wit/pkg/witpkg"
)

const (
	// KindUnknown is an error outside the download taxonomy.
	KindUnknown ErrorKind = iota
	// KindInvalidPackageName means the package name is malformed.
	KindInvalidPackageName
	// KindInvalidVersionFormat means the requested version is not valid semver.
	KindInvalidVersionFormat
	// KindRegistryNotConfigured means no registry could be resolved.
	KindRegistryNotConfigured
	// KindRegistryFetchFailed means the registry could not be reached or misbehaved.
	KindRegistryFetchFailed
	// KindPackageNotFound means the registry does not know the package.
	KindPackageNotFound
	// KindVersionNotFound means no release satisfies the requirement.
	KindVersionNotFound
	// KindCacheWriteFailed means the cache could not be updated. Never fatal.
	KindCacheWriteFailed
	// KindOutputWriteFailed means the destination file could not be written.
	KindOutputWriteFailed
)

// ErrOutputWrite is returned when the downloaded package cannot be written
// to its destination.
var ErrOutputWrite = errors.New("output write failed")

// ErrorKind classifies download failures.
type ErrorKind int

// String returns the kind name, e.g. "VersionNotFound".
func (k ErrorKind) String() string {
	switch k {
	case KindInvalidPackageName:
		return "InvalidPackageName"
	case KindInvalidVersionFormat:
		return "InvalidVersionFormat"
	case KindRegistryNotConfigured:
		return "RegistryNotConfigured"
	case KindRegistryFetchFailed:
		return "RegistryFetchFailed"
	case KindPackageNotFound:
		return "PackageNotFound"
	case KindVersionNotFound:
		return "VersionNotFound"
	case KindCacheWriteFailed:
		return "CacheWriteFailed"
	case KindOutputWriteFailed:
		return "OutputWriteFailed"
	default:
		return "Unknown"
	}
}

// Fatal reports whether an error of this kind aborts the download.
func (k ErrorKind) Fatal() bool {
	return k != KindCacheWriteFailed
}

// UserCorrectable reports whether the user can fix the failure by changing
// input or configuration, as opposed to a network or filesystem fault.
func (k ErrorKind) UserCorrectable() bool {
	switch k {
	case KindInvalidPackageName, KindInvalidVersionFormat, KindRegistryNotConfigured,
		KindPackageNotFound, KindVersionNotFound:
		return true
	default:
		return false
	}
}

// Kind classifies err. The most specific kind in the chain wins.
func Kind(err error) ErrorKind {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, witpkg.ErrInvalidPackageName):
		return KindInvalidPackageName
	case errors.Is(err, witpkg.ErrInvalidVersion):
		return KindInvalidVersionFormat
	case errors.Is(err, registry.ErrRegistryNotConfigured):
		return KindRegistryNotConfigured
	case errors.Is(err, registry.ErrPackageNotFound):
		return KindPackageNotFound
	case errors.Is(err, registry.ErrVersionNotFound):
		return KindVersionNotFound
	case errors.Is(err, registry.ErrFetchFailed):
		return KindRegistryFetchFailed
	case errors.Is(err, ErrOutputWrite):
		return KindOutputWriteFailed
	case errors.Is(err, cache.ErrCacheWrite):
		return KindCacheWriteFailed
	default:
		return KindUnknown
	}
}

// SPDX-License-Identifier: MPL-2.0

package witpkg

import (
	"errors"
	"fmt"
	"regexp"

	"golang.org/x/mod/semver"
)

// ErrInvalidVersion is the sentinel error wrapped by InvalidVersionError.
var ErrInvalidVersion = errors.New("invalid version format")

// versionPattern matches a full MAJOR.MINOR.PATCH version with optional
// prerelease and build metadata. Partial versions ("1.2") and a leading "v"
// are rejected; registries publish bare, complete versions.
var versionPattern = regexp.MustCompile(`^(0|[1-9]\d*)\.(0|[1-9]\d*)\.(0|[1-9]\d*)` +
	`(?:-((?:0|[1-9]\d*|\d*[a-zA-Z-][0-9a-zA-Z-]*)(?:\.(?:0|[1-9]\d*|\d*[a-zA-Z-][0-9a-zA-Z-]*))*))?` +
	`(?:\+([0-9a-zA-Z-]+(?:\.[0-9a-zA-Z-]+)*))?$`)

type (
	// Version is a concrete semantic version of a published release.
	// The zero value is not a valid version; construct with ParseVersion.
	Version struct {
		raw string
	}

	// InvalidVersionError is returned when a string is not a valid semantic version.
	InvalidVersionError struct {
		Value string
	}
)

// Error implements the error interface.
func (e *InvalidVersionError) Error() string {
	return fmt.Sprintf("invalid version %q (expected MAJOR.MINOR.PATCH, e.g. 1.2.0)", e.Value)
}

// Unwrap returns ErrInvalidVersion so callers can use errors.Is for programmatic detection.
func (e *InvalidVersionError) Unwrap() error { return ErrInvalidVersion }

// ParseVersion parses a concrete semantic version string.
func ParseVersion(s string) (Version, error) {
	if !versionPattern.MatchString(s) || !semver.IsValid("v"+s) {
		return Version{}, &InvalidVersionError{Value: s}
	}
	return Version{raw: s}, nil
}

// MustParseVersion is like ParseVersion but panics on invalid input.
func MustParseVersion(s string) Version {
	v, err := ParseVersion(s)
	if err != nil {
		panic(err)
	}
	return v
}

// String returns the version as published (without a "v" prefix).
func (v Version) String() string { return v.raw }

// IsZero reports whether v is the zero value.
func (v Version) IsZero() bool { return v.raw == "" }

// IsPrerelease reports whether v carries a prerelease suffix.
func (v Version) IsPrerelease() bool { return semver.Prerelease(v.semver()) != "" }

// Compare returns -1, 0, or +1 depending on whether v < other, v == other, or v > other.
// Build metadata is ignored, following semantic versioning precedence rules.
func (v Version) Compare(other Version) int {
	return semver.Compare(v.semver(), other.semver())
}

// Equal reports whether v and other are the same release. Unlike Compare,
// build metadata is significant: 1.0.0+a and 1.0.0+b are different releases.
func (v Version) Equal(other Version) bool { return v.raw == other.raw }

// semver returns the "v"-prefixed form expected by golang.org/x/mod/semver.
func (v Version) semver() string { return "v" + v.raw }

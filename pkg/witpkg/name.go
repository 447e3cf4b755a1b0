// SPDX-License-Identifier: MPL-2.0

package witpkg

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrInvalidPackageName is the sentinel error wrapped by InvalidPackageNameError.
var ErrInvalidPackageName = errors.New("invalid package name")

// segmentPattern validates a single kebab-case name segment.
var segmentPattern = regexp.MustCompile(`^[a-z][a-z0-9]*(-[a-z0-9]+)*$`)

type (
	// Name is a validated "namespace:name" package identifier.
	// The zero value is not a valid name; construct with ParseName.
	Name struct {
		namespace string
		name      string
	}

	// InvalidPackageNameError is returned when a string is not a valid package name.
	InvalidPackageNameError struct {
		Value  string
		Reason string
	}
)

// Error implements the error interface.
func (e *InvalidPackageNameError) Error() string {
	return fmt.Sprintf("invalid package name %q: %s", e.Value, e.Reason)
}

// Unwrap returns ErrInvalidPackageName so callers can use errors.Is for programmatic detection.
func (e *InvalidPackageNameError) Unwrap() error { return ErrInvalidPackageName }

// ParseName parses and validates a "namespace:name" package identifier.
func ParseName(s string) (Name, error) {
	namespace, name, found := strings.Cut(s, ":")
	if !found {
		return Name{}, &InvalidPackageNameError{Value: s, Reason: "expected the form namespace:name"}
	}
	if strings.Contains(name, ":") {
		return Name{}, &InvalidPackageNameError{Value: s, Reason: "more than one ':' separator"}
	}
	if !segmentPattern.MatchString(namespace) {
		return Name{}, &InvalidPackageNameError{Value: s, Reason: fmt.Sprintf("namespace %q must be lowercase kebab-case", namespace)}
	}
	if !segmentPattern.MatchString(name) {
		return Name{}, &InvalidPackageNameError{Value: s, Reason: fmt.Sprintf("name %q must be lowercase kebab-case", name)}
	}
	return Name{namespace: namespace, name: name}, nil
}

// MustParseName is like ParseName but panics on invalid input.
// Intended for tests and package-level constants.
func MustParseName(s string) Name {
	n, err := ParseName(s)
	if err != nil {
		panic(err)
	}
	return n
}

// Namespace returns the namespace segment (before the colon).
func (n Name) Namespace() string { return n.namespace }

// Name returns the package segment (after the colon).
func (n Name) Name() string { return n.name }

// IsZero reports whether n is the zero value.
func (n Name) IsZero() bool { return n.namespace == "" && n.name == "" }

// String returns the "namespace:name" form.
func (n Name) String() string {
	if n.IsZero() {
		return ""
	}
	return n.namespace + ":" + n.name
}

// FileName returns the default output file name for the package ("name.wit").
func (n Name) FileName() string { return n.name + ".wit" }

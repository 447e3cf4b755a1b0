// SPDX-License-Identifier: MPL-2.0

// Package witpkg defines the identity types shared by every part of the wit
// client: package names, concrete release versions, and version requirements.
//
// # Package Names
//
// A WIT package is addressed as "namespace:name", where both segments are
// lowercase kebab-case identifiers (e.g., "wasi:http", "my-org:json-utils").
// Use [ParseName] to validate user input.
//
// # Versions and Requirements
//
// A [Version] is always a concrete release version ("1.2.0", "2.0.0-rc.1").
// A [Requirement] is either an exact pin or unconstrained ("latest"):
//   - [ResolveRequirement] turns the optional --version flag into a Requirement.
//   - [Requirement.Select] picks the best release from a registry listing.
//
// An exact requirement never matches a newer compatible release: a
// user-supplied version pins precisely.
package witpkg

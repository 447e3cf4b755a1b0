// SPDX-License-Identifier: MPL-2.0

package registry

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrRegistryNotConfigured is returned when no registry URL could be resolved.
	ErrRegistryNotConfigured = errors.New("registry not configured")
	// ErrFetchFailed is returned for transport failures and unexpected registry responses.
	ErrFetchFailed = errors.New("registry fetch failed")
	// ErrPackageNotFound is returned when the registry does not know the package.
	ErrPackageNotFound = errors.New("package not found")
	// ErrVersionNotFound is returned when no release satisfies the requirement.
	ErrVersionNotFound = errors.New("version not found")
	// ErrDigestMismatch is returned when downloaded content does not match its release digest.
	ErrDigestMismatch = errors.New("content digest mismatch")
)

type (
	// NotConfiguredError reports that no registry is configured for an alias.
	// Alias is empty when the default lookup was used.
	NotConfiguredError struct {
		Alias string
		// ProjectFile is the wit.toml that was consulted, if any.
		ProjectFile string
	}

	// FetchError describes a failed registry request.
	FetchError struct {
		URL        string
		StatusCode int
		Err        error
	}

	// PackageNotFoundError is returned when the registry has no such package.
	PackageNotFoundError struct {
		Name     string
		Registry string
	}

	// VersionNotFoundError is returned when no release matches the requirement.
	VersionNotFoundError struct {
		Name        string
		Requirement string
		// Available lists the selectable versions, newest first.
		Available []string
		// Reason replaces the availability summary when set.
		Reason string
	}
)

// Error implements the error interface.
func (e *NotConfiguredError) Error() string {
	if e.Alias == "" {
		return "no registry configured: set a default registry in wit.toml or a home_url in the client config"
	}
	return fmt.Sprintf("no registry configured for alias %q and no home_url fallback", e.Alias)
}

// Unwrap returns ErrRegistryNotConfigured for errors.Is() compatibility.
func (e *NotConfiguredError) Unwrap() error { return ErrRegistryNotConfigured }

// Error implements the error interface.
func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetching %s: unexpected status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetching %s: %v", e.URL, e.Err)
}

// Unwrap exposes both ErrFetchFailed and the underlying cause.
func (e *FetchError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrFetchFailed}
	}
	return []error{ErrFetchFailed, e.Err}
}

// Error implements the error interface.
func (e *PackageNotFoundError) Error() string {
	return fmt.Sprintf("package %s not found in registry %s", e.Name, e.Registry)
}

// Unwrap returns ErrPackageNotFound for errors.Is() compatibility.
func (e *PackageNotFoundError) Unwrap() error { return ErrPackageNotFound }

// Error implements the error interface.
func (e *VersionNotFoundError) Error() string {
	msg := fmt.Sprintf("no release of %s matches version %s", e.Name, e.Requirement)
	if e.Reason != "" {
		return msg + ": " + e.Reason
	}
	if len(e.Available) == 0 {
		return msg + " (no versions available)"
	}
	return msg + " (available: " + strings.Join(e.Available, ", ") + ")"
}

// Unwrap returns ErrVersionNotFound for errors.Is() compatibility.
func (e *VersionNotFoundError) Unwrap() error { return ErrVersionNotFound }

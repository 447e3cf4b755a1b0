// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"maps"
	"net/url"
	"slices"
	"strings"
)

// DefaultRegistryAlias is the alias looked up in wit.toml when --registry is not given.
const DefaultRegistryAlias = "default"

var (
	// ErrInvalidRegistryURL is the sentinel error wrapped by InvalidRegistryURLError.
	ErrInvalidRegistryURL = errors.New("invalid registry URL")
	// ErrInvalidCacheDirPath is returned when a CacheDirPath value is whitespace-only.
	ErrInvalidCacheDirPath = errors.New("invalid cache dir path")
)

type (
	// RegistryURL is a registry location as written in configuration.
	// A missing scheme is allowed and means https.
	RegistryURL string

	// InvalidRegistryURLError is returned when a RegistryURL cannot be used.
	InvalidRegistryURLError struct {
		Value  RegistryURL
		Reason string
	}

	// CacheDirPath is a filesystem path to the package cache directory.
	// The zero value ("") means "use the default cache directory".
	CacheDirPath string

	// ClientConfig holds the user-wide client configuration.
	ClientConfig struct {
		// HomeURL is the registry used when the project configuration has no
		// matching alias. Empty means unconfigured.
		HomeURL RegistryURL `json:"home_url" mapstructure:"home_url"`
		// CacheDir overrides the package cache location.
		CacheDir CacheDirPath `json:"cache_dir" mapstructure:"cache_dir"`
		// UI configures terminal output.
		UI UIConfig `json:"ui" mapstructure:"ui"`
	}

	// UIConfig configures terminal output.
	UIConfig struct {
		// Verbose enables debug logging.
		Verbose bool `json:"verbose" mapstructure:"verbose"`
		// Progress shows a progress bar while downloading package content.
		Progress bool `json:"progress" mapstructure:"progress"`
	}

	// ProjectConfig is the parsed contents of a wit.toml file.
	ProjectConfig struct {
		// Version is the project manifest version (informational).
		Version string `toml:"version"`
		// Registries maps registry aliases to URLs.
		Registries map[string]RegistryURL `toml:"registries"`
		// Path is the file the configuration was read from.
		Path string `toml:"-"`
	}
)

// DefaultConfig returns the client configuration used when no file exists.
func DefaultConfig() *ClientConfig {
	return &ClientConfig{
		UI: UIConfig{Progress: true},
	}
}

// Error implements the error interface.
func (e *InvalidRegistryURLError) Error() string {
	return fmt.Sprintf("invalid registry URL %q: %s", e.Value, e.Reason)
}

// Unwrap returns ErrInvalidRegistryURL for errors.Is() compatibility.
func (e *InvalidRegistryURLError) Unwrap() error { return ErrInvalidRegistryURL }

// String returns the string representation of the RegistryURL.
func (u RegistryURL) String() string { return string(u) }

// Normalize returns the absolute registry URL, adding "https://" when no
// scheme is present and stripping any trailing slash.
func (u RegistryURL) Normalize() (*url.URL, error) {
	raw := strings.TrimSpace(string(u))
	if raw == "" {
		return nil, &InvalidRegistryURLError{Value: u, Reason: "empty"}
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return nil, &InvalidRegistryURLError{Value: u, Reason: err.Error()}
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, &InvalidRegistryURLError{Value: u, Reason: fmt.Sprintf("unsupported scheme %q", parsed.Scheme)}
	}
	if parsed.Host == "" {
		return nil, &InvalidRegistryURLError{Value: u, Reason: "missing host"}
	}
	if parsed.RawQuery != "" || parsed.Fragment != "" {
		return nil, &InvalidRegistryURLError{Value: u, Reason: "query and fragment are not allowed"}
	}
	parsed.Path = strings.TrimRight(parsed.Path, "/")
	parsed.RawPath = ""
	return parsed, nil
}

// String returns the string representation of the CacheDirPath.
func (p CacheDirPath) String() string { return string(p) }

// Validate returns an error when the path is non-empty but whitespace-only.
func (p CacheDirPath) Validate() error {
	if p != "" && strings.TrimSpace(string(p)) == "" {
		return fmt.Errorf("%w: %q", ErrInvalidCacheDirPath, string(p))
	}
	return nil
}

// Registry returns the URL configured for alias and whether it exists.
// A nil ProjectConfig has no registries.
func (p *ProjectConfig) Registry(alias string) (RegistryURL, bool) {
	if p == nil || p.Registries == nil {
		return "", false
	}
	u, ok := p.Registries[alias]
	return u, ok
}

// Aliases returns the configured registry aliases in sorted order.
func (p *ProjectConfig) Aliases() []string {
	if p == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(p.Registries))
}

// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"path/filepath"
)

// LoadOptions defines explicit configuration loading inputs.
type LoadOptions struct {
	// ConfigFilePath forces loading from a specific config file when set.
	ConfigFilePath string
	// ConfigDirPath overrides the config directory lookup when set.
	ConfigDirPath string
}

// Provider loads the client and project configuration layers.
type Provider interface {
	Load(ctx context.Context, opts LoadOptions) (*ClientConfig, error)
	LoadProject(ctx context.Context, dir string) (*ProjectConfig, error)
}

type fileProvider struct{}

// NewProvider creates a configuration provider backed by the filesystem.
func NewProvider() Provider {
	return &fileProvider{}
}

// Load reads the client configuration from the requested source.
func (p *fileProvider) Load(ctx context.Context, opts LoadOptions) (*ClientConfig, error) {
	cfg, _, err := loadWithOptions(ctx, opts)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadProject reads the wit.toml governing dir. A nil config and nil error
// mean no project configuration exists.
func (p *fileProvider) LoadProject(ctx context.Context, dir string) (*ProjectConfig, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return LoadProjectConfig(dir)
}

// ResolvedPath returns the client config file that Load would read, or "" when
// only defaults apply.
func ResolvedPath(opts LoadOptions) (string, error) {
	if opts.ConfigFilePath != "" {
		return opts.ConfigFilePath, nil
	}
	dir := opts.ConfigDirPath
	if dir == "" {
		d, err := ConfigDir()
		if err != nil {
			return "", err
		}
		dir = d
	}
	path := ConfigFilePath(dir)
	if !fileExists(path) {
		return "", nil
	}
	return path, nil
}

// ConfigFilePath returns the client config file location inside dir.
func ConfigFilePath(dir string) string {
	return filepath.Join(dir, ConfigFileName+"."+ConfigFileExt)
}

// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/wit-registry/wit/internal/issue"

	"github.com/pelletier/go-toml/v2"
)

// ProjectFileName is the name of the project configuration file.
const ProjectFileName = "wit.toml"

// FindProjectFile walks up from dir looking for wit.toml and returns its
// path, or "" when no ancestor contains one.
func FindProjectFile(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", dir, err)
	}

	for {
		candidate := filepath.Join(abs, ProjectFileName)
		if fileExists(candidate) {
			return candidate, nil
		}
		parent := filepath.Dir(abs)
		if parent == abs {
			return "", nil
		}
		abs = parent
	}
}

// LoadProjectConfig finds and parses the wit.toml governing dir.
// It returns (nil, nil) when there is no project configuration.
func LoadProjectConfig(dir string) (*ProjectConfig, error) {
	path, err := FindProjectFile(dir)
	if err != nil {
		return nil, err
	}
	if path == "" {
		return nil, nil
	}
	return ParseProjectFile(path)
}

// ParseProjectFile parses the wit.toml at path and validates its registry URLs.
func ParseProjectFile(path string) (*ProjectConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, issue.WrapWithContext(err, "read project config", path)
	}

	cfg, err := parseProject(data)
	if err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("load project configuration").
			WithResource(path).
			WithSuggestion("Check that the file is valid TOML").
			WithSuggestion("Registry URLs go in a [registries] table, e.g. default = \"https://registry.example.com\"").
			Wrap(err).
			BuildError()
	}
	cfg.Path = path
	return cfg, nil
}

func parseProject(data []byte) (*ProjectConfig, error) {
	var cfg ProjectConfig
	if err := toml.Unmarshal(data, &cfg); err != nil {
		var decodeErr *toml.DecodeError
		if errors.As(err, &decodeErr) {
			row, col := decodeErr.Position()
			return nil, fmt.Errorf("line %d, column %d: %w", row, col, err)
		}
		return nil, err
	}

	for _, alias := range cfg.Aliases() {
		if _, err := cfg.Registries[alias].Normalize(); err != nil {
			return nil, fmt.Errorf("registries.%s: %w", alias, err)
		}
	}

	return &cfg, nil
}

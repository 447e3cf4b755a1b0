// SPDX-License-Identifier: MPL-2.0

package registry

import (
	"fmt"

	"github.com/wit-registry/wit/internal/config"
	"github.com/wit-registry/wit/internal/issue"
)

const (
	// SourceProject marks an endpoint taken from the project's wit.toml.
	SourceProject Source = "project"
	// SourceClient marks an endpoint taken from the client home_url.
	SourceClient Source = "client"
)

type (
	// Source identifies which configuration layer produced an Endpoint.
	Source string

	// Endpoint is the registry a single download talks to.
	Endpoint struct {
		// URL is the normalized absolute registry URL without a trailing slash.
		URL string
		// Alias is the wit.toml alias that matched, empty for the home URL.
		Alias string
		// Source is the configuration layer the URL came from.
		Source Source
	}

	// lookup is one step of the resolution chain. ok is false on a miss.
	lookup func() (url config.RegistryURL, alias string, src Source, ok bool)
)

// ResolveEndpoint picks the registry for a download. The project alias is
// consulted first (alias, or "default" when alias is empty), then the client
// home URL. An alias absent from wit.toml is a miss, not an error. When
// nothing matches the returned error wraps ErrRegistryNotConfigured.
// Either configuration may be nil.
func ResolveEndpoint(alias string, project *config.ProjectConfig, client *config.ClientConfig) (Endpoint, error) {
	lookupAlias := alias
	if lookupAlias == "" {
		lookupAlias = config.DefaultRegistryAlias
	}

	chain := []lookup{
		func() (config.RegistryURL, string, Source, bool) {
			u, ok := project.Registry(lookupAlias)
			return u, lookupAlias, SourceProject, ok
		},
		func() (config.RegistryURL, string, Source, bool) {
			if client == nil || client.HomeURL == "" {
				return "", "", "", false
			}
			return client.HomeURL, "", SourceClient, true
		},
	}

	for _, next := range chain {
		raw, matched, src, ok := next()
		if !ok {
			continue
		}
		u, err := raw.Normalize()
		if err != nil {
			return Endpoint{}, fmt.Errorf("resolving registry from %s config: %w", src, err)
		}
		return Endpoint{URL: u.String(), Alias: matched, Source: src}, nil
	}

	return Endpoint{}, notConfigured(alias, project)
}

func notConfigured(alias string, project *config.ProjectConfig) error {
	nc := &NotConfiguredError{Alias: alias}
	resource := "default registry"
	if alias != "" {
		resource = fmt.Sprintf("registry alias %q", alias)
	}

	fix := "Create a wit.toml with a [registries] table in your project"
	if project != nil {
		nc.ProjectFile = project.Path
		name := alias
		if name == "" {
			name = config.DefaultRegistryAlias
		}
		fix = fmt.Sprintf("Add %s = \"https://...\" under [registries] in %s", name, project.Path)
	}
	return issue.NewErrorContext().
		WithOperation("resolve registry").
		WithResource(resource).
		WithSuggestions(fix, "Or set home_url in the client config (see 'wit config path'), or export WIT_HOME_URL").
		Wrap(nc).
		BuildError()
}

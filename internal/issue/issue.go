// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"cmp"
	"maps"
	"slices"

	"github.com/charmbracelet/glamour"
)

// Id identifies an entry in the issue catalog.
type Id int

const (
	InvalidPackageNameId Id = iota + 1
	InvalidVersionFormatId
	RegistryNotConfiguredId
	RegistryFetchFailedId
	PackageNotFoundId
	VersionNotFoundId
	OutputWriteFailedId
	ConfigLoadFailedId
)

type (
	// MarkdownMsg is Markdown guidance shown to the user.
	MarkdownMsg string

	// HttpLink is a documentation URL.
	HttpLink string

	// Issue is a catalog entry with Markdown remediation guidance.
	Issue struct {
		id       Id
		mdMsg    MarkdownMsg
		docLinks []HttpLink
	}
)

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

// Render renders the issue for the terminal using the named glamour style
// ("dark", "light", "notty", ...).
func (i *Issue) Render(stylePath string) (string, error) {
	md := string(i.mdMsg)
	if len(i.docLinks) > 0 {
		md += "\n\n## See also\n"
		for _, link := range i.docLinks {
			md += "- <" + string(link) + ">\n"
		}
	}
	return render(md, stylePath)
}

var (
	render = glamour.Render

	invalidPackageNameIssue = &Issue{
		id: InvalidPackageNameId,
		mdMsg: `
# Invalid package name

Package names have the form ` + "`namespace:name`" + `, and both parts are
lowercase kebab-case identifiers.

## Examples
~~~
$ wit download wasi:http
$ wit download my-org:json-utils
~~~`,
	}

	invalidVersionFormatIssue = &Issue{
		id: InvalidVersionFormatId,
		mdMsg: `
# Invalid version

` + "`--version`" + ` takes a complete semantic version and pins it exactly.
Ranges such as ` + "`^1.0`" + ` or partial versions such as ` + "`1.2`" + ` are not accepted.

## Things you can try
- Pass a full version: ` + "`wit download ns:pkg --version 1.2.0`" + `
- Omit ` + "`--version`" + ` to download the latest release`,
	}

	registryNotConfiguredIssue = &Issue{
		id: RegistryNotConfiguredId,
		mdMsg: `
# No registry configured

wit could not determine which registry to download from.

## Lookup order
1. The ` + "`[registries]`" + ` table in the nearest ` + "`wit.toml`" + ` (alias from ` + "`--registry`" + `, or ` + "`default`" + `)
2. ` + "`home_url`" + ` in the client configuration (` + "`wit config path`" + `)

## Things you can try
- Add the registry to ` + "`wit.toml`" + `:
~~~toml
[registries]
default = "https://registry.example.com"
~~~
- Or set a home registry for every project:
~~~
$ export WIT_HOME_URL=https://registry.example.com
~~~`,
	}

	registryFetchFailedIssue = &Issue{
		id: RegistryFetchFailedId,
		mdMsg: `
# Registry request failed

The registry could not be reached or returned an unexpected response.

## Things you can try
- Check your network connection and the registry URL (` + "`wit config show`" + `)
- If the registry requires authentication, set ` + "`WIT_REGISTRY_TOKEN`" + `
- Retry the command; downloads are not retried automatically`,
	}

	packageNotFoundIssue = &Issue{
		id: PackageNotFoundId,
		mdMsg: `
# Package not found

The registry has no package with this name, or the package has no stable
release yet.

## Things you can try
- Check the spelling of the package name
- Use ` + "`--registry`" + ` to select the registry that hosts the package
- Pin a prerelease explicitly with ` + "`--version`" + ``,
	}

	versionNotFoundIssue = &Issue{
		id: VersionNotFoundId,
		mdMsg: `
# Version not found

The package exists, but no published release matches the requested version
exactly. Yanked releases are not downloadable.

## Things you can try
- Omit ` + "`--version`" + ` to download the latest release
- Double-check the version string, including any prerelease suffix`,
	}

	outputWriteFailedIssue = &Issue{
		id: OutputWriteFailedId,
		mdMsg: `
# Could not write the output file

The package was retrieved but could not be written to disk.

## Things you can try
- Check that the destination directory exists and is writable
- Pass a different path with ` + "`-o, --output`" + ``,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Invalid configuration

A configuration file could not be parsed or failed validation.

## Things you can try
- ` + "`wit config path`" + ` shows which client configuration file is read
- Check ` + "`wit.toml`" + ` for TOML syntax errors and malformed registry URLs`,
	}

	issues = map[Id]*Issue{
		invalidPackageNameIssue.Id():    invalidPackageNameIssue,
		invalidVersionFormatIssue.Id():  invalidVersionFormatIssue,
		registryNotConfiguredIssue.Id(): registryNotConfiguredIssue,
		registryFetchFailedIssue.Id():   registryFetchFailedIssue,
		packageNotFoundIssue.Id():       packageNotFoundIssue,
		versionNotFoundIssue.Id():       versionNotFoundIssue,
		outputWriteFailedIssue.Id():     outputWriteFailedIssue,
		configLoadFailedIssue.Id():      configLoadFailedIssue,
	}
)

// Values returns all catalog entries ordered by Id.
func Values() []*Issue {
	return slices.SortedFunc(maps.Values(issues), func(a, b *Issue) int {
		return cmp.Compare(a.id, b.id)
	})
}

// Get returns the catalog entry for id, or nil if there is none.
func Get(id Id) *Issue {
	return issues[id]
}

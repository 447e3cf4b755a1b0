// SPDX-License-Identifier: MPL-2.0

package download

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/wit-registry/wit/internal/cache"
	"github.com/wit-registry/wit/internal/config"
	"github.com/wit-registry/wit/internal/fsutil"
	"github.com/wit-registry/wit/internal/issue"
	"github.com/wit-registry/wit/internal/registry"
	"github.com/wit-registry/wit/pkg/witpkg"
)

type (
	// RegistryClient fetches a release matching a requirement.
	RegistryClient interface {
		Fetch(ctx context.Context, endpoint registry.Endpoint, name witpkg.Name, req witpkg.Requirement) (*registry.Package, error)
	}

	// ReleaseResolver is implemented by clients that can answer "which version
	// would Fetch pick" without downloading content. When available, an
	// unconstrained download re-resolves the newest release on the network and
	// then consults the cache for that exact version.
	ReleaseResolver interface {
		ResolveRelease(ctx context.Context, endpoint registry.Endpoint, name witpkg.Name, req witpkg.Requirement) (witpkg.Version, error)
	}

	// PackageCache is the subset of *cache.Cache the pipeline uses.
	PackageCache interface {
		Lookup(key cache.Key) (*cache.Entry, bool, error)
		Store(key cache.Key, content []byte, fetchedAt time.Time) (*cache.Entry, error)
	}

	// Clock supplies fetch timestamps.
	Clock interface {
		Now() time.Time
	}

	// Request describes a single download.
	Request struct {
		// Name is the package name, "namespace:name".
		Name string
		// Version is an exact version, or "" for the newest stable release.
		Version string
		// Registry is a wit.toml alias, or "" for the default lookup.
		Registry string
		// Update bypasses the cache.
		Update bool
		// Dir is the directory for the default output file. Defaults to ".".
		Dir string
		// Output overrides the destination file path.
		Output string
	}

	// Outcome describes a completed download.
	Outcome struct {
		Path      string
		Name      witpkg.Name
		Version   witpkg.Version
		Endpoint  registry.Endpoint
		FromCache bool
		// CacheErr is set when the result could not be cached. The download
		// still succeeded.
		CacheErr error
	}

	// Downloader runs the download pipeline.
	Downloader struct {
		client  RegistryClient
		cache   PackageCache
		project *config.ProjectConfig
		config  *config.ClientConfig
		logger  *slog.Logger
		clock   Clock
	}

	// Option configures a Downloader.
	Option func(*Downloader)

	systemClock struct{}

	// run carries per-download state through the pipeline.
	run struct {
		d        *Downloader
		req      Request
		name     witpkg.Name
		endpoint registry.Endpoint
		require  witpkg.Requirement
		// pinned is the exact release an unconstrained request resolved to
		// while checking the cache. require keeps what the user asked for.
		pinned witpkg.Requirement
		version  witpkg.Version
		content  []byte
		out      Outcome
	}
)

func (systemClock) Now() time.Time { return time.Now() }

// WithCache sets the package cache. Without one every download fetches.
func WithCache(c PackageCache) Option {
	return func(d *Downloader) {
		d.cache = c
	}
}

// WithProjectConfig sets the project configuration used for alias lookup.
func WithProjectConfig(p *config.ProjectConfig) Option {
	return func(d *Downloader) {
		d.project = p
	}
}

// WithClientConfig sets the client configuration providing the home URL.
func WithClientConfig(c *config.ClientConfig) Option {
	return func(d *Downloader) {
		d.config = c
	}
}

// WithLogger sets the logger for state transitions and warnings.
func WithLogger(l *slog.Logger) Option {
	return func(d *Downloader) {
		d.logger = l
	}
}

// WithClock sets the clock used to timestamp cache entries.
func WithClock(c Clock) Option {
	return func(d *Downloader) {
		d.clock = c
	}
}

// New creates a Downloader that fetches through client.
func New(client RegistryClient, opts ...Option) *Downloader {
	d := &Downloader{
		client: client,
		logger: slog.Default(),
		clock:  systemClock{},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Download runs the pipeline for req. On failure nothing is written to the
// destination, and the returned error can be classified with Kind.
func (d *Downloader) Download(ctx context.Context, req Request) (*Outcome, error) {
	r := &run{d: d, req: req}
	if err := r.execute(ctx); err != nil {
		r.enter(StateError)
		d.logger.Debug("download failed", "package", req.Name, "kind", Kind(err).String(), "error", err)
		return nil, err
	}
	r.enter(StateDone)
	return &r.out, nil
}

func (r *run) execute(ctx context.Context) error {
	name, err := witpkg.ParseName(r.req.Name)
	if err != nil {
		return issue.NewErrorContext().
			WithOperation("download package").
			WithResource(r.req.Name).
			WithSuggestion("Package names look like namespace:name, e.g. wasi:http").
			Wrap(err).
			BuildError()
	}
	r.name = name
	r.out.Name = name

	r.enter(StateResolvingEndpoint)
	endpoint, err := registry.ResolveEndpoint(r.req.Registry, r.d.project, r.d.config)
	if err != nil {
		return err
	}
	r.endpoint = endpoint
	r.out.Endpoint = endpoint

	r.enter(StateResolvingVersion)
	require, err := witpkg.ResolveRequirement(r.req.Version)
	if err != nil {
		return issue.NewErrorContext().
			WithOperation("download package").
			WithResource(name.String()).
			WithSuggestions(
				"Pass an exact semantic version such as --version 1.2.0",
				"Omit --version to download the newest release",
			).
			Wrap(err).
			BuildError()
	}
	r.require = require

	hit, err := r.checkCache(ctx)
	if err != nil {
		return err
	}

	if hit {
		r.enter(StateCacheHit)
		r.out.FromCache = true
	} else {
		if err := r.fetch(ctx); err != nil {
			return err
		}
		r.store()
	}

	return r.write(ctx)
}

// checkCache reports whether the content was served from the cache.
func (r *run) checkCache(ctx context.Context) (bool, error) {
	if r.d.cache == nil || r.req.Update {
		return false, nil
	}
	r.enter(StateCheckingCache)

	version, exact := r.require.Exact()
	if !exact {
		resolver, ok := r.d.client.(ReleaseResolver)
		if !ok {
			return false, nil
		}
		v, err := resolver.ResolveRelease(ctx, r.endpoint, r.name, r.require)
		if err != nil {
			return false, r.registryError(err)
		}
		version = v
		r.pinned = witpkg.ExactVersion(v)
	}

	entry, ok, err := r.d.cache.Lookup(r.key(version))
	if err != nil {
		r.d.logger.Warn("ignoring unreadable cache entry", "package", r.name.String(), "version", version.String(), "error", err)
		return false, nil
	}
	if !ok {
		return false, nil
	}

	r.version = version
	r.content = entry.Content
	r.out.Version = version
	return true, nil
}

func (r *run) fetch(ctx context.Context) error {
	r.enter(StateFetching)

	req := r.require
	if r.pinned.IsExact() {
		req = r.pinned
	}

	pkg, err := r.d.client.Fetch(ctx, r.endpoint, r.name, req)
	if err != nil && r.pinned.IsExact() && Kind(err) == KindVersionNotFound {
		// the resolved release disappeared; pick the newest again
		r.d.logger.Debug("resolved release no longer available", "package", r.name.String(), "version", r.pinned.String())
		req = r.require
		pkg, err = r.d.client.Fetch(ctx, r.endpoint, r.name, req)
	}
	if err != nil {
		return r.registryError(err)
	}

	if want, exact := req.Exact(); exact && !pkg.Version.Equal(want) {
		return r.registryError(&registry.FetchError{
			URL: r.endpoint.URL,
			Err: fmt.Errorf("registry returned version %s for exact requirement %s", pkg.Version, want),
		})
	}

	r.version = pkg.Version
	r.content = pkg.Content
	r.out.Version = pkg.Version
	return nil
}

// store caches the fetched content. Failures are logged and recorded on the
// outcome, never returned.
func (r *run) store() {
	if r.d.cache == nil {
		return
	}
	r.enter(StateStoring)

	if _, err := r.d.cache.Store(r.key(r.version), r.content, r.d.clock.Now()); err != nil {
		if !errors.Is(err, cache.ErrCacheWrite) {
			err = &cache.WriteError{Key: r.key(r.version), Err: err}
		}
		r.out.CacheErr = err
		r.d.logger.Warn("failed to cache package", "kind", KindCacheWriteFailed.String(), "package", r.name.String(), "version", r.version.String(), "error", err)
	}
}

func (r *run) write(ctx context.Context) error {
	r.enter(StateWriting)

	path := r.outputPath()
	r.out.Path = path

	err := func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
		return fsutil.WriteFileAtomic(ctx, path, r.content, 0o644)
	}()
	if err != nil {
		return issue.NewErrorContext().
			WithOperation("write package").
			WithResource(path).
			WithSuggestions(
				"Check that the destination directory is writable",
				"Use -o to choose a different output file",
			).
			Wrap(fmt.Errorf("%w: %w", ErrOutputWrite, err)).
			BuildError()
	}

	r.d.logger.Debug("wrote package", "path", path, "bytes", len(r.content))
	return nil
}

func (r *run) outputPath() string {
	if r.req.Output != "" {
		return r.req.Output
	}
	dir := r.req.Dir
	if dir == "" {
		dir = "."
	}
	return filepath.Join(dir, r.name.FileName())
}

func (r *run) key(v witpkg.Version) cache.Key {
	return cache.Key{Registry: r.endpoint.URL, Name: r.name, Version: v}
}

// registryError attaches package context and guidance to a registry failure.
func (r *run) registryError(err error) error {
	resource := r.name.String()
	if v, ok := r.require.Exact(); ok {
		resource += "@" + v.String()
	}

	ctx := issue.NewErrorContext().
		WithOperation("download package").
		WithResource(resource)

	switch Kind(err) {
	case KindPackageNotFound:
		ctx.WithSuggestions(
			"Check the package name for typos",
			fmt.Sprintf("Confirm the package is published to %s, or pick another registry with --registry", r.endpoint.URL),
		)
	case KindVersionNotFound:
		ctx.WithSuggestion("Omit --version to download the newest release")
	case KindRegistryFetchFailed:
		ctx.WithSuggestions(
			fmt.Sprintf("Check that %s is reachable", r.endpoint.URL),
			"Previously downloaded versions can still be fetched from the cache with --version",
		)
	}

	return ctx.Wrap(err).BuildError()
}

func (r *run) enter(s State) {
	r.d.logger.Debug("download state", "state", s.String(), "package", r.req.Name)
}

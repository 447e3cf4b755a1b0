// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/wit-registry/wit/internal/cache"
	"github.com/wit-registry/wit/internal/config"
	"github.com/wit-registry/wit/internal/download"
	"github.com/wit-registry/wit/internal/registry"

	"github.com/charmbracelet/log"
)

type (
	// App wires CLI services and shared dependencies. Every command handler
	// receives an App reference.
	App struct {
		Config     config.Provider
		HTTPClient *http.Client
		stdout     io.Writer
		stderr     io.Writer
		getenv     func(string) string
		getwd      func() (string, error)

		// flags bound on the root command
		verbose  bool
		cfgFile  string
		cacheDir string
	}

	// Dependencies defines the injection points for building an App. Nil fields
	// are replaced with production defaults by NewApp.
	Dependencies struct {
		Config     config.Provider
		HTTPClient *http.Client
		Stdout     io.Writer
		Stderr     io.Writer
		Getenv     func(string) string
		Getwd      func() (string, error)
	}

	// session is the per-invocation state derived from flags and configuration.
	session struct {
		client  *config.ClientConfig
		project *config.ProjectConfig
		logger  *slog.Logger
		verbose bool
	}
)

// NewApp creates an App with defaults for omitted dependencies.
func NewApp(deps Dependencies) *App {
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Getenv == nil {
		deps.Getenv = os.Getenv
	}
	if deps.Getwd == nil {
		deps.Getwd = os.Getwd
	}

	return &App{
		Config:     deps.Config,
		HTTPClient: deps.HTTPClient,
		stdout:     deps.Stdout,
		stderr:     deps.Stderr,
		getenv:     deps.Getenv,
		getwd:      deps.Getwd,
	}
}

// newLogger returns a slog logger backed by charmbracelet/log on w.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := log.InfoLevel
	if verbose {
		level = log.DebugLevel
	}
	handler := log.NewWithOptions(w, log.Options{
		Prefix: "wit",
		Level:  level,
	})
	return slog.New(handler)
}

// loadSession reads the client and project configuration and sets up logging.
// With withProject false the working directory is not searched for wit.toml.
func (a *App) loadSession(ctx context.Context, withProject bool) (*session, error) {
	clientCfg, err := a.Config.Load(ctx, config.LoadOptions{ConfigFilePath: a.cfgFile})
	if err != nil {
		return nil, newConfigError(err)
	}

	s := &session{
		client:  clientCfg,
		verbose: a.verbose || clientCfg.UI.Verbose,
	}
	s.logger = newLogger(a.stderr, s.verbose)

	if withProject {
		wd, err := a.getwd()
		if err != nil {
			return nil, err
		}
		project, err := a.Config.LoadProject(ctx, wd)
		if err != nil {
			return nil, newConfigError(err)
		}
		if project != nil {
			s.logger.Debug("loaded project config", "path", project.Path, "registries", len(project.Registries))
		}
		s.project = project
	}

	return s, nil
}

// cacheRoot resolves the cache directory: --cache-dir, then $WIT_CACHE_DIR,
// then cache_dir from the client config, then the user cache dir.
func (a *App) cacheRoot(s *session) (string, error) {
	if a.cacheDir != "" {
		return a.cacheDir, nil
	}
	return cache.DefaultDirWith(a.getenv, os.UserCacheDir, s.client.CacheDir)
}

func (a *App) openCache(s *session) (*cache.Cache, error) {
	root, err := a.cacheRoot(s)
	if err != nil {
		return nil, err
	}
	return cache.Open(root, cache.WithLogger(s.logger))
}

func (a *App) newRegistryClient(s *session) *registry.HTTPClient {
	opts := []registry.ClientOption{
		registry.WithUserAgent("wit/" + Version),
		registry.WithLogger(s.logger),
	}
	if a.HTTPClient != nil {
		opts = append(opts, registry.WithHTTPClient(a.HTTPClient))
	}
	if token := a.getenv(registry.TokenEnvVar); token != "" {
		opts = append(opts, registry.WithToken(token))
	}
	if s.client.UI.Progress && isTerminal(a.stderr) {
		opts = append(opts, registry.WithProgress(a.stderr))
	}
	return registry.NewHTTPClient(opts...)
}

func (a *App) newDownloader(s *session) *download.Downloader {
	opts := []download.Option{
		download.WithProjectConfig(s.project),
		download.WithClientConfig(s.client),
		download.WithLogger(s.logger),
	}

	c, err := a.openCache(s)
	if err != nil {
		s.logger.Warn("package cache unavailable, downloading without it", "error", err)
	} else {
		opts = append(opts, download.WithCache(c))
	}

	return download.New(a.newRegistryClient(s), opts...)
}

// isTerminal reports whether w is a character device.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// NewRootCommand builds the wit command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "wit",
		Short: "Fetch WIT interface packages from a registry",
		Long: TitleStyle.Render("wit") + SubtitleStyle.Render(" - Fetch WIT interface packages from a registry") + `

wit downloads WebAssembly Interface Type packages from a package registry.
The registry is taken from the project's wit.toml, falling back to the
home_url of the client configuration. Downloaded releases are cached by
exact version, so repeated downloads work offline.

` + SubtitleStyle.Render("Examples:") + `
  wit download wasi:http                    Newest stable release into ./http.wit
  wit download wasi:http --version 0.2.0    An exact version
  wit download wasi:io wit/deps             Into the wit/deps directory
  wit cache list 'wasi:*'                   Show cached releases`,
		SilenceUsage: true,
	}

	rootCmd.SetOut(app.stdout)
	rootCmd.SetErr(app.stderr)

	rootCmd.PersistentFlags().BoolVarP(&app.verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&app.cfgFile, "config", "", "config file (default is <config dir>/wit/config.cue)")
	rootCmd.PersistentFlags().StringVar(&app.cacheDir, "cache-dir", "", "package cache directory (overrides $WIT_CACHE_DIR and cache_dir)")

	rootCmd.AddCommand(newDownloadCommand(app))
	rootCmd.AddCommand(newCacheCommand(app))
	rootCmd.AddCommand(newConfigCommand(app))

	return rootCmd
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// errorHandler skips errors that the failing command already rendered.
func errorHandler(w io.Writer, styles fang.Styles, err error) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return
	}
	fang.DefaultErrorHandler(w, styles, err)
}

// Execute runs the root command. It is called by main.main().
func Execute() {
	slog.SetDefault(newLogger(os.Stderr, false))

	app := NewApp(Dependencies{})
	if err := fang.Execute(
		context.Background(),
		NewRootCommand(app),
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
		fang.WithErrorHandler(errorHandler),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(ExitUserError)
	}
}

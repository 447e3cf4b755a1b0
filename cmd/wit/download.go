// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/wit-registry/wit/internal/download"

	"github.com/spf13/cobra"
)

// downloadParams bundles the flags and collaborators of the download command
// so that runDownload can be tested without a Cobra command.
type downloadParams struct {
	stdout     io.Writer
	stderr     io.Writer
	downloader *download.Downloader
	request    download.Request
	verbose    bool
}

// newDownloadCommand creates the `wit download` command.
func newDownloadCommand(app *App) *cobra.Command {
	var req download.Request

	cmd := &cobra.Command{
		Use:   "download [flags] NAME [PATH]",
		Short: "Download a WIT package from a registry",
		Long: `Download a WIT package from a registry.

NAME is a package name of the form namespace:name. The package is written
to PATH/<name>.wit (PATH defaults to the current directory) unless --output
names the file explicitly.

Without --version the newest stable release is downloaded. The registry is
selected with --registry from the [registries] table of wit.toml; without it
the "default" alias is used, then the home_url of the client configuration.

Releases are cached by exact version. Use --update to bypass the cache.`,
		Example: `  # Newest stable release into ./http.wit
  wit download wasi:http

  # An exact version from the "internal" registry of wit.toml
  wit download wasi:http --registry internal --version 0.2.0

  # Refresh the cache and write to a specific file
  wit download wasi:io --update -o wit/deps/io.wit`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceErrors = true
			cmd.SilenceUsage = true

			req.Name = args[0]
			if len(args) > 1 {
				req.Dir = args[1]
			}

			s, err := app.loadSession(cmd.Context(), true)
			if err != nil {
				return renderAndExit(cmd.ErrOrStderr(), err, app.verbose)
			}

			p := downloadParams{
				stdout:     cmd.OutOrStdout(),
				stderr:     cmd.ErrOrStderr(),
				downloader: app.newDownloader(s),
				request:    req,
				verbose:    s.verbose,
			}
			return runDownload(cmd.Context(), p)
		},
	}

	cmd.Flags().StringVar(&req.Registry, "registry", "", "registry alias from wit.toml")
	cmd.Flags().StringVar(&req.Version, "version", "", "exact version to download (default newest stable)")
	cmd.Flags().BoolVar(&req.Update, "update", false, "bypass the cache and fetch from the registry")
	cmd.Flags().StringVarP(&req.Output, "output", "o", "", "output file (default PATH/<name>.wit)")

	return cmd
}

// runDownload performs the download and prints the outcome.
func runDownload(ctx context.Context, p downloadParams) error {
	outcome, err := p.downloader.Download(ctx, p.request)
	if err != nil {
		return renderAndExit(p.stderr, err, p.verbose)
	}

	source := "registry"
	if outcome.FromCache {
		source = "cache"
	}
	fmt.Fprintf(p.stdout, "%s Downloaded %s@%s → %s %s\n",
		SuccessStyle.Render("✓"),
		outcome.Name,
		outcome.Version,
		PathStyle.Render(outcome.Path),
		SubtitleStyle.Render("("+source+")"),
	)
	return nil
}

// renderAndExit renders err to stderr and returns the ExitError for it.
func renderAndExit(stderr io.Writer, err error, verbose bool) error {
	var svcErr *ServiceError
	if !errors.As(err, &svcErr) {
		svcErr = newServiceError(err)
	}
	renderServiceError(stderr, svcErr, verbose)
	return &ExitError{Code: svcErr.ExitCode(), Err: svcErr.Err}
}

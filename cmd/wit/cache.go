// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/wit-registry/wit/internal/cache"

	"github.com/spf13/cobra"
)

// newCacheCommand creates the `wit cache` command tree.
func newCacheCommand(app *App) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and manage the package cache",
		Long: `Inspect and manage the package cache.

The cache directory is chosen by --cache-dir, then $WIT_CACHE_DIR, then
cache_dir from the client configuration, then <user cache dir>/wit.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cacheCmd.AddCommand(&cobra.Command{
		Use:   "list [PATTERN]",
		Short: "List cached releases",
		Long: `List cached releases.

PATTERN is a glob matched against namespace:name, or against
namespace:name@version when it contains '@'.`,
		Example: `  wit cache list
  wit cache list 'wasi:*'
  wit cache list 'wasi:http@0.2.*'`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var pattern string
			if len(args) > 0 {
				pattern = args[0]
			}
			return withCache(cmd, app, func(c *cache.Cache) error {
				entries, err := c.List(pattern)
				if err != nil {
					return err
				}
				printEntries(cmd.OutOrStdout(), entries)
				return nil
			})
		},
	})

	cacheCmd.AddCommand(&cobra.Command{
		Use:   "clean",
		Short: "Remove every cached release",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCache(cmd, app, func(c *cache.Cache) error {
				if err := c.Clean(); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s Cleaned %s\n", SuccessStyle.Render("✓"), PathStyle.Render(c.Root()))
				return nil
			})
		},
	})

	cacheCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show the cache directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceErrors = true
			cmd.SilenceUsage = true

			s, err := app.loadSession(cmd.Context(), false)
			if err != nil {
				return renderAndExit(cmd.ErrOrStderr(), err, app.verbose)
			}
			root, err := app.cacheRoot(s)
			if err != nil {
				return renderAndExit(cmd.ErrOrStderr(), err, s.verbose)
			}
			fmt.Fprintln(cmd.OutOrStdout(), root)
			return nil
		},
	})

	return cacheCmd
}

// withCache opens the configured cache and runs fn, rendering any error.
func withCache(cmd *cobra.Command, app *App, fn func(*cache.Cache) error) error {
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	s, err := app.loadSession(cmd.Context(), false)
	if err != nil {
		return renderAndExit(cmd.ErrOrStderr(), err, app.verbose)
	}
	c, err := app.openCache(s)
	if err == nil {
		err = fn(c)
	}
	if err != nil {
		return renderAndExit(cmd.ErrOrStderr(), err, s.verbose)
	}
	return nil
}

func printEntries(w io.Writer, entries []cache.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, SubtitleStyle.Render("(no cached releases)"))
		return
	}
	for _, e := range entries {
		fmt.Fprintf(w, "%s@%s  %s  %s  %s\n",
			e.Key.Name,
			e.Key.Version,
			SubtitleStyle.Render(e.Key.Registry),
			formatSize(e.Size),
			SubtitleStyle.Render(e.FetchedAt.UTC().Format(time.RFC3339)),
		)
	}
}

func formatSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

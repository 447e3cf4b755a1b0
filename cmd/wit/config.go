// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/wit-registry/wit/internal/config"

	"github.com/spf13/cobra"
)

// newConfigCommand creates the `wit config` command tree.
func newConfigCommand(app *App) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Show wit configuration",
		Long: `Show wit configuration.

The client configuration is read from:
  - Linux: $XDG_CONFIG_HOME/wit/config.cue (~/.config/wit/config.cue)
  - macOS: ~/Library/Application Support/wit/config.cue
  - Windows: %APPDATA%\wit\config.cue

Registry aliases for a project live in the [registries] table of wit.toml,
found in the current directory or a parent.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective client configuration as CUE",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceErrors = true
			cmd.SilenceUsage = true

			s, err := app.loadSession(cmd.Context(), true)
			if err != nil {
				return renderAndExit(cmd.ErrOrStderr(), err, app.verbose)
			}

			out := cmd.OutOrStdout()
			fmt.Fprint(out, config.GenerateCUE(s.client))
			if s.project != nil {
				fmt.Fprintf(out, "\n// project: %s\n", s.project.Path)
				for _, alias := range s.project.Aliases() {
					fmt.Fprintf(out, "// registry %s = %s\n", alias, s.project.Registries[alias])
				}
			}
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file paths",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			cfgPath := app.cfgFile
			if cfgPath == "" {
				cfgDir, err := config.ConfigDir()
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Config directory: %s\n", cfgDir)
				cfgPath = config.ConfigFilePath(cfgDir)
			}
			resolved, err := config.ResolvedPath(config.LoadOptions{ConfigFilePath: app.cfgFile})
			if err != nil {
				return err
			}
			if resolved == "" {
				fmt.Fprintf(out, "Config file: %s %s\n", cfgPath, SubtitleStyle.Render("(not present, using defaults)"))
			} else {
				fmt.Fprintf(out, "Config file: %s\n", cfgPath)
			}

			wd, err := app.getwd()
			if err != nil {
				return err
			}
			projectPath, err := config.FindProjectFile(wd)
			if err != nil {
				return err
			}
			if projectPath == "" {
				fmt.Fprintf(out, "Project file: %s\n", SubtitleStyle.Render("(none)"))
			} else {
				fmt.Fprintf(out, "Project file: %s\n", projectPath)
			}
			return nil
		},
	})

	return cfgCmd
}

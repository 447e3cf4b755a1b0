// SPDX-License-Identifier: MPL-2.0

// Package config loads the two configuration layers consulted when resolving
// a registry:
//
//   - The client configuration (config.cue under the platform config
//     directory, e.g. ~/.config/wit/config.cue) holds the "home" registry URL
//     and cache settings. It is loaded with Viper, validated against an
//     embedded CUE schema, and can be overridden with WIT_* environment
//     variables.
//   - The project configuration (wit.toml, found by walking up from the
//     working directory) maps registry aliases to URLs.
//
// Neither file is required. Loading never picks a registry; that decision is
// made by the registry package from the loaded values.
package config

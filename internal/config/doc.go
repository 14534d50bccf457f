// Package config loads, normalizes, and validates storyvideo configuration data.
//
// Configuration is read from TOML (default ~/.config/storyvideo/config.toml or
// ./storyvideo.toml), merged over Default(), normalized (paths expanded,
// environment fallbacks for secrets), then validated.
package config

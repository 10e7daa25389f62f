// Package config loads the gateway configuration from a single directory.
// The default location is ~/.config/leaguelink; commands accept a
// --config-path flag for custom locations. Secret material (the vault key,
// the webhook secret, the Yahoo client secret) is read from the environment
// only and never from config.yaml.
package config

// Package cli wires the repotool root command, repo.toml configuration
// loading, and structured logging for every subcommand.
package cli

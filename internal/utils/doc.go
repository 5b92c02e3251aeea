// Package utils bundles shared infrastructure for the repotool CLI:
// configuration loading backed by Viper, zap logger construction, and
// small helpers reused across command implementations.
package utils

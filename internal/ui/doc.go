// Package ui renders human-readable progress for external tool runs
// when console logging is enabled.
package ui

// Package selection implements glob-based file selection shared by the
// packaging, formatting, and linting commands. Patterns are relative to
// the repository root, support ** via doublestar, and exclusion always
// wins over inclusion.
package selection

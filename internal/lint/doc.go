// Package lint runs the external Python linter over the file selection
// configured in repo_lint and streams its findings to the command output.
package lint

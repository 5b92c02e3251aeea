// Package toolrunner executes the external formatter and linter
// executables configured in repo.toml. It wraps os/exec behind a
// CommandRunner interface, logs command lifecycles through zap, and
// converts non-zero exits into typed errors callers can inspect.
package toolrunner

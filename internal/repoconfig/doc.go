// Package repoconfig models the repo.toml configuration contract: the
// typed schema for repository, publish, package, format, and lint
// sections, ${conf:...} reference interpolation, and the validation
// rules every invocation applies before any operation runs.
package repoconfig

// Package pack assembles release archives from the glob selections in
// repo.toml package definitions: archive naming with optional flow
// calendar versioning, Windows path length enforcement, and
// deterministic zip container writing.
package pack

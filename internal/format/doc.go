// Package format orchestrates the external Python formatter over the
// file selection configured in repo_format, batching files and running
// the configured number of jobs concurrently.
package format

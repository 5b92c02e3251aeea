// Package publish selects built archives through the repo_publish glob
// patterns, copies them to the publish destination, and records a YAML
// manifest receipt with sizes and digests.
package publish

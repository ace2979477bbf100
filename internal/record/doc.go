// Package record reads and writes the project record, the YAML file at the
// root of every generated project that remembers the chosen stack and the
// installed addons. Incremental adds use a read-merge-write cycle whose addon
// list is the deduplicated union of what was recorded and what was applied.
// Every load is validated against an embedded JSON Schema.
package record

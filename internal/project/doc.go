// Package project synthesizes the authoritative configuration of a project
// from explicit input, detected state and defaults, and detects the state of
// an existing project from its record file and app manifests.
package project

// Package cli defines the Cobra command tree for the tstack CLI. Each file
// registers one top-level command (create, add, addons, config, version) with
// the root command. Commands parse flags, run the pre-mutation checks and
// hand the resolved configuration to the apply package.
package cli

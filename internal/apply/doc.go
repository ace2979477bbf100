// Package apply turns a resolved feature selection into changes on disk.
//
// Each feature is described by a Plan computed from the project
// configuration: template sets to render, package.json edits per target app
// and .env entries. The Orchestrator executes plans in catalog order, skips
// targets whose directory does not exist, isolates failures per feature and
// writes the project record once at the end.
package apply

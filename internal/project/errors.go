package project

import (
	"fmt"

	"github.com/tstack-labs/tstack/internal/branding"
)

// PreconditionKind classifies a PreconditionError.
type PreconditionKind int

const (
	// NotAProject means the directory was not generated by this tool.
	NotAProject PreconditionKind = iota
	// CannotDetect means the project exists but its configuration could not
	// be reconstructed.
	CannotDetect
	// DirNotEmpty means a fresh project would overwrite existing files.
	DirNotEmpty
)

// PreconditionError aborts an invocation before anything is written.
type PreconditionError struct {
	Dir  string
	Kind PreconditionKind
	Err  error
}

func (e *PreconditionError) Error() string {
	var msg string
	switch e.Kind {
	case NotAProject:
		msg = fmt.Sprintf("%s does not appear to be a %s project; run this command from the root of one",
			e.Dir, branding.DisplayName())
	case CannotDetect:
		msg = fmt.Sprintf("could not detect the project configuration in %s", e.Dir)
	case DirNotEmpty:
		msg = fmt.Sprintf("directory %s is not empty; choose another name or remove existing files first", e.Dir)
	default:
		msg = fmt.Sprintf("precondition failed for %s", e.Dir)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *PreconditionError) Unwrap() error { return e.Err }

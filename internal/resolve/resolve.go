package resolve

import (
	"errors"
	"fmt"

	"github.com/tstack-labs/tstack/internal/compat"
	"github.com/tstack-labs/tstack/internal/feature"
	"github.com/tstack-labs/tstack/internal/orderedset"
)

// ConflictError reports two features that cannot coexist.
type ConflictError struct {
	Requested feature.ID
	Other     feature.ID
	// Installed is true when Other is already part of the project rather
	// than another entry of the same selection.
	Installed bool
}

func (e *ConflictError) Error() string {
	var msg string
	if e.Installed {
		msg = fmt.Sprintf("cannot add %s, %s already installed", e.Requested, e.Other)
	} else {
		msg = fmt.Sprintf("cannot select both %s and %s", e.Requested, e.Other)
	}
	if compat.Lookup(e.Requested).Group == compat.GroupBuildSystem &&
		compat.Lookup(e.Other).Group == compat.GroupBuildSystem {
		msg += "; choose one build system"
	}
	return msg
}

// Rule table lookups, replaceable in tests.
var (
	requiresOf = compat.Requires
	conflicts  = compat.Conflicts
)

// ErrRuleTable is returned when injecting a required companion would itself
// create a conflict. That can only happen with a broken rule table.
var ErrRuleTable = compat.ErrRuleTable

// ValidateSelection checks selected against itself and the installed
// features, then adds every missing required companion. The returned
// resolution holds the selection plus injected companions; installed
// features are never part of it.
func ValidateSelection(selected, installed []feature.ID) (*Resolution, error) {
	sel := orderedset.New(selected...)
	inst := orderedset.New(installed...)

	if err := checkConflicts(sel, inst); err != nil {
		return nil, err
	}

	resolved := sel.Clone()
	var injected []feature.ID
	// Walk the growing selection so companions of companions are picked up.
	for i := 0; i < resolved.Len(); i++ {
		id := resolved.Values()[i]
		for _, req := range requiresOf(id) {
			if resolved.Has(req) || inst.Has(req) {
				continue
			}
			resolved.Add(req)
			injected = append(injected, req)
		}
	}

	if len(injected) > 0 {
		if err := checkConflicts(resolved, inst); err != nil {
			return nil, fmt.Errorf("%w: injected companion: %w", ErrRuleTable, err)
		}
	}

	res := &Resolution{
		Features:  resolved.Values(),
		Injected:  injected,
		Installed: inst.Values(),
	}
	res.Roots = buildTree(sel.Values(), inst, orderedset.New(injected...))
	return res, nil
}

// checkConflicts tests every pair drawn from selected ∪ installed where at
// least one side is newly selected.
func checkConflicts(selected, installed *orderedset.Set[feature.ID]) error {
	ids := selected.Values()
	for i, a := range ids {
		for _, b := range ids[i+1:] {
			if conflicts(a, b) {
				return &ConflictError{Requested: a, Other: b}
			}
		}
		for _, b := range installed.Values() {
			if a != b && conflicts(a, b) {
				return &ConflictError{Requested: a, Other: b, Installed: true}
			}
		}
	}
	return nil
}

// IsConflict reports whether err carries a *ConflictError.
func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}

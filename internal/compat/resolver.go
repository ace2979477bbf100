package compat

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tstack-labs/tstack/internal/feature"
	"github.com/tstack-labs/tstack/internal/stack"
)

// CompatibilityError reports a feature that the frontend stack cannot host.
type CompatibilityError struct {
	Feature feature.ID
	Reason  string
}

func (e *CompatibilityError) Error() string { return e.Reason }

// IsCompatible decides whether id can be used with frontends. An empty stack
// accepts everything. When the answer is no, reason is a user-facing sentence
// naming the offending frontend.
func IsCompatible(id feature.ID, frontends *stack.FrontendSet) (bool, string) {
	rule := Lookup(id)
	if frontends.Len() == 0 || rule.Support == SupportEverywhere {
		return true, ""
	}

	kind := feature.MustLookup(id).Kind
	if rule.Support == SupportNowhere {
		return false, fmt.Sprintf("%s %s is not supported by any frontend", id, kind)
	}

	supported := stack.NewFrontendSet(rule.Frontends...)
	for _, f := range frontends.Values() {
		if !supported.Has(f) {
			return false, fmt.Sprintf("%s %s is not compatible with the %s frontend (supported: %s)",
				id, kind, f, joinFrontends(rule.Frontends))
		}
	}
	return true, ""
}

// CheckCompatible returns a *CompatibilityError for the first incompatible id.
func CheckCompatible(ids []feature.ID, frontends *stack.FrontendSet) error {
	for _, id := range ids {
		if ok, reason := IsCompatible(id, frontends); !ok {
			return &CompatibilityError{Feature: id, Reason: reason}
		}
	}
	return nil
}

// CompatibleFeatures filters all down to the features frontends can host.
// Build-system features come first; each group is sorted alphabetically.
func CompatibleFeatures(all []feature.ID, frontends *stack.FrontendSet) []feature.ID {
	var out []feature.ID
	seen := make(map[feature.ID]bool)
	for _, id := range all {
		if seen[id] {
			continue
		}
		seen[id] = true
		if ok, _ := IsCompatible(id, frontends); ok {
			out = append(out, id)
		}
	}
	sortForListing(out)
	return out
}

// CompatibleFeaturesForAdd is CompatibleFeatures for an existing project: it
// also hides features already installed and features that conflict with them.
func CompatibleFeaturesForAdd(all []feature.ID, frontends *stack.FrontendSet, installed []feature.ID) []feature.ID {
	var out []feature.ID
	for _, id := range CompatibleFeatures(all, frontends) {
		if containsID(installed, id) || conflictsWithAny(id, installed) {
			continue
		}
		out = append(out, id)
	}
	return out
}

func conflictsWithAny(id feature.ID, installed []feature.ID) bool {
	for _, other := range installed {
		if other != id && Conflicts(id, other) {
			return true
		}
	}
	return false
}

func sortForListing(ids []feature.ID) {
	sort.SliceStable(ids, func(i, j int) bool {
		bi := Lookup(ids[i]).Group == GroupBuildSystem
		bj := Lookup(ids[j]).Group == GroupBuildSystem
		if bi != bj {
			return bi
		}
		return ids[i] < ids[j]
	})
}

func joinFrontends(fs []stack.Frontend) string {
	parts := make([]string, len(fs))
	for i, f := range fs {
		parts[i] = string(f)
	}
	return strings.Join(parts, ", ")
}

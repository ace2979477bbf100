package compat

import (
	"errors"
	"fmt"

	"github.com/tstack-labs/tstack/internal/feature"
	"github.com/tstack-labs/tstack/internal/stack"
)

// Support is the frontend policy of a feature.
type Support int

const (
	// SupportEverywhere marks a frontend-agnostic feature.
	SupportEverywhere Support = iota
	// SupportListed limits a feature to Rule.Frontends.
	SupportListed
	// SupportNowhere disables a feature for every frontend stack.
	SupportNowhere
)

// Group clusters features that are offered together at the top of a listing.
type Group string

const GroupBuildSystem Group = "build-system"

// Rule is the compatibility entry of one feature.
type Rule struct {
	Support   Support
	Frontends []stack.Frontend
	// Conflicts need only be declared on one side; lookups are symmetric.
	Conflicts []feature.ID
	Requires  []feature.ID
	Group     Group
}

var allButSolid = []stack.Frontend{
	stack.FrontendTanStackRouter,
	stack.FrontendReactRouter,
	stack.FrontendTanStackStart,
	stack.FrontendNext,
	stack.FrontendNuxt,
	stack.FrontendSvelte,
	stack.FrontendNativeNativewind,
	stack.FrontendNativeUnistyles,
}

var rules = map[feature.ID]Rule{
	feature.Turborepo: {Group: GroupBuildSystem, Conflicts: []feature.ID{feature.Moonrepo}},
	feature.Moonrepo:  {Group: GroupBuildSystem},
	feature.PWA: {
		Support:   SupportListed,
		Frontends: []stack.Frontend{stack.FrontendTanStackRouter, stack.FrontendReactRouter, stack.FrontendSolid, stack.FrontendNext},
	},
	feature.Tauri: {
		Support:   SupportListed,
		Frontends: []stack.Frontend{stack.FrontendTanStackRouter, stack.FrontendReactRouter, stack.FrontendNuxt, stack.FrontendSvelte, stack.FrontendSolid},
	},
	feature.Biome:     {},
	feature.Husky:     {Requires: []feature.ID{feature.Biome}},
	feature.Starlight: {},
	feature.Mintlify:  {},

	feature.BetterAuth: {Conflicts: []feature.ID{feature.Clerk, feature.ConvexAuth}},
	feature.Clerk:      {Conflicts: []feature.ID{feature.ConvexAuth}},
	feature.ConvexAuth: {},

	feature.Todo:     {},
	feature.AI:       {Support: SupportListed, Frontends: allButSolid},
	feature.AIAgents: {},
	feature.Payments: {},
}

// Lookup returns the rule for id. Asking for a feature the table does not
// know is a programming error and panics.
func Lookup(id feature.ID) Rule {
	r, ok := rules[id]
	if !ok {
		panic(fmt.Sprintf("compat: no rule for feature %q", id))
	}
	return r
}

// SupportedFrontends returns the frontends id may be used with. The result is
// empty for agnostic features; check Lookup(id).Support to tell them apart
// from unsupported ones.
func SupportedFrontends(id feature.ID) *stack.FrontendSet {
	return stack.NewFrontendSet(Lookup(id).Frontends...)
}

// ConflictsWith returns every feature that cannot coexist with id, whichever
// side of the table declared the conflict.
func ConflictsWith(id feature.ID) []feature.ID {
	out := append([]feature.ID(nil), Lookup(id).Conflicts...)
	for _, other := range feature.Known() {
		if other == id {
			continue
		}
		for _, c := range rules[other].Conflicts {
			if c == id && !containsID(out, other) {
				out = append(out, other)
			}
		}
	}
	return out
}

// Conflicts reports whether a and b are mutually exclusive.
func Conflicts(a, b feature.ID) bool {
	return containsID(Lookup(a).Conflicts, b) || containsID(Lookup(b).Conflicts, a)
}

// Requires returns the companions id needs.
func Requires(id feature.ID) []feature.ID {
	return append([]feature.ID(nil), Lookup(id).Requires...)
}

// ErrRuleTable reports an inconsistent rule table.
var ErrRuleTable = errors.New("compat: inconsistent rule table")

// Validate checks that the table is total and self-consistent.
func Validate() error {
	for _, id := range feature.Known() {
		if _, ok := rules[id]; !ok {
			return fmt.Errorf("%w: feature %q has no rule", ErrRuleTable, id)
		}
	}
	for id, r := range rules {
		if _, ok := feature.Lookup(id); !ok {
			return fmt.Errorf("%w: rule for unknown feature %q", ErrRuleTable, id)
		}
		for _, ref := range append(append([]feature.ID(nil), r.Conflicts...), r.Requires...) {
			if _, ok := rules[ref]; !ok {
				return fmt.Errorf("%w: %q references unknown feature %q", ErrRuleTable, id, ref)
			}
		}
		if r.Support == SupportListed && len(r.Frontends) == 0 {
			return fmt.Errorf("%w: %q lists no frontends", ErrRuleTable, id)
		}
		for _, req := range r.Requires {
			if Conflicts(id, req) {
				return fmt.Errorf("%w: %q requires %q but conflicts with it", ErrRuleTable, id, req)
			}
		}
	}
	return nil
}

func containsID(ids []feature.ID, id feature.ID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// Package feature names the optional capabilities a project can carry:
// addons, auth providers and examples. A feature holds no state; its ID is a
// key into the compatibility rule table.
package feature

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ID is the canonical kebab-case identifier of a feature.
type ID string

// None is the sentinel for "no feature selected". It is never a feature.
const None ID = "none"

// Kind groups features by the flag or prompt that selects them.
type Kind string

const (
	KindAddon   Kind = "addon"
	KindAuth    Kind = "auth"
	KindExample Kind = "example"
)

const (
	Turborepo ID = "turborepo"
	Moonrepo  ID = "moonrepo"
	PWA       ID = "pwa"
	Tauri     ID = "tauri"
	Biome     ID = "biome"
	Husky     ID = "husky"
	Starlight ID = "starlight"
	Mintlify  ID = "mintlify"

	BetterAuth ID = "better-auth"
	Clerk      ID = "clerk"
	ConvexAuth ID = "convex-auth"

	Todo     ID = "todo"
	AI       ID = "ai"
	AIAgents ID = "ai-agents"
	Payments ID = "payments"
)

// Info is the display metadata shown in prompts and listings.
type Info struct {
	ID    ID
	Kind  Kind
	Label string
	Hint  string
}

var catalog = []Info{
	{Turborepo, KindAddon, "Turborepo", "High-performance build system for JavaScript and TypeScript"},
	{Moonrepo, KindAddon, "Moonrepo", "Modern build system and monorepo management tool"},
	{PWA, KindAddon, "PWA (Progressive Web App)", "Make your app installable and work offline"},
	{Tauri, KindAddon, "Tauri", "Build native desktop apps from your web frontend"},
	{Biome, KindAddon, "Biome", "Fast formatter and linter for JavaScript, TypeScript, JSX"},
	{Husky, KindAddon, "Husky", "Git hooks with lint-staged (requires Biome)"},
	{Starlight, KindAddon, "Starlight", "Documentation site with Astro"},
	{Mintlify, KindAddon, "Mintlify", "Beautiful documentation with Mintlify"},

	{BetterAuth, KindAuth, "Better Auth", "Modern authentication with built-in providers"},
	{Clerk, KindAuth, "Clerk", "Complete user management solution"},
	{ConvexAuth, KindAuth, "Convex Auth", "Built-in Convex authentication"},

	{Todo, KindExample, "Todo", "Simple todo list backed by the database"},
	{AI, KindExample, "AI Chat", "Streaming chat powered by the AI SDK"},
	{AIAgents, KindExample, "AI Agents", "Agents and workflows with Mastra"},
	{Payments, KindExample, "Payments", "Checkout flow with Stripe"},
}

var byID = func() map[ID]Info {
	m := make(map[ID]Info, len(catalog))
	for _, info := range catalog {
		m[info.ID] = info
	}
	return m
}()

// ErrUnknown is returned when an identifier does not name a feature.
var ErrUnknown = errors.New("unknown feature")

// Lookup returns the display metadata for id.
func Lookup(id ID) (Info, bool) {
	info, ok := byID[id]
	return info, ok
}

// MustLookup is Lookup for identifiers that are known to be valid.
func MustLookup(id ID) Info {
	info, ok := byID[id]
	if !ok {
		panic(fmt.Sprintf("feature: %q is not a known feature", id))
	}
	return info
}

// All returns every feature of kind k in catalog order.
func All(k Kind) []ID {
	var out []ID
	for _, info := range catalog {
		if info.Kind == k {
			out = append(out, info.ID)
		}
	}
	return out
}

// Known returns every feature in catalog order.
func Known() []ID {
	out := make([]ID, len(catalog))
	for i, info := range catalog {
		out[i] = info.ID
	}
	return out
}

// Position is the index of id in catalog order, or -1.
func Position(id ID) int {
	for i, info := range catalog {
		if info.ID == id {
			return i
		}
	}
	return -1
}

// Parse validates raw identifiers of kind k. "none" entries are dropped and
// duplicates collapse.
func Parse(k Kind, raw []string) ([]ID, error) {
	var out []ID
	seen := make(map[ID]bool)
	for _, r := range raw {
		id := ID(strings.TrimSpace(r))
		if id == None || id == "" || seen[id] {
			continue
		}
		info, ok := byID[id]
		if !ok || info.Kind != k {
			return nil, fmt.Errorf("%w %s %q (expected one of %s)", ErrUnknown, k, r, joinIDs(All(k)))
		}
		seen[id] = true
		out = append(out, id)
	}
	return out, nil
}

// String returns the identifier.
func (id ID) String() string { return string(id) }

// Label returns the display label of id. Unknown ids are title-cased.
func (id ID) Label() string {
	if info, ok := byID[id]; ok {
		return info.Label
	}
	return cases.Title(language.English).String(strings.ReplaceAll(string(id), "-", " "))
}

func joinIDs(ids []ID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = string(id)
	}
	return strings.Join(parts, ", ")
}

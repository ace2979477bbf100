package resolve

import (
	"fmt"
	"io"
	"strings"

	"github.com/tstack-labs/tstack/internal/feature"
	"github.com/tstack-labs/tstack/internal/orderedset"
)

// Resolution is the finalized feature selection of one invocation.
type Resolution struct {
	Features  []feature.ID // selection plus injected companions, first-seen order
	Injected  []feature.ID // companions added because a selected feature requires them
	Installed []feature.ID // features the project already had
	Roots     []*Node      // one tree per explicitly selected feature
}

// Node is one feature in the requirement tree of a selection.
type Node struct {
	ID        feature.ID
	Injected  bool // added automatically as a companion
	Installed bool // already present in the project
	Deduped   bool // shown earlier in the tree
	Children  []*Node
}

// Has reports whether id is part of the resolved selection.
func (r *Resolution) Has(id feature.ID) bool {
	for _, f := range r.Features {
		if f == id {
			return true
		}
	}
	return false
}

func buildTree(selected []feature.ID, installed, injected *orderedset.Set[feature.ID]) []*Node {
	seen := make(map[feature.ID]bool)
	roots := make([]*Node, 0, len(selected))
	for _, id := range selected {
		roots = append(roots, buildNode(id, installed, injected, seen))
	}
	return roots
}

func buildNode(id feature.ID, installed, injected *orderedset.Set[feature.ID], seen map[feature.ID]bool) *Node {
	node := &Node{
		ID:        id,
		Injected:  injected.Has(id),
		Installed: installed.Has(id),
	}
	if seen[id] {
		node.Deduped = true
		return node
	}
	seen[id] = true
	for _, req := range requiresOf(id) {
		node.Children = append(node.Children, buildNode(req, installed, injected, seen))
	}
	return node
}

// PrintTree prints a requirement tree with box-drawing characters.
func PrintTree(w io.Writer, node *Node, prefix string, isLast bool, isRoot bool) {
	if node == nil {
		return
	}

	label := fmt.Sprintf("%s: %s", feature.MustLookup(node.ID).Kind, node.ID.Label())
	switch {
	case node.Installed:
		label += " (already installed)"
	case node.Deduped:
		label += " (deduped)"
	case node.Injected:
		label += " (required)"
	}

	connector := "├── "
	if isLast {
		connector = "└── "
	}
	if isRoot {
		fmt.Fprintf(w, "  %s\n", label)
	} else {
		fmt.Fprintf(w, "  %s%s%s\n", prefix, connector, label)
	}

	childPrefix := prefix
	if !isRoot {
		if isLast {
			childPrefix += "    "
		} else {
			childPrefix += "│   "
		}
	}
	for i, child := range node.Children {
		PrintTree(w, child, childPrefix, i == len(node.Children)-1, false)
	}
}

// PrintPlan prints the resolution summary shown before features are applied.
func PrintPlan(w io.Writer, res *Resolution) {
	fmt.Fprintln(w, "Resolving features...")
	fmt.Fprintln(w)

	for _, root := range res.Roots {
		PrintTree(w, root, "", true, true)
	}
	fmt.Fprintln(w)

	counts := make(map[feature.Kind]int)
	for _, id := range res.Features {
		counts[feature.MustLookup(id).Kind]++
	}
	var parts []string
	for _, kind := range []feature.Kind{feature.KindAddon, feature.KindAuth, feature.KindExample} {
		if n := counts[kind]; n > 0 {
			noun := string(kind)
			if n != 1 {
				noun += "s"
			}
			parts = append(parts, fmt.Sprintf("%d %s", n, noun))
		}
	}
	if len(parts) > 0 {
		fmt.Fprintf(w, "  Apply: %s\n", strings.Join(parts, ", "))
	}
	if len(res.Injected) > 0 {
		names := make([]string, len(res.Injected))
		for i, id := range res.Injected {
			names[i] = string(id)
		}
		fmt.Fprintf(w, "  Added as required: %s\n", strings.Join(names, ", "))
	}
	if len(res.Installed) > 0 {
		fmt.Fprintf(w, "  (%d features already installed)\n", len(res.Installed))
	}
	fmt.Fprintln(w)
}

package apply

import (
	"sort"

	"github.com/tstack-labs/tstack/internal/feature"
	"github.com/tstack-labs/tstack/internal/pkgjson"
	"github.com/tstack-labs/tstack/internal/project"
)

// Plan is everything one feature does to a project. Plans are computed from
// the configuration alone; the orchestrator decides which targets exist.
type Plan struct {
	// Skip, when set, makes the whole feature a no-op with this reason.
	Skip      string
	Renders   []RenderStep
	Manifests []ManifestStep
	Env       []EnvStep
}

// RenderStep renders a template set into a target directory.
type RenderStep struct {
	Set    string
	Target Target
	// Create makes the target directory when it is missing instead of
	// skipping the step.
	Create bool
}

// ManifestStep edits the package.json of a target.
type ManifestStep struct {
	Target Target
	// CreateName, when set, creates a manifest with this package name if the
	// target has none.
	CreateName string
	Edit       pkgjson.Edit
}

// EnvStep adds a variable to the .env file of a target unless it is set.
type EnvStep struct {
	Target Target
	Key    string
	Value  string
	// Secret replaces Value with a freshly generated secret.
	Secret bool
}

type handler func(cfg project.Config) Plan

// PlanFor returns the plan of id under cfg.
func PlanFor(id feature.ID, cfg project.Config) Plan {
	h, ok := handlers[id]
	if !ok {
		return Plan{Skip: "nothing to apply"}
	}
	p := h(cfg)
	p.Manifests = mergeManifests(p.Manifests)
	return p
}

// mergeManifests folds steps on the same target into one, ordered by target,
// so each target is edited by exactly one goroutine.
func mergeManifests(steps []ManifestStep) []ManifestStep {
	byTarget := make(map[Target]*ManifestStep)
	var order []Target
	for _, s := range steps {
		cur, ok := byTarget[s.Target]
		if !ok {
			step := ManifestStep{Target: s.Target, CreateName: s.CreateName}
			byTarget[s.Target] = &step
			order = append(order, s.Target)
			cur = &step
		}
		if cur.CreateName == "" {
			cur.CreateName = s.CreateName
		}
		cur.Edit.Dependencies = appendNew(cur.Edit.Dependencies, s.Edit.Dependencies...)
		cur.Edit.DevDependencies = appendNew(cur.Edit.DevDependencies, s.Edit.DevDependencies...)
		for _, name := range s.Edit.ScriptOrder {
			if cur.Edit.Scripts == nil {
				cur.Edit.Scripts = make(map[string]string)
			}
			if _, dup := cur.Edit.Scripts[name]; dup {
				continue
			}
			cur.Edit.Scripts[name] = s.Edit.Scripts[name]
			cur.Edit.ScriptOrder = append(cur.Edit.ScriptOrder, name)
		}
		for k, v := range s.Edit.Fields {
			if cur.Edit.Fields == nil {
				cur.Edit.Fields = make(map[string]string)
			}
			cur.Edit.Fields[k] = v
		}
	}

	sort.SliceStable(order, func(i, j int) bool { return targetRank(order[i]) < targetRank(order[j]) })
	out := make([]ManifestStep, 0, len(order))
	for _, t := range order {
		out = append(out, *byTarget[t])
	}
	return out
}

func appendNew(dst []string, vals ...string) []string {
	for _, v := range vals {
		dup := false
		for _, d := range dst {
			if d == v {
				dup = true
				break
			}
		}
		if !dup {
			dst = append(dst, v)
		}
	}
	return dst
}

func deps(t Target, names ...string) ManifestStep {
	return ManifestStep{Target: t, Edit: pkgjson.Edit{Dependencies: names}}
}

func devDeps(t Target, names ...string) ManifestStep {
	return ManifestStep{Target: t, Edit: pkgjson.Edit{DevDependencies: names}}
}

// scripts builds a script edit from name/command pairs, keeping their order.
func scripts(t Target, pairs ...string) ManifestStep {
	e := pkgjson.Edit{Scripts: make(map[string]string, len(pairs)/2)}
	for i := 0; i+1 < len(pairs); i += 2 {
		e.Scripts[pairs[i]] = pairs[i+1]
		e.ScriptOrder = append(e.ScriptOrder, pairs[i])
	}
	return ManifestStep{Target: t, Edit: e}
}

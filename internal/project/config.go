package project

import (
	"fmt"
	"path/filepath"

	"dario.cat/mergo"

	"github.com/tstack-labs/tstack/internal/feature"
	"github.com/tstack-labs/tstack/internal/orderedset"
	"github.com/tstack-labs/tstack/internal/stack"
)

// DefaultName is used when neither input nor the project directory provide one.
const DefaultName = "my-tstack-app"

// Config is the fully resolved configuration of one project. Every field is
// populated; single-choice fields hold "none" rather than being empty.
// A Config is a value: accessors return copies and nothing mutates it after
// Synthesize.
type Config struct {
	ProjectName    string
	ProjectDir     string
	Database       stack.Database
	ORM            stack.ORM
	Backend        stack.Backend
	Runtime        stack.Runtime
	Frontend       []stack.Frontend
	Addons         []feature.ID
	Examples       []feature.ID
	Auth           feature.ID
	PackageManager stack.PackageManager
	Install        bool
	Git            bool
	DBSetup        stack.DBSetup
	API            stack.API
	WebDeploy      stack.WebDeploy
}

// Partial is a configuration in which any field may be unset. Explicit CLI
// input, detected project state and user defaults are all Partials.
type Partial struct {
	ProjectName    string
	ProjectDir     string
	Database       stack.Database
	ORM            stack.ORM
	Backend        stack.Backend
	Runtime        stack.Runtime
	Frontend       []stack.Frontend
	Addons         []feature.ID
	Examples       []feature.ID
	Auth           feature.ID
	PackageManager stack.PackageManager
	Install        *bool
	Git            *bool
	DBSetup        stack.DBSetup
	API            stack.API
	WebDeploy      stack.WebDeploy
}

// Frontends returns the frontend stack as a fresh set.
func (c Config) Frontends() *stack.FrontendSet {
	return stack.NewFrontendSet(c.Frontend...)
}

// HasDatabase reports whether a database was chosen.
func (c Config) HasDatabase() bool {
	return c.Database != "" && c.Database != stack.DatabaseNone
}

// HasBackend reports whether the project has a server of its own.
func (c Config) HasBackend() bool {
	return c.Backend != "" && c.Backend != stack.BackendNone && !c.ManagedBackend()
}

// ManagedBackend reports whether the backend is a hosted service with
// built-in auth, which rules out the self-hosted auth providers.
func (c Config) ManagedBackend() bool {
	return c.Backend == stack.BackendConvex
}

// HasAddon reports whether id is among the configured addons.
func (c Config) HasAddon(id feature.ID) bool {
	return orderedset.New(c.Addons...).Has(id)
}

// HasExample reports whether id is among the configured examples.
func (c Config) HasExample(id feature.ID) bool {
	return orderedset.New(c.Examples...).Has(id)
}

// WithAddons returns a copy of c whose addon set is addons.
func (c Config) WithAddons(addons []feature.ID) Config {
	c.Addons = orderedset.Dedupe(addons)
	c.Frontend = append([]stack.Frontend(nil), c.Frontend...)
	c.Examples = append([]feature.ID(nil), c.Examples...)
	return c
}

// Unresolved lists the fields that are still empty. Synthesize guarantees an
// empty result.
func (c Config) Unresolved() []string {
	var missing []string
	check := func(name, v string) {
		if v == "" {
			missing = append(missing, name)
		}
	}
	check("projectName", c.ProjectName)
	check("projectDir", c.ProjectDir)
	check("database", string(c.Database))
	check("orm", string(c.ORM))
	check("backend", string(c.Backend))
	check("runtime", string(c.Runtime))
	check("auth", string(c.Auth))
	check("packageManager", string(c.PackageManager))
	check("dbSetup", string(c.DBSetup))
	check("api", string(c.API))
	check("webDeploy", string(c.WebDeploy))
	if c.Frontend == nil {
		missing = append(missing, "frontend")
	}
	if c.Addons == nil {
		missing = append(missing, "addons")
	}
	if c.Examples == nil {
		missing = append(missing, "examples")
	}
	return missing
}

func builtinDefaults() Partial {
	no := false
	return Partial{
		ProjectDir:     ".",
		Database:       stack.DatabaseNone,
		ORM:            stack.ORMNone,
		Backend:        stack.BackendNone,
		Runtime:        stack.RuntimeNone,
		Auth:           feature.None,
		PackageManager: stack.PackageManagerNPM,
		Install:        &no,
		Git:            &no,
		DBSetup:        stack.DBSetupNone,
		API:            stack.APINone,
		WebDeploy:      stack.WebDeployNone,
	}
}

// Synthesize resolves input against detected state and the built-in
// defaults. See SynthesizeWithDefaults.
func Synthesize(input Partial, detected *Detected) (Config, error) {
	return SynthesizeWithDefaults(input, detected, Partial{})
}

// SynthesizeWithDefaults builds a Config field by field with the precedence
// explicit input, then detected state, then user defaults, then built-in
// neutral values. The addon set is the union of detected and input addons
// rather than a replacement.
func SynthesizeWithDefaults(input Partial, detected *Detected, defaults Partial) (Config, error) {
	merged := input
	merged.Frontend = dropNoneFrontends(input.Frontend)
	merged.Examples = dropNone(input.Examples)

	addons := orderedset.New[feature.ID]()
	layers := make([]Partial, 0, 3)
	if detected != nil {
		addons.Add(detected.Addons...)
		layers = append(layers, detected.Partial)
	}
	addons.Add(input.Addons...)
	addons.Remove(feature.None)
	merged.Addons = addons.Values()
	layers = append(layers, defaults, builtinDefaults())

	for _, layer := range layers {
		layer.Frontend = dropNoneFrontends(layer.Frontend)
		layer.Examples = dropNone(layer.Examples)
		// Addons were unioned above; a later layer must not fill them.
		layer.Addons = nil
		if err := mergo.Merge(&merged, layer, mergo.WithoutDereference); err != nil {
			return Config{}, fmt.Errorf("merging project configuration: %w", err)
		}
	}

	cfg := Config{
		ProjectName:    merged.ProjectName,
		ProjectDir:     merged.ProjectDir,
		Database:       merged.Database,
		ORM:            merged.ORM,
		Backend:        merged.Backend,
		Runtime:        merged.Runtime,
		Frontend:       append([]stack.Frontend{}, merged.Frontend...),
		Addons:         append([]feature.ID{}, merged.Addons...),
		Examples:       append([]feature.ID{}, merged.Examples...),
		Auth:           merged.Auth,
		PackageManager: merged.PackageManager,
		Install:        *merged.Install,
		Git:            *merged.Git,
		DBSetup:        merged.DBSetup,
		API:            merged.API,
		WebDeploy:      merged.WebDeploy,
	}
	if cfg.ProjectName == "" {
		cfg.ProjectName = nameFromDir(cfg.ProjectDir)
	}
	if missing := cfg.Unresolved(); len(missing) > 0 {
		return Config{}, fmt.Errorf("project configuration left unresolved: %v", missing)
	}
	return cfg, nil
}

// Bool returns a pointer to b, for filling Partial.Install and Partial.Git.
func Bool(b bool) *bool { return &b }

func nameFromDir(dir string) string {
	base := filepath.Base(filepath.Clean(dir))
	if base == "." || base == string(filepath.Separator) || base == "" {
		return DefaultName
	}
	return base
}

func dropNone(ids []feature.ID) []feature.ID {
	if ids == nil {
		return nil
	}
	s := orderedset.New(ids...)
	s.Remove(feature.None)
	s.Remove("")
	return s.Values()
}

func dropNoneFrontends(fs []stack.Frontend) []stack.Frontend {
	if fs == nil {
		return nil
	}
	return stack.NewFrontendSet(fs...).Values()
}

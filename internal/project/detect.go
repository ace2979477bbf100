package project

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"

	"dario.cat/mergo"
	"github.com/spf13/afero"
	"github.com/tidwall/gjson"

	"github.com/tstack-labs/tstack/internal/feature"
	"github.com/tstack-labs/tstack/internal/orderedset"
	"github.com/tstack-labs/tstack/internal/record"
	"github.com/tstack-labs/tstack/internal/stack"
)

// Source tells where a detected configuration came from.
type Source string

const (
	SourceRecord   Source = "record"
	SourceInferred Source = "inferred"
)

// Detected is a best-effort reconstruction of an existing project. Any field
// may be unset.
type Detected struct {
	Partial
	Source Source
}

// Installed returns every feature the project already carries: its addons,
// its auth provider and its examples.
func (d *Detected) Installed() []feature.ID {
	if d == nil {
		return nil
	}
	s := orderedset.New(d.Addons...)
	if d.Auth != "" && d.Auth != feature.None {
		s.Add(d.Auth)
	}
	s.Add(d.Examples...)
	s.Remove(feature.None)
	return s.Values()
}

// IsProject reports whether dir looks like a project this tool generated:
// either it carries a record file, or it has a root package.json next to an
// apps/ directory.
func IsProject(fsys afero.Fs, dir string) bool {
	if record.Exists(fsys, dir) {
		return true
	}
	hasManifest, _ := afero.Exists(fsys, filepath.Join(dir, "package.json"))
	hasApps, _ := afero.DirExists(fsys, filepath.Join(dir, "apps"))
	return hasManifest && hasApps
}

// CheckNewDir fails with DirNotEmpty when dir already has entries. A
// missing directory is fine; it is created when the project is scaffolded.
func CheckNewDir(fsys afero.Fs, dir string) error {
	exists, err := afero.DirExists(fsys, dir)
	if err != nil || !exists {
		return err
	}
	empty, err := afero.IsEmpty(fsys, dir)
	if err != nil {
		return fmt.Errorf("inspecting %s: %w", dir, err)
	}
	if !empty {
		return &PreconditionError{Dir: dir, Kind: DirNotEmpty}
	}
	return nil
}

// Detect reconstructs the configuration of the project at dir. The record
// file is authoritative; fields it leaves empty are inferred from the app
// manifests. Addons are only inferred from marker files when there is no
// record, so a half-applied feature is not mistaken for an installed one.
func Detect(fsys afero.Fs, dir string) (*Detected, error) {
	if !IsProject(fsys, dir) {
		return nil, &PreconditionError{Dir: dir, Kind: NotAProject}
	}

	inferred := infer(fsys, dir)

	rec, err := record.Load(fsys, dir)
	switch {
	case errors.Is(err, record.ErrNotFound):
		inferred.Addons = inferAddons(fsys, dir)
		if inferred.isEmpty() {
			return nil, &PreconditionError{Dir: dir, Kind: CannotDetect}
		}
		inferred.ProjectDir = dir
		return &Detected{Partial: inferred, Source: SourceInferred}, nil
	case err != nil:
		return nil, &PreconditionError{Dir: dir, Kind: CannotDetect, Err: err}
	}

	fromRecord, err := partialFromRecord(rec)
	if err != nil {
		return nil, &PreconditionError{Dir: dir, Kind: CannotDetect, Err: err}
	}
	fromRecord.ProjectDir = dir
	if err := mergo.Merge(&fromRecord, inferred, mergo.WithoutDereference); err != nil {
		return nil, fmt.Errorf("merging detected configuration: %w", err)
	}
	return &Detected{Partial: fromRecord, Source: SourceRecord}, nil
}

func partialFromRecord(rec *record.Record) (Partial, error) {
	var p Partial
	var err error
	p.ProjectName = rec.ProjectName

	if p.Database, err = stack.Parse("database", rec.Database, stack.Databases); err != nil {
		return p, err
	}
	if p.ORM, err = stack.Parse("orm", rec.ORM, stack.ORMs); err != nil {
		return p, err
	}
	if p.Backend, err = stack.Parse("backend", rec.Backend, stack.Backends); err != nil {
		return p, err
	}
	if p.Runtime, err = stack.Parse("runtime", rec.Runtime, stack.Runtimes); err != nil {
		return p, err
	}
	if p.PackageManager, err = stack.Parse("package manager", rec.PackageManager, stack.PackageManagers); err != nil {
		return p, err
	}
	if p.DBSetup, err = stack.Parse("database setup", rec.DBSetup, stack.DBSetups); err != nil {
		return p, err
	}
	if p.API, err = stack.Parse("api", rec.API, stack.APIs); err != nil {
		return p, err
	}
	if p.WebDeploy, err = stack.Parse("web deploy", rec.WebDeploy, stack.WebDeploys); err != nil {
		return p, err
	}

	frontends, err := stack.ParseFrontends(rec.Frontend)
	if err != nil {
		return p, err
	}
	p.Frontend = frontends.Values()

	if p.Addons, err = feature.Parse(feature.KindAddon, rec.Addons); err != nil {
		return p, err
	}
	if p.Examples, err = feature.Parse(feature.KindExample, rec.Examples); err != nil {
		return p, err
	}
	if rec.Auth != "" {
		auth, err := feature.Parse(feature.KindAuth, []string{rec.Auth})
		if err != nil {
			return p, err
		}
		p.Auth = feature.None
		if len(auth) == 1 {
			p.Auth = auth[0]
		}
	}
	return p, nil
}

// Marker dependencies, checked in order; the first hit wins for
// single-choice fields.
var (
	webMarkers = []struct {
		dep      string
		frontend stack.Frontend
	}{
		{"@tanstack/react-start", stack.FrontendTanStackStart},
		{"next", stack.FrontendNext},
		{"nuxt", stack.FrontendNuxt},
		{"@sveltejs/kit", stack.FrontendSvelte},
		{"solid-js", stack.FrontendSolid},
		{"@tanstack/react-router", stack.FrontendTanStackRouter},
		{"react-router", stack.FrontendReactRouter},
	}
	nativeMarkers = []struct {
		dep      string
		frontend stack.Frontend
	}{
		{"nativewind", stack.FrontendNativeNativewind},
		{"react-native-unistyles", stack.FrontendNativeUnistyles},
	}
	backendMarkers = []struct {
		dep     string
		backend stack.Backend
	}{
		{"hono", stack.BackendHono},
		{"express", stack.BackendExpress},
		{"fastify", stack.BackendFastify},
		{"elysia", stack.BackendElysia},
		{"next", stack.BackendNext},
	}
	ormMarkers = []struct {
		dep string
		orm stack.ORM
	}{
		{"drizzle-orm", stack.ORMDrizzle},
		{"@prisma/client", stack.ORMPrisma},
		{"mongoose", stack.ORMMongoose},
	}
	databaseMarkers = []struct {
		dep      string
		database stack.Database
	}{
		{"@libsql/client", stack.DatabaseSQLite},
		{"pg", stack.DatabasePostgres},
		{"postgres", stack.DatabasePostgres},
		{"mysql2", stack.DatabaseMySQL},
		{"mongodb", stack.DatabaseMongoDB},
		{"mongoose", stack.DatabaseMongoDB},
	}
	authMarkers = []struct {
		dep  string
		auth feature.ID
	}{
		{"better-auth", feature.BetterAuth},
		{"@clerk/backend", feature.Clerk},
		{"@convex-dev/auth", feature.ConvexAuth},
	}
	apiMarkers = []struct {
		dep string
		api stack.API
	}{
		{"@trpc/server", stack.APITRPC},
		{"@orpc/server", stack.APIORPC},
	}
	addonMarkers = []struct {
		path  string
		addon feature.ID
	}{
		{"turbo.json", feature.Turborepo},
		{".moon/workspace.yml", feature.Moonrepo},
		{"biome.json", feature.Biome},
		{".husky", feature.Husky},
		{"apps/docs/astro.config.mjs", feature.Starlight},
		{"apps/docs/docs.json", feature.Mintlify},
		{"apps/web/pwa-assets.config.ts", feature.PWA},
	}
	// Addons that only leave a trace in the web app's dependencies.
	webAddonMarkers = []struct {
		dep   string
		addon feature.ID
	}{
		{"@vite-pwa/assets-generator", feature.PWA},
		{"@tauri-apps/cli", feature.Tauri},
	}
	lockfiles = []struct {
		name string
		pm   stack.PackageManager
	}{
		{"pnpm-lock.yaml", stack.PackageManagerPNPM},
		{"bun.lock", stack.PackageManagerBun},
		{"bun.lockb", stack.PackageManagerBun},
		{"package-lock.json", stack.PackageManagerNPM},
	}
)

func (p Partial) isEmpty() bool {
	return p.Backend == "" && len(p.Frontend) == 0 && len(p.Addons) == 0 &&
		p.Database == "" && p.PackageManager == ""
}

// infer reads the app manifests. Missing or unreadable manifests are skipped.
func infer(fsys afero.Fs, dir string) Partial {
	var p Partial

	web := readDeps(fsys, filepath.Join(dir, "apps", "web", "package.json"))
	native := readDeps(fsys, filepath.Join(dir, "apps", "native", "package.json"))
	server := readDeps(fsys, filepath.Join(dir, "apps", "server", "package.json"))

	frontends := stack.NewFrontendSet()
	for _, m := range webMarkers {
		if web[m.dep] {
			frontends.Add(m.frontend)
			break
		}
	}
	for _, m := range nativeMarkers {
		if native[m.dep] {
			frontends.Add(m.frontend)
			break
		}
	}
	if frontends.Len() > 0 {
		p.Frontend = frontends.Values()
	}

	if ok, _ := afero.DirExists(fsys, filepath.Join(dir, "packages", "backend", "convex")); ok {
		p.Backend = stack.BackendConvex
	} else {
		for _, m := range backendMarkers {
			if server[m.dep] {
				p.Backend = m.backend
				break
			}
		}
	}

	for _, m := range ormMarkers {
		if server[m.dep] {
			p.ORM = m.orm
			break
		}
	}
	for _, m := range databaseMarkers {
		if server[m.dep] {
			p.Database = m.database
			break
		}
	}
	for _, m := range authMarkers {
		if server[m.dep] || web[m.dep] {
			p.Auth = m.auth
			break
		}
	}
	for _, m := range apiMarkers {
		if server[m.dep] {
			p.API = m.api
			break
		}
	}
	switch {
	case server["@cloudflare/workers-types"] || server["wrangler"]:
		p.Runtime = stack.RuntimeWorkers
	case server["@types/bun"]:
		p.Runtime = stack.RuntimeBun
	case server["tsx"] || server["@types/node"]:
		p.Runtime = stack.RuntimeNode
	}

	for _, lf := range lockfiles {
		if ok, _ := afero.Exists(fsys, filepath.Join(dir, lf.name)); ok {
			p.PackageManager = lf.pm
			break
		}
	}

	root, _ := afero.ReadFile(fsys, filepath.Join(dir, "package.json"))
	if name := gjson.GetBytes(root, "name").String(); name != "" {
		p.ProjectName = name
	}
	return p
}

// inferAddons looks for marker files and web dependencies. The result is in
// catalog order.
func inferAddons(fsys afero.Fs, dir string) []feature.ID {
	found := orderedset.New[feature.ID]()
	for _, m := range addonMarkers {
		if ok, _ := afero.Exists(fsys, filepath.Join(dir, m.path)); ok {
			found.Add(m.addon)
		}
	}
	web := readDeps(fsys, filepath.Join(dir, "apps", "web", "package.json"))
	for _, m := range webAddonMarkers {
		if web[m.dep] {
			found.Add(m.addon)
		}
	}
	out := found.Values()
	sort.SliceStable(out, func(i, j int) bool {
		return feature.Position(out[i]) < feature.Position(out[j])
	})
	return out
}

// readDeps returns the union of dependencies and devDependencies declared in
// the manifest at path.
func readDeps(fsys afero.Fs, path string) map[string]bool {
	deps := make(map[string]bool)
	data, err := afero.ReadFile(fsys, path)
	if err != nil || !gjson.ValidBytes(data) {
		return deps
	}
	for _, section := range []string{"dependencies", "devDependencies"} {
		gjson.GetBytes(data, section).ForEach(func(key, _ gjson.Result) bool {
			deps[key.String()] = true
			return true
		})
	}
	return deps
}

package apply

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/tstack-labs/tstack/internal/feature"
	"github.com/tstack-labs/tstack/internal/pkgjson"
	"github.com/tstack-labs/tstack/internal/project"
	"github.com/tstack-labs/tstack/internal/record"
	"github.com/tstack-labs/tstack/internal/stack"
)

const projectDir = "/work/acme"

func baseConfig() project.Config {
	return project.Config{
		ProjectName:    "acme",
		ProjectDir:     projectDir,
		Database:       stack.DatabaseNone,
		ORM:            stack.ORMNone,
		Backend:        stack.BackendHono,
		Runtime:        stack.RuntimeBun,
		Frontend:       []stack.Frontend{stack.FrontendTanStackRouter},
		Addons:         []feature.ID{},
		Examples:       []feature.ID{},
		Auth:           feature.None,
		PackageManager: stack.PackageManagerPNPM,
		DBSetup:        stack.DBSetupNone,
		API:            stack.APINone,
		WebDeploy:      stack.WebDeployNone,
	}
}

func fixedSecret() (string, error) { return "s3cr3t", nil }

func scaffolded(t *testing.T, cfg project.Config) (afero.Fs, *Orchestrator) {
	t.Helper()
	fsys := afero.NewMemMapFs()
	o := New(fsys, WithSecret(fixedSecret))
	_, err := o.Scaffold(context.Background(), cfg)
	require.NoError(t, err)
	return fsys, o
}

func readManifest(t *testing.T, fsys afero.Fs, target Target) gjson.Result {
	t.Helper()
	data, err := afero.ReadFile(fsys, pkgjson.Path(target.Dir(projectDir)))
	require.NoError(t, err)
	return gjson.ParseBytes(data)
}

func hasDep(m gjson.Result, section, name string) bool {
	return m.Get(section + "." + gjson.Escape(name)).Exists()
}

func resultFor(t *testing.T, r *Report, id feature.ID) Result {
	t.Helper()
	for _, res := range r.Results {
		if res.Feature == id {
			return res
		}
	}
	t.Fatalf("no result for %s", id)
	return Result{}
}

func TestScaffoldRendersStackApps(t *testing.T) {
	cfg := baseConfig()
	cfg.Frontend = []stack.Frontend{stack.FrontendNext, stack.FrontendNativeNativewind}
	fsys, _ := scaffolded(t, cfg)

	for _, target := range []Target{TargetRoot, TargetWeb, TargetServer, TargetNative} {
		ok, err := afero.Exists(fsys, pkgjson.Path(target.Dir(projectDir)))
		require.NoError(t, err)
		assert.True(t, ok, target)
	}
	ok, _ := afero.DirExists(fsys, TargetBackend.Dir(projectDir))
	assert.False(t, ok)
	assert.Equal(t, "acme", readManifest(t, fsys, TargetRoot).Get("name").String())
}

func TestScaffoldConvexBackend(t *testing.T) {
	cfg := baseConfig()
	cfg.Backend = stack.BackendConvex
	fsys, _ := scaffolded(t, cfg)

	ok, _ := afero.DirExists(fsys, TargetServer.Dir(projectDir))
	assert.False(t, ok, "convex projects have no server app")
	ok, _ = afero.Exists(fsys, filepath.Join(TargetBackend.Dir(projectDir), "convex", "schema.ts"))
	assert.True(t, ok)
}

func TestApplyAddonsAndPersist(t *testing.T) {
	cfg := baseConfig()
	cfg.Addons = []feature.ID{feature.Husky, feature.Biome}
	fsys, o := scaffolded(t, cfg)

	report, err := o.Apply(context.Background(), cfg, cfg.Addons, false)
	require.NoError(t, err)

	require.Len(t, report.Results, 2)
	assert.Equal(t, feature.Biome, report.Results[0].Feature, "catalog order")
	assert.Equal(t, feature.Husky, report.Results[1].Feature)
	for _, res := range report.Results {
		assert.Equal(t, StatusApplied, res.Status, res.Feature)
	}

	root := readManifest(t, fsys, TargetRoot)
	assert.True(t, hasDep(root, "devDependencies", "@biomejs/biome"))
	assert.True(t, hasDep(root, "devDependencies", "husky"))
	assert.True(t, hasDep(root, "devDependencies", "lint-staged"))
	assert.Equal(t, "husky", root.Get("scripts.prepare").String())
	assert.Equal(t, "biome check --write .", root.Get("scripts.check").String())
	assert.True(t, root.Get("lint-staged").IsObject())

	for _, f := range []string{"biome.json", ".husky/pre-commit"} {
		ok, _ := afero.Exists(fsys, filepath.Join(projectDir, f))
		assert.True(t, ok, f)
	}

	rec, err := record.Load(fsys, projectDir)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"husky", "biome"}, rec.Addons)
	assert.Equal(t, "hono", rec.Backend)
}

func TestApplyIsIdempotent(t *testing.T) {
	cfg := baseConfig()
	cfg.Addons = []feature.ID{feature.Turborepo}
	fsys, o := scaffolded(t, cfg)

	_, err := o.Apply(context.Background(), cfg, cfg.Addons, false)
	require.NoError(t, err)
	first, _ := afero.ReadFile(fsys, pkgjson.Path(projectDir))

	report, err := o.Apply(context.Background(), cfg, cfg.Addons, false)
	require.NoError(t, err)
	second, _ := afero.ReadFile(fsys, pkgjson.Path(projectDir))

	assert.Equal(t, string(first), string(second))
	assert.Empty(t, report.Results[0].Files)
}

func TestApplySkipsMissingNativeApp(t *testing.T) {
	cfg := baseConfig()
	cfg.Frontend = []stack.Frontend{stack.FrontendTanStackRouter, stack.FrontendNativeNativewind}
	cfg.Database = stack.DatabaseSQLite
	cfg.Auth = feature.BetterAuth
	fsys, o := scaffolded(t, cfg)
	require.NoError(t, fsys.RemoveAll(TargetNative.Dir(projectDir)))

	report, err := o.Apply(context.Background(), cfg, Selected(cfg), false)
	require.NoError(t, err)

	res := resultFor(t, report, feature.BetterAuth)
	assert.Equal(t, StatusApplied, res.Status)
	statuses := map[Target]Status{}
	for _, tr := range res.Targets {
		statuses[tr.Target] = tr.Status
	}
	assert.Equal(t, StatusSkipped, statuses[TargetNative])
	assert.Equal(t, StatusApplied, statuses[TargetWeb])
	assert.Equal(t, StatusApplied, statuses[TargetServer])

	server := readManifest(t, fsys, TargetServer)
	assert.True(t, hasDep(server, "dependencies", "better-auth"))
	assert.True(t, hasDep(server, "dependencies", "@better-auth/expo"))
	assert.True(t, hasDep(readManifest(t, fsys, TargetWeb), "dependencies", "better-auth"))

	rec, err := record.Load(fsys, projectDir)
	require.NoError(t, err)
	assert.Equal(t, "better-auth", rec.Auth)
}

// stubManifests records edits and fails on demand.
type stubManifests struct {
	mu     sync.Mutex
	edited []string
	fail   func(dir string, e pkgjson.Edit) error
}

func (s *stubManifests) Create(string, string) error { return nil }

func (s *stubManifests) Edit(dir string, e pkgjson.Edit) ([]string, error) {
	if s.fail != nil {
		if err := s.fail(dir, e); err != nil {
			return nil, err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.edited = append(s.edited, dir)
	return append(e.Dependencies, e.DevDependencies...), nil
}

func TestApplyTreatsMissingManifestAsSkip(t *testing.T) {
	cfg := baseConfig()
	cfg.Frontend = []stack.Frontend{stack.FrontendTanStackRouter, stack.FrontendNativeNativewind}
	cfg.Database = stack.DatabaseSQLite
	cfg.Auth = feature.BetterAuth
	fsys, _ := scaffolded(t, cfg)

	manifests := &stubManifests{fail: func(dir string, _ pkgjson.Edit) error {
		if dir == TargetNative.Dir(projectDir) {
			return fmt.Errorf("no package.json in %s: %w", dir, fs.ErrNotExist)
		}
		return nil
	}}
	o := New(fsys, WithManifests(manifests), WithSecret(fixedSecret))

	report, err := o.Apply(context.Background(), cfg, Selected(cfg), false)
	require.NoError(t, err)
	res := resultFor(t, report, feature.BetterAuth)
	assert.Equal(t, StatusApplied, res.Status)
	assert.ElementsMatch(t, []string{TargetWeb.Dir(projectDir), TargetServer.Dir(projectDir)}, manifests.edited)
}

func TestApplyIsolatesFailures(t *testing.T) {
	cfg := baseConfig()
	cfg.Addons = []feature.ID{feature.Turborepo, feature.Biome}
	fsys, _ := scaffolded(t, cfg)

	boom := errors.New("disk full")
	manifests := &stubManifests{fail: func(_ string, e pkgjson.Edit) error {
		for _, d := range e.DevDependencies {
			if d == "turbo" {
				return boom
			}
		}
		return nil
	}}
	o := New(fsys, WithManifests(manifests))

	report, err := o.Apply(context.Background(), cfg, cfg.Addons, false)
	require.Error(t, err)

	var partial *PartialFailure
	require.True(t, errors.As(err, &partial))
	assert.Equal(t, []feature.ID{feature.Turborepo}, partial.Failed)

	var appErr *ApplicationError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, feature.Turborepo, appErr.Feature)
	assert.Equal(t, TargetRoot, appErr.Target)
	assert.ErrorIs(t, err, boom)

	assert.Equal(t, StatusFailed, resultFor(t, report, feature.Turborepo).Status)
	assert.Equal(t, StatusApplied, resultFor(t, report, feature.Biome).Status)

	rec, err := record.Load(fsys, projectDir)
	require.NoError(t, err)
	assert.Equal(t, []string{"biome"}, rec.Addons, "failed features are not persisted")
}

func TestApplyDoesNotRecordSkippedFeatures(t *testing.T) {
	tests := []struct {
		name   string
		adjust func(*project.Config)
		id     feature.ID
	}{
		{"auth on convex", func(c *project.Config) {
			c.Backend = stack.BackendConvex
			c.Auth = feature.BetterAuth
		}, feature.BetterAuth},
		{"auth without database", func(c *project.Config) { c.Auth = feature.Clerk }, feature.Clerk},
		{"example without database", func(c *project.Config) { c.Examples = []feature.ID{feature.Todo} }, feature.Todo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := baseConfig()
			tt.adjust(&cfg)
			fsys, o := scaffolded(t, cfg)

			report, err := o.Apply(context.Background(), cfg, Selected(cfg), false)
			require.NoError(t, err)
			assert.Equal(t, StatusSkipped, resultFor(t, report, tt.id).Status)

			rec, err := record.Load(fsys, projectDir)
			require.NoError(t, err)
			assert.Equal(t, "none", rec.Auth)
			assert.Empty(t, rec.Examples)

			d, err := project.Detect(fsys, projectDir)
			require.NoError(t, err)
			assert.NotContains(t, d.Installed(), tt.id)
		})
	}
}

func TestAppliedAddonsAreDetectableWithoutRecord(t *testing.T) {
	cfg := baseConfig()
	cfg.Addons = []feature.ID{feature.PWA, feature.Tauri}
	fsys, o := scaffolded(t, cfg)

	_, err := o.Apply(context.Background(), cfg, cfg.Addons, false)
	require.NoError(t, err)
	require.NoError(t, fsys.Remove(record.Path(projectDir)))

	d, err := project.Detect(fsys, projectDir)
	require.NoError(t, err)
	assert.Equal(t, project.SourceInferred, d.Source)
	assert.Equal(t, []feature.ID{feature.PWA, feature.Tauri}, d.Addons)
}

func TestApplyIncrementalUnionsRecord(t *testing.T) {
	cfg := baseConfig()
	cfg.Addons = []feature.ID{feature.Biome}
	fsys, o := scaffolded(t, cfg)
	_, err := o.Apply(context.Background(), cfg, cfg.Addons, false)
	require.NoError(t, err)

	next := cfg.WithAddons([]feature.ID{feature.Biome, feature.Turborepo})
	report, err := o.Apply(context.Background(), next, []feature.ID{feature.Turborepo}, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"biome", "turborepo"}, report.Addons)

	rec, err := record.Load(fsys, projectDir)
	require.NoError(t, err)
	assert.Equal(t, []string{"biome", "turborepo"}, rec.Addons)
}

func TestApplyIncrementalWithoutRecordWritesOne(t *testing.T) {
	cfg := baseConfig()
	cfg.Addons = []feature.ID{feature.Biome, feature.Turborepo}
	fsys, o := scaffolded(t, cfg)

	_, err := o.Apply(context.Background(), cfg, []feature.ID{feature.Turborepo}, true)
	require.NoError(t, err)

	rec, err := record.Load(fsys, projectDir)
	require.NoError(t, err)
	assert.Equal(t, []string{"biome", "turborepo"}, rec.Addons)
}

func TestApplyCancelled(t *testing.T) {
	cfg := baseConfig()
	cfg.Addons = []feature.ID{feature.Biome}
	fsys, o := scaffolded(t, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	report, err := o.Apply(ctx, cfg, cfg.Addons, false)
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, report.Results)

	rec, err := record.Load(fsys, projectDir)
	require.NoError(t, err)
	assert.Empty(t, rec.Addons)
}

func TestApplyWritesAuthSecretOnce(t *testing.T) {
	cfg := baseConfig()
	cfg.Database = stack.DatabaseSQLite
	cfg.Auth = feature.BetterAuth
	fsys, o := scaffolded(t, cfg)
	envPath := filepath.Join(TargetServer.Dir(projectDir), envFile)
	require.NoError(t, afero.WriteFile(fsys, envPath, []byte("PORT=3000"), 0600))

	_, err := o.Apply(context.Background(), cfg, Selected(cfg), false)
	require.NoError(t, err)
	data, _ := afero.ReadFile(fsys, envPath)
	assert.Equal(t, "PORT=3000\nBETTER_AUTH_SECRET=s3cr3t\nBETTER_AUTH_URL=http://localhost:3000\n", string(data))

	o2 := New(fsys, WithSecret(func() (string, error) { return "other", nil }))
	_, err = o2.Apply(context.Background(), cfg, Selected(cfg), false)
	require.NoError(t, err)
	again, _ := afero.ReadFile(fsys, envPath)
	assert.Equal(t, string(data), string(again))
}

func TestDefaultSecretShape(t *testing.T) {
	s, err := New(afero.NewMemMapFs()).secret()
	require.NoError(t, err)
	assert.Len(t, s, 32)
	assert.Empty(t, strings.Trim(s, secretAlphabet))
}

func TestEveryFeatureAppliesToFullStack(t *testing.T) {
	cases := []struct {
		name   string
		adjust func(*project.Config)
	}{
		{"better-auth", func(c *project.Config) { c.Auth = feature.BetterAuth }},
		{"clerk", func(c *project.Config) { c.Auth = feature.Clerk }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := baseConfig()
			cfg.Frontend = []stack.Frontend{stack.FrontendTanStackRouter, stack.FrontendNativeNativewind}
			cfg.Database = stack.DatabaseSQLite
			cfg.ORM = stack.ORMDrizzle
			cfg.Addons = feature.All(feature.KindAddon)
			cfg.Examples = feature.All(feature.KindExample)
			tc.adjust(&cfg)
			fsys, o := scaffolded(t, cfg)

			report, err := o.Apply(context.Background(), cfg, Selected(cfg), false)
			require.NoError(t, err)
			for _, res := range report.Results {
				assert.Equal(t, StatusApplied, res.Status, res.Feature)
			}

			docs := readManifest(t, fsys, TargetDocs)
			assert.Equal(t, "docs", docs.Get("name").String())
			assert.True(t, hasDep(docs, "dependencies", "@astrojs/starlight"))
			assert.Equal(t, "pnpm --filter docs dev", readManifest(t, fsys, TargetRoot).Get("scripts."+gjson.Escape("docs:dev")).String())
		})
	}
}

func TestConvexStack(t *testing.T) {
	cfg := baseConfig()
	cfg.Backend = stack.BackendConvex
	cfg.Frontend = []stack.Frontend{stack.FrontendReactRouter, stack.FrontendNativeUnistyles}
	cfg.Auth = feature.ConvexAuth
	cfg.Examples = []feature.ID{feature.AI}
	fsys, o := scaffolded(t, cfg)

	report, err := o.Apply(context.Background(), cfg, Selected(cfg), false)
	require.NoError(t, err)
	assert.Equal(t, StatusApplied, resultFor(t, report, feature.ConvexAuth).Status)
	assert.Equal(t, StatusSkipped, resultFor(t, report, feature.AI).Status)

	assert.True(t, hasDep(readManifest(t, fsys, TargetBackend), "dependencies", "@convex-dev/auth"))
	assert.True(t, hasDep(readManifest(t, fsys, TargetNative), "dependencies", "@react-native-async-storage/async-storage"))
	ok, _ := afero.Exists(fsys, filepath.Join(TargetBackend.Dir(projectDir), "convex", "auth.ts"))
	assert.True(t, ok)
}

package apply

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/spf13/afero"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/tstack-labs/tstack/internal/feature"
	"github.com/tstack-labs/tstack/internal/orderedset"
	"github.com/tstack-labs/tstack/internal/pkgjson"
	"github.com/tstack-labs/tstack/internal/project"
	"github.com/tstack-labs/tstack/internal/record"
	"github.com/tstack-labs/tstack/internal/render"
	"github.com/tstack-labs/tstack/internal/stack"
)

const (
	secretAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	secretLength   = 32
)

// Renderer materializes a template set into a directory.
type Renderer interface {
	Render(set, outputDir string, data any) (*render.Result, error)
}

// Manifests edits the package.json of a directory. Edit must return an
// error matching fs.ErrNotExist when dir has no manifest.
type Manifests interface {
	Create(dir, name string) error
	Edit(dir string, e pkgjson.Edit) ([]string, error)
}

type fsManifests struct{ fs afero.Fs }

func (m fsManifests) Create(dir, name string) error {
	_, err := pkgjson.Create(m.fs, dir, name)
	return err
}

func (m fsManifests) Edit(dir string, e pkgjson.Edit) ([]string, error) {
	return pkgjson.Apply(m.fs, dir, e)
}

// Orchestrator applies features to a project directory.
type Orchestrator struct {
	fs        afero.Fs
	renderer  Renderer
	manifests Manifests
	logger    *zap.Logger
	secret    func() (string, error)
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithRenderer replaces the embedded template renderer.
func WithRenderer(r Renderer) Option { return func(o *Orchestrator) { o.renderer = r } }

// WithManifests replaces the package.json editor.
func WithManifests(m Manifests) Option { return func(o *Orchestrator) { o.manifests = m } }

// WithLogger sets the logger for step failures and progress.
func WithLogger(l *zap.Logger) Option { return func(o *Orchestrator) { o.logger = l } }

// WithSecret replaces the generator of auth secrets.
func WithSecret(f func() (string, error)) Option { return func(o *Orchestrator) { o.secret = f } }

// New returns an Orchestrator working on fsys.
func New(fsys afero.Fs, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		fs:        fsys,
		renderer:  render.New(fsys),
		manifests: fsManifests{fs: fsys},
		logger:    zap.NewNop(),
		secret: func() (string, error) {
			return gonanoid.Generate(secretAlphabet, secretLength)
		},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Selected returns every feature cfg asks for, in application order.
func Selected(cfg project.Config) []feature.ID {
	ids := append([]feature.ID{}, cfg.Addons...)
	if cfg.Auth != "" && cfg.Auth != feature.None {
		ids = append(ids, cfg.Auth)
	}
	return order(append(ids, cfg.Examples...))
}

// order dedupes ids and sorts them by catalog position: addons, then auth,
// then examples.
func order(ids []feature.ID) []feature.ID {
	out := orderedset.Dedupe(ids)
	sort.SliceStable(out, func(i, j int) bool {
		pi, pj := feature.Position(out[i]), feature.Position(out[j])
		if pi < 0 {
			return false
		}
		return pj < 0 || pi < pj
	})
	return out
}

// Scaffold renders the base project skeleton: the root workspace plus one
// app per part of the stack. Existing files are kept.
func (o *Orchestrator) Scaffold(ctx context.Context, cfg project.Config) ([]string, error) {
	fe := cfg.Frontends()
	steps := []RenderStep{{Set: "base/root", Target: TargetRoot}}
	if stack.Any(fe, stack.CapWeb) {
		steps = append(steps, RenderStep{Set: "base/web", Target: TargetWeb})
	}
	if cfg.HasBackend() {
		steps = append(steps, RenderStep{Set: "base/server", Target: TargetServer})
	}
	if stack.Any(fe, stack.CapNative) {
		steps = append(steps, RenderStep{Set: "base/native", Target: TargetNative})
	}
	if cfg.ManagedBackend() {
		steps = append(steps, RenderStep{Set: "base/backend", Target: TargetBackend})
	}

	data := NewTemplateData(cfg)
	var files []string
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return files, err
		}
		res, err := o.renderer.Render(step.Set, step.Target.Dir(cfg.ProjectDir), data)
		if err != nil {
			return files, fmt.Errorf("rendering %s: %w", step.Set, err)
		}
		for _, f := range res.Files {
			files = append(files, filepath.Join(targetDirs[step.Target], f))
		}
		o.logger.Debug("scaffolded", zap.String("set", step.Set), zap.Int("files", len(res.Files)))
	}
	return files, nil
}

// Apply runs features against the project in cfg.ProjectDir in catalog
// order. A failing feature does not stop the others. Once every feature has
// run, the project record is written exactly once: incremental runs merge
// the applied addons into the existing record, otherwise the whole record is
// written from cfg. Failed features are never persisted.
//
// When some features fail the error is a *PartialFailure and the report
// still describes every feature.
func (o *Orchestrator) Apply(ctx context.Context, cfg project.Config, features []feature.ID, incremental bool) (*Report, error) {
	report := &Report{}
	data := NewTemplateData(cfg)

	var errs, cancelled error
	for _, id := range order(features) {
		if err := ctx.Err(); err != nil {
			cancelled = err
			break
		}
		res := o.applyFeature(cfg, id, data)
		if res.Status == StatusFailed {
			o.logger.Warn("feature failed", zap.String("feature", string(id)), zap.Error(res.Err))
			errs = multierr.Append(errs, res.Err)
		}
		report.Results = append(report.Results, res)
	}

	addons, err := o.persist(cfg, features, report, incremental)
	if err != nil {
		return report, err
	}
	report.Addons = addons

	if cancelled != nil {
		return report, fmt.Errorf("applying features: %w", cancelled)
	}
	if errs != nil {
		return report, &PartialFailure{Failed: report.Failed(), Err: errs}
	}
	return report, nil
}

func (o *Orchestrator) applyFeature(cfg project.Config, id feature.ID, data TemplateData) Result {
	res := Result{Feature: id}
	plan := PlanFor(id, cfg)
	if plan.Skip != "" {
		o.logger.Info("feature skipped", zap.String("feature", string(id)), zap.String("reason", plan.Skip))
		res.Status = StatusSkipped
		res.Reason = plan.Skip
		return res
	}

	fail := func(t Target, step string, err error) Result {
		res.Status = StatusFailed
		res.Err = &ApplicationError{Feature: id, Target: t, Step: step, Err: err}
		return res
	}

	for _, step := range plan.Renders {
		dir := step.Target.Dir(cfg.ProjectDir)
		if !step.Create && !o.dirExists(dir) {
			res.skipTarget(step.Target, "directory not present")
			continue
		}
		out, err := o.renderer.Render(step.Set, dir, data)
		if err != nil {
			return fail(step.Target, "render", err)
		}
		for _, f := range out.Files {
			res.Files = append(res.Files, filepath.Join(targetDirs[step.Target], f))
		}
		o.logger.Debug("rendered", zap.String("feature", string(id)), zap.String("set", step.Set),
			zap.Int("files", len(out.Files)), zap.Int("kept", len(out.Kept)))
	}

	targets, err := o.editManifests(cfg.ProjectDir, id, plan.Manifests)
	for _, t := range targets {
		res.addTarget(t)
	}
	if err != nil {
		res.Status = StatusFailed
		res.Err = err
		return res
	}

	for _, step := range plan.Env {
		dir := step.Target.Dir(cfg.ProjectDir)
		if !o.dirExists(dir) {
			res.skipTarget(step.Target, "directory not present")
			continue
		}
		changed, err := o.setEnv(dir, step)
		if err != nil {
			return fail(step.Target, "env", err)
		}
		if changed {
			res.Files = appendNew(res.Files, filepath.Join(targetDirs[step.Target], envFile))
		}
	}

	res.Status = StatusApplied
	return res
}

// editManifests applies every manifest step of one feature concurrently.
// Steps touch distinct targets; each goroutine writes only its own slot.
func (o *Orchestrator) editManifests(projectDir string, id feature.ID, steps []ManifestStep) ([]TargetResult, error) {
	slots := make([]TargetResult, len(steps))
	errs := make([]error, len(steps))

	var g errgroup.Group
	for i, step := range steps {
		g.Go(func() error {
			slots[i], errs[i] = o.editTarget(projectDir, id, step)
			return errs[i]
		})
	}
	if err := g.Wait(); err != nil {
		for i, e := range errs {
			if e != nil {
				o.logger.Warn("manifest update failed", zap.String("feature", string(id)),
					zap.String("target", string(steps[i].Target)), zap.Error(e))
			}
		}
		return slots, multierr.Combine(errs...)
	}
	return slots, nil
}

func (o *Orchestrator) editTarget(projectDir string, id feature.ID, step ManifestStep) (TargetResult, error) {
	dir := step.Target.Dir(projectDir)
	if !o.dirExists(dir) {
		return TargetResult{Target: step.Target, Status: StatusSkipped, Reason: "directory not present"}, nil
	}
	if step.CreateName != "" {
		if err := o.manifests.Create(dir, step.CreateName); err != nil {
			return TargetResult{Target: step.Target, Status: StatusFailed},
				&ApplicationError{Feature: id, Target: step.Target, Step: "create manifest", Err: err}
		}
	}

	changed, err := o.manifests.Edit(dir, step.Edit)
	if errors.Is(err, fs.ErrNotExist) {
		return TargetResult{Target: step.Target, Status: StatusSkipped, Reason: "no package.json"}, nil
	}
	if err != nil {
		return TargetResult{Target: step.Target, Status: StatusFailed},
			&ApplicationError{Feature: id, Target: step.Target, Step: "update manifest", Err: err}
	}
	return TargetResult{Target: step.Target, Status: StatusApplied, Changed: changed}, nil
}

// persist writes the project record and returns the persisted addons.
func (o *Orchestrator) persist(cfg project.Config, features []feature.ID, report *Report, incremental bool) ([]string, error) {
	if incremental {
		var applied []string
		for _, res := range report.Results {
			info, ok := feature.Lookup(res.Feature)
			if ok && info.Kind == feature.KindAddon && res.Status == StatusApplied {
				applied = append(applied, string(res.Feature))
			}
		}
		addons, err := record.MergeAddons(o.fs, cfg.ProjectDir, applied)
		if err == nil {
			return addons, nil
		}
		if !errors.Is(err, record.ErrNotFound) {
			return nil, fmt.Errorf("updating project record: %w", err)
		}
		o.logger.Debug("no project record yet, writing a full one")
	}

	addons := orderedset.New(cfg.Addons...)
	for _, id := range features {
		if info, ok := feature.Lookup(id); ok && info.Kind == feature.KindAddon {
			addons.Add(id)
		}
	}
	// Only applied features are recorded. Failed, skipped and those never
	// reached after cancellation are dropped.
	dropped := orderedset.New[feature.ID]()
	reached := orderedset.New[feature.ID]()
	for _, res := range report.Results {
		reached.Add(res.Feature)
		if res.Status != StatusApplied {
			dropped.Add(res.Feature)
		}
	}
	for _, id := range features {
		if !reached.Has(id) {
			dropped.Add(id)
		}
	}
	keep := func(id feature.ID) bool { return !dropped.Has(id) }

	rec := recordFor(cfg)
	rec.Addons = []string{}
	for _, id := range addons.Values() {
		if keep(id) {
			rec.Addons = append(rec.Addons, string(id))
		}
	}
	rec.Examples = nil
	for _, id := range cfg.Examples {
		if keep(id) {
			rec.Examples = append(rec.Examples, string(id))
		}
	}
	if !keep(cfg.Auth) {
		rec.Auth = string(feature.None)
	}

	if err := record.Save(o.fs, cfg.ProjectDir, rec); err != nil {
		return nil, err
	}
	return rec.Addons, nil
}

func recordFor(cfg project.Config) *record.Record {
	rec := &record.Record{
		Version:        record.Version,
		ProjectName:    cfg.ProjectName,
		Database:       string(cfg.Database),
		ORM:            string(cfg.ORM),
		Backend:        string(cfg.Backend),
		Runtime:        string(cfg.Runtime),
		Auth:           string(cfg.Auth),
		PackageManager: string(cfg.PackageManager),
		DBSetup:        string(cfg.DBSetup),
		API:            string(cfg.API),
		WebDeploy:      string(cfg.WebDeploy),
	}
	for _, f := range cfg.Frontend {
		rec.Frontend = append(rec.Frontend, string(f))
	}
	return rec
}

func (o *Orchestrator) dirExists(dir string) bool {
	ok, err := afero.DirExists(o.fs, dir)
	return err == nil && ok
}

func (r *Result) addTarget(t TargetResult) {
	for i, cur := range r.Targets {
		if cur.Target == t.Target {
			if t.Status != StatusSkipped {
				r.Targets[i] = t
			}
			return
		}
	}
	r.Targets = append(r.Targets, t)
}

func (r *Result) skipTarget(t Target, reason string) {
	r.addTarget(TargetResult{Target: t, Status: StatusSkipped, Reason: reason})
}

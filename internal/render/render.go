package render

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"github.com/spf13/afero"
)

//go:embed all:templates
var embedded embed.FS

const tmplExt = ".tmpl"

// ErrUnknownSet is returned when a template set does not exist.
var ErrUnknownSet = errors.New("unknown template set")

// Result holds the outcome of rendering one template set.
type Result struct {
	OutputDir string
	// Files lists written paths relative to OutputDir.
	Files []string
	// Kept lists files that already existed and were left untouched.
	Kept []string
}

// Renderer materializes template sets onto a filesystem.
type Renderer struct {
	fs        afero.Fs
	templates fs.FS
}

// New returns a Renderer writing to fsys from the built-in templates.
func New(fsys afero.Fs) *Renderer {
	sub, err := fs.Sub(embedded, "templates")
	if err != nil {
		panic(fmt.Sprintf("render: embedded templates: %v", err))
	}
	return &Renderer{fs: fsys, templates: sub}
}

// NewWithTemplates returns a Renderer reading template sets from templates.
func NewWithTemplates(fsys afero.Fs, templates fs.FS) *Renderer {
	return &Renderer{fs: fsys, templates: templates}
}

// Has reports whether the template set exists.
func (r *Renderer) Has(set string) bool {
	info, err := fs.Stat(r.templates, set)
	return err == nil && info.IsDir()
}

// Render walks the template set and writes it below outputDir. Files ending
// in .tmpl are executed as Go templates with data and lose the extension;
// everything else is copied verbatim. Files that already exist are kept, so
// rendering a set twice is a no-op.
func (r *Renderer) Render(set, outputDir string, data any) (*Result, error) {
	if !r.Has(set) {
		return nil, fmt.Errorf("%w %q", ErrUnknownSet, set)
	}
	if err := r.fs.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	result := &Result{OutputDir: outputDir}
	err := fs.WalkDir(r.templates, set, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		rel := strings.TrimPrefix(p, set+"/")
		outRel := strings.TrimSuffix(rel, tmplExt)
		outPath := filepath.Join(outputDir, filepath.FromSlash(outRel))

		if exists, _ := afero.Exists(r.fs, outPath); exists {
			result.Kept = append(result.Kept, outRel)
			return nil
		}

		content, err := fs.ReadFile(r.templates, p)
		if err != nil {
			return fmt.Errorf("reading template %s: %w", p, err)
		}
		if strings.HasSuffix(rel, tmplExt) {
			content, err = execute(path.Base(p), content, data)
			if err != nil {
				return err
			}
		}

		if err := r.fs.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
			return fmt.Errorf("creating %s: %w", filepath.Dir(outPath), err)
		}
		if err := afero.WriteFile(r.fs, outPath, content, modeFor(outRel)); err != nil {
			return fmt.Errorf("writing %s: %w", outPath, err)
		}
		result.Files = append(result.Files, outRel)
		return nil
	})
	if err != nil {
		return result, err
	}
	return result, nil
}

func execute(name string, content []byte, data any) ([]byte, error) {
	tmpl, err := template.New(name).
		Funcs(sprig.TxtFuncMap()).
		Option("missingkey=error").
		Parse(string(content))
	if err != nil {
		return nil, fmt.Errorf("parsing template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("executing template %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

// Git hooks must be executable.
func modeFor(rel string) fs.FileMode {
	if strings.HasPrefix(rel, ".husky/") {
		return 0755
	}
	return 0644
}

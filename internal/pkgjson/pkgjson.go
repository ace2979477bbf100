// Package pkgjson edits package.json manifests in place. Edits go through
// gjson/sjson so key order and unrelated fields survive; existing dependency
// ranges are never downgraded.
package pkgjson

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/spf13/afero"
	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"
)

const fileName = "package.json"

// ErrUnknownPackage is returned for a package with no pinned version.
var ErrUnknownPackage = errors.New("no version pinned for package")

var prettyOptions = &pretty.Options{Width: 80, Indent: "  "}

// Manifest is a package.json loaded for editing.
type Manifest struct {
	fs   afero.Fs
	path string
	data []byte
}

// Path returns the manifest location inside dir.
func Path(dir string) string {
	return filepath.Join(dir, fileName)
}

// Load reads the manifest in dir. A missing file yields an error matching
// fs.ErrNotExist.
func Load(fsys afero.Fs, dir string) (*Manifest, error) {
	path := Path(dir)
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("no %s in %s: %w", fileName, dir, fs.ErrNotExist)
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("parsing %s: invalid JSON", path)
	}
	return &Manifest{fs: fsys, path: path, data: data}, nil
}

// Create writes a minimal manifest named name into dir, unless one exists.
func Create(fsys afero.Fs, dir, name string) (*Manifest, error) {
	if m, err := Load(fsys, dir); err == nil {
		return m, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	if err := fsys.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating %s: %w", dir, err)
	}
	data, err := sjson.SetBytes([]byte(`{"name":"","version":"0.0.0","private":true}`), "name", name)
	if err != nil {
		return nil, fmt.Errorf("naming manifest: %w", err)
	}
	m := &Manifest{fs: fsys, path: Path(dir), data: data}
	return m, m.Save()
}

// Name returns the package name.
func (m *Manifest) Name() string {
	return gjson.GetBytes(m.data, "name").String()
}

// Dependency returns the declared range of name and the section declaring it.
func (m *Manifest) Dependency(name string) (version, section string, ok bool) {
	for _, s := range []string{"dependencies", "devDependencies"} {
		r := gjson.GetBytes(m.data, s+"."+gjson.Escape(name))
		if r.Exists() {
			return r.String(), s, true
		}
	}
	return "", "", false
}

// HasDependency reports whether name is declared in any section.
func (m *Manifest) HasDependency(name string) bool {
	_, _, ok := m.Dependency(name)
	return ok
}

// Script returns the command of a script.
func (m *Manifest) Script(name string) (string, bool) {
	r := gjson.GetBytes(m.data, "scripts."+gjson.Escape(name))
	return r.String(), r.Exists()
}

// AddDependencies adds each package with its pinned range. A package already
// declared in either section stays where it is and only moves to a newer
// range. It reports the packages that were added or bumped.
func (m *Manifest) AddDependencies(names []string, dev bool) ([]string, error) {
	section := "dependencies"
	if dev {
		section = "devDependencies"
	}

	var changed []string
	for _, name := range names {
		want, ok := versions[name]
		if !ok {
			return changed, fmt.Errorf("%w %q", ErrUnknownPackage, name)
		}

		target := section
		if have, existing, found := m.Dependency(name); found {
			if !isNewer(want, have) {
				continue
			}
			target = existing
		}

		data, err := sjson.SetBytes(m.data, target+"."+gjson.Escape(name), want)
		if err != nil {
			return changed, fmt.Errorf("setting %s.%s: %w", target, name, err)
		}
		m.data = data
		changed = append(changed, name)
	}
	return changed, nil
}

// SetScripts adds scripts that are not defined yet. Existing scripts are kept.
func (m *Manifest) SetScripts(scripts map[string]string, order []string) error {
	for _, name := range order {
		cmd, ok := scripts[name]
		if !ok {
			continue
		}
		if _, exists := m.Script(name); exists {
			continue
		}
		data, err := sjson.SetBytes(m.data, "scripts."+gjson.Escape(name), cmd)
		if err != nil {
			return fmt.Errorf("setting script %s: %w", name, err)
		}
		m.data = data
	}
	return nil
}

// SetRawIfAbsent sets the top-level key to a raw JSON value unless the key is
// already present.
func (m *Manifest) SetRawIfAbsent(key, raw string) error {
	path := gjson.Escape(key)
	if gjson.GetBytes(m.data, path).Exists() {
		return nil
	}
	if !gjson.Valid(raw) {
		return fmt.Errorf("setting %s: invalid JSON value", key)
	}
	data, err := sjson.SetRawBytes(m.data, path, []byte(raw))
	if err != nil {
		return fmt.Errorf("setting %s: %w", path, err)
	}
	m.data = data
	return nil
}

// Bytes returns the formatted manifest.
func (m *Manifest) Bytes() []byte {
	return pretty.PrettyOptions(m.data, prettyOptions)
}

// Save writes the manifest back to disk.
func (m *Manifest) Save() error {
	if err := afero.WriteFile(m.fs, m.path, m.Bytes(), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", m.path, err)
	}
	return nil
}

// Edit is one batch of changes to the manifest in a directory.
type Edit struct {
	Dependencies    []string
	DevDependencies []string
	Scripts         map[string]string
	// ScriptOrder fixes the order in which new scripts are appended.
	ScriptOrder []string
	// Fields holds top-level keys with raw JSON values, set when absent.
	Fields map[string]string
}

// Apply loads the manifest in dir, applies e and saves it. The manifest must
// already exist; a missing one yields an error matching fs.ErrNotExist.
func Apply(fsys afero.Fs, dir string, e Edit) ([]string, error) {
	m, err := Load(fsys, dir)
	if err != nil {
		return nil, err
	}
	changed, err := m.AddDependencies(e.Dependencies, false)
	if err != nil {
		return nil, err
	}
	dev, err := m.AddDependencies(e.DevDependencies, true)
	if err != nil {
		return nil, err
	}
	changed = append(changed, dev...)

	order := e.ScriptOrder
	if order == nil {
		for name := range e.Scripts {
			order = append(order, name)
		}
		sort.Strings(order)
	}
	if err := m.SetScripts(e.Scripts, order); err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := m.SetRawIfAbsent(k, e.Fields[k]); err != nil {
			return nil, err
		}
	}
	if err := m.Save(); err != nil {
		return nil, err
	}
	return changed, nil
}

// isNewer reports whether range want starts above range have. Ranges that do
// not parse as versions (workspace:*, latest, catalog:) are never replaced.
func isNewer(want, have string) bool {
	wv, err := semver.NewVersion(floor(want))
	if err != nil {
		return false
	}
	hv, err := semver.NewVersion(floor(have))
	if err != nil {
		return false
	}
	return wv.GreaterThan(hv)
}

// floor strips the range operator from a simple range like ^1.2.3 or >=1.0.
func floor(r string) string {
	r = strings.TrimSpace(r)
	return strings.TrimLeft(r, "^~>=v ")
}

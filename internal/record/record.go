package record

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
	"go.yaml.in/yaml/v3"

	"github.com/tstack-labs/tstack/internal/branding"
	"github.com/tstack-labs/tstack/internal/orderedset"
)

// Version is written into every new record.
const Version = "1"

// Record is the on-disk project metadata at the project root.
type Record struct {
	Version        string   `yaml:"version"`
	CreatedAt      string   `yaml:"createdAt,omitempty"`
	ProjectName    string   `yaml:"projectName,omitempty"`
	Database       string   `yaml:"database,omitempty"`
	ORM            string   `yaml:"orm,omitempty"`
	Backend        string   `yaml:"backend,omitempty"`
	Runtime        string   `yaml:"runtime,omitempty"`
	Frontend       []string `yaml:"frontend,omitempty"`
	Addons         []string `yaml:"addons"`
	Examples       []string `yaml:"examples,omitempty"`
	Auth           string   `yaml:"auth,omitempty"`
	PackageManager string   `yaml:"packageManager,omitempty"`
	DBSetup        string   `yaml:"dbSetup,omitempty"`
	API            string   `yaml:"api,omitempty"`
	WebDeploy      string   `yaml:"webDeploy,omitempty"`
}

// ErrNotFound is returned by Load when the project has no record file.
var ErrNotFound = errors.New("project record not found")

// Path returns the record file location for a project directory.
func Path(projectDir string) string {
	return filepath.Join(projectDir, branding.RecordFile())
}

// Exists reports whether projectDir carries a record file.
func Exists(fsys afero.Fs, projectDir string) bool {
	ok, err := afero.Exists(fsys, Path(projectDir))
	return err == nil && ok
}

// Load reads and validates the record of projectDir.
func Load(fsys afero.Fs, projectDir string) (*Record, error) {
	path := Path(projectDir)
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w at %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("reading project record: %w", err)
	}

	issues, err := Validate(data)
	if err != nil {
		return nil, fmt.Errorf("validating project record %s: %w", path, err)
	}
	if len(issues) > 0 {
		return nil, &InvalidError{Path: path, Issues: issues}
	}

	var rec Record
	if err := yaml.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("parsing project record: %w", err)
	}
	return &rec, nil
}

// Save writes rec to the record file of projectDir.
func Save(fsys afero.Fs, projectDir string, rec *Record) error {
	if rec.Version == "" {
		rec.Version = Version
	}
	if rec.CreatedAt == "" {
		rec.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}
	if rec.Addons == nil {
		rec.Addons = []string{}
	}

	data, err := yaml.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshaling project record: %w", err)
	}
	if err := afero.WriteFile(fsys, Path(projectDir), data, 0644); err != nil {
		return fmt.Errorf("writing project record: %w", err)
	}
	return nil
}

// MergeAddons unions addons into the persisted record and writes it back.
// Previously recorded addons keep their position; new ones are appended in
// the order given. The persisted list is returned.
func MergeAddons(fsys afero.Fs, projectDir string, addons []string) ([]string, error) {
	rec, err := Load(fsys, projectDir)
	if err != nil {
		return nil, err
	}

	merged := orderedset.New(rec.Addons...)
	merged.Add(addons...)
	merged.Remove("none")
	rec.Addons = merged.Values()

	if err := Save(fsys, projectDir, rec); err != nil {
		return nil, err
	}
	return rec.Addons, nil
}

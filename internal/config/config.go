package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/viper"

	"github.com/tstack-labs/tstack/internal/branding"
	"github.com/tstack-labs/tstack/internal/stack"
)

const (
	fileName = "config"
	fileType = "yaml"
)

// Known keys.
const (
	KeyPackageManager = "package_manager"
	KeyLogLevel       = "log_level"
	KeyInstall        = "install"
	KeyGit            = "git"
)

var validators = map[string]func(string) error{
	KeyPackageManager: func(v string) error {
		_, err := stack.Parse("package manager", v, stack.PackageManagers)
		return err
	},
	KeyLogLevel: func(v string) error {
		switch strings.ToLower(v) {
		case "debug", "info", "warn", "warning", "error":
			return nil
		}
		return fmt.Errorf("invalid log level %q (expected debug, info, warn, or error)", v)
	},
	KeyInstall: validateBool,
	KeyGit:     validateBool,
}

func validateBool(v string) error {
	if _, err := strconv.ParseBool(v); err != nil {
		return fmt.Errorf("invalid boolean %q", v)
	}
	return nil
}

// Keys returns the supported configuration keys in sorted order.
func Keys() []string {
	keys := make([]string, 0, len(validators))
	for k := range validators {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Dir returns the path to the config directory (~/.tstack/).
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", branding.HomeDir())
	}
	return filepath.Join(home, branding.HomeDir())
}

// FilePath returns the full path to the config file (~/.tstack/config.yaml).
func FilePath() string {
	return filepath.Join(Dir(), fileName+"."+fileType)
}

// Store is a user configuration file plus TSTACK_* environment overrides.
type Store struct {
	v    *viper.Viper
	fs   afero.Fs
	path string
}

// New returns a Store for the config file at path on fsys. Nothing is read
// until Load.
func New(fsys afero.Fs, path string) *Store {
	v := viper.New()
	v.SetFs(fsys)
	v.SetConfigFile(path)
	v.SetConfigType(fileType)
	v.SetEnvPrefix(branding.EnvPrefix())
	v.AutomaticEnv()
	return &Store{v: v, fs: fsys, path: path}
}

// Default returns the Store for ~/.tstack/config.yaml on the OS filesystem.
func Default() *Store {
	return New(afero.NewOsFs(), FilePath())
}

// Load reads the config file. A missing file is not an error.
func (s *Store) Load() error {
	exists, err := afero.Exists(s.fs, s.path)
	if err != nil || !exists {
		return nil
	}
	if err := s.v.ReadInConfig(); err != nil {
		return fmt.Errorf("reading config file %s: %w", s.path, err)
	}
	return nil
}

// Get returns a config value by key. Returns empty string if not set.
func (s *Store) Get(key string) string {
	return s.v.GetString(key)
}

// Set validates and writes a config key-value pair and saves the config file.
func (s *Store) Set(key, value string) error {
	validate, ok := validators[key]
	if !ok {
		return fmt.Errorf("unknown config key %q (expected one of %s)", key, strings.Join(Keys(), ", "))
	}
	if err := validate(value); err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := s.fs.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	s.v.Set(key, value)
	if err := s.v.WriteConfigAs(s.path); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// Defaults are the user's preferred values for new projects.
type Defaults struct {
	PackageManager stack.PackageManager
	LogLevel       string
	Install        *bool
	Git            *bool
}

// Defaults returns the configured project defaults. Invalid values are
// ignored rather than failing every command.
func (s *Store) Defaults() Defaults {
	var d Defaults
	if pm, err := stack.Parse("package manager", s.Get(KeyPackageManager), stack.PackageManagers); err == nil {
		d.PackageManager = pm
	}
	d.LogLevel = s.Get(KeyLogLevel)
	d.Install = s.boolPtr(KeyInstall)
	d.Git = s.boolPtr(KeyGit)
	return d
}

func (s *Store) boolPtr(key string) *bool {
	raw := s.Get(key)
	if raw == "" {
		return nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return nil
	}
	return &b
}

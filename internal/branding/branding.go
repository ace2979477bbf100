// Package branding provides compile-time identity values for the CLI.
//
// branding.yaml is embedded with //go:embed so forks can rename the tool,
// its home directory and the project record file without touching code.
package branding

import (
	_ "embed"
	"strings"
	"sync"

	"go.yaml.in/yaml/v3"
)

//go:embed branding.yaml
var rawBranding []byte

var (
	once     sync.Once
	defaults brand
)

type brand struct {
	CLIName     string `yaml:"cli_name"`
	DisplayName string `yaml:"display_name"`
	Description string `yaml:"description"`
	HomeDir     string `yaml:"home_dir"`
	EnvPrefix   string `yaml:"env_prefix"`
	GoModule    string `yaml:"go_module"`
	RecordFile  string `yaml:"record_file"`
}

func load() {
	once.Do(func() {
		// Hard defaults in case the embedded file is missing or empty.
		defaults = brand{
			CLIName:     "tstack",
			DisplayName: "tstack",
			Description: "Scaffold multi-app TypeScript monorepos",
			HomeDir:     ".tstack",
			EnvPrefix:   "TSTACK",
			GoModule:    "github.com/tstack-labs/tstack",
			RecordFile:  "tstack.yaml",
		}
		_ = yaml.Unmarshal(rawBranding, &defaults)
	})
}

// CLIName returns the root command name (e.g., "tstack").
func CLIName() string { load(); return defaults.CLIName }

// DisplayName returns the human-readable product name.
func DisplayName() string { load(); return defaults.DisplayName }

// Description returns the short product description.
func Description() string { load(); return defaults.Description }

// HomeDir returns the dot-directory name under $HOME (e.g., ".tstack").
func HomeDir() string { load(); return defaults.HomeDir }

// EnvPrefix returns the environment variable prefix (e.g., "TSTACK").
func EnvPrefix() string { load(); return defaults.EnvPrefix }

// GoModule returns the Go module path. Not consumed at runtime.
func GoModule() string { load(); return defaults.GoModule }

// RecordFile returns the name of the project record written at the root of
// every generated project (e.g., "tstack.yaml").
func RecordFile() string { load(); return defaults.RecordFile }

// EnvVar returns a fully qualified env var name, e.g., EnvVar("LOG_LEVEL") → "TSTACK_LOG_LEVEL".
func EnvVar(suffix string) string {
	load()
	return defaults.EnvPrefix + "_" + strings.ToUpper(suffix)
}

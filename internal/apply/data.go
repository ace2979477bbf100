package apply

import (
	"github.com/tstack-labs/tstack/internal/branding"
	"github.com/tstack-labs/tstack/internal/project"
	"github.com/tstack-labs/tstack/internal/stack"
)

// TemplateData is what template sets see as their root object.
type TemplateData struct {
	CLIName        string
	ProjectName    string
	PackageManager string
	Runtime        string
	Backend        string
	Database       string
	ORM            string
	API            string
	Auth           string
	Frontend       []string
	Addons         []string
	Examples       []string
	HasWeb         bool
	HasNative      bool
	HasServer      bool
}

// NewTemplateData flattens cfg for templates.
func NewTemplateData(cfg project.Config) TemplateData {
	fe := cfg.Frontends()
	d := TemplateData{
		CLIName:        branding.CLIName(),
		ProjectName:    cfg.ProjectName,
		PackageManager: string(cfg.PackageManager),
		Runtime:        string(cfg.Runtime),
		Backend:        string(cfg.Backend),
		Database:       string(cfg.Database),
		ORM:            string(cfg.ORM),
		API:            string(cfg.API),
		Auth:           string(cfg.Auth),
		HasWeb:         stack.Any(fe, stack.CapWeb),
		HasNative:      stack.Any(fe, stack.CapNative),
		HasServer:      cfg.HasBackend(),
	}
	for _, f := range cfg.Frontend {
		d.Frontend = append(d.Frontend, string(f))
	}
	for _, a := range cfg.Addons {
		d.Addons = append(d.Addons, string(a))
	}
	for _, e := range cfg.Examples {
		d.Examples = append(d.Examples, string(e))
	}
	return d
}

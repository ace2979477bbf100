package apply

import "path/filepath"

// Target is a directory of the generated project that a feature can touch.
type Target string

const (
	TargetWeb     Target = "web"
	TargetServer  Target = "server"
	TargetNative  Target = "native"
	TargetRoot    Target = "root"
	TargetDocs    Target = "docs"
	TargetBackend Target = "backend"
)

// targetOrder is the order in which a feature's targets are reported:
// client apps first, then the project root and shared packages.
var targetOrder = []Target{TargetWeb, TargetServer, TargetNative, TargetRoot, TargetDocs, TargetBackend}

var targetDirs = map[Target]string{
	TargetWeb:     filepath.Join("apps", "web"),
	TargetServer:  filepath.Join("apps", "server"),
	TargetNative:  filepath.Join("apps", "native"),
	TargetRoot:    ".",
	TargetDocs:    filepath.Join("apps", "docs"),
	TargetBackend: filepath.Join("packages", "backend"),
}

// Dir returns the directory of t inside projectDir.
func (t Target) Dir(projectDir string) string {
	return filepath.Join(projectDir, targetDirs[t])
}

func targetRank(t Target) int {
	for i, o := range targetOrder {
		if o == t {
			return i
		}
	}
	return len(targetOrder)
}

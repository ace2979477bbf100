package apply

import (
	"fmt"

	"github.com/tstack-labs/tstack/internal/feature"
	"github.com/tstack-labs/tstack/internal/project"
	"github.com/tstack-labs/tstack/internal/stack"
)

var handlers = map[feature.ID]handler{
	feature.Turborepo: turborepo,
	feature.Moonrepo:  moonrepo,
	feature.PWA:       pwa,
	feature.Tauri:     tauri,
	feature.Biome:     biome,
	feature.Husky:     husky,
	feature.Starlight: starlight,
	feature.Mintlify:  mintlify,

	feature.BetterAuth: betterAuth,
	feature.Clerk:      clerk,
	feature.ConvexAuth: convexAuth,

	feature.Todo:     todo,
	feature.AI:       ai,
	feature.AIAgents: aiAgents,
	feature.Payments: payments,
}

func turborepo(project.Config) Plan {
	return Plan{
		Renders: []RenderStep{{Set: "addons/turborepo", Target: TargetRoot}},
		Manifests: []ManifestStep{
			devDeps(TargetRoot, "turbo"),
			scripts(TargetRoot,
				"dev", "turbo dev",
				"build", "turbo build",
				"check-types", "turbo check-types",
			),
		},
	}
}

func moonrepo(project.Config) Plan {
	return Plan{
		Renders: []RenderStep{{Set: "addons/moonrepo", Target: TargetRoot}},
		Manifests: []ManifestStep{
			devDeps(TargetRoot, "@moonrepo/cli"),
			scripts(TargetRoot,
				"dev", "moon :dev",
				"build", "moon :build",
			),
		},
	}
}

func pwa(cfg project.Config) Plan {
	fe := cfg.Frontends()
	p := Plan{
		Manifests: []ManifestStep{
			devDeps(TargetWeb, "@vite-pwa/assets-generator"),
			scripts(TargetWeb, "generate-pwa-assets", "pwa-assets-generator"),
		},
	}
	if stack.AnyWith(fe, stack.CapWeb, stack.CapVite) {
		p.Renders = append(p.Renders, RenderStep{Set: "addons/pwa", Target: TargetWeb})
		p.Manifests = append(p.Manifests, deps(TargetWeb, "vite-plugin-pwa"))
	}
	return p
}

func tauri(project.Config) Plan {
	return Plan{
		Manifests: []ManifestStep{
			devDeps(TargetWeb, "@tauri-apps/cli"),
			scripts(TargetWeb,
				"tauri", "tauri",
				"desktop:dev", "tauri dev",
				"desktop:build", "tauri build",
			),
		},
	}
}

func biome(project.Config) Plan {
	return Plan{
		Renders: []RenderStep{{Set: "addons/biome", Target: TargetRoot}},
		Manifests: []ManifestStep{
			devDeps(TargetRoot, "@biomejs/biome"),
			scripts(TargetRoot, "check", "biome check --write ."),
		},
	}
}

const lintStaged = `{"*.{js,ts,cjs,mjs,d.cts,d.mts,jsx,tsx,json,jsonc}":["biome check --write ."]}`

func husky(project.Config) Plan {
	hooks := scripts(TargetRoot, "prepare", "husky")
	hooks.Edit.Fields = map[string]string{"lint-staged": lintStaged}
	return Plan{
		Renders: []RenderStep{{Set: "addons/husky", Target: TargetRoot}},
		Manifests: []ManifestStep{
			devDeps(TargetRoot, "husky", "lint-staged"),
			hooks,
		},
	}
}

func starlight(project.Config) Plan {
	docs := deps(TargetDocs, "@astrojs/starlight", "astro", "sharp")
	docs.CreateName = "docs"
	return Plan{
		Renders: []RenderStep{{Set: "addons/starlight", Target: TargetDocs, Create: true}},
		Manifests: []ManifestStep{
			docs,
			scripts(TargetDocs,
				"dev", "astro dev",
				"build", "astro build",
				"preview", "astro preview",
			),
		},
	}
}

func mintlify(cfg project.Config) Plan {
	docs := devDeps(TargetDocs, "mintlify")
	docs.CreateName = "docs"
	return Plan{
		Renders: []RenderStep{{Set: "addons/mintlify", Target: TargetDocs, Create: true}},
		Manifests: []ManifestStep{
			docs,
			scripts(TargetDocs,
				"dev", "mintlify dev",
				"build", "mintlify build",
				"preview", "mintlify preview",
			),
			scripts(TargetRoot,
				"docs:dev", workspaceRun(cfg.PackageManager, "docs", "dev"),
				"docs:build", workspaceRun(cfg.PackageManager, "docs", "build"),
				"docs:preview", workspaceRun(cfg.PackageManager, "docs", "preview"),
			),
		},
	}
}

// workspaceRun returns the command running script in one workspace package.
func workspaceRun(pm stack.PackageManager, pkg, script string) string {
	switch pm {
	case stack.PackageManagerPNPM:
		return fmt.Sprintf("pnpm --filter %s %s", pkg, script)
	case stack.PackageManagerBun:
		return fmt.Sprintf("bun run --filter %s %s", pkg, script)
	default:
		return fmt.Sprintf("npm run %s --workspace %s", script, pkg)
	}
}

func betterAuth(cfg project.Config) Plan {
	if cfg.ManagedBackend() {
		return Plan{Skip: "the convex backend provides its own auth"}
	}
	if !cfg.HasBackend() {
		return Plan{Skip: "requires a server backend"}
	}
	if !cfg.HasDatabase() {
		return Plan{Skip: "requires a database"}
	}
	fe := cfg.Frontends()
	p := Plan{
		Renders:   []RenderStep{{Set: "auth/better-auth/server", Target: TargetServer}},
		Manifests: []ManifestStep{deps(TargetServer, "better-auth")},
		Env: []EnvStep{
			{Target: TargetServer, Key: "BETTER_AUTH_SECRET", Secret: true},
			{Target: TargetServer, Key: "BETTER_AUTH_URL", Value: "http://localhost:3000"},
		},
	}
	if stack.Any(fe, stack.CapWeb) {
		p.Manifests = append(p.Manifests, deps(TargetWeb, "better-auth"))
	}
	if stack.Any(fe, stack.CapNative) {
		p.Manifests = append(p.Manifests,
			deps(TargetNative, "better-auth", "@better-auth/expo"),
			deps(TargetServer, "@better-auth/expo"),
		)
	}
	return p
}

func clerk(cfg project.Config) Plan {
	if cfg.ManagedBackend() {
		return Plan{Skip: "the convex backend provides its own auth"}
	}
	if !cfg.HasBackend() {
		return Plan{Skip: "requires a server backend"}
	}
	if !cfg.HasDatabase() {
		return Plan{Skip: "requires a database"}
	}
	fe := cfg.Frontends()
	p := Plan{
		Renders:   []RenderStep{{Set: "auth/clerk/server", Target: TargetServer}},
		Manifests: []ManifestStep{deps(TargetServer, "@clerk/backend")},
		Env: []EnvStep{
			{Target: TargetServer, Key: "CLERK_SECRET_KEY"},
		},
	}
	switch {
	case fe.Has(stack.FrontendNext):
		p.Manifests = append(p.Manifests, deps(TargetWeb, "@clerk/nextjs", "@clerk/themes"))
	case stack.AnyWith(fe, stack.CapWeb, stack.CapReact):
		p.Manifests = append(p.Manifests, deps(TargetWeb, "@clerk/clerk-react", "@clerk/themes"))
	}
	if stack.Any(fe, stack.CapNative) {
		p.Manifests = append(p.Manifests, deps(TargetNative, "@clerk/clerk-expo"))
	}
	return p
}

func convexAuth(cfg project.Config) Plan {
	if !cfg.ManagedBackend() {
		return Plan{Skip: "requires the convex backend"}
	}
	fe := cfg.Frontends()
	p := Plan{
		Renders:   []RenderStep{{Set: "auth/convex-auth/backend", Target: TargetBackend}},
		Manifests: []ManifestStep{deps(TargetBackend, "@convex-dev/auth")},
	}
	if stack.Any(fe, stack.CapWeb) {
		p.Manifests = append(p.Manifests, deps(TargetWeb, "@convex-dev/auth"))
	}
	if stack.Any(fe, stack.CapNative) {
		p.Manifests = append(p.Manifests,
			deps(TargetNative, "@convex-dev/auth", "@react-native-async-storage/async-storage"))
	}
	return p
}

// exampleSkip returns why an example cannot be applied, or "".
func exampleSkip(cfg project.Config, needsDatabase bool) string {
	if !cfg.HasBackend() {
		return "examples need a server backend"
	}
	if needsDatabase && !cfg.HasDatabase() {
		return "requires a database"
	}
	return ""
}

func todo(cfg project.Config) Plan {
	if reason := exampleSkip(cfg, true); reason != "" {
		return Plan{Skip: reason}
	}
	return Plan{
		Renders: []RenderStep{{Set: "examples/todo/server", Target: TargetServer}},
	}
}

// chatSDK picks the one AI SDK client binding matching the frontend stack.
// Vue and Svelte take precedence over React so a mixed web and native stack
// gets the binding of its web app.
func chatSDK(fe *stack.FrontendSet) (string, bool) {
	switch {
	case stack.Any(fe, stack.CapVue):
		return "@ai-sdk/vue", true
	case stack.Any(fe, stack.CapSvelte):
		return "@ai-sdk/svelte", true
	case stack.Any(fe, stack.CapReact):
		return "@ai-sdk/react", true
	}
	return "", false
}

func chatClient(cfg project.Config) []ManifestStep {
	fe := cfg.Frontends()
	if !stack.Any(fe, stack.CapWeb) {
		return nil
	}
	names := []string{"ai"}
	if sdk, ok := chatSDK(fe); ok {
		names = append(names, sdk)
	}
	return []ManifestStep{deps(TargetWeb, names...)}
}

func ai(cfg project.Config) Plan {
	if reason := exampleSkip(cfg, false); reason != "" {
		return Plan{Skip: reason}
	}
	return Plan{
		Renders: []RenderStep{{Set: "examples/ai/server", Target: TargetServer}},
		Manifests: append(chatClient(cfg),
			deps(TargetServer, "ai", "@ai-sdk/google"),
		),
		Env: []EnvStep{{Target: TargetServer, Key: "GOOGLE_GENERATIVE_AI_API_KEY"}},
	}
}

func aiAgents(cfg project.Config) Plan {
	if reason := exampleSkip(cfg, false); reason != "" {
		return Plan{Skip: reason}
	}
	return Plan{
		Renders: []RenderStep{{Set: "examples/ai-agents/server", Target: TargetServer}},
		Manifests: append(chatClient(cfg),
			deps(TargetServer, "@mastra/core", "@mastra/memory", "@mastra/libsql", "ai", "@ai-sdk/openai", "mathjs", "zod"),
			devDeps(TargetServer, "mastra"),
			scripts(TargetServer, "mastra:dev", "mastra dev"),
		),
		Env: []EnvStep{{Target: TargetServer, Key: "OPENAI_API_KEY"}},
	}
}

func payments(cfg project.Config) Plan {
	if reason := exampleSkip(cfg, true); reason != "" {
		return Plan{Skip: reason}
	}
	p := Plan{
		Renders:   []RenderStep{{Set: "examples/payments/server", Target: TargetServer}},
		Manifests: []ManifestStep{deps(TargetServer, "stripe")},
		Env:       []EnvStep{{Target: TargetServer, Key: "STRIPE_SECRET_KEY"}},
	}
	if stack.AnyWith(cfg.Frontends(), stack.CapWeb, stack.CapReact) {
		p.Manifests = append(p.Manifests, deps(TargetWeb, "@stripe/stripe-js", "@stripe/react-stripe-js"))
	}
	return p
}

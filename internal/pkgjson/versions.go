package pkgjson

// versions pins every package a feature may add to a manifest.
var versions = map[string]string{
	// build systems and tooling
	"turbo":           "^2.5.4",
	"@moonrepo/cli":   "^1.37.3",
	"@biomejs/biome":  "^2.0.0",
	"husky":           "^9.1.7",
	"lint-staged":     "^16.1.2",
	"vite-plugin-pwa": "^1.0.1",
	"@tauri-apps/cli": "^2.4.0",
	"astro":           "^5.10.1",
	"sharp":           "^0.34.2",
	"mintlify":        "^4.0.0",

	"@vite-pwa/assets-generator": "^1.0.0",
	"@astrojs/starlight":         "^0.34.4",

	// auth
	"better-auth":        "^1.2.10",
	"@better-auth/expo":  "^1.2.10",
	"@clerk/backend":     "^1.34.0",
	"@clerk/nextjs":      "^6.23.0",
	"@clerk/clerk-react": "^5.32.0",
	"@clerk/clerk-expo":  "^2.14.0",
	"@clerk/themes":      "^2.2.50",
	"@convex-dev/auth":   "^0.0.87",

	"@react-native-async-storage/async-storage": "2.1.2",

	// examples
	"ai":             "^4.3.16",
	"@ai-sdk/google": "^1.2.3",
	"@ai-sdk/openai": "^1.3.22",
	"@ai-sdk/react":  "^1.2.12",
	"@ai-sdk/vue":    "^1.2.8",
	"@ai-sdk/svelte": "^2.1.9",
	"@mastra/core":   "^0.10.6",
	"@mastra/memory": "^0.10.4",
	"@mastra/libsql": "^0.10.3",
	"mastra":         "^0.10.6",
	"mathjs":         "^14.5.2",
	"zod":            "^3.25.67",
	"stripe":         "^18.2.1",

	"@stripe/stripe-js":       "^7.3.1",
	"@stripe/react-stripe-js": "^3.7.0",
}

// Version returns the pinned version range of name.
func Version(name string) (string, bool) {
	v, ok := versions[name]
	return v, ok
}

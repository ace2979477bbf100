package stack

// Capability is a coarse tag describing what kind of client a frontend is.
// Feature wiring consults tags rather than listing frontends by name.
type Capability string

const (
	// CapWeb marks a browser application living in apps/web.
	CapWeb Capability = "web"
	// CapNative marks an Expo application living in apps/native.
	CapNative Capability = "native"
	// CapReact marks React based clients, web or native.
	CapReact  Capability = "react-family"
	CapVue    Capability = "vue-family"
	CapSvelte Capability = "svelte-family"
	CapSolid  Capability = "solid-family"
	// CapVite marks web apps built with Vite, which the PWA and Tauri addons hook into.
	CapVite Capability = "vite"
)

var capabilities = map[Frontend][]Capability{
	FrontendTanStackRouter:   {CapWeb, CapReact, CapVite},
	FrontendReactRouter:      {CapWeb, CapReact, CapVite},
	FrontendTanStackStart:    {CapWeb, CapReact, CapVite},
	FrontendNext:             {CapWeb, CapReact},
	FrontendNuxt:             {CapWeb, CapVue},
	FrontendSvelte:           {CapWeb, CapSvelte, CapVite},
	FrontendSolid:            {CapWeb, CapSolid, CapVite},
	FrontendNativeNativewind: {CapNative, CapReact},
	FrontendNativeUnistyles:  {CapNative, CapReact},
}

// Classify returns the capability tags of f. Unknown frontends have none.
func Classify(f Frontend) []Capability {
	tags := capabilities[f]
	out := make([]Capability, len(tags))
	copy(out, tags)
	return out
}

// Is reports whether f carries the capability c.
func Is(f Frontend, c Capability) bool {
	for _, tag := range capabilities[f] {
		if tag == c {
			return true
		}
	}
	return false
}

// Any reports whether any member of frontends carries c.
func Any(frontends *FrontendSet, c Capability) bool {
	for _, f := range frontends.Values() {
		if Is(f, c) {
			return true
		}
	}
	return false
}

// AnyWith reports whether a single member of frontends carries every tag in cs.
func AnyWith(frontends *FrontendSet, cs ...Capability) bool {
	for _, f := range frontends.Values() {
		all := true
		for _, c := range cs {
			if !Is(f, c) {
				all = false
				break
			}
		}
		if all {
			return true
		}
	}
	return false
}

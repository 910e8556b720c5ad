package flows

import "scribeflow/internal/fallback"

// Models names the two model tiers the flows are routed to.
type Models struct {
	Flash string
	Pro   string
}

// RouteEntry is the model policy of one flow. Hints maps a caller supplied
// model hint to a model identifier; flows without hints ignore the caller.
type RouteEntry struct {
	Default  string
	Fallback string
	Hints    map[string]string
}

// Routing maps flow names to their model policy.
type Routing map[string]RouteEntry

// DefaultRouting builds the routing table for the given models. Only
// transcribe-audio and generate-comprehensive-note have a fallback; only
// generate-comprehensive-note honours hints.
func DefaultRouting(m Models) Routing {
	r := Routing{}
	for _, spec := range Specs() {
		r[spec.Name] = RouteEntry{Default: m.Flash}
	}
	r[transcribeAudio.Name] = RouteEntry{Default: m.Pro, Fallback: m.Flash}
	r[comprehensiveNote.Name] = RouteEntry{
		Default:  m.Flash,
		Fallback: m.Flash,
		Hints: map[string]string{
			"gemini-1.5-pro":   m.Pro,
			"gemini-1.5-flash": m.Flash,
			m.Pro:              m.Pro,
			m.Flash:            m.Flash,
		},
	}
	return r
}

// Resolve picks the models for one invocation of flow. Unknown hints resolve
// to the default model.
func (r Routing) Resolve(flow, hint string) fallback.Route {
	entry := r[flow]
	primary := entry.Default
	if model, ok := entry.Hints[hint]; ok && hint != "" {
		primary = model
	}
	return fallback.Route{Primary: primary, Fallback: entry.Fallback}
}

package curriculum

// Registry holds the immutable curriculum and certification ladder.
// It is built once at startup and safe for concurrent reads.
type Registry struct {
	modules    map[ModuleID]*Module
	tiers      []Tier
	challenges map[string]struct{}
}

// Lookup returns a module by id
func (r *Registry) Lookup(id ModuleID) (*Module, bool) {
	mod, ok := r.modules[id]
	return mod, ok
}

// LookupKey returns a module by its string key
func (r *Registry) LookupKey(key string) (*Module, bool) {
	id, ok := ParseModuleID(key)
	if !ok {
		return nil, false
	}
	return r.Lookup(id)
}

// Resolve returns the module for key, falling back to the default module
// when the key is unknown. The second result is false on fallback.
func (r *Registry) Resolve(key string) (*Module, bool) {
	if mod, ok := r.LookupKey(key); ok {
		return mod, true
	}
	return r.modules[DefaultModule], false
}

// Modules returns loaded modules in listing order
func (r *Registry) Modules() []*Module {
	result := make([]*Module, 0, len(r.modules))
	for _, id := range moduleOrder {
		if mod, ok := r.modules[id]; ok {
			result = append(result, mod)
		}
	}
	return result
}

// Tiers returns the certification ladder in declaration order
func (r *Registry) Tiers() []Tier {
	return append([]Tier(nil), r.tiers...)
}

// HasChallenge reports whether any tier requires the challenge
func (r *Registry) HasChallenge(id string) bool {
	_, ok := r.challenges[id]
	return ok
}

// ChallengeIDs returns every challenge referenced by the ladder
func (r *Registry) ChallengeIDs() []string {
	ids := make([]string, 0, len(r.challenges))
	for _, t := range r.tiers {
		for _, c := range t.RequiredChallenges {
			ids = append(ids, c)
		}
	}
	return dedupe(ids)
}

package config

import "sort"

// InstrumentConfig is a named question set: the (parameters, elements)
// pair an ordering session is created from. Order matters for both lists —
// parameters highest-priority first, per pkg/ordering's data model.
type InstrumentConfig struct {
	Parameters []string `yaml:"parameters"`
	Elements   []string `yaml:"elements"`
}

// InstrumentRegistry holds the named instruments loaded from YAML. It
// satisfies pkg/session.InstrumentLookup so the session driver can resolve
// a requested instrument name without depending on this package directly.
type InstrumentRegistry struct {
	entries map[string]InstrumentConfig
}

// NewInstrumentRegistry builds a registry from a name → config map. The map
// is copied; later mutation of the argument does not affect the registry.
func NewInstrumentRegistry(instruments map[string]InstrumentConfig) *InstrumentRegistry {
	entries := make(map[string]InstrumentConfig, len(instruments))
	for name, cfg := range instruments {
		entries[name] = cfg
	}
	return &InstrumentRegistry{entries: entries}
}

// Lookup resolves name to its parameter and element lists. Returns ok=false
// if no instrument is registered under that name.
func (r *InstrumentRegistry) Lookup(name string) (parameters, elements []string, ok bool) {
	cfg, found := r.entries[name]
	if !found {
		return nil, nil, false
	}
	return append([]string(nil), cfg.Parameters...), append([]string(nil), cfg.Elements...), true
}

// Get returns the full config for name, for callers (e.g. a future
// instrument-listing endpoint) that need more than Lookup's two slices.
func (r *InstrumentRegistry) Get(name string) (InstrumentConfig, bool) {
	cfg, ok := r.entries[name]
	return cfg, ok
}

// Names returns every registered instrument name, sorted.
func (r *InstrumentRegistry) Names() []string {
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered instruments.
func (r *InstrumentRegistry) Len() int {
	return len(r.entries)
}

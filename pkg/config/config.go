package config

// Config is the umbrella configuration object returned by Initialize and
// used throughout the application.
type Config struct {
	configDir string

	Defaults  *Defaults
	Retention *RetentionConfig

	// DashboardURL is loaded from the system block's dashboard_url. No
	// handler or session response reads it.
	DashboardURL string

	// AllowedWSOrigins restricts the WebSocket upgrade's Origin check.
	// Empty means same-origin only.
	AllowedWSOrigins []string

	InstrumentRegistry *InstrumentRegistry
}

// Initialize is defined in loader.go

// ConfigDir returns the configuration directory path.
func (c *Config) ConfigDir() string {
	return c.configDir
}

// GetInstrument retrieves an instrument configuration by name.
func (c *Config) GetInstrument(name string) (InstrumentConfig, error) {
	cfg, ok := c.InstrumentRegistry.Get(name)
	if !ok {
		return InstrumentConfig{}, ErrInstrumentNotFound
	}
	return cfg, nil
}

package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"
)

// RisklabYAMLConfig represents the complete risklab.yaml file structure.
type RisklabYAMLConfig struct {
	Instruments map[string]InstrumentConfig `yaml:"instruments"`
	Defaults    *Defaults                   `yaml:"defaults"`
	System      *SystemYAMLConfig           `yaml:"system"`
}

// SystemYAMLConfig groups system-wide infrastructure settings.
type SystemYAMLConfig struct {
	DashboardURL     string           `yaml:"dashboard_url"`
	AllowedWSOrigins []string         `yaml:"allowed_ws_origins"`
	Retention        *RetentionConfig `yaml:"retention"`
}

// Initialize loads, validates, and returns ready-to-use configuration. This
// is the primary entry point for configuration loading.
//
// Steps performed:
//  1. Load risklab.yaml from configDir
//  2. Expand environment variables
//  3. Parse YAML into structs
//  4. Build the instrument registry
//  5. Apply default values
//  6. Validate all configuration
//  7. Return Config ready for use
func Initialize(ctx context.Context, configDir string) (*Config, error) {
	log := slog.With("config_dir", configDir)
	log.Info("initializing configuration")

	cfg, err := load(ctx, configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	log.Info("configuration initialized successfully",
		"instruments", cfg.InstrumentRegistry.Len())

	return cfg, nil
}

func load(_ context.Context, configDir string) (*Config, error) {
	loader := &configLoader{configDir: configDir}

	raw, err := loader.loadRisklabYAML()
	if err != nil {
		return nil, NewLoadError("risklab.yaml", err)
	}

	registry := NewInstrumentRegistry(raw.Instruments)

	defaults := raw.Defaults
	if defaults == nil {
		defaults = &Defaults{}
	}

	retention := DefaultRetentionConfig()
	dashboardURL := "http://localhost:5173"
	var allowedWSOrigins []string
	if raw.System != nil {
		if raw.System.DashboardURL != "" {
			dashboardURL = raw.System.DashboardURL
		}
		allowedWSOrigins = raw.System.AllowedWSOrigins
		if raw.System.Retention != nil {
			if err := mergo.Merge(retention, raw.System.Retention, mergo.WithOverride); err != nil {
				return nil, fmt.Errorf("failed to merge retention config: %w", err)
			}
		}
	}

	return &Config{
		configDir:          configDir,
		Defaults:           defaults,
		Retention:          retention,
		DashboardURL:       dashboardURL,
		AllowedWSOrigins:   allowedWSOrigins,
		InstrumentRegistry: registry,
	}, nil
}

// validate performs comprehensive validation on loaded configuration.
func validate(cfg *Config) error {
	if cfg.InstrumentRegistry.Len() == 0 {
		return NewValidationError("instruments", "*", "", fmt.Errorf("%w: no instruments defined", ErrMissingRequiredField))
	}
	for _, name := range cfg.InstrumentRegistry.Names() {
		inst, _ := cfg.InstrumentRegistry.Get(name)
		if len(inst.Parameters) == 0 {
			return NewValidationError("instrument", name, "parameters", fmt.Errorf("%w: at least one parameter required", ErrMissingRequiredField))
		}
		if len(inst.Elements) < 2 {
			return NewValidationError("instrument", name, "elements", fmt.Errorf("%w: at least two elements required", ErrInvalidValue))
		}
	}
	if cfg.Defaults.DefaultInstrument != "" {
		if _, ok := cfg.InstrumentRegistry.Get(cfg.Defaults.DefaultInstrument); !ok {
			return NewValidationError("defaults", "default_instrument", "", fmt.Errorf("%w: %q", ErrInstrumentNotFound, cfg.Defaults.DefaultInstrument))
		}
	}
	return nil
}

type configLoader struct {
	configDir string
}

func (l *configLoader) loadYAML(filename string, target any) error {
	path := filepath.Join(l.configDir, filename)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return err
	}

	// Expand environment variables using {{.VAR}} template syntax. ExpandEnv
	// passes through the original bytes on parse/execution errors, letting
	// the YAML parser fail with a clearer message instead.
	data = ExpandEnv(data)

	if err := yaml.Unmarshal(data, target); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}

	return nil
}

func (l *configLoader) loadRisklabYAML() (*RisklabYAMLConfig, error) {
	var cfg RisklabYAMLConfig
	cfg.Instruments = make(map[string]InstrumentConfig)

	if err := l.loadYAML("risklab.yaml", &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

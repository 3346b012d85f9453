package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Loader handles loading and validation of the sources configuration file
type Loader struct {
	path string
}

// NewLoader creates a new configuration loader
func NewLoader(path string) *Loader {
	return &Loader{path: path}
}

// Load reads and validates the sources file. A missing file surfaces as
// an fs.ErrNotExist-wrapping error so the caller can treat it as an
// empty run rather than a hard failure.
func (l *Loader) Load() (*Config, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read sources file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	l.setDefaults(&config)

	if err := l.validate(&config); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", l.path, err)
	}

	return &config, nil
}

// setDefaults applies default values to configuration
func (l *Loader) setDefaults(config *Config) {
	if config.Defaults.Language == "" {
		config.Defaults.Language = "pt-BR"
	}
	if config.Defaults.Country == "" {
		config.Defaults.Country = "BR"
	}

	for i := range config.Sources {
		if config.Sources[i].Language == "" {
			config.Sources[i].Language = config.Defaults.Language
		}
		if config.Sources[i].Country == "" {
			config.Sources[i].Country = config.Defaults.Country
		}
	}
}

// validate validates the configuration. A source missing its URL or
// query is deliberately accepted here: that condition is recorded as a
// per-source failure during collection instead of aborting the run.
func (l *Loader) validate(config *Config) error {
	if config.MaxItems < 0 {
		return fmt.Errorf("max_items must be non-negative")
	}

	validKinds := map[string]bool{
		KindRSS:              true,
		KindGoogleNewsSearch: true,
	}

	seen := make(map[string]bool)
	for i, source := range config.Sources {
		if source.Name == "" {
			return fmt.Errorf("source at index %d has no name", i)
		}
		if seen[source.Name] {
			return fmt.Errorf("duplicate source name: %s", source.Name)
		}
		seen[source.Name] = true

		if !validKinds[source.Kind] {
			return fmt.Errorf("source %s has invalid kind: %s", source.Name, source.Kind)
		}
	}

	return nil
}

package config

import (
	"fmt"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// LoadAnalysisConfig reads a YAML file over DefaultAnalysisConfig and
// validates the result. Keys missing from the file keep their defaults.
//
// Example:
//
//	min_occurrences: 3
//	time_window_minutes: 30
//	correlation_threshold: 0.6
func LoadAnalysisConfig(filepath string) (*AnalysisConfig, error) {
	k := koanf.New(".")

	if err := k.Load(file.Provider(filepath), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to load analysis config from %q: %w", filepath, err)
	}

	cfg := DefaultAnalysisConfig()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "yaml"}); err != nil {
		return nil, fmt.Errorf("failed to parse analysis config from %q: %w", filepath, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("analysis config validation failed for %q: %w", filepath, err)
	}

	return &cfg, nil
}

// LoadOrDefault loads filepath when set, otherwise returns the defaults.
func LoadOrDefault(filepath string) (*AnalysisConfig, error) {
	if filepath == "" {
		cfg := DefaultAnalysisConfig()
		return &cfg, nil
	}
	return LoadAnalysisConfig(filepath)
}

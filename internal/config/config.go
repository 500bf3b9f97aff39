package config

import (
	"errors"
	"fmt"
	"time"
)

// AnalysisConfig holds every tunable of the analysis engine.
// Zero values are never valid; start from DefaultAnalysisConfig.
type AnalysisConfig struct {
	// MinOccurrences is the smallest cluster (signature or temporal) that is reported.
	MinOccurrences int `yaml:"min_occurrences" json:"min_occurrences"`

	// TimeWindowMinutes is the maximum gap between consecutive members of a temporal cluster.
	TimeWindowMinutes int `yaml:"time_window_minutes" json:"time_window_minutes"`

	// CascadeWindowSeconds bounds how far after a root error a consequent may occur.
	CascadeWindowSeconds int `yaml:"cascade_window_seconds" json:"cascade_window_seconds"`

	// CorrelationWindowSeconds is the pairing window and co-occurrence bucket size.
	CorrelationWindowSeconds int `yaml:"correlation_window_seconds" json:"correlation_window_seconds"`

	// CorrelationThreshold is the strength a temporal correlation must exceed
	// to become a dependency graph edge.
	CorrelationThreshold float64 `yaml:"correlation_threshold" json:"correlation_threshold"`

	// CorrelationConfidenceDivisor scales correlation confidence:
	// min(1, strength * frequency / divisor).
	CorrelationConfidenceDivisor float64 `yaml:"correlation_confidence_divisor" json:"correlation_confidence_divisor"`

	// OverdueProbabilityBoost multiplies the consistency of an overdue prediction.
	OverdueProbabilityBoost float64 `yaml:"overdue_probability_boost" json:"overdue_probability_boost"`

	// RiskThreshold gates recommendations for predictions and warnings.
	RiskThreshold float64 `yaml:"risk_threshold" json:"risk_threshold"`

	// PrimarySymptomCount is k in "top-k nodes by in-degree".
	PrimarySymptomCount int `yaml:"primary_symptom_count" json:"primary_symptom_count"`

	// MinPredictionSamples is the history size required before predicting.
	MinPredictionSamples int `yaml:"min_prediction_samples" json:"min_prediction_samples"`

	// FamilySimilarity is the normalized edit-distance similarity above which
	// two signature templates are listed as related.
	FamilySimilarity float64 `yaml:"family_similarity" json:"family_similarity"`

	// ShardSize splits the input into chunks that are categorized and hashed
	// in parallel. 0 disables sharding.
	ShardSize int `yaml:"shard_size" json:"shard_size"`

	// Workers bounds shard parallelism.
	Workers int `yaml:"workers" json:"workers"`

	// CacheSize bounds the categorization and signature memo caches.
	CacheSize int `yaml:"cache_size" json:"cache_size"`
}

// DefaultAnalysisConfig returns the documented defaults.
func DefaultAnalysisConfig() AnalysisConfig {
	return AnalysisConfig{
		MinOccurrences:               2,
		TimeWindowMinutes:            60,
		CascadeWindowSeconds:         30,
		CorrelationWindowSeconds:     300,
		CorrelationThreshold:         0.7,
		CorrelationConfidenceDivisor: 10,
		OverdueProbabilityBoost:      1.2,
		RiskThreshold:                0.7,
		PrimarySymptomCount:          3,
		MinPredictionSamples:         3,
		FamilySimilarity:             0.7,
		ShardSize:                    0,
		Workers:                      4,
		CacheSize:                    4096,
	}
}

// TimeWindow returns TimeWindowMinutes as a duration.
func (c AnalysisConfig) TimeWindow() time.Duration {
	return time.Duration(c.TimeWindowMinutes) * time.Minute
}

// CascadeWindow returns CascadeWindowSeconds as a duration.
func (c AnalysisConfig) CascadeWindow() time.Duration {
	return time.Duration(c.CascadeWindowSeconds) * time.Second
}

// CorrelationWindow returns CorrelationWindowSeconds as a duration.
func (c AnalysisConfig) CorrelationWindow() time.Duration {
	return time.Duration(c.CorrelationWindowSeconds) * time.Second
}

// Validate checks that the configuration is usable.
func (c *AnalysisConfig) Validate() error {
	if c.MinOccurrences < 1 {
		return NewConfigError("min_occurrences must be at least 1")
	}
	if c.TimeWindowMinutes < 1 {
		return NewConfigError("time_window_minutes must be at least 1")
	}
	if c.CascadeWindowSeconds < 1 {
		return NewConfigError("cascade_window_seconds must be at least 1")
	}
	if c.CorrelationWindowSeconds < 1 {
		return NewConfigError("correlation_window_seconds must be at least 1")
	}
	if err := checkUnit("correlation_threshold", c.CorrelationThreshold); err != nil {
		return err
	}
	if err := checkUnit("risk_threshold", c.RiskThreshold); err != nil {
		return err
	}
	if err := checkUnit("family_similarity", c.FamilySimilarity); err != nil {
		return err
	}
	if c.CorrelationConfidenceDivisor <= 0 {
		return NewConfigError("correlation_confidence_divisor must be positive")
	}
	if c.OverdueProbabilityBoost <= 0 {
		return NewConfigError("overdue_probability_boost must be positive")
	}
	if c.PrimarySymptomCount < 1 {
		return NewConfigError("primary_symptom_count must be at least 1")
	}
	if c.MinPredictionSamples < 3 {
		return NewConfigError("min_prediction_samples must be at least 3")
	}
	if c.ShardSize < 0 {
		return NewConfigError("shard_size must not be negative")
	}
	if c.Workers < 1 {
		return NewConfigError("workers must be at least 1")
	}
	if c.CacheSize < 1 {
		return NewConfigError("cache_size must be at least 1")
	}
	return nil
}

func checkUnit(name string, v float64) error {
	if v < 0 || v > 1 {
		return NewConfigError(fmt.Sprintf("%s must be within [0, 1], got %v", name, v))
	}
	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	message string
}

// NewConfigError creates a new configuration error
func NewConfigError(message string) *ConfigError {
	return &ConfigError{message: message}
}

// Error returns the error message
func (e *ConfigError) Error() string {
	return e.message
}

// IsConfigError reports whether err (or anything it wraps) is a ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

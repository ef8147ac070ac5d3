// Package config handles configuration loading, validation, and
// hot-reloading for entrospect.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"entrospect/internal/verdict"
)

// Version is the current configuration schema version.
const Version = 1

// Config holds the complete engine configuration.
type Config struct {
	// Version is the configuration schema version.
	Version int `toml:"version" json:"version" yaml:"version"`

	// Engine configures sample counts and parallelism.
	Engine EngineConfig `toml:"engine" json:"engine" yaml:"engine"`

	// Thresholds configures the verdict policy.
	Thresholds verdict.Thresholds `toml:"thresholds" json:"thresholds" yaml:"thresholds"`

	// Logging configures structured logging.
	Logging LoggingConfig `toml:"logging" json:"logging" yaml:"logging"`

	// Storage configures the SQLite audit store.
	Storage StorageConfig `toml:"storage" json:"storage" yaml:"storage"`
}

// EngineConfig holds collection and analysis parameters.
type EngineConfig struct {
	// FullScaleSamples is the sample count for the headline
	// entropy measurement.
	FullScaleSamples int `toml:"full_scale_samples" json:"full_scale_samples" yaml:"full_scale_samples"`

	// TrialCount and SamplesPerTrial configure the stability
	// assessment.
	TrialCount      int `toml:"trial_count" json:"trial_count" yaml:"trial_count"`
	SamplesPerTrial int `toml:"samples_per_trial" json:"samples_per_trial" yaml:"samples_per_trial"`

	// Lags is the autocorrelation lag set.
	Lags []int `toml:"lags" json:"lags" yaml:"lags"`

	// CrossCorrSamples is the per-source sample count for the
	// correlation matrix.
	CrossCorrSamples int `toml:"cross_corr_samples" json:"cross_corr_samples" yaml:"cross_corr_samples"`

	// AuditThreshold flags pairs in matrix-wide audits; the
	// per-pair verdict limit lives in Thresholds.
	AuditThreshold float64 `toml:"audit_threshold" json:"audit_threshold" yaml:"audit_threshold"`

	// Workers bounds parallel trial and pair execution. 0 or 1 is
	// sequential.
	Workers int `toml:"workers" json:"workers" yaml:"workers"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level     string `toml:"level" json:"level" yaml:"level"`
	Format    string `toml:"format" json:"format" yaml:"format"`
	Output    string `toml:"output" json:"output" yaml:"output"`
	FilePath  string `toml:"file_path" json:"file_path" yaml:"file_path"`
	MaxSizeMB int64  `toml:"max_size_mb" json:"max_size_mb" yaml:"max_size_mb"`
}

// StorageConfig holds audit persistence configuration.
type StorageConfig struct {
	// Enabled persists audit results when true.
	Enabled bool `toml:"enabled" json:"enabled" yaml:"enabled"`

	// Path is the SQLite database file.
	Path string `toml:"path" json:"path" yaml:"path"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Version: Version,
		Engine: EngineConfig{
			FullScaleSamples: 100000,
			TrialCount:       10,
			SamplesPerTrial:  10000,
			Lags:             []int{1, 2, 3, 4, 5},
			CrossCorrSamples: 5000,
			AuditThreshold:   0.15,
			Workers:          1,
		},
		Thresholds: verdict.DefaultThresholds(),
		Logging: LoggingConfig{
			Level:     "info",
			Format:    "text",
			Output:    "stderr",
			MaxSizeMB: 100,
		},
		Storage: StorageConfig{
			Enabled: false,
			Path:    defaultStoragePath(),
		},
	}
}

func defaultStoragePath() string {
	dir, err := os.UserHomeDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, ".local", "share", "entrospect", "audits.db")
}

// Validation errors.
var (
	ErrBadSampleCount = errors.New("config: sample counts must be positive")
	ErrBadLag         = errors.New("config: lags must be positive")
	ErrBadThreshold   = errors.New("config: thresholds must be non-negative")
)

// Validate checks the configuration for internally consistent values.
func (c *Config) Validate() error {
	e := c.Engine
	if e.FullScaleSamples <= 0 || e.TrialCount <= 0 || e.SamplesPerTrial <= 0 || e.CrossCorrSamples <= 0 {
		return ErrBadSampleCount
	}
	for _, lag := range e.Lags {
		if lag <= 0 {
			return fmt.Errorf("%w: got %d", ErrBadLag, lag)
		}
	}
	t := c.Thresholds
	if t.EntropyFloor < 0 || t.EntropyWeak < 0 || t.StabilityStdDev < 0 ||
		t.MaxAutocorrelation < 0 || t.MaxCrossCorrelation < 0 || e.AuditThreshold < 0 {
		return ErrBadThreshold
	}
	if t.EntropyFloor > t.EntropyWeak {
		return fmt.Errorf("%w: entropy floor %.2f above weak cutoff %.2f",
			ErrBadThreshold, t.EntropyFloor, t.EntropyWeak)
	}
	if _, err := parseLevelName(c.Logging.Level); err != nil {
		return err
	}
	return nil
}

func parseLevelName(s string) (string, error) {
	switch s {
	case "", "debug", "info", "warn", "warning", "error":
		return s, nil
	default:
		return "", fmt.Errorf("config: unknown log level %q", s)
	}
}

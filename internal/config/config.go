package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	RequestTimeout    = 2 * time.Minute
	DefaultMaxRetries = 3
)

// ClassifierOptions defines the configurable rhythm classifier knobs
type ClassifierOptions struct {
	Subdivisions   int     `json:"subdivisions"`
	QuantTolerance float64 `json:"quant_tolerance"`
	MinBeats       int     `json:"min_beats"`
}

// GetDefaultClassifierOptions returns the default classifier knobs
func GetDefaultClassifierOptions() ClassifierOptions {
	return ClassifierOptions{
		Subdivisions:   16,
		QuantTolerance: 0.010,
		MinBeats:       8,
	}
}

// ApplyDefaultClassifierOptions applies default classifier knobs to empty fields
func (cfg *Config) ApplyDefaultClassifierOptions() {
	defaults := GetDefaultClassifierOptions()

	if cfg.Classifier.Subdivisions <= 0 {
		cfg.Classifier.Subdivisions = defaults.Subdivisions
	}
	if cfg.Classifier.QuantTolerance <= 0 {
		cfg.Classifier.QuantTolerance = defaults.QuantTolerance
	}
	if cfg.Classifier.MinBeats <= 0 {
		cfg.Classifier.MinBeats = defaults.MinBeats
	}
}

// Configuration structure
type Config struct {
	MusicBrainzURL      string            `json:"MusicBrainzURL"`
	MusicBrainzContact  string            `json:"MusicBrainzContact"`
	CoverArtArchiveURL  string            `json:"CoverArtArchiveURL"`
	Parallelism         int               `json:"Parallelism"`
	SpotifyClientID     string            `json:"SpotifyClientID"`
	SpotifyClientSecret string            `json:"SpotifyClientSecret"`
	NavidromeURL        string            `json:"NavidromeURL"`
	NavidromeUsername   string            `json:"NavidromeUsername"`
	NavidromePassword   string            `json:"NavidromePassword"`
	EmbedCoverArt       bool              `json:"EmbedCoverArt"`
	WriteSidecars       bool              `json:"WriteSidecars"`
	BackupTags          bool              `json:"BackupTags"`
	MaxRetryAttempts    int               `json:"MaxRetryAttempts"`
	WarningBehavior     string            `json:"WarningBehavior"` // "immediate", "summary", or "silent"
	Classifier          ClassifierOptions `json:"classifier"`
}

// CreateDirIfNotExists creates a directory if it does not exist
func CreateDirIfNotExists(dir string) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return os.MkdirAll(dir, 0755)
	}
	return nil
}

// LoadConfig loads configuration from a JSON file
func LoadConfig(filePath string, config *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := json.Unmarshal(data, config); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return nil
}

// SaveConfig saves configuration to a JSON file
func SaveConfig(filePath string, config *Config) error {
	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	dir := filepath.Dir(filePath)
	if err := CreateDirIfNotExists(dir); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// ApplyDefaults fills in zero-value fields with sensible defaults
func (cfg *Config) ApplyDefaults() {
	if cfg.MusicBrainzURL == "" {
		cfg.MusicBrainzURL = "https://musicbrainz.org/ws/2"
	}
	if cfg.CoverArtArchiveURL == "" {
		cfg.CoverArtArchiveURL = "https://coverartarchive.org"
	}
	if cfg.Parallelism <= 0 {
		cfg.Parallelism = 3
	}
	if cfg.MaxRetryAttempts <= 0 {
		cfg.MaxRetryAttempts = DefaultMaxRetries
	}
	if cfg.WarningBehavior == "" {
		cfg.WarningBehavior = "summary"
	}
	cfg.ApplyDefaultClassifierOptions()
}

// Validate checks the config for values that would break a run
func (cfg *Config) Validate() error {
	switch cfg.WarningBehavior {
	case "immediate", "summary", "silent":
	default:
		return fmt.Errorf("invalid WarningBehavior %q: must be immediate, summary, or silent", cfg.WarningBehavior)
	}
	if cfg.Classifier.Subdivisions <= 0 {
		return fmt.Errorf("classifier subdivisions must be positive, got %d", cfg.Classifier.Subdivisions)
	}
	if cfg.Classifier.QuantTolerance <= 0 {
		return fmt.Errorf("classifier quant_tolerance must be positive, got %g", cfg.Classifier.QuantTolerance)
	}
	if cfg.Classifier.MinBeats < 2 {
		return fmt.Errorf("classifier min_beats must be at least 2, got %d", cfg.Classifier.MinBeats)
	}
	return nil
}

package interfaces

import (
	"context"

	"songshare-analyzer/internal/api/musicbrainz"
	"songshare-analyzer/internal/config"
	"songshare-analyzer/internal/core/analyzer"
	"songshare-analyzer/internal/core/processor"
	"songshare-analyzer/internal/rhythm"
	"songshare-analyzer/internal/shared"
)

// ConfigService defines the interface for configuration management
type ConfigService interface {
	// LoadConfig loads configuration from file
	LoadConfig(configFile string) (*config.Config, error)

	// SaveConfig saves configuration to file
	SaveConfig(configFile string, cfg *config.Config) error

	// ValidateConfig validates configuration settings
	ValidateConfig(cfg *config.Config) error

	// GetDefaultConfig returns a default configuration
	GetDefaultConfig() *config.Config
}

// AnalysisService defines the interface for audio analysis operations
type AnalysisService interface {
	// AnalyzeFile runs the full audio analysis on a file
	AnalyzeFile(path string) (*analyzer.Analysis, error)

	// ClassifyBeats classifies a beat sequence as human or clicktrack
	ClassifyBeats(beats []float64) rhythm.Result

	// LoadSidecar reads a previously written analysis sidecar
	LoadSidecar(audioPath string) (*analyzer.Analysis, error)
}

// EnrichmentService defines the interface for metadata lookups
type EnrichmentService interface {
	// LookupRecording finds the best MusicBrainz match for a track
	LookupRecording(ctx context.Context, title, artist string) (*musicbrainz.RecordingInfo, error)
}

// ProcessService defines the interface for batch processing
type ProcessService interface {
	// DiscoverFiles expands a path into the audio files to process
	DiscoverFiles(path string, recursive bool) ([]string, error)

	// ProcessAll runs the pipeline over the given files
	ProcessAll(ctx context.Context, files []string, opts processor.Options) (*processor.Stats, error)
}

// TagService defines the interface for tag IO
type TagService interface {
	// ReadTags reads a file's tags into the normalized frame map
	ReadTags(path string) (*shared.FileTags, error)

	// ApplyTags writes a proposal under the don't-clobber policy
	ApplyTags(path string, proposed map[string]string, backup bool) (*shared.TagDelta, error)

	// Verify re-reads the file and checks the delta landed
	Verify(path string, delta *shared.TagDelta) error
}

// LoggerService defines the interface for logging operations
type LoggerService interface {
	// Info logs an informational message
	Info(message string, args ...interface{})

	// Warning logs a warning message
	Warning(message string, args ...interface{})

	// Error logs an error message
	Error(message string, args ...interface{})

	// Debug logs a debug message
	Debug(message string, args ...interface{})

	// Success logs a success message
	Success(message string, args ...interface{})

	// SetDebugMode enables or disables debug logging
	SetDebugMode(enabled bool)
}

// WarningCollectorService defines the interface for warning collection
type WarningCollectorService interface {
	// AddWarning adds a warning to the collection
	AddWarning(warningType shared.WarningType, context, message, details string)

	// AddMusicBrainzLookupWarning adds a MusicBrainz lookup warning
	AddMusicBrainzLookupWarning(artist, title, details string)

	// HasWarnings returns true if there are any warnings
	HasWarnings() bool

	// GetWarningCount returns the total number of warnings
	GetWarningCount() int

	// PrintSummary prints a formatted summary of all warnings
	PrintSummary()
}

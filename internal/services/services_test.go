package services

import (
	"testing"

	"songshare-analyzer/internal/config"
)

func TestNewServiceContainer(t *testing.T) {
	cfg := &config.Config{
		MusicBrainzURL:   "https://mb.test/ws/2",
		Parallelism:      3,
		MaxRetryAttempts: 3,
		WarningBehavior:  "summary",
	}
	cfg.ApplyDefaults()

	container := NewServiceContainer(cfg, false)

	if container.Config == nil {
		t.Error("Config service not initialized")
	}
	if container.Analysis == nil {
		t.Error("Analysis service not initialized")
	}
	if container.Enrichment == nil {
		t.Error("Enrichment service not initialized")
	}
	if container.Process == nil {
		t.Error("Process service not initialized")
	}
	if container.Tags == nil {
		t.Error("Tag service not initialized")
	}
	if container.Logger == nil {
		t.Error("Logger service not initialized")
	}
	if container.WarningCollector == nil {
		t.Error("Warning collector not initialized")
	}
	if container.Processor == nil {
		t.Error("Processor not initialized")
	}
}

func TestConfigServiceDefaults(t *testing.T) {
	cs := NewConfigService()

	cfg := cs.GetDefaultConfig()
	if err := cs.ValidateConfig(cfg); err != nil {
		t.Errorf("Default config validation failed: %v", err)
	}
	if cfg.Parallelism <= 0 {
		t.Error("Default config should set a positive parallelism")
	}
	if cfg.Classifier.Subdivisions == 0 {
		t.Error("Default config should set classifier options")
	}
}

func TestAnalysisServiceClassify(t *testing.T) {
	as := NewAnalysisService(config.GetDefaultClassifierOptions())

	beats := make([]float64, 16)
	for i := range beats {
		beats[i] = float64(i) * 0.5
	}
	result := as.ClassifyBeats(beats)
	if result.Label != "clicktrack" {
		t.Errorf("Expected a metronome to classify as clicktrack, got %s", result.Label)
	}

	short := as.ClassifyBeats(beats[:3])
	if short.Label != "uncertain" {
		t.Errorf("Expected too few beats to be uncertain, got %s", short.Label)
	}
}

func TestWarningCollectorService(t *testing.T) {
	cfg := NewConfigService().GetDefaultConfig()
	container := NewServiceContainer(cfg, false)

	if container.WarningCollector.HasWarnings() {
		t.Error("New warning collector should have no warnings")
	}
	container.WarningCollector.AddMusicBrainzLookupWarning("The Wire", "Neon Nights", "timeout")
	if container.WarningCollector.GetWarningCount() != 1 {
		t.Errorf("Expected 1 warning, got %d", container.WarningCollector.GetWarningCount())
	}
}

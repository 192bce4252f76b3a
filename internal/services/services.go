package services

import (
	"context"
	"fmt"

	"songshare-analyzer/internal/api/musicbrainz"
	"songshare-analyzer/internal/config"
	"songshare-analyzer/internal/core/analyzer"
	"songshare-analyzer/internal/core/processor"
	"songshare-analyzer/internal/core/tagger"
	"songshare-analyzer/internal/interfaces"
	"songshare-analyzer/internal/rhythm"
	"songshare-analyzer/internal/shared"
)

// ServiceContainer holds all application services
type ServiceContainer struct {
	Config           interfaces.ConfigService
	Analysis         interfaces.AnalysisService
	Enrichment       interfaces.EnrichmentService
	Process          interfaces.ProcessService
	Tags             interfaces.TagService
	Logger           interfaces.LoggerService
	WarningCollector interfaces.WarningCollectorService
	Processor        *processor.Processor
}

// NewServiceContainer creates a new service container with all services initialized
func NewServiceContainer(cfg *config.Config, debug bool) *ServiceContainer {
	logger := NewConsoleLogger()
	logger.SetDebugMode(debug)

	proc := processor.NewProcessor(cfg, debug)

	return &ServiceContainer{
		Config:           NewConfigService(),
		Analysis:         NewAnalysisService(cfg.Classifier),
		Enrichment:       proc.MB,
		Process:          &processService{proc: proc},
		Tags:             NewTagService(),
		Logger:           logger,
		WarningCollector: proc.Warnings,
		Processor:        proc,
	}
}

// ConfigService implementation
type configService struct{}

func NewConfigService() interfaces.ConfigService {
	return &configService{}
}

func (cs *configService) LoadConfig(configFile string) (*config.Config, error) {
	cfg := &config.Config{}
	if err := config.LoadConfig(configFile, cfg); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	return cfg, nil
}

func (cs *configService) SaveConfig(configFile string, cfg *config.Config) error {
	return config.SaveConfig(configFile, cfg)
}

func (cs *configService) ValidateConfig(cfg *config.Config) error {
	return cfg.Validate()
}

func (cs *configService) GetDefaultConfig() *config.Config {
	cfg := &config.Config{}
	cfg.ApplyDefaults()
	return cfg
}

// AnalysisService implementation
type analysisService struct {
	opts rhythm.Options
}

func NewAnalysisService(opts config.ClassifierOptions) interfaces.AnalysisService {
	return &analysisService{opts: rhythm.Options{
		Subdivisions:   opts.Subdivisions,
		QuantTolerance: opts.QuantTolerance,
		MinBeats:       opts.MinBeats,
	}}
}

func (as *analysisService) AnalyzeFile(path string) (*analyzer.Analysis, error) {
	return analyzer.AnalyzeFile(path, as.opts)
}

func (as *analysisService) ClassifyBeats(beats []float64) rhythm.Result {
	return rhythm.Classify(beats, as.opts)
}

func (as *analysisService) LoadSidecar(audioPath string) (*analyzer.Analysis, error) {
	return analyzer.ReadSidecar(audioPath)
}

// processService adapts the processor to the ProcessService interface
type processService struct {
	proc *processor.Processor
}

func (ps *processService) DiscoverFiles(path string, recursive bool) ([]string, error) {
	return processor.DiscoverFiles(path, recursive)
}

func (ps *processService) ProcessAll(ctx context.Context, files []string, opts processor.Options) (*processor.Stats, error) {
	return ps.proc.ProcessAll(ctx, files, opts)
}

// TagService implementation
type tagService struct{}

func NewTagService() interfaces.TagService {
	return &tagService{}
}

func (ts *tagService) ReadTags(path string) (*shared.FileTags, error) {
	return tagger.ReadTags(path)
}

func (ts *tagService) ApplyTags(path string, proposed map[string]string, backup bool) (*shared.TagDelta, error) {
	return tagger.ApplyTags(path, proposed, backup)
}

func (ts *tagService) Verify(path string, delta *shared.TagDelta) error {
	return tagger.Verify(path, delta)
}

// ConsoleLogger implementation
type ConsoleLogger struct {
	debugMode bool
}

func NewConsoleLogger() *ConsoleLogger {
	return &ConsoleLogger{debugMode: false}
}

func (cl *ConsoleLogger) Info(message string, args ...interface{}) {
	shared.ColorInfo.Printf(message+"\n", args...)
}

func (cl *ConsoleLogger) Warning(message string, args ...interface{}) {
	shared.ColorWarning.Printf("⚠️ "+message+"\n", args...)
}

func (cl *ConsoleLogger) Error(message string, args ...interface{}) {
	shared.ColorError.Printf("❌ "+message+"\n", args...)
}

func (cl *ConsoleLogger) Debug(message string, args ...interface{}) {
	if cl.debugMode {
		fmt.Printf("🐛 DEBUG: "+message+"\n", args...)
	}
}

func (cl *ConsoleLogger) Success(message string, args ...interface{}) {
	shared.ColorSuccess.Printf("✅ "+message+"\n", args...)
}

func (cl *ConsoleLogger) SetDebugMode(enabled bool) {
	cl.debugMode = enabled
}

// Compile-time interface checks
var (
	_ interfaces.EnrichmentService = (*musicbrainz.Client)(nil)
	_ interfaces.LoggerService     = (*ConsoleLogger)(nil)
)
